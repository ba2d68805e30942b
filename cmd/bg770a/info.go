// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/warthog618/bg770a/at"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display information about the modem and its configuration",
	Long: `Collects and displays information related to the modem, the SIM,
and the current network configuration, which may be useful for debugging.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(d *device) error {
			showInfo(cmd.OutOrStdout(), d)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

// report writes one line of info, or the reason it is unavailable.
func report(w io.Writer, d *device, name string, v any, r at.Result) {
	if err := d.failure(r); err != nil {
		fmt.Fprintf(w, "%-16s %s\n", name+":", err)
		return
	}
	fmt.Fprintf(w, "%-16s %v\n", name+":", v)
}

func showInfo(w io.Writer, d *device) {
	imei, r := d.IMEI()
	report(w, d, "imei", imei, r)
	rev, r := d.ModemInfo()
	report(w, d, "revision", rev, r)
	fun, r := d.PhoneFunctionality()
	report(w, d, "functionality", fun, r)

	state, r := d.SimState()
	report(w, d, "sim", state, r)
	enable, inserted, r := d.SimInsertionStatus()
	report(w, d, "sim inserted", fmt.Sprintf("%d (urc %d)", inserted, enable), r)
	simInit, r := d.SimInitializationStatus()
	report(w, d, "sim init", simInit, r)
	ccid, r := d.SimCCID()
	report(w, d, "iccid", ccid, r)
	imsi, r := d.IMSI()
	report(w, d, "imsi", imsi, r)
	number, r := d.PhoneNumber()
	report(w, d, "number", number, r)

	mode, r := d.SearchAccessTechnology()
	report(w, d, "iotopmode", mode, r)
	seq, r := d.SearchAccessTechnologySequence()
	report(w, d, "nwscanseq", seq, r)
	bands, r := d.SearchFrequencyBand()
	report(w, d, "ltem band", bands.EMTC, r)
	report(w, d, "nbiot band", bands.NBIoT, r)

	reg, r := d.EpsNetworkRegistrationState()
	report(w, d, "registration", reg, r)
	op, r := d.Operator()
	report(w, d, "operator", fmt.Sprintf("%s (mode %d, act %d)", op.Name, op.Mode, op.Act), r)
	rssi, ber, r := d.SignalQuality()
	report(w, d, "signal", fmt.Sprintf("rssi %d, ber %d", rssi, ber), r)
	attached, r := d.PacketDomainState()
	report(w, d, "attached", attached, r)

	contexts, r := d.PdpContexts()
	if r != at.Ok || len(contexts) == 0 {
		report(w, d, "pdp context", "none", r)
	}
	for _, c := range contexts {
		report(w, d, fmt.Sprintf("pdp context %d", c.CID),
			fmt.Sprintf("%s %s %s", c.PdpType, c.APN, c.PdpAddr), at.Ok)
	}
	status, r := d.PdpContextStatus()
	for _, s := range status {
		report(w, d, fmt.Sprintf("pdp active %d", s.CID), s.State, r)
	}
}
