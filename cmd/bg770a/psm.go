// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"time"

	"github.com/spf13/cobra"
)

var psmCmd = &cobra.Command{
	Use:   "psm",
	Short: "Configure power saving mode",
	Long: `Enables power saving mode with the requested periodic TAU (T3412) and
active time (T3324), or disables it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		disable, _ := f.GetBool("disable")
		periodic, _ := f.GetDuration("periodic-tau")
		active, _ := f.GetDuration("active-tau")
		urc, _ := f.GetBool("urc")
		mode := 1
		if disable {
			mode = 0
		}
		return withDevice(func(d *device) error {
			r := d.SetPsm(mode, int(periodic/time.Second), int(active/time.Second))
			if err := d.check(r, "set psm"); err != nil {
				return err
			}
			return d.check(d.SetPsmEnteringIndicationURC(urc), "set psm urc")
		})
	},
}

var edrxCmd = &cobra.Command{
	Use:   "edrx",
	Short: "Configure extended discontinuous reception",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		mode, _ := f.GetInt("mode")
		act, _ := f.GetInt("act")
		cycle, _ := f.GetInt("cycle")
		return withDevice(func(d *device) error {
			return d.check(d.SetEdrx(mode, act, cycle), "set edrx")
		})
	},
}

func init() {
	rootCmd.AddCommand(psmCmd)
	rootCmd.AddCommand(edrxCmd)
	psmCmd.Flags().Bool("disable", false, "disable power saving mode")
	psmCmd.Flags().Duration("periodic-tau", time.Hour, "requested periodic TAU")
	psmCmd.Flags().Duration("active-tau", time.Minute, "requested active time")
	psmCmd.Flags().Bool("urc", false, "report entry into PSM")
	edrxCmd.Flags().Int("mode", 1, "0 disable, 1 enable, 2 enable with URC, 3 disable and reset")
	edrxCmd.Flags().Int("act", 4, "access technology, 4 for LTE-M or 5 for NB-IoT")
	edrxCmd.Flags().Int("cycle", 5, "requested eDRX cycle, 0-15")
}
