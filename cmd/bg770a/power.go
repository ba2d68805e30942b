// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var powerCmd = &cobra.Command{
	Use:   "power",
	Short: "Wait for the modem to start and configure it",
	Long: `Waits for the modem to report APP RDY, then enables hardware flow
control and sleep mode.

The modem must be started or reset externally after the command is run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		if !cmd.Flags().Changed("timeout") {
			timeout = cfg.PowerOnTimeout
		}
		return withDevice(func(d *device) error {
			r := d.PowerOn(timeout)
			fmt.Fprintln(cmd.OutOrStdout(), d.State())
			return d.check(r, "power on")
		})
	},
}

var factoryDefaultCmd = &cobra.Command{
	Use:   "factory-default",
	Short: "Restore the modem configuration to factory defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		if !cmd.Flags().Changed("timeout") {
			timeout = cfg.PowerOnTimeout
		}
		return withDevice(func(d *device) error {
			return d.check(d.FactoryDefault(timeout), "factory default")
		})
	},
}

func init() {
	rootCmd.AddCommand(powerCmd)
	rootCmd.AddCommand(factoryDefaultCmd)
	powerCmd.Flags().DurationP("timeout", "t", 0, "time allowed for the modem to report ready")
	factoryDefaultCmd.Flags().DurationP("timeout", "t", 0, "time allowed for the modem to restart")
}
