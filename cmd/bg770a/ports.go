// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warthog618/bg770a/serial"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List the serial ports available on the host",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := serial.Ports()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, p := range ports {
			mark := " "
			if p == cfg.Port {
				mark = "*"
			}
			fmt.Fprintf(out, "%s %s\n", mark, p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)
}
