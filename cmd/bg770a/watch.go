// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Display the URCs reported by the modem",
	Long: `Displays the unsolicited result codes reported by the modem, until
interrupted or the period expires.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		period, _ := cmd.Flags().GetDuration("period")
		out := cmd.OutOrStdout()
		return withDevice(func(d *device) error {
			h := d.RegisterURCHandler(func(line string) bool {
				fmt.Fprintf(out, "%s %s\n", time.Now().Format(time.TimeOnly), line)
				return true
			})
			defer d.UnregisterURCHandler(h)
			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigs)
			start := time.Now()
			for period <= 0 || time.Since(start) < period {
				select {
				case <-sigs:
					return nil
				default:
				}
				d.DoWork(100 * time.Millisecond)
				if err := d.uart.Err(); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationP("period", "p", 0, "how long to watch, or forever if zero")
}
