// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var smsCmd = &cobra.Command{
	Use:   "sms <number> <message>",
	Short: "Send an SMS message",
	Long: `Sends an SMS message to the number, which should be in international
format. Long messages are sent as a concatenated SMS.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(d *device) error {
			mrs, r := d.SendSMS(args[0], args[1])
			if err := d.check(r, "send sms"); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent, mr %s\n", strings.Join(mrs, ","))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(smsCmd)
}
