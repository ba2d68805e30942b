// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/warthog618/bg770a/network"
)

var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Configure the network and wait until data can be exchanged",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		return withDevice(func(d *device) error {
			n, err := attach(d, timeout)
			if err != nil {
				return err
			}
			defer n.Close()
			fmt.Fprintln(cmd.OutOrStdout(), n.State())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(attachCmd)
	attachCmd.Flags().DurationP("timeout", "t", 3*time.Minute, "time allowed to attach")
}

// attach brings up the network and waits until the modem can communicate.
//
// The returned Network continues to track the registration state until
// closed.
func attach(d *device, timeout time.Duration) (*network.Network, error) {
	nc, err := cfg.Network()
	if err != nil {
		return nil, err
	}
	n := network.New(d.Module, nc, network.WithAbort(func(err error) {
		logger.Error("network", "err", err)
	}))
	if err := n.Begin(); err != nil {
		n.Close()
		return nil, err
	}
	start := time.Now()
	state := n.State()
	logger.Info("network", "state", state)
	for {
		ok, err := n.CanCommunicate()
		if err != nil {
			n.Close()
			return nil, err
		}
		if ok {
			return n, nil
		}
		if time.Since(start) >= timeout {
			n.Close()
			return nil, errors.Errorf("not attached after %v: %s", timeout, n.State())
		}
		d.DoWork(time.Second)
		if s := n.State(); s != state {
			state = s
			logger.Info("network", "state", state)
		}
	}
}
