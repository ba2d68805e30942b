// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/warthog618/bg770a/bg770a"
)

var tcpCmd = &cobra.Command{
	Use:   "tcp <host> <port> <message>",
	Short: "Send a message to a TCP server and display the reply",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return errors.Wrap(err, "port")
		}
		f := cmd.Flags()
		timeout, _ := f.GetDuration("timeout")
		attachTimeout, _ := f.GetDuration("attach-timeout")
		return withDevice(func(d *device) error {
			n, err := attach(d, attachTimeout)
			if err != nil {
				return err
			}
			defer n.Close()
			nc, _ := cfg.Network()
			reply, err := exchangeTCP(d, nc.PdpContextID, args[0], port, []byte(args[2]), timeout)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", reply)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(tcpCmd)
	tcpCmd.Flags().DurationP("timeout", "t", 10*time.Second, "time allowed for the reply")
	tcpCmd.Flags().Duration("attach-timeout", 3*time.Minute, "time allowed to attach")
}

// exchangeTCP opens a socket to the host, sends the message and returns the
// reply.
func exchangeTCP(d *device, cid int, host string, port int, msg []byte, timeout time.Duration) ([]byte, error) {
	id, r := d.SocketUnusedConnectID(cid)
	if err := d.check(r, "find connect id"); err != nil {
		return nil, err
	}
	if id < 0 {
		return nil, errors.New("no free connect id")
	}
	if err := d.check(d.OpenSocket(cid, id, "TCP", host, port, 0), "open socket"); err != nil {
		return nil, err
	}
	defer func() {
		if err := d.check(d.CloseSocket(id), "close socket"); err != nil {
			logger.Warn("tcp", "err", err)
		}
	}()
	if err := d.check(d.SendSocket(id, msg), "send"); err != nil {
		return nil, err
	}
	buf := make([]byte, bg770a.ReceiveSocketSizeMax)
	n, r := d.ReceiveSocketTimeout(id, buf, timeout)
	if err := d.check(r, "receive"); err != nil {
		return nil, err
	}
	return buf[:n], nil
}
