// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

// bg770a drives a Quectel BG770A modem attached to a serial port.
//
// It provides commands to report the modem and network state, bring up the
// network, exchange data over TCP, send SMS messages and watch the URCs
// reported by the modem, and can serve the modem status and metrics over
// HTTP.
package main

var version = "undefined"

func main() {
	Execute()
}
