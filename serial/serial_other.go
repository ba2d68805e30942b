// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

//go:build !darwin && !linux && !windows

package serial

var defaultConfig = Config{
	port: "/dev/ttyU0",
	baud: 115200,
}
