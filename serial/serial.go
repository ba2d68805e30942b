// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

// Package serial provides the serial port the modem is attached to.
package serial

import (
	"time"

	"github.com/pkg/errors"
	"github.com/tarm/serial"
	bugst "go.bug.st/serial"
)

// Config is the configuration of a serial port.
type Config struct {
	port        string
	baud        int
	readTimeout time.Duration
}

// Option modifies the Config used by New.
type Option func(*Config)

// WithPort sets the path of the serial device.
func WithPort(port string) Option {
	return func(c *Config) {
		c.port = port
	}
}

// WithBaud sets the baud rate of the port.
func WithBaud(baud int) Option {
	return func(c *Config) {
		c.baud = baud
	}
}

// WithReadTimeout sets the time a read waits for data.
//
// The default is zero, for reads that block until data is available.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.readTimeout = d
	}
}

// New opens the serial port, by default the platform's usual USB serial
// adapter at 115200 baud.
func New(options ...Option) (*serial.Port, error) {
	cfg := defaultConfig
	for _, option := range options {
		option(&cfg)
	}
	config := &serial.Config{Name: cfg.port, Baud: cfg.baud, ReadTimeout: cfg.readTimeout}
	p, err := serial.OpenPort(config)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", cfg.port)
	}
	return p, nil
}

// DefaultPort returns the path of the port opened when none is specified.
func DefaultPort() string {
	return defaultConfig.port
}

// DefaultBaud returns the baud rate used when none is specified.
func DefaultBaud() int {
	return defaultConfig.baud
}

// Ports returns the names of the serial ports available on the host.
func Ports() ([]string, error) {
	ports, err := bugst.GetPortsList()
	if err != nil {
		return nil, errors.Wrap(err, "list ports")
	}
	return ports, nil
}
