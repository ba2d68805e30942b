// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/warthog618/bg770a/at"
	"github.com/warthog618/bg770a/bg770a"
	"github.com/warthog618/bg770a/board"
	"github.com/warthog618/bg770a/config"
	"github.com/warthog618/bg770a/serial"
	"github.com/warthog618/bg770a/trace"
	"github.com/warthog618/bg770a/uart"
	"golang.org/x/term"
)

var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "bg770a",
	Short:         "Drive a Quectel BG770A modem",
	Long:          `bg770a drives a Quectel BG770A LTE-M/NB-IoT modem attached to a serial port.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
		applyFlags(cmd)
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger, err = newLogger(cfg, os.Stderr)
		return err
	},
}

// Execute runs the command selected by the command line.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "c", "", "path to the YAML configuration file")
	pf.StringP("port", "d", "", "path to modem device")
	pf.IntP("baud", "b", 0, "baud rate")
	pf.Duration("echo-timeout", 0, "time allowed for the modem to echo a command")
	pf.BoolP("verbose", "v", false, "trace modem interactions")
	pf.String("log-level", "", "log level (debug, info, warn or error)")
}

// applyFlags overrides the loaded configuration with any flags set on the
// command line.
func applyFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("port") {
		cfg.Port, _ = f.GetString("port")
	}
	if f.Changed("baud") {
		cfg.Baud, _ = f.GetInt("baud")
	}
	if f.Changed("echo-timeout") {
		cfg.EchoTimeout, _ = f.GetDuration("echo-timeout")
	}
	if f.Changed("log-level") {
		cfg.Log.Level, _ = f.GetString("log-level")
	}
	if v, _ := f.GetBool("verbose"); v {
		cfg.Trace.Enabled = true
		cfg.Log.Level = "debug"
	}
}

// newLogger creates the logger described by the configuration, writing to w.
func newLogger(c config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := c.Level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}
	format := c.Log.Format
	if format == "auto" {
		format = "json"
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			format = "text"
		}
	}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// device is a modem attached to a serial port.
type device struct {
	port io.Closer
	uart *uart.UART
	*bg770a.Module
}

// openDevice opens the configured serial port and creates a Module on it.
//
// The observers are notified of the modem interactions, in addition to the
// logger.
func openDevice(obs ...at.Observer) (*device, error) {
	// The power and reset lines are only accessible from the modem's own
	// board, so the host can only drive an already powered modem.
	if v := cfg.BoardVersion(); v != board.Hosted {
		return nil, errors.Errorf("board %s is not accessible from the host", v)
	}
	p, err := serial.New(serial.WithPort(cfg.Port), serial.WithBaud(cfg.Baud))
	if err != nil {
		return nil, err
	}
	var rw io.ReadWriter = p
	if cfg.Trace.Enabled {
		opts := []trace.Option{trace.WithLogger(logger.With("port", cfg.Port))}
		if cfg.Trace.Hex {
			opts = append(opts, trace.WithHex())
		}
		rw = trace.New(p, opts...)
	}
	u := uart.New(rw)
	obs = append(obs, at.LogObserver(logger))
	m := bg770a.New(u, board.HostedBoard{},
		at.WithEchoTimeout(cfg.EchoTimeout),
		at.WithObserver(at.Observers(obs...)))
	return &device{port: p, uart: u, Module: m}, nil
}

func (d *device) Close() error {
	return d.port.Close()
}

// failure returns nil if the result is Ok, else an error describing the
// failure, including the error reported by the modem for rejected commands.
func (d *device) failure(r at.Result) error {
	if r == at.CommandRejected {
		if err := d.LastError(); err != nil {
			return errors.Wrap(err, r.String())
		}
	}
	return r.Err()
}

func (d *device) check(r at.Result, msg string) error {
	return errors.Wrap(d.failure(r), msg)
}

// withDevice runs fn on the opened device, closing it afterwards.
func withDevice(fn func(d *device) error) error {
	d, err := openDevice()
	if err != nil {
		return err
	}
	defer d.Close()
	return fn(d)
}
