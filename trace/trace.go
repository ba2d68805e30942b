// SPDX-License-Identifier: MIT
//
// Copyright © 2018 Kent Gibson <warthog618@gmail.com>.

// Package trace provides a decorator for io.ReadWriter that logs all reads
// and writes.
package trace

import (
	"context"
	"encoding/hex"
	"io"
	"log/slog"
	"strconv"
)

// Trace is a trace log on an io.ReadWriter.
//
// All reads and writes are logged, with the data quoted or in hex.
type Trace struct {
	rw    io.ReadWriter
	l     *slog.Logger
	level slog.Level
	hex   bool
}

// Option modifies a Trace object created by New.
type Option func(*Trace)

// New creates a new trace on the io.ReadWriter.
func New(rw io.ReadWriter, options ...Option) *Trace {
	t := &Trace{
		rw:    rw,
		level: slog.LevelDebug,
	}
	for _, option := range options {
		option(t)
	}
	if t.l == nil {
		t.l = slog.Default()
	}
	return t
}

// WithLogger specifies the logger to be used to log trace messages.
//
// By default traces are logged to the slog default logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Trace) {
		t.l = l
	}
}

// WithLevel sets the level of trace messages, by default Debug.
func WithLevel(level slog.Level) Option {
	return func(t *Trace) {
		t.level = level
	}
}

// WithHex logs the data in hex, rather than as a quoted string.
func WithHex() Option {
	return func(t *Trace) {
		t.hex = true
	}
}

func (t *Trace) log(msg string, p []byte) {
	ctx := context.Background()
	if !t.l.Enabled(ctx, t.level) {
		return
	}
	data := strconv.Quote(string(p))
	if t.hex {
		data = hex.EncodeToString(p)
	}
	t.l.LogAttrs(ctx, t.level, msg, slog.Int("len", len(p)), slog.String("data", data))
}

func (t *Trace) Read(p []byte) (n int, err error) {
	n, err = t.rw.Read(p)
	if n > 0 {
		t.log("r", p[:n])
	}
	return n, err
}

func (t *Trace) Write(p []byte) (n int, err error) {
	n, err = t.rw.Write(p)
	if n > 0 {
		t.log("w", p[:n])
	}
	return n, err
}

// Close closes the underlying io.ReadWriter, if it is an io.Closer.
func (t *Trace) Close() error {
	if c, ok := t.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
