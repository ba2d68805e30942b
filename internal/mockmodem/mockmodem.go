// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

// Package mockmodem provides a scripted at.Transport for tests.
//
// The Modem does not attempt to emulate a real modem. It accumulates the
// bytes written to it and, whenever they match a key in its command set,
// echoes them and queues the corresponding response for reading.
// An unmatched line, terminated by a carriage return, elicits an ERROR.
package mockmodem

import (
	"sort"
	"sync"
	"time"
)

// Modem is a scripted transport.
type Modem struct {
	mu sync.Mutex

	// responses keyed by the exact bytes written, e.g. "AT+CSQ\r"
	cmdSet map[string][]string

	// one-shot responses, consumed before cmdSet
	queue map[string][][]string

	echo     bool
	silent   bool
	writeErr error

	// bytes written and not yet matched
	pending []byte

	// bytes waiting to be read
	rx []byte

	// all bytes written
	tx []byte

	scheduled []chunk
}

type chunk struct {
	due  time.Time
	data []byte
}

// Option modifies the behaviour of a Modem.
type Option func(*Modem)

// WithoutEcho prevents the Modem echoing commands.
func WithoutEcho() Option {
	return func(m *Modem) {
		m.echo = false
	}
}

// WithSilence prevents the Modem responding at all.
func WithSilence() Option {
	return func(m *Modem) {
		m.silent = true
	}
}

// WithWriteError makes all writes fail with err.
func WithWriteError(err error) Option {
	return func(m *Modem) {
		m.writeErr = err
	}
}

// New creates a Modem that responds to commands per the cmdSet.
func New(cmdSet map[string][]string, options ...Option) *Modem {
	m := &Modem{
		cmdSet: cmdSet,
		queue:  make(map[string][][]string),
		echo:   true,
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// Enqueue adds a one-shot response for the key.
//
// Queued responses are consumed in order before falling back to the command
// set.
func (m *Modem) Enqueue(key string, rsp ...string) {
	m.mu.Lock()
	m.queue[key] = append(m.queue[key], rsp)
	m.mu.Unlock()
}

// Inject makes data immediately available to be read, as if emitted
// unsolicited by the modem.
func (m *Modem) Inject(data string) {
	m.mu.Lock()
	m.rx = append(m.rx, data...)
	m.mu.Unlock()
}

// Schedule makes data available to be read after the delay.
func (m *Modem) Schedule(delay time.Duration, data string) {
	m.mu.Lock()
	m.scheduled = append(m.scheduled, chunk{due: time.Now().Add(delay), data: []byte(data)})
	sort.SliceStable(m.scheduled, func(i, j int) bool {
		return m.scheduled[i].due.Before(m.scheduled[j].due)
	})
	m.mu.Unlock()
}

// Tx returns a copy of all the bytes written to the Modem.
func (m *Modem) Tx() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.tx...)
}

// Pending returns the number of bytes waiting to be read.
func (m *Modem) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rx)
}

// WriteByte accepts a byte written to the modem.
func (m *Modem) WriteByte(b byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.tx = append(m.tx, b)
	m.pending = append(m.pending, b)
	key := string(m.pending)
	if rsp, ok := m.response(key); ok {
		m.reply(rsp)
		return nil
	}
	if b == '\r' {
		m.reply([]string{"\r\nERROR\r\n"})
	}
	return nil
}

func (m *Modem) response(key string) ([]string, bool) {
	if q := m.queue[key]; len(q) > 0 {
		m.queue[key] = q[1:]
		return q[0], true
	}
	rsp, ok := m.cmdSet[key]
	return rsp, ok
}

func (m *Modem) reply(rsp []string) {
	if m.silent {
		m.pending = m.pending[:0]
		return
	}
	if m.echo {
		m.rx = append(m.rx, m.pending...)
	}
	m.pending = m.pending[:0]
	for _, l := range rsp {
		m.rx = append(m.rx, l...)
	}
}

// Read returns the next byte emitted by the modem, if any.
func (m *Modem) Read() (byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promote()
	if len(m.rx) == 0 {
		return 0, false
	}
	b := m.rx[0]
	m.rx = m.rx[1:]
	return b, true
}

// WaitReadAvailable blocks until data is available or the timeout expires.
//
// With a negative timeout and nothing scheduled it returns after a short
// sleep, as a spurious wakeup.
func (m *Modem) WaitReadAvailable(timeout time.Duration) {
	m.mu.Lock()
	m.promote()
	if len(m.rx) > 0 {
		m.mu.Unlock()
		return
	}
	wait := timeout
	if len(m.scheduled) > 0 {
		until := time.Until(m.scheduled[0].due)
		if wait < 0 || until < wait {
			wait = until
		}
	}
	m.mu.Unlock()
	if wait < 0 {
		wait = time.Millisecond
	}
	time.Sleep(wait)
}

// promote moves any scheduled chunks that are due into rx.
func (m *Modem) promote() {
	now := time.Now()
	for len(m.scheduled) > 0 && !m.scheduled[0].due.After(now) {
		m.rx = append(m.rx, m.scheduled[0].data...)
		m.scheduled = m.scheduled[1:]
	}
}
