// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

// Package bg770a provides the command set of the Quectel BG770A LTE-M/NB-IoT
// modem, built on the at package.
//
// Every command returns an at.Result. Arguments are checked before anything
// is written to the modem, and out of range arguments return
// at.ArgumentOutOfRange.
package bg770a

import (
	"time"

	"github.com/warthog618/bg770a/at"
)

//go:generate go tool mockgen -destination=mock_board_test.go -package=bg770a_test . Board

// Board sequences the power and reset lines of the modem.
//
// The sequences differ between board revisions, so the Module is provided
// the appropriate Board at construction.
type Board interface {
	// IsActive returns true if the modem reports that it is powered.
	IsActive() bool

	// PowerOn pulses the power key to turn the modem on.
	PowerOn()

	// PowerOff pulses the power key to turn the modem off.
	PowerOff()

	// Restart restarts a modem that is already active and returns true if it
	// is active afterwards.
	Restart() bool

	// Recover attempts to bring up a modem that did not become active after
	// PowerOn and returns true if it is active afterwards.
	Recover() bool
}

// PowerState is the stage reached by the most recent PowerOn.
type PowerState int

const (
	// Inactive indicates the modem is not powered.
	Inactive PowerState = iota

	// PoweringOn indicates the power sequence is in progress, or failed to
	// activate the modem.
	PoweringOn

	// WaitingAppReady indicates the modem is powered but has not reported
	// APP RDY.
	WaitingAppReady

	// Ready indicates the modem is powered and configured.
	Ready
)

func (s PowerState) String() string {
	switch s {
	case Inactive:
		return "Inactive"
	case PoweringOn:
		return "PoweringOn"
	case WaitingAppReady:
		return "WaitingAppReady"
	case Ready:
		return "Ready"
	}
	return "Unknown"
}

// Module is a BG770A modem.
//
// Like the underlying AT, a Module is not safe for concurrent use.
type Module struct {
	*at.AT
	board Board
	state PowerState

	// socket receive notifications, keyed by connect ID.
	recvNotify map[int]bool

	// handler for +QIURC: "recv", registered on first socket open.
	recvHandle at.Handle
}

// New creates a Module communicating over the transport and powered via the
// board.
func New(t at.Transport, b Board, options ...at.Option) *Module {
	return &Module{
		AT:         at.New(t, options...),
		board:      b,
		recvNotify: make(map[int]bool),
	}
}

// State returns the stage reached by the most recent PowerOn.
func (m *Module) State() PowerState {
	return m.state
}

const appReady = "APP RDY"

// PowerOn powers on the modem, waits up to timeout for it to report APP RDY,
// and configures hardware flow control and sleep mode.
//
// If the modem is already active it is restarted.
//
// Returns at.NotActivate if the modem does not become active, and
// at.RdyTimeout if it does not report APP RDY within the timeout.
func (m *Module) PowerOn(timeout time.Duration) at.Result {
	ready := false
	h := m.RegisterURCHandler(func(line string) bool {
		if line == appReady {
			ready = true
			return true
		}
		return false
	})
	defer m.UnregisterURCHandler(h)

	m.state = PoweringOn
	active := true
	if !m.board.IsActive() {
		m.board.PowerOn()
		if !m.board.IsActive() {
			active = m.board.Recover()
		}
	} else {
		active = m.board.Restart()
	}
	if !active {
		return at.NotActivate
	}
	m.state = WaitingAppReady
	if r := m.waitAppReady(&ready, timeout); r != at.Ok {
		return r
	}
	m.UnregisterURCHandler(h)
	if r := m.ExecuteCommand("AT+IFC=2,2", 300*time.Millisecond); r != at.Ok {
		return r
	}
	if r := m.ExecuteCommand("AT+QSCLK=2", 300*time.Millisecond); r != at.Ok {
		return r
	}
	m.state = Ready
	return at.Ok
}

// waitAppReady processes URCs until ready is set or the timeout expires.
func (m *Module) waitAppReady(ready *bool, timeout time.Duration) at.Result {
	start := time.Now()
	for !*ready {
		m.DoWork(remaining(timeout, start))
		if !*ready && timeout >= 0 && time.Since(start) >= timeout {
			return at.RdyTimeout
		}
	}
	return at.Ok
}

// PowerOff powers off the modem.
func (m *Module) PowerOff() at.Result {
	m.board.PowerOff()
	m.state = Inactive
	return at.Ok
}

func remaining(timeout time.Duration, start time.Time) time.Duration {
	if timeout < 0 {
		return timeout
	}
	r := timeout - time.Since(start)
	if r < 0 {
		return 0
	}
	return r
}
