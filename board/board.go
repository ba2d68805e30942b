// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

// Package board provides the power sequencing of the BG770A on the boards
// that carry it.
//
// The board revision is selected once, at startup, with New.
package board

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/warthog618/bg770a/bg770a"
)

// OutputPin is a digital output line.
type OutputPin interface {
	Write(high bool)
}

// InputPin is a digital input line.
type InputPin interface {
	Read() bool
}

// OutputFunc adapts a function to an OutputPin.
type OutputFunc func(high bool)

// Write calls f(high).
func (f OutputFunc) Write(high bool) {
	f(high)
}

// InputFunc adapts a function to an InputPin.
type InputFunc func() bool

// Read returns f().
func (f InputFunc) Read() bool {
	return f()
}

// Pins are the lines between the host and the modem.
//
// ResetN and VsysEnable are only required by the revisions that use them,
// and DTR is optional.
type Pins struct {
	// VddExt is low while the modem is powered.
	VddExt InputPin

	PwrKey     OutputPin
	ResetN     OutputPin
	VsysEnable OutputPin
	DTR        OutputPin
}

// Version identifies a board revision.
type Version int

const (
	// ES2 is the engineering sample board, with an active high PWRKEY and a
	// switchable modem supply.
	ES2 Version = iota

	// V1 is the production board, with an active low PWRKEY and a RESET_N
	// line.
	V1

	// Hosted is a modem attached to a host serial port, with no control
	// lines.
	Hosted
)

func (v Version) String() string {
	switch v {
	case ES2:
		return "es2"
	case V1:
		return "v1"
	case Hosted:
		return "hosted"
	}
	return "unknown"
}

// ParseVersion returns the Version named by s.
func ParseVersion(s string) (Version, error) {
	switch strings.ToLower(s) {
	case "es2":
		return ES2, nil
	case "v1", "1.0":
		return V1, nil
	case "hosted", "":
		return Hosted, nil
	}
	return Hosted, errors.Errorf("unknown board version '%s'", s)
}

const (
	// margin added to each delay
	margin = 2 * time.Millisecond

	pwrKeyOnPulse   = 500*time.Millisecond + margin
	pwrKeyOffPulse  = 650*time.Millisecond + margin
	resetPulse      = 100*time.Millisecond + margin
	vsysOffPeriod   = 100*time.Millisecond + margin
	vsysSettle      = 2*time.Millisecond + margin
	startupActive   = 250*time.Millisecond + margin
	startupPollRate = 10 * time.Millisecond
)

// Option modifies the construction of a board.
type Option func(*base)

// WithSleep replaces the function used to delay between pin transitions.
func WithSleep(sleep func(time.Duration)) Option {
	return func(b *base) {
		b.sleep = sleep
	}
}

// New creates the Board for the revision, and drives its control lines to
// their idle levels.
//
// If the modem is active at startup, New waits briefly for it to become
// inactive, as it does for a period after power is applied.
func New(v Version, pins Pins, options ...Option) (bg770a.Board, error) {
	b := base{pins: pins, sleep: time.Sleep}
	for _, option := range options {
		option(&b)
	}
	switch v {
	case ES2:
		if pins.VddExt == nil || pins.PwrKey == nil || pins.VsysEnable == nil {
			return nil, errors.New("ES2 requires VddExt, PwrKey and VsysEnable pins")
		}
		pins.PwrKey.Write(false)
		b.begin()
		return &ES2Board{b}, nil
	case V1:
		if pins.VddExt == nil || pins.PwrKey == nil {
			return nil, errors.New("V1 requires VddExt and PwrKey pins")
		}
		pins.PwrKey.Write(true)
		if pins.ResetN != nil {
			pins.ResetN.Write(true)
		}
		b.begin()
		return &V1Board{b}, nil
	case Hosted:
		return HostedBoard{}, nil
	}
	return nil, errors.Errorf("unknown board version %d", v)
}

type base struct {
	pins  Pins
	sleep func(time.Duration)
}

func (b *base) begin() {
	if b.pins.DTR != nil {
		b.pins.DTR.Write(false)
	}
	for waited := time.Duration(0); b.IsActive() && waited < startupActive; waited += startupPollRate {
		b.sleep(startupPollRate)
	}
}

// IsActive returns true while VDD_EXT is driven low by the modem.
func (b *base) IsActive() bool {
	return !b.pins.VddExt.Read()
}

// Sleep allows the modem to enter sleep mode by raising DTR.
func (b *base) Sleep() {
	if b.pins.DTR != nil {
		b.pins.DTR.Write(true)
	}
}

// Wakeup wakes the modem from sleep mode by lowering DTR.
func (b *base) Wakeup() {
	if b.pins.DTR != nil {
		b.pins.DTR.Write(false)
	}
}

func (b *base) pulse(p OutputPin, active bool, width time.Duration) {
	p.Write(active)
	b.sleep(width)
	p.Write(!active)
}

// ES2Board sequences the ES2 board.
type ES2Board struct {
	base
}

// PowerOn pulses PWRKEY high.
func (b *ES2Board) PowerOn() {
	b.pulse(b.pins.PwrKey, true, pwrKeyOnPulse)
}

// PowerOff pulses PWRKEY high for longer.
func (b *ES2Board) PowerOff() {
	b.pulse(b.pins.PwrKey, true, pwrKeyOffPulse)
}

// Restart cycles the modem supply and powers it on.
func (b *ES2Board) Restart() bool {
	b.cycleSupply()
	b.PowerOn()
	return b.IsActive()
}

// Recover cycles the modem supply and powers it on.
func (b *ES2Board) Recover() bool {
	return b.Restart()
}

func (b *ES2Board) cycleSupply() {
	b.sleep(vsysSettle)
	b.pulse(b.pins.VsysEnable, false, vsysOffPeriod)
	b.sleep(vsysSettle)
}

// V1Board sequences the production board.
type V1Board struct {
	base
}

// PowerOn pulses PWRKEY low.
func (b *V1Board) PowerOn() {
	b.pulse(b.pins.PwrKey, false, pwrKeyOnPulse)
}

// PowerOff pulses PWRKEY low for longer.
func (b *V1Board) PowerOff() {
	b.pulse(b.pins.PwrKey, false, pwrKeyOffPulse)
}

// Restart pulses RESET_N, if present.
//
// The modem is assumed to remain active.
func (b *V1Board) Restart() bool {
	if b.pins.ResetN != nil {
		b.pulse(b.pins.ResetN, false, resetPulse)
	}
	return true
}

// Recover always fails as the V1 board has no further means to activate the
// modem.
func (b *V1Board) Recover() bool {
	return false
}

// HostedBoard is a modem with no control lines, which is assumed to be
// permanently powered.
type HostedBoard struct{}

// IsActive always returns true.
func (HostedBoard) IsActive() bool { return true }

// PowerOn does nothing.
func (HostedBoard) PowerOn() {}

// PowerOff does nothing.
func (HostedBoard) PowerOff() {}

// Restart does nothing, and reports the modem as active.
func (HostedBoard) Restart() bool { return true }

// Recover always fails.
func (HostedBoard) Recover() bool { return false }

var (
	_ bg770a.Board = (*ES2Board)(nil)
	_ bg770a.Board = (*V1Board)(nil)
	_ bg770a.Board = HostedBoard{}
)
