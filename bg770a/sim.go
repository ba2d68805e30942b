// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package bg770a

import (
	"time"

	"github.com/warthog618/bg770a/at"
)

// IMSI returns the International Mobile Subscriber Identity of the SIM.
func (m *Module) IMSI() (string, at.Result) {
	var imsi string
	r := m.QueryCommand("AT+CIMI", func(line string) bool {
		imsi = line
		return true
	}, 300*time.Millisecond)
	return imsi, r
}

// SimState returns the PIN state of the SIM, e.g. "READY".
func (m *Module) SimState() (string, at.Result) {
	var state string
	r := m.QueryCommand("AT+CPIN?", func(line string) bool {
		return parseString(line, "+CPIN", &state)
	}, 5*time.Second)
	return state, r
}

// SimCCID returns the Integrated Circuit Card Identifier of the SIM.
func (m *Module) SimCCID() (string, at.Result) {
	var iccid string
	r := m.QueryCommand("AT+QCCID", func(line string) bool {
		return parseString(line, "+QCCID", &iccid)
	}, 300*time.Millisecond)
	return iccid, r
}

// SimInitializationStatus returns the SIM initialization status bitmap.
func (m *Module) SimInitializationStatus() (int, at.Result) {
	status := 0
	r := m.QueryCommand("AT+QINISTAT", func(line string) bool {
		return parseInts(line, "+QINISTAT", &status)
	}, 300*time.Millisecond)
	return status, r
}

// SimInsertionStatus returns whether SIM insertion reporting is enabled, and
// whether the SIM is inserted.
func (m *Module) SimInsertionStatus() (enable, status int, r at.Result) {
	r = m.QueryCommand("AT+QSIMSTAT?", func(line string) bool {
		return parseInts(line, "+QSIMSTAT", &enable, &status)
	}, 300*time.Millisecond)
	return
}
