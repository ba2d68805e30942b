// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package bg770a

import (
	"fmt"
	"strconv"
	"time"

	"github.com/warthog618/bg770a/at"
	"github.com/warthog618/bg770a/info"
)

// IMEI returns the International Mobile Equipment Identity of the modem.
func (m *Module) IMEI() (string, at.Result) {
	var imei string
	r := m.QueryCommand("AT+GSN", func(line string) bool {
		imei = line
		return true
	}, 300*time.Millisecond)
	return imei, r
}

// ModemInfo returns the firmware revision of the modem.
func (m *Module) ModemInfo() (string, at.Result) {
	var revision string
	r := m.QueryCommand("AT+QGMR", func(line string) bool {
		revision = line
		return true
	}, 300*time.Millisecond)
	return revision, r
}

// FactoryDefault restores the factory configuration, waits up to timeout for
// the modem to report APP RDY, and restores hardware flow control.
func (m *Module) FactoryDefault(timeout time.Duration) at.Result {
	ready := false
	h := m.RegisterURCHandler(func(line string) bool {
		if line == appReady {
			ready = true
			return true
		}
		return false
	})
	defer m.UnregisterURCHandler(h)
	if r := m.ExecuteCommand("AT&F1", 300*time.Millisecond); r != at.Ok {
		return r
	}
	if r := m.waitAppReady(&ready, timeout); r != at.Ok {
		return r
	}
	m.UnregisterURCHandler(h)
	return m.ExecuteCommand("AT+IFC=2,2", 300*time.Millisecond)
}

// PhoneFunctionality returns the current functionality level of the modem.
func (m *Module) PhoneFunctionality() (int, at.Result) {
	fun := 0
	r := m.QueryCommand("AT+CFUN?", func(line string) bool {
		return parseInts(line, "+CFUN", &fun)
	}, 300*time.Millisecond)
	return fun, r
}

// SetPhoneFunctionality sets the functionality level of the modem.
//
// The fun must be 0 (minimum), 1 (full) or 4 (RF disabled).
func (m *Module) SetPhoneFunctionality(fun int) at.Result {
	switch fun {
	case 0, 1, 4:
	default:
		return at.ArgumentOutOfRange
	}
	return m.ExecuteCommand(fmt.Sprintf("AT+CFUN=%d", fun), 15*time.Second)
}

// parseInts parses an info line for the command which contains exactly
// len(v) integer parameters.
func parseInts(line, cmd string, v ...*int) bool {
	params, ok := info.Params(line, cmd)
	if !ok || len(params) != len(v) {
		return false
	}
	return atoi(params, v...)
}

// parseString parses an info line for the command which contains exactly one
// parameter.
func parseString(line, cmd string, s *string) bool {
	params, ok := info.Params(line, cmd)
	if !ok || len(params) != 1 {
		return false
	}
	*s = params[0]
	return true
}

// atoi converts each of params to an int, returning false if any are not
// integers.
func atoi(params []string, v ...*int) bool {
	vals := make([]int, len(v))
	for i := range v {
		n, err := strconv.Atoi(params[i])
		if err != nil {
			return false
		}
		vals[i] = n
	}
	for i, p := range v {
		*p = vals[i]
	}
	return true
}
