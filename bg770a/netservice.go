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

// Operator is the network operator selection reported by AT+COPS?.
//
// Fields not reported by the modem are -1, or empty for Name.
type Operator struct {
	Mode   int
	Format int
	Name   string
	Act    int
}

// Operator returns the current network operator.
func (m *Module) Operator() (Operator, at.Result) {
	op := Operator{Mode: -1, Format: -1, Act: -1}
	r := m.QueryCommand("AT+COPS?", func(line string) bool {
		params, ok := info.Params(line, "+COPS")
		if !ok {
			return false
		}
		op = Operator{Mode: -1, Format: -1, Act: -1}
		if len(params) >= 1 {
			atoiOr(params[0], &op.Mode)
		}
		if len(params) >= 2 {
			atoiOr(params[1], &op.Format)
		}
		if len(params) >= 3 {
			op.Name = params[2]
		}
		if len(params) >= 4 {
			atoiOr(params[3], &op.Act)
		}
		return true
	}, 180*time.Second)
	return op, r
}

// atoiOr sets v to the value of s, leaving it unchanged if s is not a number,
// e.g. an empty field.
func atoiOr(s string, v *int) {
	if n, err := strconv.Atoi(s); err == nil {
		*v = n
	}
}

// SignalQuality returns the received signal strength indication and the
// channel bit error rate.
func (m *Module) SignalQuality() (rssi, ber int, r at.Result) {
	r = m.QueryCommand("AT+CSQ", func(line string) bool {
		return parseInts(line, "+CSQ", &rssi, &ber)
	}, 300*time.Millisecond)
	return
}

// SetEdrx configures extended discontinuous reception.
//
// The mode must be in the range 0-3, the actType either 4 (LTE-M) or 5
// (NB-IoT), and the cycle in the range 0-15.
func (m *Module) SetEdrx(mode, actType, cycle int) at.Result {
	if mode < 0 || mode > 3 {
		return at.ArgumentOutOfRange
	}
	if actType != 4 && actType != 5 {
		return at.ArgumentOutOfRange
	}
	if cycle < 0 || cycle > 15 {
		return at.ArgumentOutOfRange
	}
	return m.ExecuteCommand(fmt.Sprintf("AT+CEDRXS=%d,%d,\"%s\"", mode, actType, edrxCycle(cycle)), 300*time.Millisecond)
}

// edrxCycle encodes the cycle as a 4 bit string, MSB first.
func edrxCycle(cycle int) string {
	return fmt.Sprintf("%04b", cycle&0xf)
}

// PhoneNumber returns the subscriber number (MSISDN).
func (m *Module) PhoneNumber() (string, at.Result) {
	var number string
	r := m.QueryCommand("AT+CNUM", func(line string) bool {
		params, ok := info.Params(line, "+CNUM")
		if !ok || len(params) != 3 {
			return false
		}
		number = params[1]
		return true
	}, 300*time.Millisecond)
	return number, r
}
