// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package bg770a

import (
	"fmt"
	"time"

	"github.com/warthog618/bg770a/at"
	"github.com/warthog618/bg770a/info"
)

// PdpContext is a Packet Data Protocol context definition.
type PdpContext struct {
	CID           int
	PdpType       string
	APN           string
	PdpAddr       string
	DComp         int
	HComp         int
	IPv4AddrAlloc int
}

// PdpContextStatus is the activation state of a PDP context.
type PdpContextStatus struct {
	CID   int
	State int
}

// PacketDomainState returns 1 if the modem is attached to the packet domain
// service, else 0.
func (m *Module) PacketDomainState() (int, at.Result) {
	state := 0
	r := m.QueryCommand("AT+CGATT?", func(line string) bool {
		return parseInts(line, "+CGATT", &state)
	}, 140*time.Second)
	return state, r
}

// SetPdpContext defines a PDP context.
func (m *Module) SetPdpContext(c PdpContext) at.Result {
	cmd := fmt.Sprintf("AT+CGDCONT=%d,\"%s\",\"%s\",\"%s\",%d,%d,%d",
		c.CID, c.PdpType, c.APN, c.PdpAddr, c.DComp, c.HComp, c.IPv4AddrAlloc)
	return m.ExecuteCommand(cmd, 300*time.Millisecond)
}

// PdpContexts returns the defined PDP contexts.
func (m *Module) PdpContexts() ([]PdpContext, at.Result) {
	var contexts []PdpContext
	r := m.QueryCommand("AT+CGDCONT?", func(line string) bool {
		params, ok := info.Params(line, "+CGDCONT")
		if !ok || len(params) != 7 {
			return false
		}
		c := PdpContext{PdpType: params[1], APN: params[2], PdpAddr: params[3]}
		if !atoi(params[4:], &c.DComp, &c.HComp, &c.IPv4AddrAlloc) || !atoi(params, &c.CID) {
			return false
		}
		contexts = append(contexts, c)
		return true
	}, 300*time.Millisecond)
	return contexts, r
}

// PdpContextStatus returns the activation state of the defined PDP contexts.
func (m *Module) PdpContextStatus() ([]PdpContextStatus, at.Result) {
	var statuses []PdpContextStatus
	r := m.QueryCommand("AT+CGACT?", func(line string) bool {
		var s PdpContextStatus
		if !parseInts(line, "+CGACT", &s.CID, &s.State) {
			return false
		}
		statuses = append(statuses, s)
		return true
	}, 150*time.Second)
	return statuses, r
}

// SetEpsNetworkRegistrationStatusURC controls the +CEREG URC.
//
// The n must be 0, 1, 2 or 4.
func (m *Module) SetEpsNetworkRegistrationStatusURC(n int) at.Result {
	switch n {
	case 0, 1, 2, 4:
	default:
		return at.ArgumentOutOfRange
	}
	return m.ExecuteCommand(fmt.Sprintf("AT+CEREG=%d", n), 300*time.Millisecond)
}

// EpsNetworkRegistrationState returns the EPS network registration status.
func (m *Module) EpsNetworkRegistrationState() (int, at.Result) {
	state := 0
	r := m.QueryCommand("AT+CEREG?", func(line string) bool {
		params, ok := info.Params(line, "+CEREG")
		if !ok || len(params) < 2 {
			return false
		}
		return atoi(params[1:], &state)
	}, 300*time.Millisecond)
	return state, r
}
