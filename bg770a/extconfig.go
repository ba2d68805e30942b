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

// SearchAccessTechnologySequence returns the network search sequence,
// e.g. "0203" for LTE-M then NB-IoT.
func (m *Module) SearchAccessTechnologySequence() (string, at.Result) {
	var seq string
	r := m.QueryCommand(`AT+QCFG="nwscanseq"`, func(line string) bool {
		params, ok := info.CutParams(line, `+QCFG: "nwscanseq",`)
		if !ok || len(params) != 1 {
			return false
		}
		seq = params[0]
		return true
	}, 300*time.Millisecond)
	return seq, r
}

// SetSearchAccessTechnologySequence sets the network search sequence.
//
// The seq must be one of "00" (automatic), "02" (LTE-M), "0203", "03"
// (NB-IoT) or "0302".
func (m *Module) SetSearchAccessTechnologySequence(seq string) at.Result {
	switch seq {
	case "00", "02", "0203", "03", "0302":
	default:
		return at.ArgumentOutOfRange
	}
	return m.ExecuteCommand(`AT+QCFG="nwscanseq",`+seq, 300*time.Millisecond)
}

// Bands are the frequency band bitmaps searched for each access technology,
// as hex strings.
type Bands struct {
	GSM   string
	EMTC  string
	NBIoT string
}

// SearchFrequencyBand returns the bands searched.
func (m *Module) SearchFrequencyBand() (Bands, at.Result) {
	var b Bands
	r := m.QueryCommand(`AT+QCFG="band"`, func(line string) bool {
		params, ok := info.CutParams(line, `+QCFG: "band",`)
		if !ok || len(params) != 3 {
			return false
		}
		b = Bands{GSM: params[0], EMTC: params[1], NBIoT: params[2]}
		return true
	}, 300*time.Millisecond)
	return b, r
}

// SetSearchFrequencyBand sets the bands searched.
//
// None of the bands may be empty. Use "0x0" for no change.
func (m *Module) SetSearchFrequencyBand(b Bands) at.Result {
	if b.GSM == "" || b.EMTC == "" || b.NBIoT == "" {
		return at.ArgumentOutOfRange
	}
	cmd := fmt.Sprintf(`AT+QCFG="band",%s,%s,%s`, b.GSM, b.EMTC, b.NBIoT)
	return m.ExecuteCommand(cmd, 4500*time.Millisecond)
}

// SearchAccessTechnology returns the network category searched, 0 for LTE-M,
// 1 for NB-IoT, or 2 for both.
func (m *Module) SearchAccessTechnology() (int, at.Result) {
	mode := 0
	r := m.QueryCommand(`AT+QCFG="iotopmode"`, func(line string) bool {
		params, ok := info.CutParams(line, `+QCFG: "iotopmode",`)
		if !ok || len(params) != 1 {
			return false
		}
		return atoi(params, &mode)
	}, 300*time.Millisecond)
	return mode, r
}

// SetSearchAccessTechnology sets the network category searched.
//
// The mode must be in the range 0-2.
func (m *Module) SetSearchAccessTechnology(mode int) at.Result {
	if mode < 0 || mode > 2 {
		return at.ArgumentOutOfRange
	}
	return m.ExecuteCommand(fmt.Sprintf(`AT+QCFG="iotopmode",%d`, mode), 4500*time.Millisecond)
}

// SetPsmEnteringIndicationURC controls the +QPSMTIMER URC reported when the
// modem enters PSM.
func (m *Module) SetPsmEnteringIndicationURC(enable bool) at.Result {
	v := 0
	if enable {
		v = 1
	}
	return m.ExecuteCommand(fmt.Sprintf(`AT+QCFG="psm/urc",%d`, v), 300*time.Millisecond)
}

// SetPsm configures power saving mode.
//
// The mode must be 0 (disable) or 1 (enable).
// The periodicTau (T3412) and activeTau (T3324) are in seconds, and are
// limited to 320 hours and 192 minutes respectively.
func (m *Module) SetPsm(mode, periodicTau, activeTau int) at.Result {
	if mode != 0 && mode != 1 {
		return at.ArgumentOutOfRange
	}
	periodic, active, ok := psmTimers(periodicTau, activeTau)
	if !ok {
		return at.ArgumentOutOfRange
	}
	cmd := fmt.Sprintf(`AT+CPSMS=%d,,,"%s","%s"`, mode, periodic, active)
	return m.ExecuteCommand(cmd, 4*time.Second)
}

// psmTimers encodes the periodic and active timers as 8 bit strings, MSB
// first, with the unit in the top 3 bits and the value in the bottom 5.
//
// The active timer value is always in 2 second units, regardless of the
// unit selected, and is truncated to 8 bits.
func psmTimers(periodicTau, activeTau int) (string, string, bool) {
	if periodicTau < 0 || periodicTau/36000 >= 32 {
		return "", "", false
	}
	if activeTau < 0 || activeTau/360 >= 32 {
		return "", "", false
	}
	var periodic int
	switch {
	case periodicTau/2 < 32: // 2 sec
		periodic = 0b011<<5 | periodicTau/2
	case periodicTau/30 < 32: // 30 sec
		periodic = 0b100<<5 | periodicTau/30
	case periodicTau/60 < 32: // 1 min
		periodic = 0b101<<5 | periodicTau/60
	case periodicTau/600 < 32: // 10 min
		periodic = 0b000<<5 | periodicTau/600
	case periodicTau/3600 < 32: // 1 hour
		periodic = 0b001<<5 | periodicTau/3600
	default: // 10 hour
		periodic = 0b010<<5 | periodicTau/36000
	}
	var active int
	switch {
	case activeTau/2 < 32: // 2 sec
		active = 0b000<<5 | activeTau/2
	case activeTau/60 < 32: // 1 min
		active = 0b001<<5 | activeTau/2
	default: // 6 min
		active = 0b010<<5 | activeTau/2
	}
	return fmt.Sprintf("%08b", periodic&0xff), fmt.Sprintf("%08b", active&0xff), true
}
