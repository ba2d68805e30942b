// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package bg770a

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/warthog618/bg770a/at"
	"github.com/warthog618/bg770a/info"
	"github.com/warthog618/sms"
)

// SMS message formats.
const (
	SMSFormatPDU  = 0
	SMSFormatText = 1
)

const smsSubmitTimeout = 120 * time.Second

// SetSMSFormat selects the SMS message format, SMSFormatPDU or
// SMSFormatText.
func (m *Module) SetSMSFormat(format int) at.Result {
	if format != SMSFormatPDU && format != SMSFormatText {
		return at.ArgumentOutOfRange
	}
	return m.ExecuteCommand(fmt.Sprintf("AT+CMGF=%d", format), 300*time.Millisecond)
}

// SendSMS sends an SMS message to the number, in PDU mode.
//
// Long messages are split into multiple concatenated PDUs. The message
// reference (mr) of each PDU is returned on success.
//
// Returns at.ArgumentOutOfRange if the message cannot be encoded for the
// number.
func (m *Module) SendSMS(number, message string) ([]string, at.Result) {
	tpdus, err := sms.Encode([]byte(message), sms.AsSubmit, sms.To(number))
	if err != nil || len(tpdus) == 0 {
		return nil, at.ArgumentOutOfRange
	}
	pdus := make([]string, len(tpdus))
	lens := make([]int, len(tpdus))
	for i, t := range tpdus {
		b, err := t.MarshalBinary()
		if err != nil {
			return nil, at.ArgumentOutOfRange
		}
		// default SMSC
		pdus[i] = strings.ToUpper(hex.EncodeToString(append([]byte{0}, b...)))
		lens[i] = len(b)
	}
	if r := m.SetSMSFormat(SMSFormatPDU); r != at.Ok {
		return nil, r
	}
	mrs := make([]string, 0, len(pdus))
	for i, pdu := range pdus {
		mr, r := m.sendPDU(lens[i], pdu)
		if r != at.Ok {
			return mrs, r
		}
		mrs = append(mrs, mr)
	}
	return mrs, at.Ok
}

func (m *Module) sendPDU(tpduLen int, pdu string) (string, at.Result) {
	var mr string
	r := m.PromptCommand(fmt.Sprintf("AT+CMGS=%d", tpduLen), func(line string) bool {
		switch {
		case line == at.Prompt:
			m.WriteBinary([]byte(pdu + string(rune(at.Sub))))
			return true
		case line == pdu:
			// swallow echoed PDU
			return true
		case info.HasPrefix(line, "+CMGS"):
			mr = info.TrimPrefix(line, "+CMGS")
			return true
		}
		return false
	}, smsSubmitTimeout)
	return mr, r
}
