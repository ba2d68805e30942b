// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package bg770a

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/warthog618/bg770a/at"
	"github.com/warthog618/bg770a/info"
)

const (
	// ReceiveSocketSizeMax is the largest block read from a socket by a single
	// ReceiveSocket.
	ReceiveSocketSizeMax = 1500

	// MaxConnectID is the largest socket connect ID.
	MaxConnectID = 11

	openTimeout = 150 * time.Second

	// time allowed for the modem to echo socket payload
	payloadEchoTimeout = 10 * time.Second
)

// SocketStatus is the state of a socket as reported by AT+QISTATE.
type SocketStatus struct {
	ConnectID   int
	ServiceType string
	IPAddress   string
	RemotePort  int
	LocalPort   int
	SocketState int
	CID         int
	ServerID    int
	AccessMode  int
	ATPort      string
}

func validCID(cid int) bool {
	return cid >= 1 && cid <= 5
}

func validConnectID(id int) bool {
	return id >= 0 && id <= MaxConnectID
}

func validPort(port int) bool {
	return port >= 0 && port <= 65535
}

// OpenSocket opens a socket on the PDP context and waits for the modem to
// report the outcome.
//
// The cid must be in the range 1-5, the connectID 0-11, and the serviceType
// one of "TCP", "UDP", "TCP LISTENER" or "UDP SERVICE".
//
// Returns at.OpenTimeout if the modem does not report the outcome within 150
// seconds, and at.OpenError if it reports failure.
func (m *Module) OpenSocket(cid, connectID int, serviceType, ipAddress string, remotePort, localPort int) at.Result {
	if !validCID(cid) || !validConnectID(connectID) {
		return at.ArgumentOutOfRange
	}
	switch serviceType {
	case "TCP", "UDP", "TCP LISTENER", "UDP SERVICE":
	default:
		return at.ArgumentOutOfRange
	}
	if ipAddress == "" || !validPort(remotePort) || !validPort(localPort) {
		return at.ArgumentOutOfRange
	}
	m.attachRecvURC()
	m.recvNotify[connectID] = false

	opened := false
	openErr := 0
	prefix := fmt.Sprintf("+QIOPEN: %d,", connectID)
	h := m.RegisterURCHandler(func(line string) bool {
		rest, ok := strings.CutPrefix(line, prefix)
		if !ok {
			return false
		}
		opened = true
		if n, err := strconv.Atoi(rest); err != nil {
			openErr = -1
		} else {
			openErr = n
		}
		return true
	})
	defer m.UnregisterURCHandler(h)

	cmd := fmt.Sprintf("AT+QIOPEN=%d,%d,\"%s\",\"%s\",%d,%d",
		cid, connectID, serviceType, ipAddress, remotePort, localPort)
	if r := m.ExecuteCommand(cmd, 300*time.Millisecond); r != at.Ok {
		return r
	}
	start := time.Now()
	for !opened {
		m.DoWork(remaining(openTimeout, start))
		if !opened && time.Since(start) >= openTimeout {
			return at.OpenTimeout
		}
	}
	if openErr != 0 {
		return at.OpenError
	}
	return at.Ok
}

func (m *Module) attachRecvURC() {
	if m.recvHandle.IsZero() {
		m.recvHandle = m.RegisterURCHandler(m.handleRecvURC)
	}
}

// handleRecvURC flags the socket as having data available.
func (m *Module) handleRecvURC(line string) bool {
	rest, ok := strings.CutPrefix(line, `+QIURC: "recv",`)
	if !ok {
		return false
	}
	id, err := strconv.Atoi(rest)
	if err == nil {
		if _, ok := m.recvNotify[id]; ok {
			m.recvNotify[id] = true
		}
	}
	return true
}

// CloseSocket closes the socket.
func (m *Module) CloseSocket(connectID int) at.Result {
	if !validConnectID(connectID) {
		return at.ArgumentOutOfRange
	}
	if r := m.ExecuteCommand(fmt.Sprintf("AT+QICLOSE=%d", connectID), 11*time.Second); r != at.Ok {
		return r
	}
	delete(m.recvNotify, connectID)
	return at.Ok
}

func (m *Module) querySocketState(cid int, fn func(s SocketStatus)) at.Result {
	return m.QueryCommand(fmt.Sprintf("AT+QISTATE=0,%d", cid), func(line string) bool {
		params, ok := info.Params(line, "+QISTATE")
		if !ok || len(params) != 10 {
			return false
		}
		s := SocketStatus{
			ServiceType: params[1],
			IPAddress:   params[2],
			ATPort:      params[9],
		}
		if !atoi(params, &s.ConnectID) ||
			!atoi(params[3:9], &s.RemotePort, &s.LocalPort, &s.SocketState, &s.CID, &s.ServerID, &s.AccessMode) {
			return false
		}
		fn(s)
		return true
	}, 300*time.Millisecond)
}

// SocketStatus returns the status of the sockets on the PDP context.
func (m *Module) SocketStatus(cid int) ([]SocketStatus, at.Result) {
	if !validCID(cid) {
		return nil, at.ArgumentOutOfRange
	}
	var statuses []SocketStatus
	r := m.querySocketState(cid, func(s SocketStatus) {
		statuses = append(statuses, s)
	})
	return statuses, r
}

// SocketUnusedConnectID returns the lowest connect ID not in use on the PDP
// context, or -1 if all are in use.
func (m *Module) SocketUnusedConnectID(cid int) (int, at.Result) {
	if !validCID(cid) {
		return -1, at.ArgumentOutOfRange
	}
	var used [MaxConnectID + 1]bool
	r := m.querySocketState(cid, func(s SocketStatus) {
		if validConnectID(s.ConnectID) {
			used[s.ConnectID] = true
		}
	})
	if r != at.Ok {
		return -1, r
	}
	for id, u := range used {
		if !u {
			return id, at.Ok
		}
	}
	return -1, at.Ok
}

// SendSocket sends the data on the socket.
//
// Sending no data is a no-op.
func (m *Module) SendSocket(connectID int, data []byte) at.Result {
	if !validConnectID(connectID) {
		return at.ArgumentOutOfRange
	}
	if len(data) == 0 {
		return at.Ok
	}
	return m.SendCommand(fmt.Sprintf("AT+QISEND=%d,%d", connectID, len(data)), func(line string) bool {
		if line != at.Prompt {
			return false
		}
		if m.WriteBinary(data) == nil {
			m.ReadBinaryDiscard(len(data), payloadEchoTimeout)
		}
		return true
	}, 120*time.Second)
}

// SocketReceiveAvailable returns the number of bytes received by the modem
// on the socket and not yet read.
func (m *Module) SocketReceiveAvailable(connectID int) (int, at.Result) {
	if !validConnectID(connectID) {
		return 0, at.ArgumentOutOfRange
	}
	n := 0
	r := m.QueryCommand(fmt.Sprintf("AT+QIRD=%d,0", connectID), func(line string) bool {
		params, ok := info.Params(line, "+QIRD")
		if !ok || len(params) < 3 {
			return false
		}
		return atoi(params[2:], &n)
	}, 120*time.Second)
	return n, r
}

// ReceiveSocket reads data already received by the modem on the socket into
// p, returning the number of bytes read, which may be 0.
//
// At most ReceiveSocketSizeMax bytes are read.
func (m *Module) ReceiveSocket(connectID int, p []byte) (int, at.Result) {
	if !validConnectID(connectID) {
		return 0, at.ArgumentOutOfRange
	}
	if len(p) == 0 {
		return 0, at.Ok
	}
	if len(p) > ReceiveSocketSizeMax {
		p = p[:ReceiveSocketSizeMax]
	}
	m.attachRecvURC()
	m.recvNotify[connectID] = false
	n := 0
	short := false
	r := m.QueryCommand(fmt.Sprintf("AT+QIRD=%d,%d", connectID, len(p)), func(line string) bool {
		params, ok := info.Params(line, "+QIRD")
		if !ok || len(params) < 1 {
			return false
		}
		size, err := strconv.Atoi(params[0])
		if err != nil || size < 0 {
			return false
		}
		if size == 0 {
			return true
		}
		read := min(size, len(p))
		if !m.ReadBinary(p[:read], 120*time.Second) ||
			(size > read && !m.ReadBinaryDiscard(size-read, 120*time.Second)) {
			short = true
			return true
		}
		n = read
		return true
	}, 120*time.Second)
	if r == at.Ok && short {
		return 0, at.ReceiveTimeout
	}
	return n, r
}

// ReceiveSocketTimeout reads data from the socket into p, waiting up to
// timeout for data to arrive.
//
// Returns at.ReceiveTimeout if no data arrives within the timeout.
func (m *Module) ReceiveSocketTimeout(connectID int, p []byte, timeout time.Duration) (int, at.Result) {
	start := time.Now()
	for {
		n, r := m.ReceiveSocket(connectID, p)
		if r != at.Ok || n > 0 || len(p) == 0 {
			return n, r
		}
		for !m.recvNotify[connectID] {
			m.DoWork(remaining(timeout, start))
			if timeout >= 0 && time.Since(start) >= timeout {
				return 0, at.ReceiveTimeout
			}
		}
		// the notification may be set by the query itself
		if timeout >= 0 && time.Since(start) >= timeout {
			return 0, at.ReceiveTimeout
		}
	}
}
