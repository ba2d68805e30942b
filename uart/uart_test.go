// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package uart_test

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/bg770a/at"
	"github.com/warthog618/bg770a/uart"
)

// port is a loopback port, with reads fed from a pipe.
type port struct {
	io.Reader
	bytes.Buffer
}

func (p *port) Write(b []byte) (int, error) {
	return p.Buffer.Write(b)
}

func (p *port) Read(b []byte) (int, error) {
	return p.Reader.Read(b)
}

func newPort() (*port, *io.PipeWriter) {
	pr, pw := io.Pipe()
	return &port{Reader: pr}, pw
}

func readAll(u *uart.UART) string {
	var b []byte
	for {
		c, ok := u.Read()
		if !ok {
			return string(b)
		}
		b = append(b, c)
	}
}

func TestReceive(t *testing.T) {
	p, pw := newPort()
	u := uart.New(p)
	c, ok := u.Read()
	assert.False(t, ok)
	assert.Zero(t, c)

	go pw.Write([]byte("\r\nOK\r\n"))
	start := time.Now()
	u.WaitReadAvailable(time.Second)
	assert.Less(t, time.Since(start), time.Second)
	// the write may be split
	assert.Eventually(t, func() bool { return u.Buffered() == 6 }, time.Second, time.Millisecond)
	assert.Equal(t, "\r\nOK\r\n", readAll(u))
	assert.Zero(t, u.Buffered())
}

func TestWaitReadAvailableTimeout(t *testing.T) {
	p, _ := newPort()
	u := uart.New(p)
	start := time.Now()
	u.WaitReadAvailable(20 * time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestWaitReadAvailableBuffered(t *testing.T) {
	u := uart.New(nil)
	u.Feed([]byte("ab"))
	// consume the readiness signal
	u.WaitReadAvailable(0)
	c, ok := u.Read()
	require.True(t, ok)
	assert.Equal(t, byte('a'), c)

	// data remains so does not wait
	start := time.Now()
	u.WaitReadAvailable(time.Second)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestWaitReadAvailableForever(t *testing.T) {
	u := uart.New(nil)
	done := make(chan struct{})
	go func() {
		u.WaitReadAvailable(-1)
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("returned without data")
	case <-time.After(20 * time.Millisecond):
	}
	u.Feed([]byte("x"))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("not woken by data")
	}
}

func TestReceiveError(t *testing.T) {
	p, pw := newPort()
	u := uart.New(p)
	pw.Close()
	assert.Eventually(t, func() bool { return u.Err() != nil }, time.Second, time.Millisecond)
	assert.ErrorIs(t, u.Err(), io.EOF)

	// waits out the timeout rather than spinning
	start := time.Now()
	u.WaitReadAvailable(20 * time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	// data fed after the port failed is still available
	u.Feed([]byte("x"))
	start = time.Now()
	u.WaitReadAvailable(-1)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, u.Buffered())
}

func TestDoWorkAfterError(t *testing.T) {
	p, pw := newPort()
	u := uart.New(p)
	pw.Close()
	assert.Eventually(t, func() bool { return u.Err() != nil }, time.Second, time.Millisecond)
	a := at.New(u)
	start := time.Now()
	a.DoWork(30 * time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestWrite(t *testing.T) {
	p, _ := newPort()
	u := uart.New(p)
	require.Nil(t, u.WriteByte('A'))
	n, err := u.Write([]byte("T\r"))
	require.Nil(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "AT\r", p.Buffer.String())

	u = uart.New(nil)
	assert.NotNil(t, u.WriteByte('A'))
}

func TestReceived(t *testing.T) {
	u := uart.New(nil)
	select {
	case <-u.Received():
		t.Fatal("signalled without data")
	default:
	}
	u.Feed([]byte("x"))
	u.Feed([]byte("y"))
	select {
	case <-u.Received():
	default:
		t.Fatal("not signalled")
	}
	// binary, so only signalled once
	select {
	case <-u.Received():
		t.Fatal("signalled twice")
	default:
	}
}

func TestIRQHandler(t *testing.T) {
	u := uart.New(nil)
	uart.IRQHandler([]byte("dropped"))
	assert.Zero(t, u.Buffered())

	uart.Attach(u)
	defer uart.Attach(nil)
	uart.IRQHandler([]byte("\r\nRDY\r\n"))
	assert.Equal(t, "\r\nRDY\r\n", readAll(u))
}

func TestTransport(t *testing.T) {
	u := uart.New(nil)
	var tr at.Transport = u
	a := at.New(tr)
	u.Feed([]byte("\r\n+CEREG: 5\r\n"))
	assert.Equal(t, "+CEREG: 5", a.ReadResponse(time.Second, nil))
}
