// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

// Package uart provides an at.Transport over a byte stream, such as a serial
// port.
//
// Received bytes are buffered by a receive goroutine, so reads by the AT
// engine never block.
package uart

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// UART buffers data received from a port.
type UART struct {
	port io.ReadWriter

	mu sync.Mutex
	rx []byte
	// receive error, if the receive goroutine has exited
	err error

	// binary semaphores given on each receive
	ready  chan struct{}
	notify chan struct{}
}

// New creates a UART on the port.
//
// If the port is not nil a goroutine is started to receive from it until it
// returns an error. A nil port is write-only and must be fed with Feed or
// IRQHandler.
func New(port io.ReadWriter) *UART {
	u := &UART{
		port:   port,
		ready:  make(chan struct{}, 1),
		notify: make(chan struct{}, 1),
	}
	if port != nil {
		go u.receive()
	}
	return u
}

func (u *UART) receive() {
	buf := make([]byte, 256)
	for {
		n, err := u.port.Read(buf)
		if n > 0 {
			u.Feed(buf[:n])
		}
		if err != nil {
			u.mu.Lock()
			u.err = errors.Wrap(err, "receive")
			u.mu.Unlock()
			return
		}
	}
}

// Feed adds data to the receive buffer and wakes any waiting reader.
func (u *UART) Feed(p []byte) {
	if len(p) == 0 {
		return
	}
	u.mu.Lock()
	u.rx = append(u.rx, p...)
	u.mu.Unlock()
	give(u.ready)
	give(u.notify)
}

func give(sem chan struct{}) {
	select {
	case sem <- struct{}{}:
	default:
	}
}

// Read returns the next received byte, if any.
func (u *UART) Read() (byte, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.rx) == 0 {
		return 0, false
	}
	b := u.rx[0]
	u.rx = u.rx[1:]
	return b, true
}

// Buffered returns the number of received bytes not yet read.
func (u *UART) Buffered() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.rx)
}

// WaitReadAvailable blocks until data is received or the timeout expires.
//
// A negative timeout waits indefinitely. Returns immediately if data is
// already buffered.
//
// The wait continues to run to the timeout after the receive goroutine has
// exited, so callers polling the modem do not spin. Check Err to detect
// a failed port.
func (u *UART) WaitReadAvailable(timeout time.Duration) {
	if u.Buffered() > 0 {
		return
	}
	if timeout < 0 {
		<-u.ready
		return
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-u.ready:
	case <-t.C:
	}
}

// Received returns a channel that is signalled when data is received.
//
// It is independent of the readiness signal used by WaitReadAvailable, so
// may be used to wake a goroutine that polls the modem.
func (u *UART) Received() <-chan struct{} {
	return u.notify
}

// WriteByte writes a byte to the port.
func (u *UART) WriteByte(b byte) error {
	_, err := u.Write([]byte{b})
	return err
}

// Write writes the data to the port.
func (u *UART) Write(p []byte) (int, error) {
	if u.port == nil {
		return 0, errors.New("uart has no port")
	}
	return u.port.Write(p)
}

// Err returns the error that terminated the receive goroutine, if any.
func (u *UART) Err() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.err
}

// Close closes the port, if it is an io.Closer.
func (u *UART) Close() error {
	if c, ok := u.port.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

var attached atomic.Pointer[UART]

// Attach makes u the UART fed by IRQHandler.
//
// Passing nil detaches the current UART.
func Attach(u *UART) {
	attached.Store(u)
}

// IRQHandler feeds received data to the attached UART.
//
// Data is dropped if no UART is attached.
func IRQHandler(p []byte) {
	if u := attached.Load(); u != nil {
		u.Feed(p)
	}
}
