// SPDX-License-Identifier: MIT
//
// Copyright © 2018 Kent Gibson <warthog618@gmail.com>.

// Package at provides a low level driver for AT modems.
package at

import (
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Transport is the byte level link to the modem.
//
// Read returns the next received byte, or false if none is currently
// available. It must not block.
//
// WaitReadAvailable blocks until a byte may be available, or the timeout
// expires. It may return early without a byte being available. A negative
// timeout waits forever.
//
// If the Transport also implements io.Writer then commands and payloads are
// written with a single Write, else byte by byte.
type Transport interface {
	io.ByteWriter
	Read() (byte, bool)
	WaitReadAvailable(timeout time.Duration)
}

// AT represents a modem that can be managed using AT commands.
//
// Only one command may be in flight at a time, and an AT is not safe for
// concurrent use. URC handlers are called synchronously from whichever method
// is reading from the modem at the time.
type AT struct {
	// the underlying modem
	modem Transport

	// the partially received line, persists between reads
	line []byte

	urcs urcRegistry

	obs Observer

	// the time allowed for the modem to echo a command
	echoTimeout time.Duration

	// the final result code of the most recently rejected command
	lastErr error
}

// Option is a construction option for an AT.
type Option func(*AT)

// DefaultEchoTimeout is the default time allowed for the modem to echo a
// command.
const DefaultEchoTimeout = 60 * time.Second

// New creates a new AT modem.
//
// A catch-all URC handler, which reports each unsolicited line to the
// observer but never claims it, is registered first.
func New(modem Transport, options ...Option) *AT {
	a := &AT{
		modem:       modem,
		urcs:        newURCRegistry(),
		obs:         nopObserver{},
		echoTimeout: DefaultEchoTimeout,
	}
	for _, option := range options {
		option(a)
	}
	a.RegisterURCHandler(func(line string) bool {
		a.obs.Observe(Event{Kind: EventURC, Line: line})
		return false
	})
	return a
}

// WithEchoTimeout sets the time allowed for the modem to echo a command.
//
// The default echo timeout is 60 seconds.
func WithEchoTimeout(d time.Duration) Option {
	return func(a *AT) {
		a.echoTimeout = d
	}
}

// WithObserver sets the observer notified of the progress of exchanges with
// the modem.
//
// Use Observers to notify more than one.
func WithObserver(o Observer) Option {
	return func(a *AT) {
		a.obs = o
	}
}

// Predicate determines if a partially received line should be returned
// before the end of line is seen.
type Predicate func(partial string) bool

// InfoHandler is offered the information text lines returned by a command.
//
// It returns true if it recognised the line.
type InfoHandler func(line string) bool

const (
	s3 = '\r'
	s4 = '\n'

	// Sub terminates prompted text, such as an SMS PDU.
	Sub = 0x1a

	// Prompt is the modem's request for payload data.
	Prompt = "> "
)

func isPrompt(partial string) bool {
	return partial == Prompt
}

// remaining returns the time left from the timeout since start.
//
// Negative timeouts are returned unchanged as they never expire.
func remaining(timeout time.Duration, start time.Time) time.Duration {
	if timeout < 0 {
		return timeout
	}
	r := timeout - time.Since(start)
	if r < 0 {
		return 0
	}
	return r
}

func expired(timeout time.Duration, start time.Time) bool {
	return timeout >= 0 && time.Since(start) >= timeout
}

// ReadResponse returns the next line received from the modem, or an empty
// string if no line is received within the timeout.
//
// Only printable ASCII is retained, carriage returns and other control
// characters are discarded. Empty lines are skipped.
//
// If pred is not nil it is called after each character is added to the line,
// and the partial line is returned as soon as pred returns true.
//
// A partial line is retained across calls, so a line split by a timeout is
// completed by a subsequent read.
func (a *AT) ReadResponse(timeout time.Duration, pred Predicate) string {
	start := time.Now()
	for {
		a.modem.WaitReadAvailable(remaining(timeout, start))
		for {
			c, ok := a.modem.Read()
			if !ok {
				break
			}
			switch {
			case c == s4:
				if len(a.line) > 0 {
					return a.takeLine()
				}
			case c >= 32 && c < 127:
				a.line = append(a.line, c)
				if pred != nil && pred(string(a.line)) {
					return a.takeLine()
				}
			}
		}
		if expired(timeout, start) {
			return ""
		}
	}
}

func (a *AT) takeLine() string {
	l := string(a.line)
	a.line = a.line[:0]
	return l
}

// DoWork reads one line from the modem, waiting up to timeout, and offers it
// to the URC handlers.
func (a *AT) DoWork(timeout time.Duration) {
	if line := a.ReadResponse(timeout, nil); line != "" {
		a.urcs.dispatch(line)
	}
}

// WriteAndWaitCommand writes the command to the modem and waits for the
// modem to echo it.
//
// Lines received before the echo are offered to the URC handlers.
// The echo must match the command exactly.
//
// Returns false if the echo is not seen within the timeout, or the command
// cannot be written.
func (a *AT) WriteAndWaitCommand(cmd string, timeout time.Duration) bool {
	if err := a.write([]byte(cmd + string(s3))); err != nil {
		a.obs.Observe(Event{Kind: EventWriteError, Command: cmd, Err: err})
		return false
	}
	start := time.Now()
	for {
		line := a.ReadResponse(remaining(timeout, start), nil)
		if line == "" {
			return false
		}
		if line == cmd {
			return true
		}
		a.urcs.dispatch(line)
	}
}

func (a *AT) write(p []byte) error {
	if w, ok := a.modem.(io.Writer); ok {
		n, err := w.Write(p)
		if err == nil && n != len(p) {
			err = io.ErrShortWrite
		}
		return errors.Wrap(err, "write")
	}
	for _, b := range p {
		if err := a.modem.WriteByte(b); err != nil {
			return errors.Wrap(err, "write")
		}
	}
	return nil
}

// finalCodes classifies the lines terminating an exchange.
type finalCodes struct {
	ok     func(line string) bool
	reject func(line string) bool
}

var (
	standardCodes = finalCodes{
		ok: func(line string) bool { return line == "OK" },
		reject: func(line string) bool {
			return line == "ERROR" ||
				strings.HasPrefix(line, "+CME ERROR: ") ||
				strings.HasPrefix(line, "+CMS ERROR: ")
		},
	}
	sendCodes = finalCodes{
		ok: func(line string) bool { return line == "SEND OK" },
		reject: func(line string) bool {
			return line == "ERROR" || line == "SEND FAIL"
		},
	}
)

// ExecuteCommand issues a command to the modem which returns no information
// text.
//
// The command must include the AT prefix, but not the trailing carriage
// return.
//
// The timeout applies to each line of the response after the echo.
func (a *AT) ExecuteCommand(cmd string, timeout time.Duration) Result {
	return a.exchange(cmd, nil, timeout, nil, standardCodes)
}

// QueryCommand issues a command to the modem and passes any information text
// to the handler.
//
// Lines not recognised by the handler are offered to the URC handlers.
func (a *AT) QueryCommand(cmd string, info InfoHandler, timeout time.Duration) Result {
	return a.exchange(cmd, info, timeout, nil, standardCodes)
}

// SendCommand issues a data send command to the modem.
//
// The handler is offered the "> " prompt, without a line terminator, and
// should respond by writing the payload with WriteBinary.
//
// The command completes with "SEND OK", and is rejected with "SEND FAIL" or
// "ERROR".
func (a *AT) SendCommand(cmd string, info InfoHandler, timeout time.Duration) Result {
	return a.exchange(cmd, info, timeout, isPrompt, sendCodes)
}

// PromptCommand issues a command that prompts for data, such as an SMS
// submission, and is terminated by the standard final result codes.
//
// The handler is offered the "> " prompt as per SendCommand.
func (a *AT) PromptCommand(cmd string, info InfoHandler, timeout time.Duration) Result {
	return a.exchange(cmd, info, timeout, isPrompt, standardCodes)
}

func (a *AT) exchange(cmd string, info InfoHandler, timeout time.Duration, pred Predicate, fc finalCodes) Result {
	a.obs.Observe(Event{Kind: EventCommand, Command: cmd})
	start := time.Now()
	if !a.WriteAndWaitCommand(cmd, a.echoTimeout) {
		a.obs.Observe(Event{Kind: EventFinal, Command: cmd, Result: WaitCommandTimeout, Elapsed: time.Since(start)})
		return WaitCommandTimeout
	}
	a.obs.Observe(Event{Kind: EventEcho, Command: cmd, Elapsed: time.Since(start)})
	for {
		line := a.ReadResponse(timeout, pred)
		if line == "" {
			a.obs.Observe(Event{Kind: EventFinal, Command: cmd, Result: ReadResponseTimeout, Elapsed: time.Since(start)})
			return ReadResponseTimeout
		}
		if fc.ok(line) {
			a.obs.Observe(Event{Kind: EventFinal, Command: cmd, Line: line, Result: Ok, Elapsed: time.Since(start)})
			return Ok
		}
		if fc.reject(line) {
			a.lastErr = newError(line)
			a.obs.Observe(Event{Kind: EventFinal, Command: cmd, Line: line, Result: CommandRejected, Elapsed: time.Since(start)})
			return CommandRejected
		}
		if info != nil && info(line) {
			a.obs.Observe(Event{Kind: EventInfo, Command: cmd, Line: line})
			continue
		}
		if !a.urcs.dispatch(line) {
			a.obs.Observe(Event{Kind: EventUnknown, Command: cmd, Line: line})
		}
	}
}

// WriteBinary writes the payload to the modem, without any framing.
//
// Write errors are also reported to the observer.
// Panics if p is empty.
func (a *AT) WriteBinary(p []byte) error {
	if len(p) == 0 {
		panic("at: WriteBinary with empty payload")
	}
	err := a.write(p)
	if err != nil {
		a.obs.Observe(Event{Kind: EventWriteError, Err: err})
	}
	return err
}

// ReadBinary reads exactly len(p) bytes from the modem into p, bypassing line
// handling.
//
// Returns false if the bytes are not all received within the timeout, in
// which case the content of p is incomplete.
// Panics if p is empty.
func (a *AT) ReadBinary(p []byte, timeout time.Duration) bool {
	if len(p) == 0 {
		panic("at: ReadBinary with empty buffer")
	}
	return a.readBinary(p, len(p), timeout)
}

// ReadBinaryDiscard reads and discards exactly n bytes from the modem.
//
// Panics if n is not positive.
func (a *AT) ReadBinaryDiscard(n int, timeout time.Duration) bool {
	if n <= 0 {
		panic("at: ReadBinaryDiscard with non-positive length")
	}
	return a.readBinary(nil, n, timeout)
}

func (a *AT) readBinary(p []byte, n int, timeout time.Duration) bool {
	start := time.Now()
	i := 0
	for {
		a.modem.WaitReadAvailable(remaining(timeout, start))
		for {
			c, ok := a.modem.Read()
			if !ok {
				break
			}
			if p != nil {
				p[i] = c
			}
			i++
			if i >= n {
				return true
			}
		}
		if expired(timeout, start) {
			return false
		}
	}
}

// LastError returns the final result code of the most recently rejected
// command, as one of ErrError, CMEError or CMSError.
//
// Returns nil if no command has been rejected.
func (a *AT) LastError() error {
	return a.lastErr
}

// CMEError indicates a CME Error was returned by the modem.
//
// The value is the error value, in string form, which may be the numeric or
// textual, depending on the modem configuration.
type CMEError string

// CMSError indicates a CMS Error was returned by the modem.
//
// The value is the error value, in string form, which may be the numeric or
// textual, depending on the modem configuration.
type CMSError string

func (e CMEError) Error() string {
	return string("CME Error: " + e)
}

func (e CMSError) Error() string {
	return string("CMS Error: " + e)
}

var (
	// ErrError indicates the modem returned a generic AT ERROR in response to
	// an operation.
	ErrError = errors.New("ERROR")

	// ErrSendFail indicates the modem failed to send socket data.
	ErrSendFail = errors.New("SEND FAIL")
)

// newError parses a line and creates an error corresponding to the content.
func newError(line string) error {
	var err error
	switch {
	case strings.HasPrefix(line, "+CMS ERROR:"):
		err = CMSError(strings.TrimSpace(line[11:]))
	case strings.HasPrefix(line, "+CME ERROR:"):
		err = CMEError(strings.TrimSpace(line[11:]))
	case line == "SEND FAIL":
		err = ErrSendFail
	default:
		err = ErrError
	}
	return err
}
