// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package at

import "strconv"

// Result is the outcome of an operation performed on the modem.
//
// Every exchange returns a Result rather than panicking. Ok indicates
// success, all other values identify the failure mode.
//
// Result implements error so that a failure can be wrapped by higher layers,
// but Ok should never be returned as an error.
type Result int

const (
	// Ok indicates the operation completed successfully.
	Ok Result = iota

	// WaitCommandTimeout indicates the modem did not echo the command.
	WaitCommandTimeout

	// ReadResponseTimeout indicates no final result code was received.
	ReadResponseTimeout

	// CommandRejected indicates the modem returned an error final result
	// code.
	CommandRejected

	// RdyTimeout indicates the modem did not report APP RDY after power on
	// or reset.
	RdyTimeout

	// OpenTimeout indicates the modem did not report the result of a socket
	// open.
	OpenTimeout

	// OpenError indicates the modem reported a failed socket open.
	OpenError

	// ReceiveTimeout indicates no socket data arrived within the timeout.
	ReceiveTimeout

	// NotActivate indicates the modem did not become active when powered on.
	NotActivate

	// ArgumentOutOfRange indicates a parameter was rejected before any I/O
	// was performed.
	ArgumentOutOfRange
)

var resultNames = [...]string{
	Ok:                  "Ok",
	WaitCommandTimeout:  "WaitCommandTimeout",
	ReadResponseTimeout: "ReadResponseTimeout",
	CommandRejected:     "CommandRejected",
	RdyTimeout:          "RdyTimeout",
	OpenTimeout:         "OpenTimeout",
	OpenError:           "OpenError",
	ReceiveTimeout:      "ReceiveTimeout",
	NotActivate:         "NotActivate",
	ArgumentOutOfRange:  "ArgumentOutOfRange",
}

func (r Result) String() string {
	if r >= 0 && int(r) < len(resultNames) {
		return resultNames[r]
	}
	return "Result(" + strconv.Itoa(int(r)) + ")"
}

func (r Result) Error() string {
	return r.String()
}

// Class groups results by how a caller should react to them.
type Class int

const (
	// ClassNone is the class of Ok.
	ClassNone Class = iota

	// ClassTimeout results are recoverable - the caller may retry.
	ClassTimeout

	// ClassRejection results indicate the modem refused the request, and it
	// should not be blindly retried.
	ClassRejection

	// ClassValidation results were detected before any I/O.
	ClassValidation

	// ClassLiveness results indicate the modem hardware failed to start.
	ClassLiveness
)

// Class returns the class of the result.
func (r Result) Class() Class {
	switch r {
	case Ok:
		return ClassNone
	case WaitCommandTimeout, ReadResponseTimeout, RdyTimeout, OpenTimeout, ReceiveTimeout:
		return ClassTimeout
	case CommandRejected, OpenError:
		return ClassRejection
	case ArgumentOutOfRange:
		return ClassValidation
	case NotActivate:
		return ClassLiveness
	}
	return ClassNone
}

// Err returns nil for Ok, else the Result as an error.
func (r Result) Err() error {
	if r == Ok {
		return nil
	}
	return r
}
