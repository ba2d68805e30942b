// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package at

import (
	"context"
	"log/slog"
	"time"
)

// EventKind identifies the point in an exchange at which an Event was raised.
type EventKind int

const (
	// EventCommand is raised when a command is written to the modem.
	EventCommand EventKind = iota

	// EventEcho is raised when the command echo is seen.
	EventEcho

	// EventInfo is raised when an information text line is claimed by the
	// exchange.
	EventInfo

	// EventFinal is raised when an exchange completes, successfully or
	// otherwise.
	EventFinal

	// EventUnknown is raised for a line that was neither claimed by the
	// exchange nor by any URC handler.
	EventUnknown

	// EventURC is raised for every line offered to the URC handlers.
	EventURC

	// EventWriteError is raised when the transport fails a write.
	EventWriteError
)

var eventNames = [...]string{
	EventCommand:    "command",
	EventEcho:       "echo",
	EventInfo:       "info",
	EventFinal:      "final",
	EventUnknown:    "unknown",
	EventURC:        "urc",
	EventWriteError: "write error",
}

func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown event"
}

// Event describes a step in the interaction with the modem.
type Event struct {
	Kind EventKind

	// Command is the command in flight, if any.
	Command string

	// Line is the line received from the modem, if any.
	Line string

	// Result is the outcome of the exchange, for EventFinal.
	Result Result

	// Elapsed is the time since the command was written, for EventEcho and
	// EventFinal.
	Elapsed time.Duration

	// Err is the transport error, for EventWriteError.
	Err error
}

// Observer receives events from the AT engine.
//
// Observers are called synchronously from the engine and must not issue
// commands to the modem.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) {
	f(e)
}

type observers []Observer

func (o observers) Observe(e Event) {
	for _, ob := range o {
		ob.Observe(e)
	}
}

// Observers returns an Observer that forwards events to each of obs in turn.
func Observers(obs ...Observer) Observer {
	return observers(obs)
}

type nopObserver struct{}

func (nopObserver) Observe(Event) {}

// LogObserver returns an Observer that logs events to l.
//
// Commands, echoes, info and final result codes are logged at debug level,
// URCs at info level, unknown lines and failed exchanges at warn, and write
// errors at error level.
func LogObserver(l *slog.Logger) Observer {
	return ObserverFunc(func(e Event) {
		level := slog.LevelDebug
		attrs := []slog.Attr{slog.String("cmd", e.Command)}
		switch e.Kind {
		case EventEcho:
			attrs = append(attrs, slog.Duration("elapsed", e.Elapsed))
		case EventInfo:
			attrs = append(attrs, slog.String("line", e.Line))
		case EventFinal:
			attrs = append(attrs,
				slog.String("line", e.Line),
				slog.String("result", e.Result.String()),
				slog.Duration("elapsed", e.Elapsed))
			if e.Result != Ok {
				level = slog.LevelWarn
			}
		case EventUnknown:
			level = slog.LevelWarn
			attrs = append(attrs, slog.String("line", e.Line))
		case EventURC:
			level = slog.LevelInfo
			attrs = []slog.Attr{slog.String("line", e.Line)}
		case EventWriteError:
			level = slog.LevelError
			attrs = append(attrs, slog.Any("err", e.Err))
		}
		l.LogAttrs(context.Background(), level, e.Kind.String(), attrs...)
	})
}
