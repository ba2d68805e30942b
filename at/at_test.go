// SPDX-License-Identifier: MIT
//
// Copyright © 2018 Kent Gibson <warthog618@gmail.com>.

//  Test suite for AT module.
//
//  Note that these tests use a mockmodem which does not attempt to emulate
//  a serial modem, but which provides responses required to exercise at.go So,
//  while the commands may follow the structure of the AT protocol they are not
//  necessarily commands the BG770A supports - just patterns that elicit the
//  behaviour required for the test.

package at_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/bg770a/at"
	"github.com/warthog618/bg770a/internal/mockmodem"
)

const (
	shortTimeout = 50 * time.Millisecond
	echoTimeout  = 100 * time.Millisecond
)

var cmdSet = map[string][]string{
	"AT\r":          {"\r\nOK\r\n"},
	"AT+CSQ\r":      {"\r\n+CSQ: 22,99\r\n", "\r\nOK\r\n"},
	"ATINFO=1\r":    {"\r\ninfo1\r\n", "\r\ninfo2\r\n", "\r\n", "\r\nOK\r\n"},
	"ATERR\r":       {"\r\nERROR\r\n"},
	"ATCMS\r":       {"\r\n+CMS ERROR: 204\r\n"},
	"ATCME\r":       {"\r\n+CME ERROR: 10\r\n"},
	"ATHANG\r":      {"\r\n"},
	"ATURC\r":       {"\r\n+QIURC: \"recv\",1\r\n", "\r\nOK\r\n"},
	"ATSEND=5\r":    {"\r\n> "},
	"hello":         {"\r\nSEND OK\r\n"},
	"ATSEND=4\r":    {"\r\n> "},
	"fail":          {"\r\nSEND FAIL\r\n"},
	"ATPROMPT\r":    {"\r\n> "},
	"0123" + "\x1a": {"\r\n+CMGS: 7\r\n", "\r\nOK\r\n"},
}

func setupModem(t *testing.T, cmdSet map[string][]string, options ...mockmodem.Option) (*at.AT, *mockmodem.Modem) {
	t.Helper()
	mm := mockmodem.New(cmdSet, options...)
	a := at.New(mm, at.WithEchoTimeout(echoTimeout))
	require.NotNil(t, a)
	return a, mm
}

func TestNew(t *testing.T) {
	patterns := []struct {
		name    string
		options []at.Option
	}{
		{
			"default",
			nil,
		},
		{
			"echoTimeout",
			[]at.Option{at.WithEchoTimeout(time.Second)},
		},
		{
			"observer",
			[]at.Option{at.WithObserver(at.ObserverFunc(func(at.Event) {}))},
		},
	}
	for _, p := range patterns {
		f := func(t *testing.T) {
			mm := mockmodem.New(nil)
			a := at.New(mm, p.options...)
			require.NotNil(t, a)
		}
		t.Run(p.name, f)
	}
}

func TestReadResponse(t *testing.T) {
	patterns := []struct {
		name  string
		rx    string
		pred  at.Predicate
		lines []string
	}{
		{
			"crlf",
			"\r\nOK\r\n",
			nil,
			[]string{"OK"},
		},
		{
			"lf only",
			"one\ntwo\n",
			nil,
			[]string{"one", "two"},
		},
		{
			"blank lines",
			"\r\n\r\n\n\r\nOK\r\n",
			nil,
			[]string{"OK"},
		},
		{
			"control bytes",
			"O\x00\x01K\t\x1b\r\n",
			nil,
			[]string{"OK"},
		},
		{
			"high bytes",
			"A\x7fB\x80\xffC\r\n",
			nil,
			[]string{"ABC"},
		},
		{
			"prompt",
			"\r\n> hello\r\n",
			func(partial string) bool { return partial == at.Prompt },
			[]string{"> ", "hello"},
		},
		{
			"no prompt",
			"\r\n>> \r\n",
			func(partial string) bool { return partial == at.Prompt },
			[]string{">> "},
		},
	}
	for _, p := range patterns {
		f := func(t *testing.T) {
			a, mm := setupModem(t, nil)
			mm.Inject(p.rx)
			for _, l := range p.lines {
				assert.Equal(t, l, a.ReadResponse(shortTimeout, p.pred))
			}
			assert.Equal(t, "", a.ReadResponse(0, p.pred))
		}
		t.Run(p.name, f)
	}
}

func TestReadResponsePartial(t *testing.T) {
	a, mm := setupModem(t, nil)
	mm.Inject("+CEREG: ")
	assert.Equal(t, "", a.ReadResponse(shortTimeout, nil))
	mm.Inject("5\r\n")
	assert.Equal(t, "+CEREG: 5", a.ReadResponse(shortTimeout, nil))
}

func TestReadResponseBounded(t *testing.T) {
	patterns := []struct {
		name    string
		rx      string
		timeout time.Duration
	}{
		{"nothing", "", 100 * time.Millisecond},
		{"no terminator", "partial", 100 * time.Millisecond},
		{"zero", "", 0},
	}
	for _, p := range patterns {
		f := func(t *testing.T) {
			a, mm := setupModem(t, nil)
			mm.Inject(p.rx)
			start := time.Now()
			assert.Equal(t, "", a.ReadResponse(p.timeout, nil))
			elapsed := time.Since(start)
			assert.GreaterOrEqual(t, elapsed, p.timeout)
			assert.Less(t, elapsed, p.timeout+200*time.Millisecond)
		}
		t.Run(p.name, f)
	}
}

func TestReadResponseScheduled(t *testing.T) {
	a, mm := setupModem(t, nil)
	mm.Schedule(20*time.Millisecond, "late\r\n")
	assert.Equal(t, "late", a.ReadResponse(time.Second, nil))
	mm.Schedule(20*time.Millisecond, "forever\r\n")
	assert.Equal(t, "forever", a.ReadResponse(-1, nil))
}

func TestWriteAndWaitCommand(t *testing.T) {
	patterns := []struct {
		name    string
		options []mockmodem.Option
		before  string
		cmd     string
		ok      bool
		urcs    []string
	}{
		{
			"echo",
			nil,
			"",
			"AT",
			true,
			nil,
		},
		{
			"interleaved urc",
			nil,
			"+QIURC: \"recv\",3\r\n+CEREG: 1\r\n",
			"AT",
			true,
			[]string{"+QIURC: \"recv\",3", "+CEREG: 1"},
		},
		{
			"prefix is not echo",
			nil,
			"AT+CSQ\r\n",
			"AT",
			true,
			[]string{"AT+CSQ"},
		},
		{
			"no echo",
			[]mockmodem.Option{mockmodem.WithoutEcho()},
			"",
			"ATNONE",
			false,
			[]string{"ERROR"},
		},
	}
	for _, p := range patterns {
		f := func(t *testing.T) {
			a, mm := setupModem(t, cmdSet, p.options...)
			var urcs []string
			a.RegisterURCHandler(func(line string) bool {
				urcs = append(urcs, line)
				return true
			})
			mm.Inject(p.before)
			ok := a.WriteAndWaitCommand(p.cmd, echoTimeout)
			assert.Equal(t, p.ok, ok)
			assert.Equal(t, p.urcs, urcs)
			assert.Equal(t, p.cmd+"\r", string(mm.Tx()))
		}
		t.Run(p.name, f)
	}
}

func TestExecuteCommand(t *testing.T) {
	patterns := []struct {
		name    string
		options []mockmodem.Option
		cmd     string
		result  at.Result
		err     error
	}{
		{
			"ok",
			nil,
			"AT",
			at.Ok,
			nil,
		},
		{
			"info ignored",
			nil,
			"ATINFO=1",
			at.Ok,
			nil,
		},
		{
			"error",
			nil,
			"ATERR",
			at.CommandRejected,
			at.ErrError,
		},
		{
			"cms",
			nil,
			"ATCMS",
			at.CommandRejected,
			at.CMSError("204"),
		},
		{
			"cme",
			nil,
			"ATCME",
			at.CommandRejected,
			at.CMEError("10"),
		},
		{
			"unknown",
			nil,
			"ATUNKNOWN",
			at.CommandRejected,
			at.ErrError,
		},
		{
			"no final",
			nil,
			"ATHANG",
			at.ReadResponseTimeout,
			nil,
		},
		{
			"no echo",
			[]mockmodem.Option{mockmodem.WithoutEcho()},
			"AT",
			at.WaitCommandTimeout,
			nil,
		},
		{
			"silent",
			[]mockmodem.Option{mockmodem.WithSilence()},
			"AT",
			at.WaitCommandTimeout,
			nil,
		},
		{
			"write error",
			[]mockmodem.Option{mockmodem.WithWriteError(errors.New("write failed"))},
			"AT",
			at.WaitCommandTimeout,
			nil,
		},
	}
	for _, p := range patterns {
		f := func(t *testing.T) {
			a, _ := setupModem(t, cmdSet, p.options...)
			result := a.ExecuteCommand(p.cmd, shortTimeout)
			assert.Equal(t, p.result, result)
			assert.Equal(t, p.err, a.LastError())
		}
		t.Run(p.name, f)
	}
}

func TestQueryCommand(t *testing.T) {
	patterns := []struct {
		name   string
		cmd    string
		claim  string
		result at.Result
		info   []string
		urcs   []string
	}{
		{
			"csq",
			"AT+CSQ",
			"+CSQ: ",
			at.Ok,
			[]string{"+CSQ: 22,99"},
			nil,
		},
		{
			"multi",
			"ATINFO=1",
			"info",
			at.Ok,
			[]string{"info1", "info2"},
			nil,
		},
		{
			"unclaimed to urc",
			"ATINFO=1",
			"info2",
			at.Ok,
			[]string{"info2"},
			[]string{"info1"},
		},
		{
			"interleaved urc",
			"ATURC",
			"+CSQ: ",
			at.Ok,
			nil,
			[]string{"+QIURC: \"recv\",1"},
		},
		{
			"cme",
			"ATCME",
			"",
			at.CommandRejected,
			nil,
			nil,
		},
	}
	for _, p := range patterns {
		f := func(t *testing.T) {
			a, _ := setupModem(t, cmdSet)
			var urcs []string
			a.RegisterURCHandler(func(line string) bool {
				urcs = append(urcs, line)
				return true
			})
			var info []string
			result := a.QueryCommand(p.cmd, func(line string) bool {
				info = append(info, line)
				return strings.HasPrefix(line, p.claim)
			}, shortTimeout)
			assert.Equal(t, p.result, result)
			claimed := []string(nil)
			for _, l := range info {
				if strings.HasPrefix(l, p.claim) {
					claimed = append(claimed, l)
				}
			}
			assert.Equal(t, p.info, claimed)
			assert.Equal(t, p.urcs, urcs)
		}
		t.Run(p.name, f)
	}
}

func TestQueryCommandError(t *testing.T) {
	a, _ := setupModem(t, cmdSet)
	called := false
	result := a.QueryCommand("ATCME", func(line string) bool {
		called = true
		return true
	}, shortTimeout)
	assert.Equal(t, at.CommandRejected, result)
	assert.False(t, called)
	assert.Equal(t, at.CMEError("10"), a.LastError())
}

func TestSendCommand(t *testing.T) {
	patterns := []struct {
		name    string
		cmd     string
		payload string
		result  at.Result
	}{
		{
			"ok",
			"ATSEND=5",
			"hello",
			at.Ok,
		},
		{
			"fail",
			"ATSEND=4",
			"fail",
			at.CommandRejected,
		},
		{
			"error",
			"ATERR",
			"",
			at.CommandRejected,
		},
	}
	for _, p := range patterns {
		f := func(t *testing.T) {
			a, mm := setupModem(t, cmdSet)
			prompted := false
			discarded := false
			result := a.SendCommand(p.cmd, func(line string) bool {
				if line != at.Prompt {
					return false
				}
				prompted = true
				err := a.WriteBinary([]byte(p.payload))
				require.Nil(t, err)
				// the modem echoes the payload
				discarded = a.ReadBinaryDiscard(len(p.payload), shortTimeout)
				return true
			}, shortTimeout)
			assert.Equal(t, p.result, result)
			assert.Equal(t, p.payload != "", prompted)
			assert.Equal(t, p.payload != "", discarded)
			assert.Equal(t, p.cmd+"\r"+p.payload, string(mm.Tx()))
			assert.Zero(t, mm.Pending())
		}
		t.Run(p.name, f)
	}
}

func TestSendRoundTrip(t *testing.T) {
	payload := "OK\nERROR\n"
	cs := map[string][]string{
		"ATSEND=9\r": {"\r\n> "},
		payload:      {"\r\nSEND OK\r\n"},
	}
	a, mm := setupModem(t, cs)
	var unknown []string
	a.RegisterURCHandler(func(line string) bool {
		unknown = append(unknown, line)
		return true
	})
	result := a.SendCommand("ATSEND=9", func(line string) bool {
		if line != at.Prompt {
			return false
		}
		n := len(mm.Tx())
		require.Nil(t, a.WriteBinary([]byte(payload)))
		assert.Equal(t, len(payload), len(mm.Tx())-n)
		// the echoed payload, which looks like an OK, must not be parsed
		assert.True(t, a.ReadBinaryDiscard(len(payload), shortTimeout))
		return true
	}, shortTimeout)
	assert.Equal(t, at.Ok, result)
	assert.Empty(t, unknown)
}

func TestPromptCommand(t *testing.T) {
	a, mm := setupModem(t, cmdSet)
	var mr string
	result := a.PromptCommand("ATPROMPT", func(line string) bool {
		if line == at.Prompt {
			require.Nil(t, a.WriteBinary([]byte("0123\x1a")))
			return true
		}
		if line == "0123" {
			// echoed pdu
			return true
		}
		if strings.HasPrefix(line, "+CMGS: ") {
			mr = line[7:]
			return true
		}
		return false
	}, shortTimeout)
	assert.Equal(t, at.Ok, result)
	assert.Equal(t, "7", mr)
	assert.Equal(t, "ATPROMPT\r0123\x1a", string(mm.Tx()))
}

func TestReadBinary(t *testing.T) {
	a, mm := setupModem(t, nil)
	mm.Inject("\x00\r\n\xffOK\r\n+QIURC: \"closed\",1\r\n")
	buf := make([]byte, 6)
	assert.True(t, a.ReadBinary(buf, shortTimeout))
	assert.Equal(t, []byte("\x00\r\n\xffOK"), buf)
	assert.Equal(t, "+QIURC: \"closed\",1", a.ReadResponse(shortTimeout, nil))

	// short
	mm.Inject("abc")
	buf = make([]byte, 4)
	assert.False(t, a.ReadBinary(buf, shortTimeout))
	assert.Equal(t, []byte("abc\x00"), buf)

	assert.Panics(t, func() { a.ReadBinary(nil, shortTimeout) })
}

func TestReadBinaryDiscard(t *testing.T) {
	a, mm := setupModem(t, nil)
	mm.Inject("12345\r\nOK\r\n")
	assert.True(t, a.ReadBinaryDiscard(5, shortTimeout))
	assert.Equal(t, "OK", a.ReadResponse(shortTimeout, nil))

	mm.Inject("12")
	assert.False(t, a.ReadBinaryDiscard(3, shortTimeout))

	assert.Panics(t, func() { a.ReadBinaryDiscard(0, shortTimeout) })
}

func TestWriteBinary(t *testing.T) {
	a, mm := setupModem(t, nil)
	require.Nil(t, a.WriteBinary([]byte{0, 1, 2, 0xff}))
	assert.Equal(t, []byte{0, 1, 2, 0xff}, mm.Tx())
	assert.Panics(t, func() { a.WriteBinary(nil) })

	werr := errors.New("write failed")
	a, _ = setupModem(t, nil, mockmodem.WithWriteError(werr))
	err := a.WriteBinary([]byte{1})
	assert.ErrorIs(t, err, werr)
}

func TestURCHandlers(t *testing.T) {
	a, mm := setupModem(t, nil)
	var order []string
	handler := func(name string, claim bool) at.URCHandler {
		return func(line string) bool {
			order = append(order, name)
			return claim
		}
	}
	h1 := a.RegisterURCHandler(handler("h1", false))
	h2 := a.RegisterURCHandler(handler("h2", true))
	h3 := a.RegisterURCHandler(handler("h3", true))
	assert.False(t, h1.IsZero())

	mm.Inject("+URC: 1\r\n")
	a.DoWork(shortTimeout)
	assert.Equal(t, []string{"h1", "h2"}, order)

	order = nil
	a.UnregisterURCHandler(h2)
	a.UnregisterURCHandler(h2)
	a.UnregisterURCHandler(at.Handle{})
	assert.True(t, a.DispatchURC("+URC: 2"))
	assert.Equal(t, []string{"h1", "h3"}, order)

	// reused slot must not be removed by the stale handle
	order = nil
	h4 := a.RegisterURCHandler(handler("h4", true))
	a.UnregisterURCHandler(h2)
	a.UnregisterURCHandler(h3)
	assert.True(t, a.DispatchURC("+URC: 3"))
	assert.Equal(t, []string{"h1", "h4"}, order)

	order = nil
	a.UnregisterURCHandler(h4)
	a.UnregisterURCHandler(h1)
	assert.False(t, a.DispatchURC("+URC: 4"))
	assert.Empty(t, order)
}

func TestURCHandlerSelfUnregister(t *testing.T) {
	a, _ := setupModem(t, nil)
	count := 0
	var h at.Handle
	h = a.RegisterURCHandler(func(line string) bool {
		count++
		a.UnregisterURCHandler(h)
		return true
	})
	assert.True(t, a.DispatchURC("APP RDY"))
	assert.False(t, a.DispatchURC("APP RDY"))
	assert.Equal(t, 1, count)
}

func TestDoWork(t *testing.T) {
	a, mm := setupModem(t, nil)
	var lines []string
	a.RegisterURCHandler(func(line string) bool {
		lines = append(lines, line)
		return true
	})
	a.DoWork(0)
	assert.Empty(t, lines)
	mm.Inject("\r\nAPP RDY\r\n")
	a.DoWork(shortTimeout)
	assert.Equal(t, []string{"APP RDY"}, lines)
}

func TestObserver(t *testing.T) {
	mm := mockmodem.New(cmdSet)
	var events []at.Event
	obs := at.ObserverFunc(func(e at.Event) {
		events = append(events, e)
	})
	var count int
	counter := at.ObserverFunc(func(e at.Event) {
		count++
	})
	a := at.New(mm, at.WithObserver(at.Observers(obs, counter)))
	mm.Inject("+CEREG: 5\r\n")
	result := a.QueryCommand("ATINFO=1", func(line string) bool {
		return line == "info1"
	}, shortTimeout)
	require.Equal(t, at.Ok, result)
	kinds := []at.EventKind{}
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []at.EventKind{
		at.EventCommand,
		at.EventURC,
		at.EventEcho,
		at.EventInfo,
		at.EventURC,
		at.EventUnknown,
		at.EventFinal,
	}, kinds)
	assert.Equal(t, len(events), count)
	assert.Equal(t, "+CEREG: 5", events[1].Line)
	assert.Equal(t, "info2", events[5].Line)
	assert.Equal(t, "OK", events[6].Line)
	assert.Equal(t, at.Ok, events[6].Result)

	events = nil
	a.ExecuteCommand("ATCME", shortTimeout)
	require.Len(t, events, 3)
	assert.Equal(t, at.CommandRejected, events[2].Result)
	assert.Equal(t, "+CME ERROR: 10", events[2].Line)
}

func TestObserverWriteError(t *testing.T) {
	werr := errors.New("write failed")
	mm := mockmodem.New(cmdSet, mockmodem.WithWriteError(werr))
	var events []at.Event
	a := at.New(mm, at.WithObserver(at.ObserverFunc(func(e at.Event) {
		events = append(events, e)
	})))
	assert.Equal(t, at.WaitCommandTimeout, a.ExecuteCommand("AT", shortTimeout))
	require.Len(t, events, 3)
	assert.Equal(t, at.EventWriteError, events[1].Kind)
	assert.ErrorIs(t, events[1].Err, werr)
	assert.Equal(t, at.WaitCommandTimeout, events[2].Result)
}

func TestEventKind(t *testing.T) {
	assert.Equal(t, "urc", at.EventURC.String())
	assert.Equal(t, "write error", at.EventWriteError.String())
	assert.Equal(t, "unknown event", at.EventKind(42).String())
}

func TestCMEError(t *testing.T) {
	patterns := []string{"1", "204", "42"}
	for _, p := range patterns {
		f := func(t *testing.T) {
			err := at.CMEError(p)
			expected := fmt.Sprintf("CME Error: %s", string(err))
			assert.Equal(t, expected, err.Error())
		}
		t.Run(fmt.Sprintf("%x", p), f)
	}
}

func TestCMSError(t *testing.T) {
	patterns := []string{"1", "204", "42"}
	for _, p := range patterns {
		f := func(t *testing.T) {
			err := at.CMSError(p)
			expected := fmt.Sprintf("CMS Error: %s", string(err))
			assert.Equal(t, expected, err.Error())
		}
		t.Run(fmt.Sprintf("%x", p), f)
	}
}
