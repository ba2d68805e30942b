// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

// Package network brings up the LTE-M/NB-IoT network connection of a BG770A.
package network

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/warthog618/bg770a/at"
	"github.com/warthog618/bg770a/bg770a"
	"github.com/warthog618/bg770a/info"
)

// SearchAccessTechnology selects the radio access technologies searched, and
// their order.
type SearchAccessTechnology int

const (
	// LTEM searches LTE-M only.
	LTEM SearchAccessTechnology = iota

	// NBIoT searches NB-IoT only.
	NBIoT

	// LTEMNBIoT searches LTE-M then NB-IoT.
	LTEMNBIoT

	// NBIoTLTEM searches NB-IoT then LTE-M.
	NBIoTLTEM
)

func (s SearchAccessTechnology) String() string {
	switch s {
	case LTEM:
		return "LTEM"
	case NBIoT:
		return "NBIOT"
	case LTEMNBIoT:
		return "LTEM_NBIOT"
	case NBIoTLTEM:
		return "NBIOT_LTEM"
	}
	return "unknown"
}

// ParseSearchAccessTechnology returns the SearchAccessTechnology named by s,
// e.g. "LTEM_NBIOT".
func ParseSearchAccessTechnology(s string) (SearchAccessTechnology, error) {
	for sat := LTEM; sat <= NBIoTLTEM; sat++ {
		if strings.EqualFold(s, sat.String()) {
			return sat, nil
		}
	}
	return LTEM, errors.Errorf("unknown search access technology '%s'", s)
}

// mode returns the iotopmode and nwscanseq settings for the technology.
func (s SearchAccessTechnology) mode() (int, string) {
	switch s {
	case LTEM:
		return 0, "0203"
	case NBIoT:
		return 1, "0302"
	case NBIoTLTEM:
		return 2, "0302"
	default:
		return 2, "0203"
	}
}

// matches returns true if the modem settings already select the technology.
func (s SearchAccessTechnology) matches(mode int, seq string) bool {
	switch s {
	case LTEM:
		return mode == 0
	case NBIoT:
		return mode == 1
	case NBIoTLTEM:
		return mode == 2 && seq == "0302"
	default:
		return mode == 2 && seq == "0203"
	}
}

// State is the network registration state.
type State int

const (
	// NotSearching indicates the modem is not registered and not searching.
	NotSearching State = iota

	// Searching indicates the modem is searching for a network.
	Searching

	// Connected indicates the modem is registered, at home or roaming.
	Connected

	// Denied indicates registration was denied.
	Denied

	// Unknown indicates the state has not been reported.
	Unknown
)

func (s State) String() string {
	switch s {
	case NotSearching:
		return "NotSearching"
	case Searching:
		return "Searching"
	case Connected:
		return "Connected"
	case Denied:
		return "Denied"
	}
	return "Unknown"
}

// Carrier specific LTE-M bands.
const (
	NTTDocomoLTEMBand = "0xa040005"
	KDDILTEMBand      = "0xa020005"
)

// Config is the network configuration applied by Begin.
type Config struct {
	SearchAccessTechnology SearchAccessTechnology

	// Band bitmaps, as hex strings. Empty bands are left unchanged.
	LTEMBand  string
	NBIoTBand string

	PdpContextID int

	// The PDP context is only defined if APN is not empty.
	APN string

	// The time allowed for the modem to deregister when reconfiguring.
	DeregisterTimeout time.Duration
}

// DefaultConfig returns the default Config.
func DefaultConfig() Config {
	return Config{
		SearchAccessTechnology: LTEMNBIoT,
		LTEMBand:               "0x2000000000f0e189f",
		NBIoTBand:              "0x200000000090f189f",
		PdpContextID:           1,
		DeregisterTimeout:      60 * time.Second,
	}
}

// Network tracks the registration state of a Module.
type Network struct {
	m      *bg770a.Module
	cfg    Config
	abort  func(err error)
	status int
	handle at.Handle
}

// Option modifies the construction of a Network.
type Option func(*Network)

// WithAbort sets a handler called with any error encountered by Begin or
// CanCommunicate, before it is returned.
func WithAbort(abort func(err error)) Option {
	return func(n *Network) {
		n.abort = abort
	}
}

// New creates a Network on the module.
func New(m *bg770a.Module, cfg Config, options ...Option) *Network {
	n := &Network{
		m:      m,
		cfg:    cfg,
		abort:  func(error) {},
		status: -1,
	}
	for _, option := range options {
		option(n)
	}
	return n
}

func (n *Network) fail(r at.Result, msg string) error {
	err := errors.Wrap(r, msg)
	n.abort(err)
	return err
}

// Begin checks the modem configuration, updating it to match the Config if
// necessary, and enables registration state reporting.
//
// The modem is switched to minimum functionality while it is reconfigured,
// and then restored.
func (n *Network) Begin() error {
	setPdp := false
	if n.cfg.APN != "" {
		contexts, r := n.m.PdpContexts()
		if r != at.Ok {
			return n.fail(r, "get pdp contexts")
		}
		setPdp = true
		for _, c := range contexts {
			if c.APN == n.cfg.APN {
				setPdp = false
				break
			}
		}
	}

	mode, r := n.m.SearchAccessTechnology()
	if r != at.Ok {
		return n.fail(r, "get search access technology")
	}
	seq, r := n.m.SearchAccessTechnologySequence()
	if r != at.Ok {
		return n.fail(r, "get search access technology sequence")
	}
	setAct := !n.cfg.SearchAccessTechnology.matches(mode, seq)

	setBand := false
	if n.cfg.LTEMBand != "" || n.cfg.NBIoTBand != "" {
		bands, r := n.m.SearchFrequencyBand()
		if r != at.Ok {
			return n.fail(r, "get search frequency band")
		}
		if n.cfg.LTEMBand != "" && bands.EMTC != n.cfg.LTEMBand {
			setBand = true
		}
		if n.cfg.NBIoTBand != "" && bands.NBIoT != n.cfg.NBIoTBand {
			setBand = true
		}
	}

	if n.handle.IsZero() {
		n.handle = n.m.RegisterURCHandler(n.handleCEREG)
	}
	if r := n.m.SetEpsNetworkRegistrationStatusURC(1); r != at.Ok {
		return n.fail(r, "enable registration URC")
	}
	status, r := n.m.EpsNetworkRegistrationState()
	if r != at.Ok {
		return n.fail(r, "get registration state")
	}
	n.status = status

	if !setPdp && !setAct && !setBand {
		return nil
	}
	fun, r := n.m.PhoneFunctionality()
	if r != at.Ok {
		return n.fail(r, "get phone functionality")
	}
	if fun != 0 {
		if r := n.m.SetPhoneFunctionality(0); r != at.Ok {
			return n.fail(r, "set minimum functionality")
		}
	}
	if err := n.waitNotSearching(); err != nil {
		n.abort(err)
		return err
	}
	if setPdp {
		c := bg770a.PdpContext{
			CID:     n.cfg.PdpContextID,
			PdpType: "IP",
			APN:     n.cfg.APN,
			PdpAddr: "0.0.0.0",
		}
		if r := n.m.SetPdpContext(c); r != at.Ok {
			return n.fail(r, "set pdp context")
		}
	}
	if setAct {
		mode, seq := n.cfg.SearchAccessTechnology.mode()
		if r := n.m.SetSearchAccessTechnology(mode); r != at.Ok {
			return n.fail(r, "set search access technology")
		}
		if r := n.m.SetSearchAccessTechnologySequence(seq); r != at.Ok {
			return n.fail(r, "set search access technology sequence")
		}
	}
	if setBand {
		b := bg770a.Bands{GSM: "0x0", EMTC: orNoChange(n.cfg.LTEMBand), NBIoT: orNoChange(n.cfg.NBIoTBand)}
		if r := n.m.SetSearchFrequencyBand(b); r != at.Ok {
			return n.fail(r, "set search frequency band")
		}
	}
	if fun != 0 {
		if r := n.m.SetPhoneFunctionality(fun); r != at.Ok {
			return n.fail(r, "restore phone functionality")
		}
	}
	return nil
}

func orNoChange(band string) string {
	if band == "" {
		return "0x0"
	}
	return band
}

func (n *Network) waitNotSearching() error {
	start := time.Now()
	for n.State() != NotSearching {
		n.m.DoWork(10 * time.Millisecond)
		if n.cfg.DeregisterTimeout >= 0 && time.Since(start) >= n.cfg.DeregisterTimeout {
			return errors.Errorf("still %s after %v", n.State(), n.cfg.DeregisterTimeout)
		}
	}
	return nil
}

// handleCEREG tracks the registration status reported by +CEREG URCs.
func (n *Network) handleCEREG(line string) bool {
	rest, ok := strings.CutPrefix(line, "+CEREG: ")
	if !ok {
		return false
	}
	params := info.Split(rest)
	if len(params) < 1 {
		return false
	}
	status, err := strconv.Atoi(params[0])
	if err != nil {
		return false
	}
	n.status = status
	return true
}

// State returns the most recently reported registration state.
func (n *Network) State() State {
	return StateOf(n.status)
}

// StateOf returns the State corresponding to a +CEREG <stat>.
func StateOf(stat int) State {
	switch stat {
	case 1, 5:
		return Connected
	case 3:
		return Denied
	case 2:
		return Searching
	case 0:
		return NotSearching
	}
	return Unknown
}

// CanCommunicate returns true if the modem is registered and the configured
// PDP context has been assigned an address.
func (n *Network) CanCommunicate() (bool, error) {
	if n.State() != Connected {
		return false, nil
	}
	contexts, r := n.m.PdpContexts()
	if r != at.Ok {
		return false, n.fail(r, "get pdp contexts")
	}
	for _, c := range contexts {
		if c.CID == n.cfg.PdpContextID {
			return c.PdpAddr != "0.0.0.0", nil
		}
	}
	return false, nil
}

// Close stops tracking the registration state.
func (n *Network) Close() {
	n.m.UnregisterURCHandler(n.handle)
	n.handle = at.Handle{}
}
