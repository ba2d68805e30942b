// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package at

// URCHandler is offered each unsolicited line received from the modem.
//
// It returns true if it has claimed the line, in which case no subsequent
// handlers are offered the line.
type URCHandler func(line string) bool

// Handle identifies a registered URCHandler.
//
// The zero Handle is never returned by RegisterURCHandler, so it may be used
// to indicate no handler is registered.
type Handle struct {
	index int32
	gen   uint32
}

// IsZero returns true if h is the zero Handle.
func (h Handle) IsZero() bool {
	return h.gen == 0
}

const noSlot = -1

type urcSlot struct {
	handler URCHandler
	// incremented each time the slot is allocated, so stale handles
	// do not match.
	gen  uint32
	prev int32
	next int32
	live bool
}

// urcRegistry is a slab of handler slots, threaded into a list in
// registration order.
type urcRegistry struct {
	slots []urcSlot
	free  []int32
	head  int32
	tail  int32

	// nesting depth of dispatch, and slots unregistered during it, which
	// remain linked until the outermost dispatch returns.
	depth int
	dead  []int32
}

func newURCRegistry() urcRegistry {
	return urcRegistry{head: noSlot, tail: noSlot}
}

func (r *urcRegistry) register(h URCHandler) Handle {
	var idx int32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		idx = int32(len(r.slots))
		r.slots = append(r.slots, urcSlot{})
	}
	s := &r.slots[idx]
	s.gen++
	s.handler = h
	s.live = true
	s.next = noSlot
	s.prev = r.tail
	if r.tail == noSlot {
		r.head = idx
	} else {
		r.slots[r.tail].next = idx
	}
	r.tail = idx
	return Handle{index: idx, gen: s.gen}
}

func (r *urcRegistry) unregister(h Handle) {
	if h.gen == 0 || h.index < 0 || int(h.index) >= len(r.slots) {
		return
	}
	s := &r.slots[h.index]
	if !s.live || s.gen != h.gen {
		return
	}
	s.handler = nil
	s.live = false
	if r.depth > 0 {
		r.dead = append(r.dead, h.index)
		return
	}
	r.unlink(h.index)
}

func (r *urcRegistry) unlink(idx int32) {
	s := &r.slots[idx]
	if s.prev == noSlot {
		r.head = s.next
	} else {
		r.slots[s.prev].next = s.next
	}
	if s.next == noSlot {
		r.tail = s.prev
	} else {
		r.slots[s.next].prev = s.prev
	}
	s.prev = noSlot
	s.next = noSlot
	r.free = append(r.free, idx)
}

// dispatch offers line to each handler in registration order, stopping at
// the first that claims it.
//
// Handlers may register and unregister handlers, including themselves,
// while being called. Unregistered handlers are not offered the line.
func (r *urcRegistry) dispatch(line string) bool {
	r.depth++
	defer func() {
		r.depth--
		if r.depth == 0 {
			for _, idx := range r.dead {
				r.unlink(idx)
			}
			r.dead = r.dead[:0]
		}
	}()
	for idx := r.head; idx != noSlot; idx = r.slots[idx].next {
		s := r.slots[idx]
		if s.live && s.handler(line) {
			return true
		}
	}
	return false
}

func (r *urcRegistry) count() int {
	return len(r.slots) - len(r.free) - len(r.dead)
}

// RegisterURCHandler adds a handler to the end of the list of handlers offered
// unsolicited lines.
//
// The returned Handle is used to remove the handler with
// UnregisterURCHandler.
func (a *AT) RegisterURCHandler(h URCHandler) Handle {
	return a.urcs.register(h)
}

// UnregisterURCHandler removes the handler identified by h.
//
// Removing a handler that has already been removed, or a zero Handle, is a
// no-op.
func (a *AT) UnregisterURCHandler(h Handle) {
	a.urcs.unregister(h)
}

// DispatchURC offers the line to the registered URC handlers and returns true
// if one of them claimed it.
func (a *AT) DispatchURC(line string) bool {
	return a.urcs.dispatch(line)
}
