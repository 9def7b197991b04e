// Package mode holds the interaction mode and the queue of requests to change it.
//
// Only the primary loop calls Transition. Every other goroutine (tray,
// voice commands, HTTP handlers) calls Request, and the primary loop polls
// the queue once per frame.
package mode

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Mode is an interaction mode.
type Mode int32

const (
	// Menu is the initial mode: no gesture loop runs.
	Menu Mode = iota
	// Mouse drives the pointer from the index fingertip.
	Mouse
	// Keyboard shows the virtual keyboard.
	Keyboard
)

// String returns the lower-case mode name.
func (m Mode) String() string {
	switch m {
	case Menu:
		return "menu"
	case Mouse:
		return "mouse"
	case Keyboard:
		return "keyboard"
	default:
		return fmt.Sprintf("mode(%d)", int32(m))
	}
}

// Parse converts a mode name to a Mode.
func Parse(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "menu", "":
		return Menu, nil
	case "mouse":
		return Mouse, nil
	case "keyboard":
		return Keyboard, nil
	default:
		return Menu, fmt.Errorf("unknown mode %q", s)
	}
}

// QueueSize is the capacity of the request queue.
const QueueSize = 4

// Request asks the primary loop to enter a mode.
type Request struct {
	To     Mode
	Source string // tray, voice, keyboard, http, escape
}

// Machine is the current mode plus a bounded request queue.
type Machine struct {
	current  atomic.Int32
	requests chan Request
	onChange func(from, to Mode)
}

// New creates a Machine in the given mode.
func New(initial Mode) *Machine {
	m := &Machine{requests: make(chan Request, QueueSize)}
	m.current.Store(int32(initial))
	return m
}

// OnChange registers a callback run by Transition on the primary loop.
// It must be set before the loop starts.
func (m *Machine) OnChange(fn func(from, to Mode)) {
	m.onChange = fn
}

// Current returns the active mode. Safe from any goroutine.
func (m *Machine) Current() Mode {
	return Mode(m.current.Load())
}

// Transition switches to the given mode and reports the previous one.
// Entering the current mode is a no-op.
func (m *Machine) Transition(to Mode) (Mode, bool) {
	from := Mode(m.current.Swap(int32(to)))
	if from == to {
		return from, false
	}
	if m.onChange != nil {
		m.onChange(from, to)
	}
	return from, true
}

// Request queues a mode change without blocking. It returns false when
// the queue is full and the request was dropped.
func (m *Machine) Request(to Mode, source string) bool {
	select {
	case m.requests <- Request{To: to, Source: source}:
		return true
	default:
		return false
	}
}

// Requests exposes the queue for blocking waits (menu mode).
func (m *Machine) Requests() <-chan Request {
	return m.requests
}

// Poll returns a pending request, if any, without blocking.
func (m *Machine) Poll() (Request, bool) {
	select {
	case r := <-m.requests:
		return r, true
	default:
		return Request{}, false
	}
}
