// Package latch holds the single-slot "press pending" cell shared between the
// edge handler and the monitor.
package latch

import "sync/atomic"

type ButtonState uint32

const (
	Released ButtonState = iota
	Pressed
)

func (s ButtonState) String() string {
	switch s {
	case Pressed:
		return "pressed"
	case Released:
		return "released"
	default:
		return "unknown"
	}
}

// Latch records whether an edge occurred since the last Take.
// The zero value is a Released latch ready for use.
//
// Set may be called from any goroutine, including an interrupt handler on
// TinyGo targets: it is a single atomic store and never allocates or blocks.
// Take must only be called by the one designated clearer.
type Latch struct {
	state atomic.Uint32
}

func New() *Latch { return &Latch{} }

// Set marks the latch Pressed. Repeated calls before a Take coalesce.
func (l *Latch) Set() {
	l.state.Store(uint32(Pressed))
}

// Take returns the current state and resets the latch to Released in the same
// atomic operation, so an edge landing concurrently is either returned now or
// left pending for the next Take.
func (l *Latch) Take() ButtonState {
	return ButtonState(l.state.Swap(uint32(Released)))
}

// Peek reads the state without consuming it.
func (l *Latch) Peek() ButtonState {
	return ButtonState(l.state.Load())
}
