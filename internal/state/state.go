package state

import (
	"sync"
	"time"
)

type Phase int

const (
	BOOTING Phase = iota
	READY
	PRESSED
	STOPPED
)

func (p Phase) String() string {
	switch p {
	case BOOTING:
		return "booting"
	case READY:
		return "ready"
	case PRESSED:
		return "pressed"
	case STOPPED:
		return "stopped"
	default:
		return "unknown"
	}
}

type ButtonInfo struct {
	Pressed   bool
	Presses   uint64
	LastSeq   uint64
	Missed    uint64
	LastPress time.Time
}

type MonitorInfo struct {
	Interval  time.Duration
	Emitted   uint64
	Edges     uint64
	LastCycle time.Time
}

// Coalesced is the number of edges that did not produce a notification of
// their own.
func (m MonitorInfo) Coalesced() uint64 {
	if m.Edges < m.Emitted {
		return 0
	}
	return m.Edges - m.Emitted
}

type NetworkInfo struct {
	URL   string
	URLQR string
}

type State struct {
	Phase   Phase
	Button  ButtonInfo
	Monitor MonitorInfo
	Network NetworkInfo
}

type Store struct {
	mu    sync.RWMutex
	state State
}

func NewStore() *Store {
	return &Store{state: State{Phase: BOOTING}}
}

func (store *Store) Snapshot() State {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.state
}

func (store *Store) SetPhase(phase Phase) {
	store.mu.Lock()
	store.state.Phase = phase
	store.mu.Unlock()
}

// UpdateButton replaces the button info and moves between READY and PRESSED
// accordingly. Other phases are left alone.
func (store *Store) UpdateButton(button ButtonInfo) {
	store.mu.Lock()
	store.state.Button = button
	switch store.state.Phase {
	case READY, PRESSED:
		if button.Pressed {
			store.state.Phase = PRESSED
		} else {
			store.state.Phase = READY
		}
	}
	store.mu.Unlock()
}

func (store *Store) UpdateMonitor(monitor MonitorInfo) {
	store.mu.Lock()
	store.state.Monitor = monitor
	store.mu.Unlock()
}

func (store *Store) UpdateNetwork(network NetworkInfo) {
	store.mu.Lock()
	store.state.Network = network
	store.mu.Unlock()
}
