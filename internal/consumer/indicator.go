// Package consumer adapts press notifications for the application's own
// scheduling domains: an observable "is pressed" property, a pull-style
// drain, and a serial forwarder.
package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/rook-computer/buttonwatch/internal/notify"
)

const DefaultHold = 250 * time.Millisecond

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type Snapshot struct {
	Pressed   bool
	Presses   uint64
	LastSeq   uint64
	Missed    uint64
	LastPress time.Time
	Hold      time.Duration
}

// Indicator turns each notification into a pressed state that lasts Hold, or
// until Acknowledge when Hold is zero.
type Indicator struct {
	Logger Logger

	// notifyMu serializes state transitions with their listener calls so
	// listeners observe changes in order.
	notifyMu sync.Mutex

	mu        sync.Mutex
	hold      time.Duration
	pressed   bool
	pending   bool
	presses   uint64
	lastSeq   uint64
	missed    uint64
	lastPress time.Time
	gen       uint64
	timer     *time.Timer
	listeners map[uint64]func(bool)
	nextID    uint64
}

func NewIndicator(hold time.Duration) *Indicator {
	if hold < 0 {
		hold = 0
	}
	return &Indicator{hold: hold, listeners: make(map[uint64]func(bool))}
}

// Run consumes sub until ctx is done or the subscription is closed.
func (i *Indicator) Run(ctx context.Context, sub *notify.Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-sub.C:
			if !ok {
				return nil
			}
			i.Handle(ev)
		}
	}
}

// Handle applies one notification.
func (i *Indicator) Handle(ev notify.Event) {
	i.notifyMu.Lock()
	defer i.notifyMu.Unlock()

	i.mu.Lock()
	if i.lastSeq != 0 && ev.Seq > i.lastSeq+1 {
		gap := ev.Seq - i.lastSeq - 1
		i.missed += gap
		if i.Logger != nil {
			i.Logger.Errorf("indicator", "missed %d notification(s) before seq %d", gap, ev.Seq)
		}
	}
	if ev.Seq > i.lastSeq {
		i.lastSeq = ev.Seq
	}
	i.presses++
	i.pending = true
	i.lastPress = ev.At
	changed := !i.pressed
	i.pressed = true
	i.gen++
	i.armLocked()
	listeners := i.listenersLocked()
	i.mu.Unlock()

	if changed {
		notifyAll(listeners, true)
	}
}

// IsPressed reports whether a press is currently being displayed.
func (i *Indicator) IsPressed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.pressed
}

// Drain reports whether any press arrived since the previous Drain and
// clears that flag. It does not affect IsPressed.
func (i *Indicator) Drain() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	pending := i.pending
	i.pending = false
	return pending
}

// Acknowledge resets the displayed state immediately.
func (i *Indicator) Acknowledge() {
	i.release(0, false)
}

// OnChange registers fn to be called with every change of IsPressed. fn must
// not call Handle or Acknowledge.
func (i *Indicator) OnChange(fn func(pressed bool)) (unsubscribe func()) {
	i.mu.Lock()
	i.nextID++
	id := i.nextID
	i.listeners[id] = fn
	i.mu.Unlock()

	return func() {
		i.mu.Lock()
		delete(i.listeners, id)
		i.mu.Unlock()
	}
}

// SetHold changes the display duration for subsequent presses.
func (i *Indicator) SetHold(d time.Duration) {
	if d < 0 {
		d = 0
	}
	i.mu.Lock()
	i.hold = d
	i.mu.Unlock()
}

func (i *Indicator) Snapshot() Snapshot {
	i.mu.Lock()
	defer i.mu.Unlock()
	return Snapshot{
		Pressed:   i.pressed,
		Presses:   i.presses,
		LastSeq:   i.lastSeq,
		Missed:    i.missed,
		LastPress: i.lastPress,
		Hold:      i.hold,
	}
}

// Close stops a pending hold timer.
func (i *Indicator) Close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.timer != nil {
		i.timer.Stop()
		i.timer = nil
	}
	i.gen++
}

// armLocked restarts the hold timer. The generation guards against a timer
// that already fired for an earlier press.
func (i *Indicator) armLocked() {
	if i.timer != nil {
		i.timer.Stop()
		i.timer = nil
	}
	if i.hold <= 0 {
		return
	}
	gen := i.gen
	i.timer = time.AfterFunc(i.hold, func() { i.release(gen, true) })
}

func (i *Indicator) release(gen uint64, fromTimer bool) {
	i.notifyMu.Lock()
	defer i.notifyMu.Unlock()

	i.mu.Lock()
	if fromTimer && gen != i.gen {
		i.mu.Unlock()
		return
	}
	if i.timer != nil {
		i.timer.Stop()
		i.timer = nil
	}
	changed := i.pressed
	i.pressed = false
	listeners := i.listenersLocked()
	i.mu.Unlock()

	if changed {
		notifyAll(listeners, false)
	}
}

func (i *Indicator) listenersLocked() []func(bool) {
	out := make([]func(bool), 0, len(i.listeners))
	for _, fn := range i.listeners {
		out = append(out, fn)
	}
	return out
}

func notifyAll(listeners []func(bool), pressed bool) {
	for _, fn := range listeners {
		fn(pressed)
	}
}
