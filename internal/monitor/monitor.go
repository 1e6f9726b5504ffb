// Package monitor implements the periodic task that owns the press latch:
// each cycle it takes the latch and republishes a pending press.
package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rook-computer/buttonwatch/internal/latch"
	"github.com/rook-computer/buttonwatch/internal/notify"
)

const DefaultInterval = 10 * time.Millisecond

var ErrAlreadyRunning = errors.New("monitor already running")

type Publisher interface {
	Publish(ev notify.Event)
}

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

// Monitor is the only component allowed to clear the latch.
type Monitor struct {
	Latch     *latch.Latch
	Publisher Publisher
	Logger    Logger

	// Now stamps events and heartbeats; tests may replace it.
	Now func() time.Time

	interval  atomic.Int64
	intervalC chan time.Duration
	running   atomic.Bool
	seq       atomic.Uint64
	lastCycle atomic.Int64
}

func New(l *latch.Latch, pub Publisher, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	m := &Monitor{
		Latch:     l,
		Publisher: pub,
		Now:       time.Now,
		intervalC: make(chan time.Duration, 1),
	}
	m.interval.Store(int64(interval))
	return m
}

// Run polls the latch every interval until ctx is done. A cycle in progress
// always completes; cancellation is only observed while suspended.
func (m *Monitor) Run(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer m.running.Store(false)

	interval := m.Interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	m.logf("poll loop started, interval=%s", interval)

	for {
		select {
		case <-ctx.Done():
			m.logf("poll loop stopped after %d notifications", m.Emitted())
			return ctx.Err()
		case d := <-m.intervalC:
			ticker.Reset(d)
			m.logf("poll interval changed to %s", d)
		case <-ticker.C:
			m.Poll()
		}
	}
}

// Poll runs one cycle and reports whether a notification was emitted.
func (m *Monitor) Poll() bool {
	now := m.now()
	m.lastCycle.Store(now.UnixNano())

	if m.Latch.Take() != latch.Pressed {
		return false
	}
	ev := notify.Event{Seq: m.seq.Add(1), At: now}
	if m.Publisher != nil {
		m.Publisher.Publish(ev)
	}
	return true
}

// SetInterval changes the cadence starting with the next cycle.
func (m *Monitor) SetInterval(d time.Duration) {
	if d <= 0 || time.Duration(m.interval.Swap(int64(d))) == d || m.intervalC == nil {
		return
	}
	// Keep only the latest request if the loop has not picked up the last one.
	for {
		select {
		case m.intervalC <- d:
			return
		default:
		}
		select {
		case <-m.intervalC:
		default:
		}
	}
}

func (m *Monitor) Interval() time.Duration {
	return time.Duration(m.interval.Load())
}

// Emitted is the sequence number of the last notification.
func (m *Monitor) Emitted() uint64 {
	return m.seq.Load()
}

// LastCycle is the time of the most recent Poll; zero before the first one.
func (m *Monitor) LastCycle() time.Time {
	ns := m.lastCycle.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

func (m *Monitor) Running() bool {
	return m.running.Load()
}

func (m *Monitor) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

func (m *Monitor) logf(format string, args ...interface{}) {
	if m.Logger != nil {
		m.Logger.Infof("monitor", format, args...)
	}
}
