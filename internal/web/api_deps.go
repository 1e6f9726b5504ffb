package web

import (
	"errors"
	"time"

	"github.com/rook-computer/buttonwatch/internal/consumer"
	"github.com/rook-computer/buttonwatch/internal/notify"
)

var errNotConfigured = errors.New("not configured")

// ButtonState is the consumer side the API reads and drains.
//
// The concrete implementation is *consumer.Indicator.
type ButtonState interface {
	Snapshot() consumer.Snapshot
	Drain() bool
	Acknowledge()
}

// MonitorStats is implemented by *monitor.Monitor.
type MonitorStats interface {
	Interval() time.Duration
	Emitted() uint64
	LastCycle() time.Time
	Running() bool
}

// EventSource hands out independent notification subscriptions.
type EventSource interface {
	Subscribe(buffer int) *notify.Subscription
}

// EdgeCounter reports raw interrupt edges, including coalesced ones.
type EdgeCounter interface {
	Edges() uint32
}

// Trigger injects a software edge. Only wired for sources that support it.
type Trigger interface {
	Trigger() error
}

// sysLogger is the logging shape shared across the app.
type sysLogger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type APIV1Deps struct {
	Button  ButtonState
	Monitor MonitorStats
	Events  EventSource
	Edges   EdgeCounter
	Trigger Trigger
	Logger  sysLogger

	// Now is used for heartbeat checks; tests may replace it.
	Now func() time.Time
}

func (d APIV1Deps) withDefaults() APIV1Deps {
	out := d
	if out.Button == nil {
		out.Button = NoopButtonState{}
	}
	if out.Monitor == nil {
		out.Monitor = NoopMonitorStats{}
	}
	if out.Edges == nil {
		out.Edges = NoopMonitorStats{}
	}
	if out.Logger == nil {
		out.Logger = noopSysLogger{}
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	return out
}

type NoopButtonState struct{}

func (NoopButtonState) Snapshot() consumer.Snapshot { return consumer.Snapshot{} }
func (NoopButtonState) Drain() bool                 { return false }
func (NoopButtonState) Acknowledge()                {}

// NoopMonitorStats reports a monitor that never ran.
type NoopMonitorStats struct{}

func (NoopMonitorStats) Interval() time.Duration { return 0 }
func (NoopMonitorStats) Emitted() uint64         { return 0 }
func (NoopMonitorStats) LastCycle() time.Time    { return time.Time{} }
func (NoopMonitorStats) Running() bool           { return false }
func (NoopMonitorStats) Edges() uint32           { return 0 }

type noopSysLogger struct{}

func (noopSysLogger) Infof(string, string, ...interface{})  {}
func (noopSysLogger) Errorf(string, string, ...interface{}) {}
