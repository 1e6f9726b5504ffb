package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rook-computer/buttonwatch/internal/buttons"
	"github.com/rook-computer/buttonwatch/internal/buttons/irq"
	"github.com/rook-computer/buttonwatch/internal/config"
	"github.com/rook-computer/buttonwatch/internal/render"
	"github.com/rook-computer/buttonwatch/internal/state"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type failingSource struct{ buttons.NoopSource }

func (failingSource) Start(ctx context.Context, h *irq.Handler) error {
	return errors.New("no such line")
}

type fixedNet string

func (n fixedNet) IP(ctx context.Context) (string, error) { return string(n), nil }

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func startApp(t *testing.T, a *App) (cancel context.CancelFunc, done <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan error, 1)
	go func() { ch <- a.Start(ctx) }()
	eventually(t, "ready", func() bool { return a.Store.Snapshot().Phase == state.READY })
	return cancel, ch
}

func newTestApp(source buttons.Source) *App {
	return New(state.NewStore(), &render.NoopRenderer{}, source, Options{PollInterval: time.Millisecond, Hold: time.Hour})
}

func TestPressReachesStore(t *testing.T) {
	manual := buttons.NewManual()
	serial := &syncBuffer{}
	a := newTestApp(manual)
	a.Serial = serial
	cancel, done := startApp(t, a)

	if err := a.Trigger(); err != nil {
		t.Fatalf("Trigger failed: %v", err)
	}
	eventually(t, "pressed", func() bool {
		st := a.Store.Snapshot()
		return st.Phase == state.PRESSED && st.Button.Presses == 1
	})
	eventually(t, "forwarded", func() bool { return strings.Contains(serial.String(), "PRESS seq=1\r\n") })

	a.Indicator.Acknowledge()
	eventually(t, "released", func() bool { return a.Store.Snapshot().Phase == state.READY })

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if a.Store.Snapshot().Phase != state.STOPPED {
		t.Errorf("Expected STOPPED, got %s", a.Store.Snapshot().Phase)
	}
	if !errors.Is(manual.Trigger(), buttons.ErrNotStarted) {
		t.Error("Expected source to be stopped after shutdown")
	}
}

func TestExitReturnsError(t *testing.T) {
	a := newTestApp(buttons.NewManual())
	cancel, done := startApp(t, a)
	defer cancel()

	want := errors.New("requested")
	a.Exit(want)
	a.Exit(errors.New("ignored"))
	if err := <-done; err != want {
		t.Errorf("Expected first exit error, got %v", err)
	}
}

func TestSourceStartFailure(t *testing.T) {
	a := newTestApp(failingSource{})
	err := a.Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "no such line") {
		t.Fatalf("Expected source error, got %v", err)
	}
	if a.Monitor.Running() {
		t.Error("Expected monitor to be stopped")
	}
}

func TestStatsAndNetworkPublished(t *testing.T) {
	a := newTestApp(buttons.NewManual())
	a.Net = fixedNet("192.0.2.5")
	a.Listen = ":8080"
	cancel, done := startApp(t, a)
	defer func() { cancel(); <-done }()

	eventually(t, "network", func() bool { return a.Store.Snapshot().Network.URL == "http://192.0.2.5:8080/" })
	eventually(t, "monitor stats", func() bool { return a.Store.Snapshot().Monitor.Interval == time.Millisecond })
}

func TestApplyConfig(t *testing.T) {
	a := newTestApp(buttons.NewManual())
	a.ApplyConfig(config.Config{PollInterval: 20 * time.Millisecond, HoldDuration: time.Millisecond})
	if got := a.Monitor.Interval(); got != 20*time.Millisecond {
		t.Errorf("Expected interval 20ms, got %s", got)
	}
	if got := a.Indicator.Snapshot().Hold; got != MinHold {
		t.Errorf("Expected hold clamped to %s, got %s", MinHold, got)
	}
	a.ApplyConfig(config.Config{PollInterval: 20 * time.Millisecond})
	if got := a.Indicator.Snapshot().Hold; got != 0 {
		t.Errorf("Expected zero hold kept as latched mode, got %s", got)
	}
}

func TestTriggerUnsupported(t *testing.T) {
	a := newTestApp(buttons.NoopSource{})
	if err := a.Trigger(); !errors.Is(err, buttons.ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}
	if a.APIDeps().Trigger != nil {
		t.Error("Expected no trigger wired for a hardware source")
	}
	if newTestApp(buttons.NewManual()).APIDeps().Trigger == nil {
		t.Error("Expected trigger wired for the manual source")
	}
}
