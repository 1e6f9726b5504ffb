package buttons

import (
	"context"
	"errors"
	"testing"

	"github.com/rook-computer/buttonwatch/internal/buttons/irq"
	"github.com/rook-computer/buttonwatch/internal/latch"
)

func TestOpenKinds(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{"", KindNone},
		{KindNone, KindNone},
		{KindManual, KindManual},
		{KindPeriph, KindPeriph},
	}
	for _, tt := range tests {
		src, err := Open(Config{Kind: tt.kind, Pin: "GPIO17"}, nil)
		if err != nil {
			t.Fatalf("Open(%q) failed: %v", tt.kind, err)
		}
		if src.Name() != tt.want {
			t.Errorf("Open(%q).Name() = %q, want %q", tt.kind, src.Name(), tt.want)
		}
	}
}

func TestOpenUnknownKind(t *testing.T) {
	_, err := Open(Config{Kind: "carrier-pigeon"}, nil)
	if !errors.Is(err, ErrUnknownSource) {
		t.Errorf("Expected ErrUnknownSource, got %v", err)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.Kind != KindNone || cfg.Chip != defaultChip || cfg.KeyCode != defaultKeyCode {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.PollInterval != defaultPollInterval || cfg.Device != defaultEvdevGlob {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestManualTrigger(t *testing.T) {
	m := NewManual()
	if err := m.Trigger(); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("Expected ErrNotStarted before Start, got %v", err)
	}

	l := latch.New()
	h := irq.New(l, nil)
	if err := m.Start(context.Background(), h); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := m.Trigger(); err != nil {
		t.Fatalf("Trigger failed: %v", err)
	}
	if l.Take() != latch.Pressed {
		t.Error("Expected latch set by Trigger")
	}

	_ = m.Stop()
	if err := m.Trigger(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Expected ErrNotStarted after Stop, got %v", err)
	}
}

func TestNoopSource(t *testing.T) {
	var src Source = NoopSource{}
	if err := src.Start(context.Background(), nil); err != nil {
		t.Errorf("Start: %v", err)
	}
	if err := src.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

func TestPeriphRequiresPin(t *testing.T) {
	src := &PeriphSource{}
	if err := src.Start(context.Background(), irq.New(latch.New(), nil)); err == nil {
		t.Error("Expected error without a pin name")
	}
}

type stubSource struct {
	name     string
	startErr error
	stopErr  error
	started  bool
	stopped  bool
}

func (s *stubSource) Start(ctx context.Context, h *irq.Handler) error {
	if s.startErr != nil {
		return s.startErr
	}
	s.started = true
	return nil
}

func (s *stubSource) Stop() error {
	s.stopped = true
	return s.stopErr
}

func (s *stubSource) Name() string { return s.name }

func TestMultiStartsAll(t *testing.T) {
	a, b := &stubSource{name: "a"}, &stubSource{name: "b"}
	m := Multi{a, b}
	if m.Name() != "a+b" {
		t.Errorf("Expected name a+b, got %q", m.Name())
	}
	if err := m.Start(context.Background(), irq.New(latch.New(), nil)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !a.started || !b.started {
		t.Error("Expected both sources started")
	}

	b.stopErr = errors.New("busy")
	err := m.Stop()
	if !a.stopped || !b.stopped {
		t.Error("Expected both sources stopped")
	}
	if err == nil || err.Error() != "b: busy" {
		t.Errorf("Expected joined stop error, got %v", err)
	}
}

func TestMultiRollsBackOnStartFailure(t *testing.T) {
	a := &stubSource{name: "a"}
	b := &stubSource{name: "b", startErr: ErrUnsupported}
	c := &stubSource{name: "c"}
	err := Multi{a, b, c}.Start(context.Background(), irq.New(latch.New(), nil))
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Expected ErrUnsupported, got %v", err)
	}
	if !a.stopped {
		t.Error("Expected started source to be stopped again")
	}
	if c.started {
		t.Error("Expected later sources not to start")
	}
}

func TestFindManual(t *testing.T) {
	m := NewManual()
	if FindManual(m) != m {
		t.Error("Expected direct manual source")
	}
	if FindManual(Multi{NoopSource{}, Multi{m}}) != m {
		t.Error("Expected nested manual source")
	}
	if FindManual(NoopSource{}) != nil {
		t.Error("Expected no manual source")
	}
}
