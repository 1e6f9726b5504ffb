// Package buttons contains the edge drivers that feed the press latch. Each
// driver turns its hardware (or stand-in) edge into irq.Handler.Fire.
package buttons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rook-computer/buttonwatch/internal/buttons/irq"
)

var (
	ErrUnknownSource = errors.New("unknown button source")
	ErrUnsupported   = errors.New("button source not supported on this platform")
	ErrNotStarted    = errors.New("button source not started")
)

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

// Source delivers edges to the handler between Start and Stop.
type Source interface {
	Start(ctx context.Context, h *irq.Handler) error
	Stop() error
	Name() string
}

const (
	KindNone   = "none"
	KindManual = "manual"
	KindSignal = "signal"
	KindGPIOD  = "gpiod"
	KindRPIO   = "rpio"
	KindPeriph = "periph"
	KindEvdev  = "evdev"
)

// Config selects and parameterizes a Source.
type Config struct {
	Kind string

	// Chip and Line address a GPIO character device line (gpiod).
	// Line is also the BCM pin number for rpio.
	Chip string
	Line int

	// Pin is a periph.io pin name such as "GPIO17".
	Pin string

	// Device is a glob of evdev nodes; KeyCode is the key that counts as a press.
	Device  string
	KeyCode int

	// PollInterval services the rpio event-detect register.
	PollInterval time.Duration
}

const (
	defaultChip         = "gpiochip0"
	defaultEvdevGlob    = "/dev/input/event*"
	defaultKeyCode      = 28 // KEY_ENTER
	defaultPollInterval = time.Millisecond
)

func (c Config) withDefaults() Config {
	if c.Kind == "" {
		c.Kind = KindNone
	}
	if c.Chip == "" {
		c.Chip = defaultChip
	}
	if c.Device == "" {
		c.Device = defaultEvdevGlob
	}
	if c.KeyCode <= 0 {
		c.KeyCode = defaultKeyCode
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	return c
}

// Open builds the Source named by cfg.Kind. Hardware sources that are not
// available on this platform return ErrUnsupported.
func Open(cfg Config, logger Logger) (Source, error) {
	cfg = cfg.withDefaults()
	switch cfg.Kind {
	case KindNone:
		return NoopSource{}, nil
	case KindManual:
		return NewManual(), nil
	case KindSignal:
		return newSignalSource(logger)
	case KindPeriph:
		return &PeriphSource{PinName: cfg.Pin, Logger: logger}, nil
	case KindGPIOD, KindRPIO, KindEvdev:
		return openPlatform(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.Kind)
	}
}

type NoopSource struct{}

func (NoopSource) Start(ctx context.Context, h *irq.Handler) error { return nil }
func (NoopSource) Stop() error                                     { return nil }
func (NoopSource) Name() string                                    { return KindNone }

// Manual fires the handler on Trigger. Used by the simulator, the web API and
// tests in place of a hardware edge.
type Manual struct {
	mu sync.Mutex
	h  *irq.Handler
}

func NewManual() *Manual { return &Manual{} }

func (m *Manual) Start(ctx context.Context, h *irq.Handler) error {
	m.mu.Lock()
	m.h = h
	m.mu.Unlock()
	return nil
}

func (m *Manual) Stop() error {
	m.mu.Lock()
	m.h = nil
	m.mu.Unlock()
	return nil
}

func (m *Manual) Name() string { return KindManual }

// Trigger delivers one edge.
func (m *Manual) Trigger() error {
	m.mu.Lock()
	h := m.h
	m.mu.Unlock()
	if h == nil {
		return ErrNotStarted
	}
	h.Fire()
	return nil
}

// Multi fans several sources into the same handler.
type Multi []Source

func (m Multi) Start(ctx context.Context, h *irq.Handler) error {
	for i, s := range m {
		if err := s.Start(ctx, h); err != nil {
			for _, started := range m[:i] {
				_ = started.Stop()
			}
			return fmt.Errorf("%s: %w", s.Name(), err)
		}
	}
	return nil
}

func (m Multi) Stop() error {
	var errs []error
	for _, s := range m {
		if err := s.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Name() string {
	names := make([]string, len(m))
	for i, s := range m {
		names[i] = s.Name()
	}
	return strings.Join(names, "+")
}

// FindManual returns the manual source in s, if any.
func FindManual(s Source) *Manual {
	switch v := s.(type) {
	case *Manual:
		return v
	case Multi:
		for _, inner := range v {
			if m := FindManual(inner); m != nil {
				return m
			}
		}
	}
	return nil
}
