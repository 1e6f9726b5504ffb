//go:build linux

package buttons

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stianeikeland/go-rpio/v4"

	"github.com/rook-computer/buttonwatch/internal/buttons/irq"
)

// RPIOSource uses the BCM283x event detect register. The hardware latches a
// falling edge in the pin's pending bit; EdgeDetected reads and clears it.
// Linux owns the GPIO interrupt, so a goroutine services the bit instead.
type RPIOSource struct {
	Pin          int
	PollInterval time.Duration
	Logger       Logger

	pin    rpio.Pin
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (s *RPIOSource) Name() string { return KindRPIO }

func (s *RPIOSource) Start(ctx context.Context, h *irq.Handler) error {
	if err := rpio.Open(); err != nil {
		return fmt.Errorf("rpio open: %w", err)
	}
	pin := rpio.Pin(s.Pin)
	pin.Input()
	pin.PullUp()
	pin.Detect(rpio.FallEdge)
	s.pin = pin

	interval := s.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				// EdgeDetected acknowledges the pending bit as it reads it.
				if pin.EdgeDetected() {
					h.Fire()
				}
			}
		}
	}()
	if s.Logger != nil {
		s.Logger.Infof("buttons", "rpio edge detection on BCM%d every %s", s.Pin, interval)
	}
	return nil
}

func (s *RPIOSource) Stop() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	s.wg.Wait()
	s.cancel = nil
	s.pin.Detect(rpio.NoEdge)
	return rpio.Close()
}
