package buttons

import (
	"context"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/rook-computer/buttonwatch/internal/buttons/irq"
)

// PeriphSource waits for falling edges on a periph.io pin (active low button
// with pull-up).
type PeriphSource struct {
	PinName string
	Logger  Logger

	pin    gpio.PinIO
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (s *PeriphSource) Name() string { return KindPeriph }

func (s *PeriphSource) Start(ctx context.Context, h *irq.Handler) error {
	if s.PinName == "" {
		return fmt.Errorf("periph: no pin configured")
	}
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}
	pin := gpioreg.ByName(s.PinName)
	if pin == nil {
		return fmt.Errorf("periph: unknown pin %q", s.PinName)
	}
	if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return fmt.Errorf("periph: configure %s: %w", s.PinName, err)
	}
	s.pin = pin

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			// Bounded wait so cancellation is noticed.
			if pin.WaitForEdge(250 * time.Millisecond) {
				h.Fire()
			}
			select {
			case <-runCtx.Done():
				return
			default:
			}
		}
	}()
	if s.Logger != nil {
		s.Logger.Infof("buttons", "periph edge detection on %s", s.PinName)
	}
	return nil
}

func (s *PeriphSource) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	if s.pin != nil {
		return s.pin.Halt()
	}
	return nil
}
