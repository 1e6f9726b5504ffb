//go:build linux

package buttons

import (
	"context"
	"fmt"

	"github.com/warthog618/gpiod"

	"github.com/rook-computer/buttonwatch/internal/buttons/irq"
)

// GPIODSource requests a line on the GPIO character device with falling edge
// detection. The kernel queues the edge; gpiod reads it (clearing it) and
// calls the handler from its watcher goroutine.
type GPIODSource struct {
	Chip   string
	Line   int
	Logger Logger

	chip *gpiod.Chip
	line *gpiod.Line
}

func (s *GPIODSource) Name() string { return KindGPIOD }

func (s *GPIODSource) Start(ctx context.Context, h *irq.Handler) error {
	chip, err := gpiod.NewChip(s.Chip, gpiod.WithConsumer("buttonwatch"))
	if err != nil {
		return fmt.Errorf("open %s: %w", s.Chip, err)
	}
	line, err := chip.RequestLine(s.Line,
		gpiod.WithPullUp,
		gpiod.WithFallingEdge,
		gpiod.WithEventHandler(func(gpiod.LineEvent) { h.Fire() }),
	)
	if err != nil {
		_ = chip.Close()
		return fmt.Errorf("request %s line %d: %w", s.Chip, s.Line, err)
	}
	s.chip = chip
	s.line = line
	if s.Logger != nil {
		s.Logger.Infof("buttons", "gpiod edge detection on %s line %d", s.Chip, s.Line)
	}
	return nil
}

func (s *GPIODSource) Stop() error {
	var err error
	if s.line != nil {
		err = s.line.Close()
		s.line = nil
	}
	if s.chip != nil {
		if cerr := s.chip.Close(); err == nil {
			err = cerr
		}
		s.chip = nil
	}
	return err
}
