//go:build unix

package buttons

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rook-computer/buttonwatch/internal/buttons/irq"
)

// SignalSource treats every SIGUSR1 as one edge (`kill -USR1 <pid>`).
type SignalSource struct {
	Logger Logger

	ch     chan os.Signal
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newSignalSource(logger Logger) (Source, error) {
	return &SignalSource{Logger: logger}, nil
}

func (s *SignalSource) Name() string { return KindSignal }

func (s *SignalSource) Start(ctx context.Context, h *irq.Handler) error {
	s.ch = make(chan os.Signal, 1)
	signal.Notify(s.ch, syscall.SIGUSR1)

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-s.ch:
				h.Fire()
			}
		}
	}()
	if s.Logger != nil {
		s.Logger.Infof("buttons", "send SIGUSR1 to pid %d to press", os.Getpid())
	}
	return nil
}

func (s *SignalSource) Stop() error {
	if s.cancel == nil {
		return nil
	}
	signal.Stop(s.ch)
	s.cancel()
	s.wg.Wait()
	s.cancel = nil
	return nil
}
