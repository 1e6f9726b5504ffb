//go:build unix

package buttons

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/rook-computer/buttonwatch/internal/buttons/irq"
	"github.com/rook-computer/buttonwatch/internal/latch"
)

func TestSignalSourceFires(t *testing.T) {
	src, err := Open(Config{Kind: KindSignal}, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	l := latch.New()
	h := irq.New(l, nil)
	if err := src.Start(context.Background(), h); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer src.Stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("kill: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for h.Edges() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("signal did not produce an edge")
		}
		time.Sleep(time.Millisecond)
	}
	if l.Take() != latch.Pressed {
		t.Error("Expected latch set")
	}
}
