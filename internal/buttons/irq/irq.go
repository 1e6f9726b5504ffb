// Package irq is the edge handler that runs in interrupt context (or the
// goroutine standing in for it): acknowledge the source, set the latch.
//
// It only depends on the latch so TinyGo targets can use it directly.
package irq

import (
	"sync/atomic"

	"github.com/rook-computer/buttonwatch/internal/latch"
)

type Handler struct {
	latch *latch.Latch
	ack   func()
	edges atomic.Uint32
}

// New returns a handler that sets l. ack, when non-nil, clears the hardware
// pending condition and must itself be bounded and non-blocking.
func New(l *latch.Latch, ack func()) *Handler {
	return &Handler{latch: l, ack: ack}
}

// Fire handles one edge. It does not allocate, lock or block.
func (h *Handler) Fire() {
	if h.ack != nil {
		h.ack()
	}
	h.latch.Set()
	h.edges.Add(1)
}

// Edges counts every Fire, including edges later coalesced by the latch.
func (h *Handler) Edges() uint32 {
	return h.edges.Load()
}
