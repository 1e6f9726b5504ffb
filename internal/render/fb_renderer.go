package render

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	fb "github.com/gonutz/framebuffer"
	xdraw "golang.org/x/image/draw"

	"github.com/rook-computer/buttonwatch/internal/state"
)

// FBRenderer renders to the Linux framebuffer using an offscreen logical canvas.
type FBRenderer struct {
	Device string
	Logger logger

	fbDev   *fb.Device
	canvas  *Canvas
	running atomic.Bool

	mu      sync.Mutex
	current Screen
	last    state.State
	drawn   bool
	frames  atomic.Uint64
}

func NewFBRenderer(device string) *FBRenderer {
	if device == "" {
		device = "/dev/fb0"
	}
	return &FBRenderer{Device: device}
}

func (r *FBRenderer) Start(ctx context.Context) error {
	dev, err := fb.Open(r.Device)
	if err != nil {
		return err
	}
	r.fbDev = dev
	if r.Logger != nil {
		bounds := dev.Bounds()
		r.Logger.Infof("fb", "framebuffer %s open, bounds=%dx%d", r.Device, bounds.Dx(), bounds.Dy())
	}

	r.canvas = NewCanvas(CanvasWidth, CanvasHeight)
	r.canvas.Logger = r.Logger
	r.canvas.LoadFonts()

	r.running.Store(true)
	return nil
}

func (r *FBRenderer) Stop() error {
	r.running.Store(false)
	if r.fbDev != nil {
		r.fbDev.Close()
		r.fbDev = nil
	}
	return nil
}

// SetScreen sets the current logical screen and forces the next redraw.
func (r *FBRenderer) SetScreen(screen Screen) {
	r.mu.Lock()
	r.current = screen
	r.drawn = false
	r.mu.Unlock()
}

// RedrawWithState draws the current screen, skipping frames whose state did
// not change since the last draw.
func (r *FBRenderer) RedrawWithState(snap state.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running.Load() || r.current == nil || r.fbDev == nil {
		return
	}
	if r.drawn && snap == r.last {
		return
	}
	img := r.canvas.Render(r.current, snap)
	xdraw.NearestNeighbor.Scale(r.fbDev, r.fbDev.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	r.last = snap
	r.drawn = true
	r.frames.Add(1)
}

// RunLoop redraws at FramesPerSecond until the context is done.
func (r *FBRenderer) RunLoop(ctx context.Context, store *state.Store) {
	ticker := time.NewTicker(time.Second / FramesPerSecond)
	defer ticker.Stop()
	lastLog := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := store.Snapshot()
			r.RedrawWithState(snap)
			if r.Logger != nil && time.Since(lastLog) > 10*time.Second {
				r.Logger.Infof("fb", "heartbeat, frames=%d phase=%s", r.frames.Load(), snap.Phase)
				lastLog = time.Now()
			}
		}
	}
}

// Frames counts frames actually pushed to the device.
func (r *FBRenderer) Frames() uint64 {
	return r.frames.Load()
}
