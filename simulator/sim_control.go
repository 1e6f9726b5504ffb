package main

import (
	"encoding/json"
	"image/png"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rook-computer/buttonwatch/internal/app"
	"github.com/rook-computer/buttonwatch/internal/app/screens"
	"github.com/rook-computer/buttonwatch/internal/render"
)

const (
	maxBurst = 10000
	maxGap   = time.Second
	screenW  = 960
	screenH  = 540
)

// SimControl exposes test knobs next to the regular API.
type SimControl struct {
	app *app.App

	// Canvas is not safe for concurrent use; screenshots are serialized.
	mu     sync.Mutex
	canvas *render.Canvas
}

func NewSimControl(a *app.App) *SimControl {
	c := render.NewCanvas(screenW, screenH)
	c.LoadFonts()
	return &SimControl{app: a, canvas: c}
}

type pressResult struct {
	Fired  int    `json:"fired"`
	Edges  uint32 `json:"edges"`
	Gap    string `json:"gap"`
	Source string `json:"source"`
}

// Press fires count edges, gap apart. A burst with no gap lands within one
// poll interval and shows up as a single notification.
func (c *SimControl) Press(count int, gap time.Duration) (int, error) {
	for i := 0; i < count; i++ {
		if i > 0 && gap > 0 {
			time.Sleep(gap)
		}
		if err := c.app.Trigger(); err != nil {
			return i, err
		}
	}
	return count, nil
}

func (c *SimControl) Register(mux *http.ServeMux) {
	mux.HandleFunc("/sim/press", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		count, err := queryInt(r, "count", 1)
		if err != nil || count < 1 || count > maxBurst {
			writeSimError(w, http.StatusBadRequest, "count must be between 1 and "+strconv.Itoa(maxBurst))
			return
		}
		gap := time.Duration(0)
		if raw := r.URL.Query().Get("gap"); raw != "" {
			gap, err = time.ParseDuration(raw)
			if err != nil || gap < 0 || gap > maxGap {
				writeSimError(w, http.StatusBadRequest, "gap must be a duration up to "+maxGap.String())
				return
			}
		}
		fired, err := c.Press(count, gap)
		if err != nil {
			writeSimError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeSimJSON(w, http.StatusOK, pressResult{Fired: fired, Edges: c.app.IRQ.Edges(), Gap: gap.String(), Source: c.app.Source.Name()})
	})

	mux.HandleFunc("/sim/reset", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		c.app.Indicator.Acknowledge()
		c.app.Indicator.Drain()
		writeSimJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	mux.HandleFunc("/sim/interval", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
		case http.MethodPost:
			d, err := time.ParseDuration(r.URL.Query().Get("d"))
			if err != nil || d <= 0 {
				writeSimError(w, http.StatusBadRequest, "d must be a positive duration")
				return
			}
			c.app.Monitor.SetInterval(d)
		default:
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeSimJSON(w, http.StatusOK, map[string]any{"interval": c.app.Monitor.Interval().String()})
	})

	mux.HandleFunc("/sim/screen.png", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		img := c.canvas.Render(screens.PressScreen{}, c.app.Store.Snapshot())
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		_ = png.Encode(w, img)
	})
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func writeSimJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSimError(w http.ResponseWriter, status int, message string) {
	writeSimJSON(w, status, map[string]any{"error": message})
}
