package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rook-computer/buttonwatch/internal/buttons"
)

// A heartbeat older than this many poll intervals fails the health check.
const staleIntervals = 10

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type buttonResponse struct {
	Pressed   bool   `json:"pressed"`
	Presses   uint64 `json:"presses"`
	LastSeq   uint64 `json:"lastSeq"`
	Missed    uint64 `json:"missed"`
	LastPress string `json:"lastPress,omitempty"`
	HoldMs    int64  `json:"holdMs"`
}

type drainResponse struct {
	Pressed bool `json:"pressed"`
}

type monitorResponse struct {
	Running    bool   `json:"running"`
	IntervalMs int64  `json:"intervalMs"`
	Emitted    uint64 `json:"emitted"`
	Edges      uint64 `json:"edges"`
	Coalesced  uint64 `json:"coalesced"`
	LastCycle  string `json:"lastCycle,omitempty"`
}

type healthResponse struct {
	OK        bool   `json:"ok"`
	AgeMs     int64  `json:"ageMs"`
	MaxAgeMs  int64  `json:"maxAgeMs"`
	LastCycle string `json:"lastCycle,omitempty"`
}

func apiV1RouterWithDeps(deps APIV1Deps) http.Handler {
	deps = deps.withDefaults()
	mux := http.NewServeMux()
	mux.HandleFunc("/button", func(w http.ResponseWriter, r *http.Request) { handleButton(w, r, deps) })
	mux.HandleFunc("/button/drain", func(w http.ResponseWriter, r *http.Request) { handleDrain(w, r, deps) })
	mux.HandleFunc("/button/ack", func(w http.ResponseWriter, r *http.Request) { handleAck(w, r, deps) })
	mux.HandleFunc("/button/press", func(w http.ResponseWriter, r *http.Request) { handlePress(w, r, deps) })
	mux.HandleFunc("/monitor", func(w http.ResponseWriter, r *http.Request) { handleMonitor(w, r, deps) })
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { handleHealth(w, r, deps) })
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) { handleEvents(w, r, deps) })
	return mux
}

func handleButton(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	snap := deps.Button.Snapshot()
	writeJSON(w, http.StatusOK, buttonResponse{
		Pressed:   snap.Pressed,
		Presses:   snap.Presses,
		LastSeq:   snap.LastSeq,
		Missed:    snap.Missed,
		LastPress: formatTime(snap.LastPress),
		HoldMs:    snap.Hold.Milliseconds(),
	})
}

func handleDrain(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, drainResponse{Pressed: deps.Button.Drain()})
}

func handleAck(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	deps.Button.Acknowledge()
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func handlePress(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if deps.Trigger == nil {
		writeAPIError(w, http.StatusNotImplemented, "not_implemented", "software press not configured")
		return
	}
	if err := deps.Trigger.Trigger(); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, buttons.ErrNotStarted) {
			status = http.StatusServiceUnavailable
		}
		writeAPIError(w, status, "press_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, okResponse{OK: true})
}

func handleMonitor(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	emitted := deps.Monitor.Emitted()
	edges := uint64(deps.Edges.Edges())
	resp := monitorResponse{
		Running:    deps.Monitor.Running(),
		IntervalMs: deps.Monitor.Interval().Milliseconds(),
		Emitted:    emitted,
		Edges:      edges,
		LastCycle:  formatTime(deps.Monitor.LastCycle()),
	}
	if edges > emitted {
		resp.Coalesced = edges - emitted
	}
	writeJSON(w, http.StatusOK, resp)
}

func handleHealth(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	last := deps.Monitor.LastCycle()
	maxAge := staleIntervals * deps.Monitor.Interval()
	resp := healthResponse{MaxAgeMs: maxAge.Milliseconds(), LastCycle: formatTime(last)}
	if !deps.Monitor.Running() || last.IsZero() {
		resp.AgeMs = -1
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	age := deps.Now().Sub(last)
	resp.AgeMs = age.Milliseconds()
	if age > maxAge {
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.OK = true
	writeJSON(w, http.StatusOK, resp)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Error: code, Message: message})
}
