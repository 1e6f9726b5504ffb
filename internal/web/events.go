package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rook-computer/buttonwatch/internal/notify"
)

// keepAlive is the interval of SSE comment lines that keep proxies from
// closing an idle stream.
const keepAlive = 15 * time.Second

type pressEvent struct {
	Seq     uint64 `json:"seq"`
	At      string `json:"at"`
	Dropped uint64 `json:"dropped"`
}

// handleEvents streams one "press" event per notification. Each client gets
// its own subscription; a slow client loses events (visible as seq gaps and
// in "dropped") without slowing anyone else down.
func handleEvents(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if deps.Events == nil {
		writeAPIError(w, http.StatusNotImplemented, "not_implemented", "event stream not configured")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeAPIError(w, http.StatusInternalServerError, "streaming_unsupported", "streaming unsupported")
		return
	}

	sub := deps.Events.Subscribe(notify.DefaultBuffer)
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if err := writeSSE(w, ev, sub.Dropped()); err != nil {
				deps.Logger.Errorf("web", "event stream write: %v", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev notify.Event, dropped uint64) error {
	data, err := json.Marshal(pressEvent{Seq: ev.Seq, At: formatTime(ev.At), Dropped: dropped})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: press\ndata: %s\n\n", ev.Seq, data)
	return err
}
