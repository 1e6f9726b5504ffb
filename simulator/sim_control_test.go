package main

import (
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rook-computer/buttonwatch/internal/app"
	"github.com/rook-computer/buttonwatch/internal/buttons"
	"github.com/rook-computer/buttonwatch/internal/render"
	"github.com/rook-computer/buttonwatch/internal/state"
)

func newSim(t *testing.T) (*app.App, http.Handler) {
	t.Helper()
	a := app.New(state.NewStore(), &render.NoopRenderer{}, buttons.Multi{buttons.NewManual()}, app.Options{PollInterval: time.Millisecond, Hold: time.Hour})
	mux := http.NewServeMux()
	NewSimControl(a).Register(mux)
	return a, mux
}

func runApp(t *testing.T, a *app.App) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Start(ctx) }()
	t.Cleanup(func() { cancel(); <-done })

	deadline := time.Now().Add(2 * time.Second)
	for a.Store.Snapshot().Phase != state.READY {
		if time.Now().After(deadline) {
			t.Fatal("app did not become ready")
		}
		time.Sleep(time.Millisecond)
	}
}

func post(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
	return rec
}

func TestPressBeforeStart(t *testing.T) {
	_, h := newSim(t)
	if rec := post(h, "/sim/press"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 before the source starts, got %d", rec.Code)
	}
}

func TestPressBurstCoalesces(t *testing.T) {
	a, h := newSim(t)
	runApp(t, a)

	rec := post(h, "/sim/press?count=50")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res pressResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Fired != 50 || res.Edges != 50 || res.Source != "manual" {
		t.Errorf("unexpected result %+v", res)
	}

	deadline := time.Now().Add(2 * time.Second)
	for a.Monitor.Emitted() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no notification emitted")
		}
		time.Sleep(time.Millisecond)
	}
	if got := a.Monitor.Emitted(); got > 50 {
		t.Errorf("Expected at most one notification per edge, got %d", got)
	}
}

func TestPressValidation(t *testing.T) {
	_, h := newSim(t)
	for _, path := range []string{"/sim/press?count=0", "/sim/press?count=x", "/sim/press?gap=2s", "/sim/press?gap=-1ms"} {
		if rec := post(h, path); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, rec.Code)
		}
	}
}

func TestIntervalEndpoint(t *testing.T) {
	a, h := newSim(t)
	if rec := post(h, "/sim/interval?d=25ms"); rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if a.Monitor.Interval() != 25*time.Millisecond {
		t.Errorf("Expected 25ms, got %s", a.Monitor.Interval())
	}
	if rec := post(h, "/sim/interval?d=0s"); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for zero interval, got %d", rec.Code)
	}
}

func TestScreenPNG(t *testing.T) {
	_, h := newSim(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sim/screen.png", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("Expected png, got %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != screenW || b.Dy() != screenH {
		t.Errorf("unexpected size %v", b)
	}
}
