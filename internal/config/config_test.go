package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "buttonwatch.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.PollInterval != DefaultPollInterval {
		t.Errorf("Expected poll interval %s, got %s", DefaultPollInterval, cfg.PollInterval)
	}
	if cfg.HoldDuration != DefaultHold {
		t.Errorf("Expected hold %s, got %s", DefaultHold, cfg.HoldDuration)
	}
	if cfg.Source.Kind != "none" || cfg.Web.Listen != DefaultListen {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.File != "" {
		t.Errorf("Expected no config file, got %q", cfg.File)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
poll_interval: 5ms
hold_duration: 1s
source:
  kind: GPIOD
  chip: gpiochip4
  line: 23
serial:
  port: /dev/ttyUSB0
  baud: 9600
log:
  level: debug
`)
	cfg, err := NewLoader().Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.PollInterval != 5*time.Millisecond || cfg.HoldDuration != time.Second {
		t.Errorf("unexpected durations: %s %s", cfg.PollInterval, cfg.HoldDuration)
	}
	if cfg.Source.Kind != "gpiod" || cfg.Source.Chip != "gpiochip4" || cfg.Source.Line != 23 {
		t.Errorf("unexpected source: %+v", cfg.Source)
	}
	if cfg.Serial.Port != "/dev/ttyUSB0" || cfg.Serial.Baud != 9600 {
		t.Errorf("unexpected serial: %+v", cfg.Serial)
	}
	if cfg.Log.Level != "debug" || cfg.File != path {
		t.Errorf("unexpected log/file: %+v %q", cfg.Log, cfg.File)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("BUTTONWATCH_POLL_INTERVAL", "25ms")
	t.Setenv("BUTTONWATCH_SOURCE_KIND", "signal")

	cfg, err := NewLoader().Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.PollInterval != 25*time.Millisecond {
		t.Errorf("Expected 25ms from env, got %s", cfg.PollInterval)
	}
	if cfg.Source.Kind != "signal" {
		t.Errorf("Expected signal from env, got %q", cfg.Source.Kind)
	}
}

func TestSetOverridesFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "web:\n  listen: \":9000\"\n")
	l := NewLoader()
	l.Set(KeyWebListen, ":8081")

	cfg, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Web.Listen != ":8081" {
		t.Errorf("Expected override :8081, got %q", cfg.Web.Listen)
	}
}

func TestExplicitMissingFile(t *testing.T) {
	_, err := NewLoader().Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Expected error for explicit missing file")
	}
}

func TestValidate(t *testing.T) {
	valid := Config{PollInterval: time.Millisecond, Web: WebConfig{Listen: ":80"}}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"zero interval", func(c *Config) { c.PollInterval = 0 }, keyPollInterval},
		{"negative hold", func(c *Config) { c.HoldDuration = -time.Second }, keyHoldDuration},
		{"negative line", func(c *Config) { c.Source.Line = -1 }, keySourceLine},
		{"serial without baud", func(c *Config) { c.Serial.Port = "/dev/ttyS0" }, keySerialBaud},
		{"empty listen", func(c *Config) { c.Web.Listen = " " }, keyWebListen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestReloadNotifiesWatchers(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "poll_interval: 10ms\n")
	l := NewLoader()
	if _, err := l.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	var got []time.Duration
	var gotErr error
	l.OnChange(func(c Config) { got = append(got, c.PollInterval) })
	l.OnError(func(err error) { gotErr = err })

	writeConfig(t, dir, "poll_interval: 40ms\n")
	if err := l.v.ReadInConfig(); err != nil {
		t.Fatalf("re-read: %v", err)
	}
	l.reload()
	if len(got) != 1 || got[0] != 40*time.Millisecond {
		t.Fatalf("Expected one reload with 40ms, got %v", got)
	}

	writeConfig(t, dir, "poll_interval: 0s\n")
	if err := l.v.ReadInConfig(); err != nil {
		t.Fatalf("re-read: %v", err)
	}
	l.reload()
	if gotErr == nil {
		t.Error("Expected invalid reload to report an error")
	}
	if len(got) != 1 {
		t.Errorf("Expected invalid reload to skip watchers, got %v", got)
	}
}

func TestWatchWithoutFile(t *testing.T) {
	l := NewLoader()
	if _, err := l.Load(""); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if l.Watch() {
		t.Error("Expected Watch to be a no-op without a config file")
	}
}
