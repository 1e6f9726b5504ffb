package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestComponentIsLoggerName(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := FromZap(zap.New(core))

	l.Infof("monitor", "interval=%s", "10ms")
	l.Errorf("web", "listen failed: %v", "boom")
	l.Debugf("monitor", "dropped below level")

	entries := logs.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].LoggerName != "monitor" || entries[0].Message != "interval=10ms" {
		t.Errorf("unexpected first entry: %+v", entries[0].Entry)
	}
	if entries[1].LoggerName != "web" || entries[1].Level != zapcore.ErrorLevel {
		t.Errorf("unexpected second entry: %+v", entries[1].Entry)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", Options{Level: "info"}, false},
		{"json", Options{Level: "debug", Format: "json"}, false},
		{"bad level", Options{Level: "chatty"}, true},
		{"bad format", Options{Level: "info", Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%+v) error = %v, wantErr %v", tt.opts, err, tt.wantErr)
			}
		})
	}
}
