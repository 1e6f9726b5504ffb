// Package logging provides the component logger used across the app, backed
// by zap.
package logging

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	Level  string // debug, info, warn, error
	Format string // console or json
	// File, when set, receives logs in addition to stderr.
	File string
}

// Logger tags every line with the component that produced it.
type Logger struct {
	base *zap.SugaredLogger

	mu    sync.Mutex
	named map[string]*zap.SugaredLogger
}

func New(opts Options) (*Logger, error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(opts.Level))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.Development = false
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("unsupported log format %q", opts.Format)
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	if opts.File != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, opts.File)
	}

	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return FromZap(z), nil
}

func FromZap(z *zap.Logger) *Logger {
	return &Logger{base: z.Sugar(), named: make(map[string]*zap.SugaredLogger)}
}

func (l *Logger) Infof(component string, format string, args ...interface{}) {
	l.component(component).Infof(format, args...)
}

func (l *Logger) Errorf(component string, format string, args ...interface{}) {
	l.component(component).Errorf(format, args...)
}

func (l *Logger) Debugf(component string, format string, args ...interface{}) {
	l.component(component).Debugf(format, args...)
}

func (l *Logger) Sync() error {
	return l.base.Sync()
}

func (l *Logger) component(name string) *zap.SugaredLogger {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.named[name]; ok {
		return s
	}
	s := l.base.Named(name)
	l.named[name] = s
	return s
}
