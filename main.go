package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rook-computer/buttonwatch/internal/app"
	"github.com/rook-computer/buttonwatch/internal/buttons"
	"github.com/rook-computer/buttonwatch/internal/config"
	"github.com/rook-computer/buttonwatch/internal/consumer"
	"github.com/rook-computer/buttonwatch/internal/logging"
	"github.com/rook-computer/buttonwatch/internal/render"
	"github.com/rook-computer/buttonwatch/internal/state"
	"github.com/rook-computer/buttonwatch/internal/system"
	"github.com/rook-computer/buttonwatch/internal/web"
)

const envStdioLog = "BUTTONWATCH_STDIO_LOG"

func main() {
	configPath := flag.String("config", "", "config file (default: ./buttonwatch.yaml or /etc/buttonwatch/buttonwatch.yaml)")
	debug := flag.Bool("debug", false, "enable debug logging")
	listen := flag.String("listen", "", "web listen address, overrides web.listen")
	source := flag.String("source", "", "button source: none, manual, signal, gpiod, rpio, periph, evdev")
	noDisplay := flag.Bool("no-display", false, "run without the framebuffer UI")
	stdioLog := flag.String("stdio-log", "", "redirect stdout+stderr (including panics) to this file; also configurable via "+envStdioLog)
	flag.Parse()

	// Best-effort: redirect all stdout/stderr output (including panic stack traces)
	// to a file so crashes are diagnosable even when the console is left in graphics mode.
	logPath := *stdioLog
	if logPath == "" {
		logPath = os.Getenv(envStdioLog)
	}
	if logPath != "" {
		if err := redirectStdIO(logPath); err != nil {
			fmt.Fprintln(os.Stderr, "stdio log redirect error:", err)
		}
	}

	if err := run(*configPath, *debug, *listen, *source, *noDisplay); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "buttonwatch:", err)
		os.Exit(1)
	}
}

func run(configPath string, debug bool, listen, source string, noDisplay bool) error {
	loader := config.NewLoader()
	if debug {
		loader.Set(config.KeyLogLevel, "debug")
	}
	if listen != "" {
		loader.Set(config.KeyWebListen, listen)
	}
	if source != "" {
		loader.Set(config.KeySourceKind, source)
	}
	if noDisplay {
		loader.Set(config.KeyDisplayOn, false)
	}
	cfg, err := loader.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if cfg.File != "" {
		logger.Infof("main", "config loaded from %s", cfg.File)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := buttons.Open(buttons.Config{
		Kind:    cfg.Source.Kind,
		Chip:    cfg.Source.Chip,
		Line:    cfg.Source.Line,
		Pin:     cfg.Source.Pin,
		Device:  cfg.Source.Device,
		KeyCode: cfg.Source.KeyCode,
	}, logger)
	if err != nil {
		return err
	}

	var renderer render.Renderer = &render.NoopRenderer{}
	if cfg.Display.Enabled {
		renderer = render.NewFBRenderer(cfg.Display.Device)
	}

	a := app.New(state.NewStore(), renderer, src, app.Options{PollInterval: cfg.PollInterval, Hold: cfg.HoldDuration})
	a.Logger = logger
	a.Console = cfg.Display.Enabled
	a.Net = system.InterfaceNetInfo{}
	a.Listen = cfg.Web.Listen

	if cfg.Serial.Port != "" {
		port, err := consumer.OpenSerial(consumer.SerialConfig{Device: cfg.Serial.Port, Baud: cfg.Serial.Baud})
		if err != nil {
			return err
		}
		defer port.Close()
		a.Serial = port
		logger.Infof("main", "forwarding presses to %s at %d baud", cfg.Serial.Port, cfg.Serial.Baud)
	}

	serverCfg, err := web.NewServerConfig(cfg.Web.Listen, cfg.Web.Dev, web.DefaultListenAddr)
	if err != nil {
		return err
	}
	deps := a.APIDeps()
	deps.Logger = logger
	server := web.NewHTTPServer(serverCfg, deps)
	server.Logger = logger
	a.Web = server

	loader.OnChange(a.ApplyConfig)
	loader.OnError(func(err error) { logger.Errorf("config", "reload rejected: %v", err) })
	if loader.Watch() {
		logger.Infof("config", "watching %s", cfg.File)
	}

	return a.Start(ctx)
}
