package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rook-computer/buttonwatch/internal/app"
	"github.com/rook-computer/buttonwatch/internal/buttons"
	"github.com/rook-computer/buttonwatch/internal/consumer"
	"github.com/rook-computer/buttonwatch/internal/logging"
	"github.com/rook-computer/buttonwatch/internal/monitor"
	"github.com/rook-computer/buttonwatch/internal/render"
	"github.com/rook-computer/buttonwatch/internal/state"
	"github.com/rook-computer/buttonwatch/internal/web"
)

func main() {
	listenAddr := flag.String("listen", web.SimulatorListenAddr, "http listen address")
	devMode := flag.Bool("dev", false, "enable permissive CORS for a UI served elsewhere")
	staticDir := flag.String("static-dir", "", "serve static UI from this directory (optional); when empty, the embedded status page is served")
	interval := flag.Duration("interval", monitor.DefaultInterval, "monitor poll interval")
	hold := flag.Duration("hold", consumer.DefaultHold, "how long a press stays visible; 0 latches until acknowledged")
	withSignal := flag.Bool("signal", true, "also treat SIGUSR1 as a press")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger, err := logging.New(logging.Options{Level: *logLevel})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger error:", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	serverCfg, err := web.NewServerConfig(*listenAddr, *devMode, web.SimulatorListenAddr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "server config error:", err)
		os.Exit(2)
	}

	processCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sources := buttons.Multi{buttons.NewManual()}
	if *withSignal {
		src, err := buttons.Open(buttons.Config{Kind: buttons.KindSignal}, logger)
		switch {
		case err == nil:
			sources = append(sources, src)
		case errors.Is(err, buttons.ErrUnsupported):
			logger.Infof("sim", "signal source unavailable on this platform")
		default:
			fmt.Fprintln(os.Stderr, "signal source error:", err)
			os.Exit(2)
		}
	}

	store := state.NewStore()
	a := app.New(store, &render.NoopRenderer{}, sources, app.Options{PollInterval: *interval, Hold: *hold})
	a.Logger = logger

	control := NewSimControl(a)
	deps := a.APIDeps()
	deps.Logger = logger
	server := web.NewHTTPServer(serverCfg, deps)
	server.StaticDir = *staticDir
	server.Logger = logger
	server.Extra = control.Register
	a.Web = server

	fmt.Println("buttonwatch simulator listening on", serverCfg.ListenAddr)
	fmt.Println("API: http://" + displayAddr(serverCfg.ListenAddr) + "/api/v1/")
	fmt.Printf("Press: curl -X POST 'http://%s/sim/press?count=3'\n", displayAddr(serverCfg.ListenAddr))
	if len(sources) > 1 {
		fmt.Printf("Signal: kill -USR1 %d\n", os.Getpid())
	}

	start := time.Now()
	err = a.Start(processCtx)
	logger.Infof("sim", "ran for %s: %d edges, %d notifications", time.Since(start).Round(time.Millisecond), a.IRQ.Edges(), a.Monitor.Emitted())
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "simulator error:", err)
		os.Exit(1)
	}
}

func displayAddr(addr string) string {
	// Best-effort for display; don't attempt full URL parsing here.
	if len(addr) > 0 && addr[0] == ':' {
		return "127.0.0.1" + addr
	}
	return addr
}
