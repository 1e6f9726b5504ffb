package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rook-computer/buttonwatch/internal/app/screens"
	"github.com/rook-computer/buttonwatch/internal/buttons"
	"github.com/rook-computer/buttonwatch/internal/buttons/irq"
	"github.com/rook-computer/buttonwatch/internal/config"
	"github.com/rook-computer/buttonwatch/internal/consumer"
	"github.com/rook-computer/buttonwatch/internal/latch"
	"github.com/rook-computer/buttonwatch/internal/monitor"
	"github.com/rook-computer/buttonwatch/internal/notify"
	"github.com/rook-computer/buttonwatch/internal/render"
	"github.com/rook-computer/buttonwatch/internal/state"
	"github.com/rook-computer/buttonwatch/internal/system"
	"github.com/rook-computer/buttonwatch/internal/web"
)

// StatsInterval is how often monitor counters are copied into the store.
const StatsInterval = time.Second

// MinHold keeps a press visible for at least one rendered frame.
const MinHold = time.Second / render.FramesPerSecond

type Options struct {
	PollInterval time.Duration
	Hold         time.Duration
}

type App struct {
	Store  *state.Store
	Render render.Renderer
	Web    web.Server
	Source buttons.Source
	Logger Logger

	// Serial, when set, receives one line per press.
	Serial io.Writer
	// Console switches the VT to graphics mode while rendering.
	Console bool
	// Net and Listen produce the status URL shown on screen.
	Net    system.NetInfo
	Listen string

	Latch     *latch.Latch
	IRQ       *irq.Handler
	Broker    *notify.Broker
	Monitor   *monitor.Monitor
	Indicator *consumer.Indicator
	Forwarder *consumer.Forwarder

	currentScreen render.Screen

	exitOnce atomic.Bool
	exitCh   chan error
}

func New(store *state.Store, renderer render.Renderer, source buttons.Source, opts Options) *App {
	l := latch.New()
	broker := notify.NewBroker()
	app := &App{
		Store:     store,
		Render:    renderer,
		Source:    source,
		Logger:    NoopLogger{},
		Latch:     l,
		IRQ:       irq.New(l, nil),
		Broker:    broker,
		Monitor:   monitor.New(l, broker, opts.PollInterval),
		Indicator: consumer.NewIndicator(clampHold(opts.Hold)),
		exitCh:    make(chan error, 1),
	}
	return app
}

// Exit requests the app to stop running.
func (app *App) Exit(err error) {
	if app.exitCh == nil {
		return
	}
	if !app.exitOnce.CompareAndSwap(false, true) {
		return
	}
	select {
	case app.exitCh <- err:
	default:
	}
}

// ApplyConfig applies the settings that can change while running.
func (app *App) ApplyConfig(cfg config.Config) {
	if cfg.PollInterval != app.Monitor.Interval() {
		app.Monitor.SetInterval(cfg.PollInterval)
		app.Logger.Infof("app", "poll interval now %s", cfg.PollInterval)
	}
	hold := clampHold(cfg.HoldDuration)
	if hold != app.Indicator.Snapshot().Hold {
		app.Indicator.SetHold(hold)
		app.Logger.Infof("app", "hold now %s", hold)
	}
}

// Trigger injects a software edge when the source supports it.
func (app *App) Trigger() error {
	if m := buttons.FindManual(app.Source); m != nil {
		return m.Trigger()
	}
	return buttons.ErrUnsupported
}

// APIDeps exposes the pipeline to the web API.
func (app *App) APIDeps() web.APIV1Deps {
	deps := web.APIV1Deps{
		Button:  app.Indicator,
		Monitor: app.Monitor,
		Events:  app.Broker,
		Edges:   app.IRQ,
	}
	if buttons.FindManual(app.Source) != nil {
		deps.Trigger = app
	}
	return deps
}

func (app *App) Start(ctx context.Context) error {
	if app.exitCh == nil {
		app.exitCh = make(chan error, 1)
	}
	app.exitOnce.Store(false)
	if app.Render == nil {
		app.Render = &render.NoopRenderer{}
	}
	if app.Source == nil {
		app.Source = buttons.NoopSource{}
	}
	app.Monitor.Logger = app.Logger
	app.Indicator.Logger = app.Logger

	app.Store.SetPhase(state.BOOTING)
	if fb, ok := app.Render.(*render.FBRenderer); ok {
		fb.Logger = app.Logger
	}
	if err := app.Render.Start(ctx); err != nil {
		app.Logger.Errorf("app", "renderer start error: %v", err)
		return err
	}
	defer app.Render.Stop()

	if app.Console {
		restore := system.EnterGraphics(app.Logger)
		defer restore()
	}

	if err := app.setScreen(ctx, screens.BootScreen{}); err != nil {
		return err
	}
	app.Render.RedrawWithState(app.Store.Snapshot())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	spawn := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				app.Logger.Errorf("app", "%s stopped: %v", name, err)
				app.Exit(err)
			}
		}()
	}

	// Consumers subscribe before the monitor starts so no notification is
	// published into an empty broker.
	indicatorSub := app.Broker.Subscribe(notify.DefaultBuffer)
	unsubscribe := app.Indicator.OnChange(func(bool) { app.syncButton() })
	defer unsubscribe()
	spawn("indicator", func(ctx context.Context) error { return app.Indicator.Run(ctx, indicatorSub) })

	if app.Serial != nil {
		app.Forwarder = consumer.NewForwarder(app.Serial)
		app.Forwarder.Logger = app.Logger
		sub := app.Broker.Subscribe(notify.DefaultBuffer)
		spawn("forwarder", func(ctx context.Context) error { return app.Forwarder.Run(ctx, sub) })
	}

	spawn("monitor", app.Monitor.Run)

	if err := app.Source.Start(runCtx, app.IRQ); err != nil {
		app.Logger.Errorf("app", "button source %s failed: %v", app.Source.Name(), err)
		app.shutdown(cancel, &wg)
		return err
	}
	app.Logger.Infof("app", "button source %s started, poll=%s", app.Source.Name(), app.Monitor.Interval())

	if app.Web != nil {
		if err := app.Web.Start(runCtx); err != nil {
			app.Logger.Errorf("app", "web server start error: %v", err)
			app.shutdown(cancel, &wg)
			return err
		}
	}

	spawn("stats", app.refreshStats)
	spawn("network", app.refreshNetwork)
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.Render.RunLoop(runCtx, app.Store)
	}()

	app.Store.SetPhase(state.READY)
	if err := app.setScreen(ctx, screens.PressScreen{}); err != nil {
		app.shutdown(cancel, &wg)
		return err
	}

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case err = <-app.exitCh:
	}
	app.shutdown(cancel, &wg)
	return err
}

// shutdown stops the source first so no edge arrives after the monitor is
// gone. Closing the broker ends consumers and open event streams before the
// web server drains its connections.
func (app *App) shutdown(cancel context.CancelFunc, wg *sync.WaitGroup) {
	if err := app.Source.Stop(); err != nil {
		app.Logger.Errorf("app", "button source stop: %v", err)
	}
	cancel()
	app.Broker.Close()
	if app.Web != nil {
		if err := app.Web.Stop(); err != nil {
			app.Logger.Errorf("app", "web server stop: %v", err)
		}
	}
	wg.Wait()
	app.Indicator.Close()
	if app.currentScreen != nil {
		_ = app.currentScreen.Stop()
	}
	app.Store.SetPhase(state.STOPPED)
	app.Logger.Infof("app", "stopped after %d notifications, %d edges", app.Monitor.Emitted(), app.IRQ.Edges())
}

func (app *App) refreshStats(ctx context.Context) error {
	ticker := time.NewTicker(StatsInterval)
	defer ticker.Stop()
	for {
		app.syncMonitor()
		app.syncButton()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// refreshNetwork looks up the status URL until one is found; the network may
// come up after we do.
func (app *App) refreshNetwork(ctx context.Context) error {
	if app.Net == nil {
		return nil
	}
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		ip, err := app.Net.IP(ctx)
		if err == nil && ip != "" {
			url := system.StatusURL(ip, app.Listen)
			app.Store.UpdateNetwork(state.NetworkInfo{URL: url, URLQR: url})
			app.Logger.Infof("app", "status page at %s", url)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (app *App) syncButton() {
	snap := app.Indicator.Snapshot()
	app.Store.UpdateButton(state.ButtonInfo{
		Pressed:   snap.Pressed,
		Presses:   snap.Presses,
		LastSeq:   snap.LastSeq,
		Missed:    snap.Missed,
		LastPress: snap.LastPress,
	})
}

func (app *App) syncMonitor() {
	app.Store.UpdateMonitor(state.MonitorInfo{
		Interval:  app.Monitor.Interval(),
		Emitted:   app.Monitor.Emitted(),
		Edges:     uint64(app.IRQ.Edges()),
		LastCycle: app.Monitor.LastCycle(),
	})
}

func (app *App) setScreen(ctx context.Context, screen render.Screen) error {
	if app.currentScreen != nil {
		_ = app.currentScreen.Stop()
	}
	app.currentScreen = screen
	app.Render.SetScreen(screen)
	return screen.Start(ctx)
}

func clampHold(d time.Duration) time.Duration {
	if d > 0 && d < MinHold {
		return MinHold
	}
	if d < 0 {
		return 0
	}
	return d
}

// Logger interface and implementations
type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type NoopLogger struct{}

func (NoopLogger) Infof(component, format string, args ...interface{})  {}
func (NoopLogger) Errorf(component, format string, args ...interface{}) {}
