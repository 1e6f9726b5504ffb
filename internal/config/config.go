// Package config loads buttonwatch settings from an optional YAML file and
// BUTTONWATCH_* environment variables, and watches the file for changes.
package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	envPrefix  = "BUTTONWATCH"
	configName = "buttonwatch"
	configType = "yaml"

	keyPollInterval  = "poll_interval"
	keyHoldDuration  = "hold_duration"
	keySourceKind    = "source.kind"
	keySourceChip    = "source.chip"
	keySourceLine    = "source.line"
	keySourcePin     = "source.pin"
	keySourceDevice  = "source.device"
	keySourceKeyCode = "source.key_code"
	keyWebListen     = "web.listen"
	keyWebDev        = "web.dev"
	keySerialPort    = "serial.port"
	keySerialBaud    = "serial.baud"
	keyDisplayOn     = "display.enabled"
	keyDisplayDevice = "display.device"
	keyLogLevel      = "log.level"
	keyLogFormat     = "log.format"
	keyLogFile       = "log.file"

	DefaultPollInterval = 10 * time.Millisecond
	DefaultHold         = 250 * time.Millisecond
	DefaultListen       = ":80"
	DefaultBaud         = 115200
)

type Config struct {
	PollInterval time.Duration
	HoldDuration time.Duration

	Source  SourceConfig
	Web     WebConfig
	Serial  SerialConfig
	Display DisplayConfig
	Log     LogConfig

	// Source file used, empty when running on defaults and environment only.
	File string
}

type SourceConfig struct {
	Kind    string
	Chip    string
	Line    int
	Pin     string
	Device  string
	KeyCode int
}

type WebConfig struct {
	Listen string
	Dev    bool
}

// SerialConfig enables the UART forwarder when Port is set.
type SerialConfig struct {
	Port string
	Baud int
}

type DisplayConfig struct {
	Enabled bool
	Device  string
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

// Loader owns the viper instance backing a Config.
type Loader struct {
	v *viper.Viper

	mu       sync.Mutex
	watchers []func(Config)
	onError  func(error)
}

func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(keyPollInterval, DefaultPollInterval)
	v.SetDefault(keyHoldDuration, DefaultHold)
	v.SetDefault(keySourceKind, "none")
	v.SetDefault(keySourceChip, "gpiochip0")
	v.SetDefault(keySourceLine, 17)
	v.SetDefault(keySourcePin, "GPIO17")
	v.SetDefault(keySourceDevice, "/dev/input/event*")
	v.SetDefault(keySourceKeyCode, 28)
	v.SetDefault(keyWebListen, DefaultListen)
	v.SetDefault(keyWebDev, false)
	v.SetDefault(keySerialPort, "")
	v.SetDefault(keySerialBaud, DefaultBaud)
	v.SetDefault(keyDisplayOn, true)
	v.SetDefault(keyDisplayDevice, "/dev/fb0")
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogFormat, "console")
	v.SetDefault(keyLogFile, "")

	return &Loader{v: v}
}

// Load reads path, or searches "." and /etc/buttonwatch when path is empty.
// A missing file is only an error when path was given explicitly.
func (l *Loader) Load(path string) (Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
	} else {
		l.v.AddConfigPath(".")
		l.v.AddConfigPath("/etc/buttonwatch")
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	return l.current()
}

// Set overrides a key, e.g. from a command-line flag.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// OnChange registers fn for every successful reload.
func (l *Loader) OnChange(fn func(Config)) {
	l.mu.Lock()
	l.watchers = append(l.watchers, fn)
	l.mu.Unlock()
}

// OnError registers fn for reloads that produced an invalid config.
func (l *Loader) OnError(fn func(error)) {
	l.mu.Lock()
	l.onError = fn
	l.mu.Unlock()
}

// Watch starts watching the config file. No-op when no file was loaded.
func (l *Loader) Watch() bool {
	if l.v.ConfigFileUsed() == "" {
		return false
	}
	l.v.OnConfigChange(func(event fsnotify.Event) {
		if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
			return
		}
		l.reload()
	})
	l.v.WatchConfig()
	return true
}

func (l *Loader) reload() {
	cfg, err := l.current()

	l.mu.Lock()
	watchers := append([]func(Config){}, l.watchers...)
	onError := l.onError
	l.mu.Unlock()

	if err != nil {
		if onError != nil {
			onError(err)
		}
		return
	}
	for _, fn := range watchers {
		fn(cfg)
	}
}

func (l *Loader) current() (Config, error) {
	v := l.v
	cfg := Config{
		PollInterval: v.GetDuration(keyPollInterval),
		HoldDuration: v.GetDuration(keyHoldDuration),
		Source: SourceConfig{
			Kind:    strings.ToLower(strings.TrimSpace(v.GetString(keySourceKind))),
			Chip:    v.GetString(keySourceChip),
			Line:    v.GetInt(keySourceLine),
			Pin:     v.GetString(keySourcePin),
			Device:  v.GetString(keySourceDevice),
			KeyCode: v.GetInt(keySourceKeyCode),
		},
		Web: WebConfig{
			Listen: v.GetString(keyWebListen),
			Dev:    v.GetBool(keyWebDev),
		},
		Serial: SerialConfig{
			Port: v.GetString(keySerialPort),
			Baud: v.GetInt(keySerialBaud),
		},
		Display: DisplayConfig{
			Enabled: v.GetBool(keyDisplayOn),
			Device:  v.GetString(keyDisplayDevice),
		},
		Log: LogConfig{
			Level:  v.GetString(keyLogLevel),
			Format: v.GetString(keyLogFormat),
			File:   v.GetString(keyLogFile),
		},
		File: v.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("%s must be positive (got %s)", keyPollInterval, c.PollInterval)
	}
	if c.HoldDuration < 0 {
		return fmt.Errorf("%s must not be negative (got %s)", keyHoldDuration, c.HoldDuration)
	}
	if c.Source.Line < 0 {
		return fmt.Errorf("%s must not be negative", keySourceLine)
	}
	if c.Serial.Port != "" && c.Serial.Baud <= 0 {
		return fmt.Errorf("%s must be positive", keySerialBaud)
	}
	if strings.TrimSpace(c.Web.Listen) == "" {
		return fmt.Errorf("%s must not be empty", keyWebListen)
	}
	return nil
}

// Key names for callers that override values via Set.
const (
	KeyPollInterval = keyPollInterval
	KeyHoldDuration = keyHoldDuration
	KeySourceKind   = keySourceKind
	KeyWebListen    = keyWebListen
	KeyWebDev       = keyWebDev
	KeyDisplayOn    = keyDisplayOn
	KeyLogLevel     = keyLogLevel
	KeyLogFile      = keyLogFile
	KeySerialPort   = keySerialPort
)
