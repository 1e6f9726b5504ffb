package consumer

import (
	"context"
	"fmt"
	"io"

	"github.com/tarm/serial"

	"github.com/rook-computer/buttonwatch/internal/notify"
)

// SerialConfig selects the UART a Forwarder writes to.
type SerialConfig struct {
	// Device path (e.g. "/dev/ttyUSB0", "COM3").
	Device string
	Baud   int
}

const DefaultBaud = 115200

// OpenSerial opens the UART described by cfg.
func OpenSerial(cfg SerialConfig) (io.WriteCloser, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("serial device not configured")
	}
	if cfg.Baud <= 0 {
		cfg.Baud = DefaultBaud
	}
	port, err := serial.OpenPort(&serial.Config{Name: cfg.Device, Baud: cfg.Baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Device, err)
	}
	return port, nil
}

// Forwarder writes one line per notification: "PRESS seq=<n>\r\n".
type Forwarder struct {
	Port   io.Writer
	Logger Logger

	written uint64
}

func NewForwarder(port io.Writer) *Forwarder {
	return &Forwarder{Port: port}
}

// Run forwards events until ctx is done or sub is closed. Write errors are
// logged and the event is skipped; the UART may come back.
func (f *Forwarder) Run(ctx context.Context, sub *notify.Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-sub.C:
			if !ok {
				return nil
			}
			if err := f.Forward(ev); err != nil && f.Logger != nil {
				f.Logger.Errorf("serial", "forward seq=%d failed: %v", ev.Seq, err)
			}
		}
	}
}

func (f *Forwarder) Forward(ev notify.Event) error {
	if f.Port == nil {
		return fmt.Errorf("no serial port")
	}
	if _, err := fmt.Fprintf(f.Port, "PRESS seq=%d\r\n", ev.Seq); err != nil {
		return err
	}
	f.written++
	return nil
}

// Written counts forwarded lines. Only meaningful from the Run goroutine or
// after Run returned.
func (f *Forwarder) Written() uint64 {
	return f.written
}
