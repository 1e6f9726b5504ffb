//go:build tinygo

// Command pico runs the press pipeline on an RP2040 board: a falling edge on
// GP15 sets the latch from the pin interrupt and the onboard LED blinks once
// per notification.
//
//	tinygo flash -target=pico ./targets/pico
package main

import (
	"context"
	"machine"
	"time"

	"github.com/rook-computer/buttonwatch/internal/buttons/irq"
	"github.com/rook-computer/buttonwatch/internal/latch"
	"github.com/rook-computer/buttonwatch/internal/monitor"
	"github.com/rook-computer/buttonwatch/internal/notify"
)

const (
	buttonPin    = machine.GP15
	pollInterval = 10 * time.Millisecond
	blink        = 150 * time.Millisecond
)

func main() {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	buttonPin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	l := latch.New()
	h := irq.New(l, nil)

	broker := notify.NewBroker()
	sub := broker.Subscribe(4)
	mon := monitor.New(l, broker, pollInterval)

	// The callback runs in interrupt context; Fire only touches atomics.
	if err := buttonPin.SetInterrupt(machine.PinFalling, func(machine.Pin) { h.Fire() }); err != nil {
		println("interrupt setup failed:", err.Error())
		return
	}
	go mon.Run(context.Background())

	var last uint64
	for ev := range sub.C {
		if last != 0 && ev.Seq > last+1 {
			println("missed", ev.Seq-last-1)
		}
		last = ev.Seq
		println("press", ev.Seq)
		led.High()
		time.Sleep(blink)
		led.Low()
	}
}
