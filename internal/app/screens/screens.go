package screens

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/rook-computer/buttonwatch/internal/render"
	"github.com/rook-computer/buttonwatch/internal/render/layout"
	"github.com/rook-computer/buttonwatch/internal/state"
)

const (
	screenPadding = 60
	statsTextSize = 40
	lineGap       = 12
)

// BootScreen is shown until the pipeline is running.
type BootScreen struct{}

func (BootScreen) Start(ctx context.Context) error { return nil }
func (BootScreen) Stop() error                     { return nil }

func (BootScreen) Draw(d render.Drawer, st state.State) {
	w, h := d.Size()
	d.DrawLabel(st.Phase.String(), image.Rect(0, 0, w, h), render.Foreground)
}

// PressScreen shows the indicator lamp, press counters and a QR code of the
// status page.
type PressScreen struct{}

func (PressScreen) Start(ctx context.Context) error { return nil }
func (PressScreen) Stop() error                     { return nil }

func (PressScreen) Draw(d render.Drawer, st state.State) {
	w, h := d.Size()
	area := layout.Inset(image.Rect(0, 0, w, h), screenPadding)

	left, right := layout.Columns(area, 2.0/3, screenPadding)
	if st.Network.URLQR == "" {
		left = area
	}
	halves := layout.Rows(left, 2, lineGap)
	lampArea, textArea := halves[0], halves[1]

	label := "released"
	col := render.LampOff
	if st.Button.Pressed {
		label = "PRESSED"
		col = render.LampOn
	}
	lampCol, labelCol := layout.Columns(lampArea, 1.0/3, screenPadding)
	lamp := layout.Square(lampCol)
	d.FillCircle(layout.Center(lamp), lamp.Dx()/2, col)
	d.DrawLabel(label, labelCol, render.Foreground)

	lines := statsLines(st)
	style := render.TextStyle{Size: statsTextSize}
	for i, row := range layout.Rows(textArea, len(lines), lineGap) {
		d.DrawText(lines[i], row.Min.X, row.Min.Y, style)
	}

	if st.Network.URLQR != "" {
		urlTop := right.Max.Y - statsTextSize/2
		qrArea := image.Rect(right.Min.X, right.Min.Y, right.Max.X, urlTop-lineGap)
		d.DrawQRCode(st.Network.URLQR, layout.Square(qrArea))
		d.DrawText(st.Network.URL, layout.Center(right).X, urlTop, render.TextStyle{Size: statsTextSize / 2, Align: render.TextAlignCenter})
	}
}

func statsLines(st state.State) []string {
	last := "never"
	if !st.Button.LastPress.IsZero() {
		last = st.Button.LastPress.Format(time.TimeOnly)
	}
	return []string{
		fmt.Sprintf("presses: %d", st.Button.Presses),
		fmt.Sprintf("missed: %d", st.Button.Missed),
		fmt.Sprintf("coalesced: %d", st.Monitor.Coalesced()),
		fmt.Sprintf("poll: %s", st.Monitor.Interval),
		fmt.Sprintf("last press: %s", last),
	}
}
