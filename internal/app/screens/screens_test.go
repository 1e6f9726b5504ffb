package screens

import (
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/rook-computer/buttonwatch/internal/render"
	"github.com/rook-computer/buttonwatch/internal/state"
)

type recordingDrawer struct {
	circles []color.Color
	labels  []string
	texts   []string
	qr      []string
}

func (d *recordingDrawer) Size() (int, int) { return 1920, 1080 }

func (d *recordingDrawer) FillBackground() {}

func (d *recordingDrawer) FillRect(rect image.Rectangle, c color.Color) {}

func (d *recordingDrawer) DrawImageInRect(img image.Image, r image.Rectangle) {}

func (d *recordingDrawer) FillCircle(center image.Point, radius int, c color.Color) {
	d.circles = append(d.circles, c)
}

func (d *recordingDrawer) MeasureText(text string, style render.TextStyle) render.TextMetrics {
	return render.TextMetrics{Width: len(text) * 10, LineHeight: 20}
}

func (d *recordingDrawer) DrawText(text string, x, y int, style render.TextStyle) render.TextMetrics {
	d.texts = append(d.texts, text)
	return d.MeasureText(text, style)
}

func (d *recordingDrawer) DrawLabel(text string, rect image.Rectangle, c color.Color) {
	d.labels = append(d.labels, text)
}

func (d *recordingDrawer) DrawQRCode(payload string, rect image.Rectangle) {
	d.qr = append(d.qr, payload)
}

func TestPressScreenReleased(t *testing.T) {
	d := &recordingDrawer{}
	PressScreen{}.Draw(d, state.State{Phase: state.READY})

	if len(d.circles) != 1 || d.circles[0] != render.LampOff {
		t.Errorf("Expected one off lamp, got %v", d.circles)
	}
	if len(d.labels) != 1 || d.labels[0] != "released" {
		t.Errorf("Expected released label, got %v", d.labels)
	}
	if len(d.qr) != 0 {
		t.Errorf("Expected no QR code without a URL, got %v", d.qr)
	}
	if !containsPrefix(d.texts, "last press: never") {
		t.Errorf("Expected never pressed, got %v", d.texts)
	}
}

func TestPressScreenPressedWithURL(t *testing.T) {
	d := &recordingDrawer{}
	st := state.State{
		Phase:   state.PRESSED,
		Button:  state.ButtonInfo{Pressed: true, Presses: 3, Missed: 1, LastPress: time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC)},
		Monitor: state.MonitorInfo{Interval: 10 * time.Millisecond, Emitted: 3, Edges: 5},
		Network: state.NetworkInfo{URL: "http://192.0.2.1/", URLQR: "http://192.0.2.1/"},
	}
	PressScreen{}.Draw(d, st)

	if len(d.circles) != 1 || d.circles[0] != render.LampOn {
		t.Errorf("Expected one lit lamp, got %v", d.circles)
	}
	if len(d.labels) != 1 || d.labels[0] != "PRESSED" {
		t.Errorf("Expected PRESSED label, got %v", d.labels)
	}
	if len(d.qr) != 1 || d.qr[0] != st.Network.URLQR {
		t.Errorf("Expected QR of status URL, got %v", d.qr)
	}
	for _, want := range []string{"presses: 3", "missed: 1", "coalesced: 2", "poll: 10ms", "last press: 12:30:00", st.Network.URL} {
		if !containsPrefix(d.texts, want) {
			t.Errorf("Expected text %q, got %v", want, d.texts)
		}
	}
}

func TestPressScreenOnCanvas(t *testing.T) {
	c := render.NewCanvas(640, 360)
	img := c.Render(PressScreen{}, state.State{Button: state.ButtonInfo{Pressed: true}})
	found := false
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y && !found; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y) == render.LampOn {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("Expected lit lamp pixels on the canvas")
	}
}

func TestBootScreenShowsPhase(t *testing.T) {
	d := &recordingDrawer{}
	BootScreen{}.Draw(d, state.State{Phase: state.BOOTING})
	if len(d.labels) != 1 || d.labels[0] != "booting" {
		t.Errorf("Expected booting label, got %v", d.labels)
	}
}

func containsPrefix(lines []string, prefix string) bool {
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}
