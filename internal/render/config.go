package render

import "image/color"

// Global render configuration for colors and logical canvas.
var (
	Foreground = color.RGBA{R: 0x90, G: 0x00, B: 0xFF, A: 0xFF} // #9000ff
	Background = color.RGBA{R: 0xFF, G: 0xDC, B: 0x00, A: 0xFF} // #ffdc00

	// Lamp colors for the press indicator.
	LampOn  = color.RGBA{R: 0xE0, G: 0x10, B: 0x30, A: 0xFF}
	LampOff = color.RGBA{R: 0x55, G: 0x44, B: 0x00, A: 0xFF}

	// Logical canvas size; scaled to framebuffer.
	CanvasWidth  = 1920
	CanvasHeight = 1080
)

const (
	defaultTextSize  = 48
	defaultLabelSize = 160
	FramesPerSecond  = 30
)
