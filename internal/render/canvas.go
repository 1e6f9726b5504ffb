package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/rook-computer/buttonwatch/internal/state"
)

type logger interface {
	Infof(string, string, ...interface{})
	Errorf(string, string, ...interface{})
}

// Canvas is the offscreen logical canvas screens draw into. It implements
// Drawer without any device behind it.
type Canvas struct {
	img    *image.RGBA
	text   *opentype.Font
	faces  map[int]font.Face
	label  *truetype.Font
	qr     qrCache
	Logger logger
}

func NewCanvas(width, height int) *Canvas {
	return &Canvas{
		img:   image.NewRGBA(image.Rect(0, 0, width, height)),
		faces: make(map[int]font.Face),
	}
}

// LoadFonts parses the embedded Go fonts. On failure the canvas falls back
// to basicfont and labels are drawn with the regular text path.
func (c *Canvas) LoadFonts() {
	if fnt, err := opentype.Parse(goregular.TTF); err != nil {
		c.errorf("font parse failed, using basicfont: %v", err)
	} else {
		c.text = fnt
	}
	if tt, err := truetype.Parse(gobold.TTF); err != nil {
		c.errorf("truetype parse failed: %v", err)
	} else {
		c.label = tt
	}
}

func (c *Canvas) Image() *image.RGBA { return c.img }

// Render draws screen for snap and returns the canvas image.
func (c *Canvas) Render(screen Screen, snap state.State) *image.RGBA {
	c.FillBackground()
	if screen != nil {
		screen.Draw(c, snap)
	}
	return c.img
}

func (c *Canvas) Size() (int, int) {
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

func (c *Canvas) FillBackground() {
	draw.Draw(c.img, c.img.Bounds(), &image.Uniform{C: Background}, image.Point{}, draw.Src)
}

func (c *Canvas) FillRect(rect image.Rectangle, col color.Color) {
	draw.Draw(c.img, rect.Intersect(c.img.Bounds()), &image.Uniform{C: col}, image.Point{}, draw.Src)
}

func (c *Canvas) FillCircle(center image.Point, radius int, col color.Color) {
	if radius <= 0 {
		return
	}
	r2 := radius * radius
	bounds := c.img.Bounds()
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y > r2 {
				continue
			}
			p := image.Pt(center.X+x, center.Y+y)
			if p.In(bounds) {
				c.img.Set(p.X, p.Y, col)
			}
		}
	}
}

func (c *Canvas) MeasureText(text string, style TextStyle) TextMetrics {
	face := c.face(style.Size)
	return measure(face, text)
}

func (c *Canvas) DrawText(text string, x, y int, style TextStyle) TextMetrics {
	face := c.face(style.Size)
	metrics := measure(face, text)
	switch style.Align {
	case TextAlignCenter:
		x -= metrics.Width / 2
	case TextAlignRight:
		x -= metrics.Width
	}
	col := style.Color
	if col == nil {
		col = Foreground
	}
	drawer := &font.Drawer{Dst: c.img, Src: image.NewUniform(col), Face: face}
	drawer.Dot = fixed.P(x, y+metrics.Ascent)
	drawer.DrawString(text)
	return metrics
}

func (c *Canvas) DrawLabel(text string, rect image.Rectangle, col color.Color) {
	if c.label == nil {
		c.DrawText(text, rect.Min.X+rect.Dx()/2, rect.Min.Y+rect.Dy()/2, TextStyle{Color: col, Align: TextAlignCenter})
		return
	}
	size := float64(defaultLabelSize)
	face := truetype.NewFace(c.label, &truetype.Options{Size: size})
	width := font.MeasureString(face, text).Ceil()
	// Shrink until the label fits the rectangle.
	for width > rect.Dx() && size > 12 {
		size *= 0.8
		face = truetype.NewFace(c.label, &truetype.Options{Size: size})
		width = font.MeasureString(face, text).Ceil()
	}
	ascent := face.Metrics().Ascent.Ceil()

	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(c.label)
	ctx.SetFontSize(size)
	ctx.SetClip(rect)
	ctx.SetDst(c.img)
	ctx.SetSrc(image.NewUniform(col))
	x := rect.Min.X + (rect.Dx()-width)/2
	y := rect.Min.Y + (rect.Dy()+ascent)/2
	if _, err := ctx.DrawString(text, freetype.Pt(x, y)); err != nil {
		c.errorf("label draw failed: %v", err)
	}
}

// DrawImageInRect scales img to fit rect, preserving aspect ratio, centered.
func (c *Canvas) DrawImageInRect(img image.Image, rect image.Rectangle) {
	if img == nil || rect.Empty() {
		return
	}
	src := img.Bounds()
	scale := float64(rect.Dx()) / float64(src.Dx())
	if s := float64(rect.Dy()) / float64(src.Dy()); s < scale {
		scale = s
	}
	w := int(float64(src.Dx()) * scale)
	h := int(float64(src.Dy()) * scale)
	dst := image.Rect(0, 0, w, h).Add(rect.Min).Add(image.Pt((rect.Dx()-w)/2, (rect.Dy()-h)/2))
	xdraw.NearestNeighbor.Scale(c.img, dst, img, src, xdraw.Over, nil)
}

func (c *Canvas) DrawQRCode(payload string, rect image.Rectangle) {
	size := rect.Dx()
	if rect.Dy() < size {
		size = rect.Dy()
	}
	img, err := c.qr.get(payload, size)
	if err != nil {
		c.errorf("qr code failed: %v", err)
		return
	}
	c.DrawImageInRect(img, rect)
}

func (c *Canvas) face(size int) font.Face {
	if size <= 0 {
		size = defaultTextSize
	}
	if f, ok := c.faces[size]; ok {
		return f
	}
	if c.text == nil {
		return basicfont.Face7x13
	}
	f, err := opentype.NewFace(c.text, &opentype.FaceOptions{Size: float64(size), DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		c.errorf("font face %dpt failed, using basicfont: %v", size, err)
		return basicfont.Face7x13
	}
	c.faces[size] = f
	return f
}

func (c *Canvas) errorf(format string, args ...interface{}) {
	if c.Logger != nil {
		c.Logger.Errorf("render", format, args...)
	}
}

func measure(face font.Face, text string) TextMetrics {
	m := face.Metrics()
	ascent := m.Ascent.Ceil()
	descent := m.Descent.Ceil()
	return TextMetrics{
		Width:      font.MeasureString(face, text).Ceil(),
		Height:     ascent + descent,
		Ascent:     ascent,
		Descent:    descent,
		LineHeight: m.Height.Ceil(),
	}
}
