// Package layout has the rectangle arithmetic screens use to place things on
// the logical canvas. All functions accept unnormalized rectangles.
package layout

import "image"

// Inset shrinks rect by px on all sides, collapsing to its center when rect
// is too small.
func Inset(rect image.Rectangle, px int) image.Rectangle {
	rect = rect.Canon()
	if px <= 0 {
		return rect
	}
	if 2*px >= rect.Dx() || 2*px >= rect.Dy() {
		c := Center(rect)
		return image.Rectangle{Min: c, Max: c}
	}
	return image.Rect(rect.Min.X+px, rect.Min.Y+px, rect.Max.X-px, rect.Max.Y-px)
}

// Columns splits rect at fraction of its width (clamped to [0, 1]) and
// leaves gap pixels between the two halves.
func Columns(rect image.Rectangle, fraction float64, gap int) (left, right image.Rectangle) {
	rect = rect.Canon()
	split := rect.Min.X + int(float64(rect.Dx())*clamp01(fraction))
	left = image.Rect(rect.Min.X, rect.Min.Y, split, rect.Max.Y)
	right = image.Rect(min(split+max(gap, 0), rect.Max.X), rect.Min.Y, rect.Max.X, rect.Max.Y)
	return left, right
}

// Rows splits rect into n rows of equal height with gap pixels between them.
// The last row absorbs rounding.
func Rows(rect image.Rectangle, n, gap int) []image.Rectangle {
	rect = rect.Canon()
	if n <= 0 {
		return nil
	}
	gap = max(gap, 0)
	h := max((rect.Dy()-gap*(n-1))/n, 0)
	rows := make([]image.Rectangle, n)
	y := rect.Min.Y
	for i := range rows {
		bottom := min(y+h, rect.Max.Y)
		if i == n-1 {
			bottom = rect.Max.Y
		}
		rows[i] = image.Rect(rect.Min.X, min(y, rect.Max.Y), rect.Max.X, bottom)
		y += h + gap
	}
	return rows
}

// Center returns the point in the middle of rect.
func Center(rect image.Rectangle) image.Point {
	rect = rect.Canon()
	return image.Pt(rect.Min.X+rect.Dx()/2, rect.Min.Y+rect.Dy()/2)
}

// Square returns the largest square that fits into rect, centered in it.
func Square(rect image.Rectangle) image.Rectangle {
	rect = rect.Canon()
	size := min(rect.Dx(), rect.Dy())
	c := Center(rect)
	origin := image.Pt(c.X-size/2, c.Y-size/2)
	return image.Rectangle{Min: origin, Max: origin.Add(image.Pt(size, size))}
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
