package layout

import "math"

// This file holds the unit conversions and the shape math shared by the
// controller and the renderers.

// Conversion constants between px (CSS pixels, 96 per inch), pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
	PxToMm = 25.4 / 96
	MmToPx = 1.0 / PxToMm
	PxToPt = 0.75
	PtToPx = 1.0 / PxToPt
)

// FitShape returns the canvas shape for a mask of maskW×maskH cells: the
// bound is min(ideal, viewport) per axis, and the result is the smaller of
// the two ratio-preserving fits into that bound. Both sides are floored and
// at least 1.
func FitShape(maskW, maskH int, ideal, viewport Shape) Shape {
	boundW := minPositive(ideal.Width, viewport.Width)
	boundH := minPositive(ideal.Height, viewport.Height)
	if maskW < 1 || maskH < 1 || boundW < 1 || boundH < 1 {
		return Shape{Width: max(boundW, 1), Height: max(boundH, 1)}
	}
	ratio := float64(maskW) / float64(maskH)

	// 按宽度适配
	w1, h1 := float64(boundW), float64(boundW)/ratio
	// 按高度适配
	w2, h2 := float64(boundH)*ratio, float64(boundH)

	w, h := w1, h1
	if h1 > float64(boundH) {
		w, h = w2, h2
	}
	return Shape{
		Width:  max(int(math.Floor(w)), 1),
		Height: max(int(math.Floor(h)), 1),
	}
}

// LineCount returns floor(height / lineHeight).
func LineCount(shape Shape, lineHeight float64) int {
	if lineHeight <= 0 || shape.Height <= 0 {
		return 0
	}
	return int(math.Floor(float64(shape.Height) / lineHeight))
}

// Ratios maps a cumulative line width and a line index onto [0,1] ratios
// of the canvas.
func Ratios(width float64, index, lineCount int, shape Shape) (widthRatio, heightRatio float64) {
	if shape.Width > 0 {
		widthRatio = width / float64(shape.Width)
	}
	if lineCount > 0 {
		heightRatio = (float64(index) + 0.5) / float64(lineCount)
	}
	return widthRatio, heightRatio
}

// Cell maps a ratio onto a mask dimension: floor(ratio*n) clamped to n-1.
func Cell(ratio float64, n int) int {
	if n < 1 {
		return 0
	}
	c := int(math.Floor(ratio * float64(n)))
	if c < 0 {
		return 0
	}
	if c > n-1 {
		return n - 1
	}
	return c
}

func minPositive(a, b int) int {
	switch {
	case a <= 0:
		return b
	case b <= 0:
		return a
	default:
		return min(a, b)
	}
}
