// Package mask provides the boolean silhouette a grid is laid out against.
//
// A pixel reporting true is background and renders the fill glyph; false is
// foreground and receives label glyphs or palette tokens.
package mask

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrEmptyMask is returned when a mask would have no rows or columns.
	ErrEmptyMask = errors.New("mask: empty mask")

	// ErrRaggedMask is returned when mask rows differ in length.
	ErrRaggedMask = errors.New("mask: rows differ in length")
)

// alphaThreshold is the 8-bit alpha at or above which an image pixel is
// background.
const alphaThreshold = 127

// Source is the silhouette queried by the line builder.
type Source interface {
	// Shape returns the mask width and height.
	Shape() (w, h int)
	// Pixel reports the value at 0 ≤ x < w, 0 ≤ y < h.
	Pixel(x, y int) bool
}

// Mask is an immutable boolean raster.
type Mask struct {
	w, h int
	bits []bool
}

var _ Source = (*Mask)(nil)

// Shape implements Source.
func (m *Mask) Shape() (int, int) {
	if m == nil {
		return 0, 0
	}
	return m.w, m.h
}

// Pixel implements Source. Out of range coordinates are clamped.
func (m *Mask) Pixel(x, y int) bool {
	x = clamp(x, m.w)
	y = clamp(y, m.h)
	return m.bits[y*m.w+x]
}

// Rows returns a copy of the mask as rows of booleans.
func (m *Mask) Rows() [][]bool {
	rows := make([][]bool, m.h)
	for y := range rows {
		rows[y] = append([]bool(nil), m.bits[y*m.w:(y+1)*m.w]...)
	}
	return rows
}

// FromRows builds a mask from rows of booleans. All rows must share one
// non-zero length.
func FromRows(rows [][]bool) (*Mask, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyMask
	}
	w := len(rows[0])
	bits := make([]bool, 0, w*len(rows))
	for i, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("row %d has %d cells, want %d: %w", i, len(row), w, ErrRaggedMask)
		}
		bits = append(bits, row...)
	}
	return &Mask{w: w, h: len(rows), bits: bits}, nil
}

// ParseRows builds a mask from text rows. '1', '#' and 'X' are background;
// '0', '.' and ' ' are foreground. Any other rune is an error.
func ParseRows(lines []string) (*Mask, error) {
	rows := make([][]bool, 0, len(lines))
	for i, line := range lines {
		row := make([]bool, 0, len(line))
		for _, r := range line {
			switch r {
			case '1', '#', 'X', 'x':
				row = append(row, true)
			case '0', '.', ' ':
				row = append(row, false)
			default:
				return nil, fmt.Errorf("mask: row %d: unexpected cell %q", i, r)
			}
		}
		rows = append(rows, row)
	}
	return FromRows(rows)
}

// FromImage thresholds the alpha channel of img: pixels with alpha ≥ 127
// become background.
func FromImage(img image.Image) (*Mask, error) {
	if img == nil {
		return nil, ErrEmptyMask
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyMask
	}
	m := &Mask{w: b.Dx(), h: b.Dy(), bits: make([]bool, b.Dx()*b.Dy())}
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			_, _, _, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			m.bits[y*m.w+x] = a>>8 >= alphaThreshold
		}
	}
	return m, nil
}

// Decode reads an encoded image (PNG, GIF, JPEG, BMP, TIFF or WebP) and
// thresholds it with FromImage. The decoded image is returned as well so it
// can feed a classifier.
func Decode(r io.Reader) (*Mask, image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, nil, fmt.Errorf("mask: decode image: %w", err)
	}
	m, err := FromImage(img)
	if err != nil {
		return nil, nil, err
	}
	return m, img, nil
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
