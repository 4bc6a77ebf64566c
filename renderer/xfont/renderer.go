// Package xfontrenderer measures and rasterises glyph grids with
// golang.org/x/image/font.
package xfontrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/glyphmask/fonts"
	"github.com/ByLCY/glyphmask/grid"
	"github.com/ByLCY/glyphmask/layout"
	"github.com/ByLCY/glyphmask/renderer"
)

// Renderer measures with an OpenType face and renders PNG images.
type Renderer struct {
	async      bool
	foreground color.Color
	background color.Color

	mu   sync.Mutex // font.Face is not safe for concurrent use
	face font.Face
}

var _ renderer.Host = (*Renderer)(nil)

// Options configures the renderer. Font.Src names an embedded font; Data,
// when set, takes precedence.
type Options struct {
	Font       renderer.Font
	Data       []byte
	Async      bool
	Foreground color.Color
	Background color.Color
}

// New parses the font and builds an unhinted face at Font.Size px.
func New(opts Options) (*Renderer, error) {
	data := opts.Data
	if len(data) == 0 {
		var err error
		if data, err = fonts.Load(opts.Font.Src); err != nil {
			return nil, err
		}
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("xfont: parse font: %w", err)
	}
	size := opts.Font.Size
	if size <= 0 {
		size = 16
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil, fmt.Errorf("xfont: new face: %w", err)
	}
	r := &Renderer{async: opts.Async, foreground: opts.Foreground, background: opts.Background, face: face}
	if r.foreground == nil {
		r.foreground = color.RGBA{R: 0x1e, G: 0x1e, B: 0x1e, A: 0xff}
	}
	if r.background == nil {
		r.background = color.RGBA{R: 0xc8, G: 0xc8, B: 0xc8, A: 0xff}
	}
	return r, nil
}

// Measure returns the advance of s in px.
func (r *Renderer) Measure(s string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fixedToPx(font.MeasureString(r.face, s))
}

// Commit implements grid.Surface.
func (r *Renderer) Commit(frame layout.Frame, report grid.ReportFunc) {
	renderer.Deliver(frame, report, r.async, func(l layout.FrameLine) float64 {
		return r.Measure(l.Text)
	})
}

// Render draws the grid onto a white canvas and encodes it as PNG.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil || result.Shape.Empty() {
		return nil, fmt.Errorf("xfont: nothing to render")
	}
	img := image.NewRGBA(image.Rect(0, 0, result.Shape.Width, result.Shape.Height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	r.mu.Lock()
	ascent := r.face.Metrics().Ascent
	d := &font.Drawer{Dst: img, Face: r.face}
	for i, line := range result.Lines {
		d.Dot = fixed.Point26_6{X: 0, Y: fixed.I(int(float64(i)*result.LineHeight)) + ascent}
		for _, run := range renderer.Runs(line) {
			d.Src = image.NewUniform(r.foreground)
			if run.Fill {
				d.Src = image.NewUniform(r.background)
			}
			d.DrawString(run.Text)
		}
	}
	r.mu.Unlock()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("xfont: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func fixedToPx(v fixed.Int26_6) float64 { return float64(v) / 64 }
