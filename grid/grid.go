// Package grid drives a glyph grid through repeated propose, render and
// measure rounds until every line settles.
package grid

import (
	"context"
	"errors"
	"fmt"

	"github.com/ByLCY/glyphmask/classify"
	"github.com/ByLCY/glyphmask/diag"
	"github.com/ByLCY/glyphmask/layout"
	"github.com/ByLCY/glyphmask/mask"
)

var (
	// ErrStale is returned for a measurement that belongs to an older
	// version of the grid.
	ErrStale = errors.New("grid: stale measurement")

	// ErrNoLine is returned for a measurement naming a line the grid does
	// not have.
	ErrNoLine = errors.New("grid: no such line")
)

// Config holds the options a grid is built from.
type Config struct {
	Ideal      layout.Shape
	Viewport   layout.Shape
	LineHeight float64
	Label      string
	Fill       layout.Glyph
	Alignment  layout.Alignment
	BatchStep  int
	// Classifier switches foreground cells from label glyphs to palette
	// tokens. Palette supplies the token widths passed to it.
	Classifier classify.Classifier
	Palette    *classify.Palette
}

// DefaultConfig mirrors the built-in configuration file.
func DefaultConfig() Config {
	return Config{
		Ideal:      layout.Shape{Width: 450, Height: 950},
		Viewport:   layout.Shape{Width: 1280, Height: 1024},
		LineHeight: 16,
		Fill:       " ",
		BatchStep:  layout.DefaultBatchStep,
	}
}

// Grid is the synchronous core: it owns the lines and the width cache and is
// not safe for concurrent use. Controller serialises access to it.
type Grid struct {
	cfg     Config
	src     mask.Source
	label   []layout.Glyph
	widths  *layout.WidthModel
	shape   layout.Shape
	lines   []layout.LineState
	version uint64
}

// New builds a grid and performs the first reset. A nil or empty mask is
// replaced by the placeholder silhouette.
func New(cfg Config, src mask.Source) *Grid {
	g := &Grid{cfg: cfg, widths: layout.NewWidthModel()}
	if g.cfg.Fill == "" {
		g.cfg.Fill = " "
	}
	if g.cfg.LineHeight <= 0 {
		g.cfg.LineHeight = DefaultConfig().LineHeight
	}
	g.setMask(src)
	g.setLabel(cfg.Label)
	g.Reset()
	return g
}

func (g *Grid) setMask(src mask.Source) {
	src, placeholder := mask.OrPlaceholder(src)
	if placeholder {
		diag.Logger().Warn("grid: invalid mask, using placeholder")
	}
	g.src = src
}

func (g *Grid) setLabel(label string) {
	g.cfg.Label = label
	g.label = layout.SplitLabel(label)
	if len(g.label) == 0 && g.cfg.Classifier == nil {
		diag.Logger().Warn("grid: empty label, using placeholder")
	}
}

// Reset discards every line and starts a new version. Learned widths are
// kept.
func (g *Grid) Reset() {
	w, h := g.src.Shape()
	g.shape = layout.FitShape(w, h, g.cfg.Ideal, g.cfg.Viewport)
	g.lines = layout.NewLines(layout.LineCount(g.shape, g.cfg.LineHeight))
	g.version++
	diag.Logger().Debug("grid: reset", "version", g.version, "shape", g.shape, "lines", len(g.lines))
}

// Resize records a new viewport and resets when the canvas shape changes.
func (g *Grid) Resize(viewport layout.Shape) bool {
	g.cfg.Viewport = viewport
	w, h := g.src.Shape()
	if layout.FitShape(w, h, g.cfg.Ideal, viewport) == g.shape {
		return false
	}
	g.Reset()
	return true
}

// SetLabel replaces the label and resets.
func (g *Grid) SetLabel(label string) {
	g.setLabel(label)
	g.Reset()
}

// SetFill replaces the fill glyph and resets.
func (g *Grid) SetFill(fill layout.Glyph) {
	if fill == "" {
		fill = " "
	}
	g.cfg.Fill = fill
	g.Reset()
}

// SetAlignment switches between row and column alignment and resets.
func (g *Grid) SetAlignment(a layout.Alignment) {
	g.cfg.Alignment = a
	g.Reset()
}

// SetMask replaces the silhouette and resets.
func (g *Grid) SetMask(src mask.Source) {
	g.setMask(src)
	g.Reset()
}

// SetPalette replaces the classification palette and classifier and resets.
// A nil classifier returns the grid to label mode.
func (g *Grid) SetPalette(p *classify.Palette, c classify.Classifier) {
	g.cfg.Palette = p
	g.cfg.Classifier = c
	g.Reset()
}

// SetLineHeight changes the line pitch and resets.
func (g *Grid) SetLineHeight(h float64) {
	if h > 0 {
		g.cfg.LineHeight = h
	}
	g.Reset()
}

// SetBatchStep changes the batch step without resetting; Controller
// schedules the reset.
func (g *Grid) SetBatchStep(n int) {
	g.cfg.BatchStep = n
}

// Version identifies the current set of lines.
func (g *Grid) Version() uint64 { return g.version }

// Shape returns the canvas shape.
func (g *Grid) Shape() layout.Shape { return g.shape }

// Settled reports whether every line has settled.
func (g *Grid) Settled() bool {
	for _, l := range g.lines {
		if !l.Settled() {
			return false
		}
	}
	return true
}

// Tick runs one pass over every unsettled line and returns them for
// rendering. The frame is empty once the grid has settled.
func (g *Grid) Tick(ctx context.Context) layout.Frame {
	frame := layout.Frame{Version: g.version, Shape: g.shape, LineHeight: g.cfg.LineHeight}
	opts := g.options(ctx)
	for i, l := range g.lines {
		if l.Settled() {
			continue
		}
		l = layout.Pass(l, i, opts)
		g.lines[i] = l
		frame.Lines = append(frame.Lines, layout.FrameLine{Index: i, Text: l.Text(), Glyphs: l.Strings()})
	}
	return frame
}

func (g *Grid) options(ctx context.Context) layout.Options {
	opts := layout.Options{
		Mask:      g.src,
		Widths:    g.widths,
		Shape:     g.shape,
		LineCount: len(g.lines),
		Label:     g.label,
		Fill:      g.cfg.Fill,
		Alignment: g.cfg.Alignment,
		BatchStep: g.cfg.BatchStep,
	}
	if g.cfg.Classifier != nil {
		opts.Classify = g.classifyFunc(ctx)
	}
	return opts
}

func (g *Grid) classifyFunc(ctx context.Context) layout.ClassifyFunc {
	p := g.cfg.Palette
	if p == nil {
		p = classify.Default()
	}
	widths := p.Widths()
	_, mh := g.src.Shape()
	region := max(mh/max(len(g.lines), 1), 1)
	cls := g.cfg.Classifier
	return func(x, y int) layout.Glyph {
		tok, err := cls.Classify(ctx, widths, region, x, y)
		if err != nil {
			diag.Logger().Warn("grid: classification failed", "x", x, "y", y, "err", err)
		}
		if tok == "" {
			tok = p.Unknown
		}
		return layout.Glyph(tok)
	}
}

// Apply records the measured width of one line. Measurement errors are
// absorbed into the line state and returned for logging only.
func (g *Grid) Apply(version uint64, index int, width float64) error {
	if version != g.version {
		return ErrStale
	}
	if index < 0 || index >= len(g.lines) {
		return fmt.Errorf("%w: %d", ErrNoLine, index)
	}
	if g.lines[index].Settled() {
		return nil
	}
	known := g.widths.Len()
	line, err := layout.Apply(g.lines[index], width, float64(g.shape.Width), g.widths)
	g.lines[index] = line
	if g.widths.Len() > known {
		last := g.lines[index].Glyphs[len(g.lines[index].Glyphs)-1].Glyph
		w, _ := g.widths.Get(last)
		diag.Logger().Debug("grid: learned width", "glyph", string(last), "width", w)
	}
	return err
}

// Snapshot copies the current state.
func (g *Grid) Snapshot() *layout.Result {
	lines := make([]layout.LineState, len(g.lines))
	for i, l := range g.lines {
		l.Glyphs = append([]layout.PlacedGlyph(nil), l.Glyphs...)
		lines[i] = l
	}
	return &layout.Result{
		Version:    g.version,
		Shape:      g.shape,
		LineHeight: g.cfg.LineHeight,
		Lines:      lines,
		Widths:     g.widths.Snapshot(),
		Settled:    g.Settled(),
	}
}
