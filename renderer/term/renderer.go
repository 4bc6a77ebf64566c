// Package termrenderer lays glyph grids out on terminal cells and renders a
// coloured preview.
package termrenderer

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/ByLCY/glyphmask/grid"
	"github.com/ByLCY/glyphmask/layout"
	"github.com/ByLCY/glyphmask/renderer"
)

// DefaultCellWidth is the pixel width assumed for one terminal column.
const DefaultCellWidth = 8

// Renderer measures a line as its display width in cells times CellWidth.
type Renderer struct {
	CellWidth float64
	Async     bool
	// Plain disables styling in Render.
	Plain bool

	Foreground lipgloss.Style
	Background lipgloss.Style
}

var _ renderer.Host = (*Renderer)(nil)

// New returns a renderer with the default cell width and styles.
func New() *Renderer {
	return &Renderer{
		CellWidth:  DefaultCellWidth,
		Foreground: lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
		Background: lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	}
}

func (r *Renderer) cellWidth() float64 {
	if r.CellWidth <= 0 {
		return DefaultCellWidth
	}
	return r.CellWidth
}

// Measure returns the width of s in px.
func (r *Renderer) Measure(s string) float64 {
	return float64(ansi.StringWidth(s)) * r.cellWidth()
}

// Commit implements grid.Surface.
func (r *Renderer) Commit(frame layout.Frame, report grid.ReportFunc) {
	renderer.Deliver(frame, report, r.Async, func(l layout.FrameLine) float64 {
		return r.Measure(l.Text)
	})
}

// Render returns the grid as text, one line per row, with label glyphs and
// fill glyphs styled separately.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, nil
	}
	var b strings.Builder
	for i, line := range result.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, run := range renderer.Runs(line) {
			switch {
			case r.Plain:
				b.WriteString(run.Text)
			case run.Fill:
				b.WriteString(r.Background.Render(run.Text))
			default:
				b.WriteString(r.Foreground.Render(run.Text))
			}
		}
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}
