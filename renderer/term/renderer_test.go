package termrenderer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/glyphmask/grid"
	"github.com/ByLCY/glyphmask/layout"
)

func TestMeasureCountsCells(t *testing.T) {
	r := New()
	require.Equal(t, 3*8.0, r.Measure("abc"))
	require.Equal(t, 2*8.0, r.Measure("日"))
	require.Equal(t, 8.0, r.Measure("é"))
}

// TestGridFillsTerminalColumns settles a grid in monospace cells: every line
// holds exactly as many glyphs as fit the canvas width.
func TestGridFillsTerminalColumns(t *testing.T) {
	r := New()
	r.Plain = true
	cfg := grid.DefaultConfig()
	cfg.Label = "missingno"
	c := grid.NewController(cfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	go c.Run(ctx, r)
	res, err := c.WaitSettled(ctx)
	require.NoError(t, err)

	cols := res.Shape.Width / DefaultCellWidth
	for i, l := range res.Lines {
		require.Len(t, l.Glyphs, cols, "line %d", i)
	}

	out, err := r.Render(res)
	require.NoError(t, err)
	rows := strings.Split(strings.TrimSuffix(string(out), "\n"), "\n")
	require.Len(t, rows, len(res.Lines))
	require.Equal(t, res.Texts()[0], rows[0])
}

func TestRenderStylesForeground(t *testing.T) {
	r := New()
	res := &layout.Result{Lines: []layout.LineState{{Glyphs: []layout.PlacedGlyph{
		{Glyph: "m"}, {Glyph: " ", Fill: true},
	}}}}
	out, err := r.Render(res)
	require.NoError(t, err)
	require.Equal(t, "m \n", ansi.Strip(string(out)))
}
