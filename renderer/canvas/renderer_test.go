package canvasrenderer

import (
	"bytes"
	"context"
	"math"
	"testing"
	"time"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/glyphmask/grid"
	"github.com/ByLCY/glyphmask/layout"
	"github.com/ByLCY/glyphmask/renderer"
)

func TestMeasureIsAdditiveForMonospace(t *testing.T) {
	r := NewRendererWithOptions(Options{Font: renderer.Font{Src: "embed:go-mono", Size: 16}})
	one, err := r.Measure("m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if one <= 0 {
		t.Fatalf("invalid glyph width: %g", one)
	}
	ten, err := r.Measure("mmmmmmmmmm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := math.Abs(ten - 10*one); diff > 1e-6 {
		t.Fatalf("monospace width not additive: one=%g ten=%g", one, ten)
	}
}

// TestFontSizeScalesWidth 验证字号（px）翻倍时测量宽度同样翻倍。
func TestFontSizeScalesWidth(t *testing.T) {
	small := NewRendererWithOptions(Options{Font: renderer.Font{Size: 16}})
	large := NewRendererWithOptions(Options{Font: renderer.Font{Size: 32}})
	a, err := small.Measure("missingno")
	if err != nil {
		t.Fatalf("measure error: %v", err)
	}
	b, err := large.Measure("missingno")
	if err != nil {
		t.Fatalf("measure error: %v", err)
	}
	if diff := math.Abs(b - 2*a); diff > 1e-6*b {
		t.Fatalf("expected doubled width: small=%g large=%g", a, b)
	}
}

func TestMissingFontFallsBack(t *testing.T) {
	r := NewRendererWithOptions(Options{Font: renderer.Font{Src: "built-in:nope", Size: 16}})
	w, err := r.Measure("abc")
	if err != nil {
		t.Fatalf("expected fallback font, got error: %v", err)
	}
	if w <= 0 {
		t.Fatalf("invalid fallback width: %g", w)
	}
}

func TestCommitReportsEveryLine(t *testing.T) {
	r := NewRenderer("")
	frame := layout.Frame{Version: 3, Lines: []layout.FrameLine{{Index: 0, Text: "mi"}, {Index: 4, Text: ""}}}
	got := map[int]float64{}
	r.Commit(frame, func(version uint64, line int, width float64) {
		if version != 3 {
			t.Fatalf("unexpected version %d", version)
		}
		got[line] = width
	})
	if len(got) != 2 || got[0] <= 0 || got[4] != 0 {
		t.Fatalf("unexpected reports: %v", got)
	}
}

// TestGridSettlesAgainstCanvas 以真实字体驱动网格直到收敛，并输出 PDF。
func TestGridSettlesAgainstCanvas(t *testing.T) {
	r := NewRendererWithOptions(Options{Async: true, Title: "missingno"})
	cfg := grid.DefaultConfig()
	cfg.Label = "missingno"
	c := grid.NewController(cfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- c.Run(ctx, r) }()

	res, err := c.WaitSettled(ctx)
	if err != nil {
		t.Fatalf("grid did not settle: %v", err)
	}
	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("run error: %v", err)
	}

	for i, l := range res.Lines {
		if l.Width > float64(res.Shape.Width) {
			t.Fatalf("line %d overflows: %g > %d", i, l.Width, res.Shape.Width)
		}
	}
	if len(res.Widths) == 0 {
		t.Fatalf("expected learned widths")
	}

	data, err := r.Render(res)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("expected PDF output")
	}
}

func TestRenderRejectsEmptyResult(t *testing.T) {
	r := NewRenderer("")
	if _, err := r.Render(nil); err == nil {
		t.Fatalf("expected error for nil result")
	}
	if _, err := r.Render(&layout.Result{}); err == nil {
		t.Fatalf("expected error for empty shape")
	}
}

func TestFontStyle(t *testing.T) {
	cases := map[string]canvas.FontStyle{
		"":             canvas.FontRegular,
		"Bold":         canvas.FontBold,
		"black":        canvas.FontBlack,
		"light italic": canvas.FontLight | canvas.FontItalic,
		"oblique":      canvas.FontRegular | canvas.FontItalic,
	}
	for desc, want := range cases {
		if got := fontStyle(desc); got != want {
			t.Fatalf("fontStyle(%q) = %v, want %v", desc, got, want)
		}
	}
}

func TestRelativeFontPathNeedsBaseDir(t *testing.T) {
	r := NewRenderer("")
	if _, err := r.fontData("fonts/missing.ttf"); err == nil {
		t.Fatalf("expected error without base dir")
	}
	r = NewRendererWithOptions(Options{Fonts: map[string][]byte{"mono": []byte("x")}})
	if data, err := r.fontData("built-in:mono"); err != nil || string(data) != "x" {
		t.Fatalf("expected injected font, got %q (%v)", data, err)
	}
}
