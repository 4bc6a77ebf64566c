package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/glyphmask/diag"
	"github.com/ByLCY/glyphmask/grid"
	"github.com/ByLCY/glyphmask/layout"
	"github.com/ByLCY/glyphmask/renderer"
)

// Renderer measures lines with tdewolff/canvas font faces and draws settled
// grids to PDF.
type Renderer struct {
	baseDir string
	font    renderer.Font
	async   bool
	title   string
	blobs   map[string][]byte

	foreground color.Color
	background color.Color

	once   sync.Once
	family *canvas.FontFamily
	style  canvas.FontStyle
	err    error
}

var (
	_ renderer.Host = (*Renderer)(nil)
	_ grid.Surface  = (*Renderer)(nil)
)

// Options configures the canvas renderer.
type Options struct {
	// BaseDir resolves relative font paths.
	BaseDir string
	Font    renderer.Font
	// Fonts holds font data addressable as "built-in:<name>".
	Fonts map[string][]byte
	// Async reports measurements from a separate goroutine after Commit
	// returns.
	Async bool
	Title string
	// Foreground colours label glyphs, Background colours fill glyphs.
	Foreground color.Color
	Background color.Color
}

// NewRenderer creates a renderer with the default font, resolving font paths
// against baseDir.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer from opts. Fonts are loaded on
// first use.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		baseDir:    opts.BaseDir,
		font:       opts.Font,
		async:      opts.Async,
		title:      opts.Title,
		blobs:      opts.Fonts,
		foreground: opts.Foreground,
		background: opts.Background,
	}
	if r.font.Size <= 0 {
		r.font.Size = 16
	}
	if r.foreground == nil {
		r.foreground = canvas.Hex("#1e1e1e")
	}
	if r.background == nil {
		r.background = canvas.Hex("#c8c8c8")
	}
	return r
}

// Commit implements grid.Surface: each line is measured as one text run and
// its width reported in px.
func (r *Renderer) Commit(frame layout.Frame, report grid.ReportFunc) {
	face, err := r.fontFace(r.foreground)
	if err != nil {
		// 无法测量时回报 0，待测字形被丢弃，网格仍能收敛
		diag.Logger().Warn("canvas: font unavailable", "font", r.font.Src, "err", err)
	}
	renderer.Deliver(frame, report, r.async, func(l layout.FrameLine) float64 {
		if face == nil {
			return 0
		}
		return face.TextWidth(l.Text) * layout.MmToPx
	})
}

// Measure returns the width of s in px.
func (r *Renderer) Measure(s string) (float64, error) {
	face, err := r.fontFace(r.foreground)
	if err != nil {
		return 0, err
	}
	return face.TextWidth(s) * layout.MmToPx, nil
}

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if result.Shape.Empty() {
		return nil, fmt.Errorf("缺少可渲染的画布")
	}
	fg, err := r.fontFace(r.foreground)
	if err != nil {
		return nil, err
	}
	bg, err := r.fontFace(r.background)
	if err != nil {
		return nil, err
	}

	width := float64(result.Shape.Width) * layout.PxToMm
	height := float64(result.Shape.Height) * layout.PxToMm
	var buf bytes.Buffer
	writer := pdf.New(&buf, width, height, nil)
	writer.SetInfo(r.title, "", "", "", "glyphmask")

	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与网格保持左上角为原点

	lineHeight := result.LineHeight * layout.PxToMm
	ascent := fg.Metrics().Ascent
	for i, line := range result.Lines {
		x := 0.0
		baseline := float64(i)*lineHeight + ascent
		for _, run := range renderer.Runs(line) {
			face := fg
			if run.Fill {
				face = bg
			}
			ctx.DrawText(x, baseline, canvas.NewTextLine(face, run.Text, canvas.Left))
			x += face.TextWidth(run.Text)
		}
	}
	c.RenderTo(writer)

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) fontFace(col color.Color) (*canvas.FontFace, error) {
	family, style, err := r.fontFamily()
	if err != nil {
		return nil, err
	}
	// 字号以 px 给出，字体系统使用 pt
	return family.Face(r.font.Size*layout.PxToPt, col, style, canvas.FontNormal), nil
}
