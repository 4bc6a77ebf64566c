package renderer

import (
	"github.com/ByLCY/glyphmask/grid"
	"github.com/ByLCY/glyphmask/layout"
)

// Renderer 将收敛后的网格输出为最终文件，例如 PDF 或终端预览。
// Render 返回生成的二进制数据以及可能的错误。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}

// Host 既负责测量提交的行（grid.Surface），也负责最终输出。
type Host interface {
	grid.Surface
	Renderer
}

// Font 描述宿主使用的字体。Src 支持 "embed:<name>"、"built-in:<name>" 或文件路径；
// Size 为像素。
type Font struct {
	Name  string
	Src   string
	Style string
	Size  float64
}

// Run 是一段连续的前景或背景字形，渲染器按段着色。
type Run struct {
	Text string
	Fill bool
}

// Runs 将一行拆分为前景/背景交替的片段。
func Runs(l layout.LineState) []Run {
	var out []Run
	for _, g := range l.Glyphs {
		if n := len(out); n > 0 && out[n-1].Fill == g.Fill {
			out[n-1].Text += string(g.Glyph)
			continue
		}
		out = append(out, Run{Text: string(g.Glyph), Fill: g.Fill})
	}
	return out
}

// Deliver 对帧内每一行调用 measure 并回报宽度。async 为 true 时在新的 goroutine 中回报，
// 模拟绘制完成后才得到测量结果的宿主。
func Deliver(frame layout.Frame, report grid.ReportFunc, async bool, measure func(layout.FrameLine) float64) {
	deliver := func() {
		for _, l := range frame.Lines {
			report(frame.Version, l.Index, measure(l))
		}
	}
	if async {
		go deliver()
		return
	}
	deliver()
}
