package layout

import (
	"strings"
	"testing"

	"github.com/ByLCY/glyphmask/mask"
)

// stubMeasurer 是一个最小的测量实现，仅用于测试：整行宽度等于各字形固定宽度之和。
// 未列出的字形默认 8 像素。
type stubMeasurer map[Glyph]float64

func (s stubMeasurer) width(g Glyph) float64 {
	if w, ok := s[g]; ok {
		return w
	}
	return 8
}

func (s stubMeasurer) measure(l LineState) float64 {
	var sum float64
	for _, g := range l.Glyphs {
		sum += s.width(g.Glyph)
	}
	return sum
}

var proportional = stubMeasurer{"m": 12, "i": 4, " ": 5, "n": 9}

// converge 交替执行构建与测量，直到所有行收敛。
func converge(t *testing.T, lines []LineState, opts Options, m stubMeasurer) []LineState {
	t.Helper()
	for round := 0; round < 10000; round++ {
		settled := true
		for i := range lines {
			if !lines[i].Settled() {
				settled = false
			}
		}
		if settled {
			return lines
		}
		for i := range lines {
			if !lines[i].Settled() {
				lines[i] = Pass(lines[i], i, opts)
			}
		}
		for i := range lines {
			if lines[i].Settled() {
				continue
			}
			var err error
			lines[i], err = Apply(lines[i], m.measure(lines[i]), float64(opts.Shape.Width), opts.Widths)
			if err != nil {
				t.Fatalf("第 %d 行测量失败: %v", i, err)
			}
		}
	}
	t.Fatalf("网格未能收敛")
	return nil
}

func placeholderOptions(align Alignment) Options {
	shape := FitShape(9, 15, Shape{Width: 450, Height: 950}, Shape{Width: 1280, Height: 1024})
	return Options{
		Mask:      mask.Placeholder(),
		Widths:    NewWidthModel(),
		Shape:     shape,
		LineCount: LineCount(shape, 16),
		Label:     SplitLabel("missingno"),
		Fill:      " ",
		Alignment: align,
		BatchStep: 100,
	}
}

// TestPlaceholderScenario 覆盖占位轮廓：前景按行从左到右循环拼出 "missingno"，背景为填充字形。
func TestPlaceholderScenario(t *testing.T) {
	opts := placeholderOptions(AlignRow)
	if opts.Shape != (Shape{Width: 450, Height: 750}) {
		t.Fatalf("画布尺寸异常: %+v", opts.Shape)
	}
	lines := converge(t, NewLines(opts.LineCount), opts, proportional)
	if len(lines) != 750/16 {
		t.Fatalf("行数期望 %d，实际 %d", 750/16, len(lines))
	}

	cycle := strings.Repeat("missingno", 64)
	for i, l := range lines {
		var fg strings.Builder
		for _, g := range l.Glyphs {
			if g.Fill {
				if g.Glyph != " " {
					t.Fatalf("第 %d 行背景字形应为空格，实际 %q", i, g.Glyph)
				}
				continue
			}
			fg.WriteString(string(g.Glyph))
		}
		if !strings.HasPrefix(cycle, fg.String()) {
			t.Fatalf("第 %d 行前景未按循环拼出标签: %q", i, fg.String())
		}
		if l.Width > float64(opts.Shape.Width) {
			t.Fatalf("第 %d 行越界: %g > %d", i, l.Width, opts.Shape.Width)
		}
		if l.Width <= float64(opts.Shape.Width)-12 {
			t.Fatalf("第 %d 行未填满: %g", i, l.Width)
		}
	}
}

// TestGlyphsFollowSilhouette 断言每个字形起点处的掩码取值与其是否为填充字形一致。
func TestGlyphsFollowSilhouette(t *testing.T) {
	opts := placeholderOptions(AlignRow)
	lines := converge(t, NewLines(opts.LineCount), opts, proportional)
	mw, mh := opts.Mask.Shape()
	for i, l := range lines {
		x := 0.0
		for j, g := range l.Glyphs {
			wr, hr := Ratios(x, i, opts.LineCount, opts.Shape)
			bg := opts.Mask.Pixel(Cell(wr, mw), Cell(hr, mh))
			if bg != g.Fill {
				t.Fatalf("第 %d 行第 %d 个字形与掩码不符: fill=%v mask=%v", i, j, g.Fill, bg)
			}
			x += proportional.width(g.Glyph)
		}
	}
}

// TestRowOffsetsIncrement 断言 row 对齐下相邻标签字形的偏移严格 +1。
func TestRowOffsetsIncrement(t *testing.T) {
	opts := placeholderOptions(AlignRow)
	lines := converge(t, NewLines(opts.LineCount), opts, proportional)
	for i, l := range lines {
		prev := -1
		for _, g := range l.Glyphs {
			if g.Fill {
				continue
			}
			if g.Offset != prev+1 {
				t.Fatalf("第 %d 行偏移不连续: %d 之后为 %d", i, prev, g.Offset)
			}
			prev = g.Offset
		}
	}
}

// TestColdRunsAreIdentical 断言同一输入从空网格重跑得到完全相同的内容。
func TestColdRunsAreIdentical(t *testing.T) {
	for _, align := range []Alignment{AlignRow, AlignColumn} {
		a := placeholderOptions(align)
		b := placeholderOptions(align)
		la := converge(t, NewLines(a.LineCount), a, proportional)
		lb := converge(t, NewLines(b.LineCount), b, proportional)
		for i := range la {
			if la[i].Text() != lb[i].Text() {
				t.Fatalf("%s 对齐第 %d 行两次结果不同: %q vs %q", align, i, la[i].Text(), lb[i].Text())
			}
		}
	}
}

// TestPassAppendsSingleProbe 断言宽度未知时每轮只追加一个探测字形。
func TestPassAppendsSingleProbe(t *testing.T) {
	opts := placeholderOptions(AlignRow)
	line := Pass(LineState{}, 0, opts)
	if len(line.Glyphs) != 1 || !line.Pending || line.Width != 0 {
		t.Fatalf("首轮应只有一个待测字形: %+v", line)
	}
	if again := Pass(line, 0, opts); len(again.Glyphs) != 1 {
		t.Fatalf("等待测量的行不应继续追加")
	}
}

// TestPassRespectsBatchStep 断言宽度全部已知时按步长批量追加，且末尾字形保持待测。
func TestPassRespectsBatchStep(t *testing.T) {
	opts := placeholderOptions(AlignRow)
	opts.BatchStep = 3
	for _, g := range []Glyph{"m", "i", "s", "n", "g", "o", " "} {
		opts.Widths.Set(g, proportional.width(g))
	}
	line := Pass(LineState{}, 0, opts)
	if len(line.Glyphs) != 3 {
		t.Fatalf("期望追加 3 个字形，实际 %d", len(line.Glyphs))
	}
	want := proportional.width(line.Glyphs[0].Glyph) + proportional.width(line.Glyphs[1].Glyph)
	if !line.Pending || line.Width != want {
		t.Fatalf("末尾字形宽度不应计入: width=%g want=%g", line.Width, want)
	}
}

// TestPassStopsAtCanvasEdge 断言已知宽度的字形不会越过画布右边界。
func TestPassStopsAtCanvasEdge(t *testing.T) {
	m, _ := mask.ParseRows([]string{"0"})
	widths := NewWidthModel()
	widths.Set("a", 30)
	opts := Options{
		Mask: m, Widths: widths, Shape: Shape{Width: 100, Height: 10},
		LineCount: 1, Label: []Glyph{"a"}, Fill: " ", BatchStep: 100,
	}
	line := Pass(LineState{}, 0, opts)
	if len(line.Glyphs) != 3 {
		t.Fatalf("100px 内应放下 3 个 30px 字形，实际 %d", len(line.Glyphs))
	}
}

// TestColumnRealignsAfterGap 断言 column 对齐在间隙之后按宽度重新定位偏移，而 row 对齐继续递增。
func TestColumnRealignsAfterGap(t *testing.T) {
	m, err := mask.ParseRows([]string{"0100"})
	if err != nil {
		t.Fatal(err)
	}
	widths := NewWidthModel()
	widths.Set("a", 10)
	widths.Set("b", 10)
	widths.Set(" ", 10)
	base := Options{
		Mask: m, Widths: widths, Shape: Shape{Width: 40, Height: 10},
		LineCount: 1, Label: []Glyph{"a", "b"}, Fill: " ", BatchStep: 100,
	}

	row := base
	row.Alignment = AlignRow
	if got := Pass(LineState{}, 0, row).Text(); got != "a ba" {
		t.Fatalf("row 对齐期望 %q，实际 %q", "a ba", got)
	}

	col := base
	col.Alignment = AlignColumn
	line := Pass(LineState{}, 0, col)
	if got := line.Text(); got != "a ab" {
		t.Fatalf("column 对齐期望 %q，实际 %q", "a ab", got)
	}
	if line.Glyphs[2].Offset != 2 || line.Glyphs[3].Offset != 3 {
		t.Fatalf("column 对齐偏移异常: %+v", line.Glyphs)
	}
}

func TestColumnOffsetPicksClosestWidth(t *testing.T) {
	widths := NewWidthModel()
	widths.Set("a", 10)
	widths.Set("b", 20)
	opts := Options{Widths: widths, Label: []Glyph{"a", "b"}}
	cases := []struct {
		width float64
		want  int
	}{
		{0, 0}, {4, 0}, {6, 1}, {30, 2}, {34, 2}, {36, 3}, {60, 4},
	}
	for _, c := range cases {
		if got := opts.columnOffset(c.width, -1); got != c.want {
			t.Fatalf("width=%g 期望偏移 %d，实际 %d", c.width, c.want, got)
		}
	}
}

func TestColumnOffsetWithoutWidthsIncrements(t *testing.T) {
	opts := Options{Widths: NewWidthModel(), Label: []Glyph{"a"}}
	if got := opts.columnOffset(100, 6); got != 7 {
		t.Fatalf("宽度全部未知时应退化为递增，实际 %d", got)
	}
}

func TestClassifyModeUsesPaletteTokens(t *testing.T) {
	opts := placeholderOptions(AlignRow)
	var calls int
	opts.Classify = func(x, y int) Glyph {
		calls++
		return "#"
	}
	line := Pass(LineState{}, 0, opts)
	if line.Glyphs[0].Glyph != "#" || calls != 1 {
		t.Fatalf("分类模式应使用调色板符号: %+v", line.Glyphs)
	}
}

func TestSplitLabelKeepsClusters(t *testing.T) {
	got := SplitLabel("e\u0301a")
	if len(got) != 2 || got[0] != "e\u0301" {
		t.Fatalf("组合字符不应被拆开: %q", got)
	}
}
