package layout

import (
	"fmt"
	"strings"
)

// 该文件定义字形网格的数据模型，供行构建、测量回写、渲染与调试 JSON 共用。

// Glyph 是一个原子渲染单元（标签字符或调色板符号），以内容本身作为标识。
type Glyph string

// PlacedGlyph 记录放入行中的字形及其在循环标签序列中的逻辑偏移。
// 背景填充字形沿用前一个字形的偏移，不占用标签序列。
type PlacedGlyph struct {
	Glyph  Glyph `json:"glyph"`
	Offset int   `json:"offset"`
	Fill   bool  `json:"fill,omitempty"`
}

// LineState 是一行的完整状态。每次构建或测量都返回新值，旧值不会被原地修改。
type LineState struct {
	Glyphs  []PlacedGlyph `json:"glyphs"`
	Width   float64       `json:"width"`   // 已确认的累计宽度（像素），不含待测字形
	Renders int           `json:"renders"` // 已收到的测量次数
	Delta   float64       `json:"delta"`   // 最近一次测量的宽度变化
	Pending bool          `json:"pending,omitempty"`
	Done    bool          `json:"done,omitempty"` // 测量失败后强制收敛
}

// Settled 判断该行是否已收敛：连续两次渲染宽度不变，或被强制结束。
func (l LineState) Settled() bool {
	return l.Done || (l.Renders >= 2 && l.Delta == 0)
}

// Text 拼接整行字形。
func (l LineState) Text() string {
	var b strings.Builder
	for _, g := range l.Glyphs {
		b.WriteString(string(g.Glyph))
	}
	return b.String()
}

// Strings 返回逐个字形的内容，渲染器据此逐字着色。
func (l LineState) Strings() []string {
	out := make([]string, len(l.Glyphs))
	for i, g := range l.Glyphs {
		out[i] = string(g.Glyph)
	}
	return out
}

func (l LineState) last() (PlacedGlyph, bool) {
	if len(l.Glyphs) == 0 {
		return PlacedGlyph{}, false
	}
	return l.Glyphs[len(l.Glyphs)-1], true
}

// clone 复制字形切片，保证写时复制语义。
func (l LineState) clone() LineState {
	out := l
	out.Glyphs = append(make([]PlacedGlyph, 0, len(l.Glyphs)+1), l.Glyphs...)
	return out
}

// dropLast 移除末尾字形（超宽或测量失败的探测字形）。
func (l *LineState) dropLast() {
	if len(l.Glyphs) > 0 {
		l.Glyphs = l.Glyphs[:len(l.Glyphs)-1]
	}
}

// NewLines 创建 n 条空行。
func NewLines(n int) []LineState {
	if n < 0 {
		n = 0
	}
	return make([]LineState, n)
}

// Alignment 控制标签偏移在背景间隙之后的计算方式。
type Alignment int

const (
	// AlignRow 严格递增：相邻标签字形的偏移总是 +1，与间隙无关。
	AlignRow Alignment = iota
	// AlignColumn 间隙之后按宽度重新定位偏移，使各行的前景在视觉上按列对齐。
	AlignColumn
)

func (a Alignment) String() string {
	switch a {
	case AlignColumn:
		return "column"
	default:
		return "row"
	}
}

// ParseAlignment 解析 "row"/"column"。
func ParseAlignment(v string) (Alignment, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "row", "rows":
		return AlignRow, nil
	case "column", "columns", "col":
		return AlignColumn, nil
	default:
		return AlignRow, fmt.Errorf("layout: unknown alignment %q", v)
	}
}

// Shape 是画布或视口的像素尺寸。
type Shape struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty 判断尺寸是否无效。
func (s Shape) Empty() bool { return s.Width <= 0 || s.Height <= 0 }

// Frame 是一次提交给渲染端的行集合，Version 用于丢弃过期的测量回报。
type Frame struct {
	Version    uint64      `json:"version"`
	Shape      Shape       `json:"shape"`
	LineHeight float64     `json:"lineHeight"`
	Lines      []FrameLine `json:"lines"`
}

// FrameLine 描述一条待渲染并测量的行。
type FrameLine struct {
	Index  int      `json:"index"`
	Text   string   `json:"text"`
	Glyphs []string `json:"glyphs"`
}

// Result 保存某一时刻网格的完整快照，供渲染器输出与调试。
type Result struct {
	Version    uint64            `json:"version"`
	Shape      Shape             `json:"shape"`
	LineHeight float64           `json:"lineHeight"`
	Lines      []LineState       `json:"lines"`
	Widths     map[Glyph]float64 `json:"widths"`
	Settled    bool              `json:"settled"`
}

// Texts 返回每行的文本。
func (r *Result) Texts() []string {
	out := make([]string, len(r.Lines))
	for i, l := range r.Lines {
		out[i] = l.Text()
	}
	return out
}
