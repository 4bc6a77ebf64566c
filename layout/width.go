package layout

import "math"

// WidthModel 是只写一次的字形宽度缓存：字形宽度只能通过渲染与测量得到，
// 一旦记录便不再覆盖。每个网格独占一个实例，不做并发保护，
// 写入统一经由网格的串行队列完成。
type WidthModel struct {
	widths map[Glyph]float64
}

// NewWidthModel 创建空的宽度缓存。
func NewWidthModel() *WidthModel {
	return &WidthModel{widths: map[Glyph]float64{}}
}

// Has 判断字形宽度是否已知。
func (m *WidthModel) Has(g Glyph) bool {
	_, ok := m.widths[g]
	return ok
}

// Get 返回字形宽度。
func (m *WidthModel) Get(g Glyph) (float64, bool) {
	w, ok := m.widths[g]
	return w, ok
}

// Set 记录字形宽度。已存在或宽度非法（非有限正数）时不做任何修改并返回 false。
func (m *WidthModel) Set(g Glyph, w float64) bool {
	if m.Has(g) {
		return false
	}
	if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
		return false
	}
	m.widths[g] = w
	return true
}

// Len 返回已知字形数量。
func (m *WidthModel) Len() int { return len(m.widths) }

// Snapshot 复制当前所有宽度。
func (m *WidthModel) Snapshot() map[Glyph]float64 {
	out := make(map[Glyph]float64, len(m.widths))
	for g, w := range m.widths {
		out[g] = w
	}
	return out
}
