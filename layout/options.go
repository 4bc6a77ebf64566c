package layout

import "github.com/ByLCY/glyphmask/mask"

// DefaultBatchStep 是单次构建在所有宽度已知时最多追加的字形数。
const DefaultBatchStep = 100

// ClassifyFunc 在分类模式下为前景单元 (x, y)（掩码坐标）返回调色板符号。
type ClassifyFunc func(x, y int) Glyph

// Options 配置单次行构建所需的依赖。
type Options struct {
	Mask      mask.Source
	Widths    *WidthModel
	Shape     Shape // 画布尺寸
	LineCount int
	Label     []Glyph // 循环标签序列
	Fill      Glyph   // 背景填充字形
	Alignment Alignment
	BatchStep int
	Classify  ClassifyFunc // 非空时进入分类模式
}

func (o Options) batchStep() int {
	if o.BatchStep < 1 {
		return DefaultBatchStep
	}
	return o.BatchStep
}
