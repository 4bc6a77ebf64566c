package layout

// Pass 对一行执行一次贪心构建，返回新的行状态（输入不会被修改）。
//
// 规则：
//   - 已收敛的行、刚因超宽回退（Delta < 0）或仍在等待测量的行原样返回；
//   - 所有字形宽度已知时最多追加 BatchStep 个字形；
//   - 遇到宽度未知的字形（探测字形）时追加后立即停止，每行每轮至多一个；
//   - 预计宽度比或高度比超过 1 时停止，不追加越界字形；
//   - 本轮最后追加的字形保持待测状态，其宽度不计入 Width，
//     以便下一次测量的宽度差完全归属于它。
func Pass(line LineState, index int, opts Options) LineState {
	if line.Settled() || line.Delta < 0 || line.Pending {
		return line
	}
	if opts.Mask == nil || opts.Widths == nil || opts.Shape.Width <= 0 || opts.LineCount <= 0 {
		return line
	}
	if _, heightRatio := Ratios(0, index, opts.LineCount, opts.Shape); heightRatio > 1 {
		return line
	}

	out := line.clone()
	width := line.Width
	before := width
	appended := 0
	for appended < opts.batchStep() {
		widthRatio, _ := Ratios(width, index, opts.LineCount, opts.Shape)
		if widthRatio > 1 {
			break
		}
		next := opts.nextGlyph(out, index, width)
		w, known := opts.Widths.Get(next.Glyph)
		if !known {
			// 探测字形：追加后立即结束本轮
			before = width
			out.Glyphs = append(out.Glyphs, next)
			appended++
			break
		}
		if projected, _ := Ratios(width+w, index, opts.LineCount, opts.Shape); projected > 1 {
			break
		}
		before = width
		out.Glyphs = append(out.Glyphs, next)
		width += w
		appended++
	}
	if appended == 0 {
		return out
	}
	out.Pending = true
	out.Width = before
	return out
}

// nextGlyph 根据掩码选择下一个字形：背景像素输出填充字形，前景像素输出标签字符或调色板符号。
func (o Options) nextGlyph(line LineState, index int, width float64) PlacedGlyph {
	mw, mh := o.Mask.Shape()
	widthRatio, heightRatio := Ratios(width, index, o.LineCount, o.Shape)
	x := Cell(widthRatio, mw)
	y := Cell(heightRatio, mh)

	prev, hasPrev := line.last()
	offset := -1
	if hasPrev {
		offset = prev.Offset
	}
	if o.Mask.Pixel(x, y) {
		return PlacedGlyph{Glyph: o.Fill, Offset: offset, Fill: true}
	}

	if o.Alignment == AlignColumn && (!hasPrev || prev.Fill) {
		offset = o.columnOffset(width, offset)
	} else {
		offset++
	}

	if o.Classify != nil {
		return PlacedGlyph{Glyph: o.Classify(x, y), Offset: offset}
	}
	label := o.label()
	return PlacedGlyph{Glyph: label[offset%len(label)], Offset: offset}
}

// columnOffset 沿循环标签累计字形宽度，返回累计宽度最接近当前行宽的偏移
// （相同距离取较小偏移）。未知宽度按已知标签字形的平均宽度估算；
// 一个都不知道时退化为普通递增。
func (o Options) columnOffset(width float64, prev int) int {
	label := o.label()
	if o.Classify != nil {
		return prev + 1
	}
	widths := make([]float64, len(label))
	var sum float64
	known := 0
	for i, g := range label {
		if w, ok := o.Widths.Get(g); ok {
			widths[i] = w
			sum += w
			known++
		}
	}
	if known == 0 {
		return prev + 1
	}
	mean := sum / float64(known)
	for i := range widths {
		if widths[i] == 0 {
			widths[i] = mean
		}
	}

	acc := 0.0
	for k := 0; ; k++ {
		w := widths[k%len(widths)]
		if acc+w > width {
			if (acc+w)-width < width-acc {
				return k + 1
			}
			return k
		}
		acc += w
	}
}

// placeholderLabel 是标签为空时使用的占位标签。
var placeholderLabel = SplitLabel("missingno")

func (o Options) label() []Glyph {
	if len(o.Label) == 0 {
		return placeholderLabel
	}
	return o.Label
}
