package layout

import (
	"fmt"
	"math"
)

// MeasurementError 表示一次测量无法归属给待测字形：宽度为负、为零或非有限值。
// 待测字形会被丢弃并强制收敛该行，避免无限校准。
type MeasurementError struct {
	Glyph    Glyph
	Measured float64
	Reason   string
}

func (e *MeasurementError) Error() string {
	return fmt.Sprintf("layout: measurement %g for glyph %q: %s", e.Measured, e.Glyph, e.Reason)
}

// Apply 将渲染端回报的整行宽度写回行状态，并在需要时把宽度差记为待测字形的宽度。
// 返回的错误只用于记录日志，行状态总是有效的。
func Apply(line LineState, measured, canvasWidth float64, widths *WidthModel) (LineState, error) {
	out := line.clone()
	out.Renders++
	out.Pending = false
	last, hasLast := line.last()
	pending := line.Pending && hasLast

	if math.IsNaN(measured) || math.IsInf(measured, 0) || measured < 0 {
		return settleWithError(out, pending, last.Glyph, measured, "width is negative or not finite")
	}

	if pending && measured > canvasWidth {
		// 越界：移除末尾字形，记录负的宽度差，下一轮保持不变直至稳定
		out.dropLast()
		out.Delta = line.Width - measured
		return out, nil
	}

	delta := measured - line.Width
	if pending && delta <= 0 {
		return settleWithError(out, true, last.Glyph, measured, "glyph resolved to zero width")
	}
	if measured > canvasWidth {
		return settleWithError(out, false, last.Glyph, measured, "line overflows without a pending glyph")
	}

	if pending && widths != nil && !widths.Has(last.Glyph) {
		widths.Set(last.Glyph, delta)
	}
	out.Delta = delta
	out.Width = measured
	return out, nil
}

func settleWithError(out LineState, drop bool, g Glyph, measured float64, reason string) (LineState, error) {
	if drop {
		out.dropLast()
	}
	out.Done = true
	out.Delta = 0
	return out, &MeasurementError{Glyph: g, Measured: measured, Reason: reason}
}
