package layout

import (
	"errors"
	"math"
	"testing"
)

func pendingLine(width float64, glyphs ...Glyph) LineState {
	l := LineState{Width: width, Renders: 1, Delta: width, Pending: true}
	for i, g := range glyphs {
		l.Glyphs = append(l.Glyphs, PlacedGlyph{Glyph: g, Offset: i})
	}
	return l
}

// TestApplyLearnsPendingGlyph 断言宽度差被完整归属给末尾待测字形。
func TestApplyLearnsPendingGlyph(t *testing.T) {
	widths := NewWidthModel()
	widths.Set("a", 10)
	out, err := Apply(pendingLine(10, "a", "b"), 17, 100, widths)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w, ok := widths.Get("b"); !ok || w != 7 {
		t.Fatalf("期望学到 b=7，实际 %g (%v)", w, ok)
	}
	if out.Width != 17 || out.Delta != 7 || out.Pending || out.Renders != 2 {
		t.Fatalf("行状态异常: %+v", out)
	}
}

// TestApplyNeverOverwritesWidth 断言已记录的宽度不会被后续测量改写。
func TestApplyNeverOverwritesWidth(t *testing.T) {
	widths := NewWidthModel()
	widths.Set("a", 10)
	if _, err := Apply(pendingLine(10, "a", "a"), 21, 100, widths); err != nil {
		t.Fatal(err)
	}
	if w, _ := widths.Get("a"); w != 10 {
		t.Fatalf("宽度被覆盖: %g", w)
	}
}

// TestApplyTrimsOverflow 断言越界的待测字形被移除且宽度差为负。
func TestApplyTrimsOverflow(t *testing.T) {
	widths := NewWidthModel()
	out, err := Apply(pendingLine(95, "a", "b"), 110, 100, widths)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Glyphs) != 1 || out.Delta != -15 || out.Width != 95 {
		t.Fatalf("越界回退异常: %+v", out)
	}
	if widths.Has("b") {
		t.Fatal("越界字形不应记录宽度")
	}
	if out.Settled() {
		t.Fatal("回退后的行需要再渲染一次才能收敛")
	}
	if again := Pass(out, 0, Options{}); len(again.Glyphs) != 1 {
		t.Fatal("回退后的行在下一轮应保持不变")
	}
	out, _ = Apply(out, 95, 100, widths)
	if !out.Settled() || out.Width > 100 {
		t.Fatalf("第二次测量后应收敛且不越界: %+v", out)
	}
}

// TestApplyDropsBadProbe 断言零宽或非有限宽度的探测字形被丢弃并强制收敛。
func TestApplyDropsBadProbe(t *testing.T) {
	for _, measured := range []float64{10, 5, -1, math.NaN(), math.Inf(1)} {
		widths := NewWidthModel()
		out, err := Apply(pendingLine(10, "a", "b"), measured, 100, widths)
		var merr *MeasurementError
		if !errors.As(err, &merr) {
			t.Fatalf("measured=%g 期望 MeasurementError，实际 %v", measured, err)
		}
		if !out.Settled() || len(out.Glyphs) != 1 || widths.Has("b") {
			t.Fatalf("measured=%g 行状态异常: %+v", measured, out)
		}
		if out.Width > 100 {
			t.Fatalf("measured=%g 越界", measured)
		}
	}
}

func TestApplySettlesOnRepeatedWidth(t *testing.T) {
	l := LineState{Width: 40, Renders: 1, Delta: 4}
	out, err := Apply(l, 40, 100, NewWidthModel())
	if err != nil {
		t.Fatal(err)
	}
	if !out.Settled() {
		t.Fatalf("宽度不变应收敛: %+v", out)
	}
}

func TestWidthModelWriteOnce(t *testing.T) {
	m := NewWidthModel()
	if !m.Set("x", 3) {
		t.Fatal("首次写入应成功")
	}
	if m.Set("x", 9) {
		t.Fatal("重复写入应被忽略")
	}
	for _, bad := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if m.Set("y", bad) {
			t.Fatalf("非法宽度 %g 不应写入", bad)
		}
	}
	if w, _ := m.Get("x"); w != 3 || m.Len() != 1 {
		t.Fatalf("宽度缓存异常: %v", m.Snapshot())
	}
}
