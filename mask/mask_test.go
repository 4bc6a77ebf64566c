package mask

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestPlaceholderShape(t *testing.T) {
	w, h := Placeholder().Shape()
	if w != 9 || h != 15 {
		t.Fatalf("placeholder shape = %dx%d, want 9x15", w, h)
	}
	if Placeholder().Pixel(0, 0) {
		t.Fatal("corner of placeholder should be foreground")
	}
	if !Placeholder().Pixel(4, 1) {
		t.Fatal("(4,1) of placeholder should be background")
	}
	if !Placeholder().Pixel(2, 6) {
		t.Fatal("(2,6) of placeholder should be background")
	}
}

func TestParseRowsErrors(t *testing.T) {
	if _, err := ParseRows(nil); !errors.Is(err, ErrEmptyMask) {
		t.Fatalf("expected ErrEmptyMask, got %v", err)
	}
	if _, err := ParseRows([]string{"010", "01"}); !errors.Is(err, ErrRaggedMask) {
		t.Fatalf("expected ErrRaggedMask, got %v", err)
	}
	if _, err := ParseRows([]string{"0z0"}); err == nil {
		t.Fatal("expected error for unknown cell")
	}
}

func TestPixelClamps(t *testing.T) {
	m, err := ParseRows([]string{"01", "10"})
	if err != nil {
		t.Fatal(err)
	}
	if !m.Pixel(5, 0) {
		t.Fatal("x beyond width should clamp to the last column")
	}
	if m.Pixel(-1, 0) {
		t.Fatal("negative x should clamp to the first column")
	}
}

func TestFromImageAlphaThreshold(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	img.Set(0, 0, color.NRGBA{A: 0})
	img.Set(1, 0, color.NRGBA{A: 126})
	img.Set(2, 0, color.NRGBA{A: 127})
	m, err := FromImage(img)
	if err != nil {
		t.Fatal(err)
	}
	got := []bool{m.Pixel(0, 0), m.Pixel(1, 0), m.Pixel(2, 0)}
	want := []bool{false, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pixel %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDecodePNG(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	m, src, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if src == nil {
		t.Fatal("decoded image should be returned")
	}
	if w, h := m.Shape(); w != 4 || h != 2 {
		t.Fatalf("shape = %dx%d", w, h)
	}
	if !m.Pixel(1, 1) || m.Pixel(0, 0) {
		t.Fatal("unexpected thresholding")
	}
}

func TestOrPlaceholder(t *testing.T) {
	var nilMask *Mask
	if _, used := OrPlaceholder(nilMask); !used {
		t.Fatal("typed nil mask should fall back to the placeholder")
	}
	m, _ := ParseRows([]string{"0"})
	if got, used := OrPlaceholder(m); used || got != Source(m) {
		t.Fatal("valid mask should be kept")
	}
}
