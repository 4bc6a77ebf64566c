package classify

import (
	"image"
	"image/color"
	"math"
)

// edgeFloor is the gradient magnitude below which a pixel stays black.
const edgeFloor = 0.08

// EdgeEncode runs a 3×3 Sobel operator over the luminance of img and colours
// each pixel by edge orientation: vertical edges green, horizontal edges red,
// diagonals blue. Brightness follows the gradient magnitude; flat areas are
// black.
func EdgeEncode(img image.Image) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	lum := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
			lum[y*w+x] = float64(g.Y) / 0xffff
		}
	}
	at := func(x, y int) float64 {
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
		return lum[y*w+x]
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			mag := math.Min(math.Hypot(gx, gy)/4, 1)
			if mag < edgeFloor {
				out.SetRGBA(x, y, color.RGBA{A: 0xff})
				continue
			}
			v := uint8(math.Round(mag * 0xff))
			out.SetRGBA(x, y, orientation(gx, gy, v))
		}
	}
	return out
}

// orientation folds the gradient angle onto [0°, 180°) and picks a primary.
func orientation(gx, gy float64, v uint8) color.RGBA {
	deg := math.Mod(math.Atan2(gy, gx)*180/math.Pi+180, 180)
	switch {
	case deg < 22.5 || deg >= 157.5:
		return color.RGBA{G: v, A: 0xff}
	case deg >= 67.5 && deg < 112.5:
		return color.RGBA{R: v, A: 0xff}
	default:
		return color.RGBA{B: v, A: 0xff}
	}
}
