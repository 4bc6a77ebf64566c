// Package classify maps neighbourhoods of a source image onto palette
// tokens by matching small colour kernels.
package classify

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorClass is the coarse colour of one sampled pixel.
type ColorClass uint8

const (
	// DontCare marks kernel cells that never count toward a score.
	DontCare ColorClass = iota
	Black
	White
	Red
	Green
	Blue
)

// threshold is one step of an 8-bit channel.
const threshold = 1.0 / 255

func (c ColorClass) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	default:
		return "any"
	}
}

// ClassOf buckets a colour by value, then saturation, then hue. Hue sectors
// are 120° wide and centred on the primaries. Fully transparent pixels are
// black.
func ClassOf(c color.Color) ColorClass {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return Black
	}
	h, s, v := cf.Hsv()
	switch {
	case v <= threshold:
		return Black
	case s <= threshold:
		return White
	case h < 60 || h >= 300:
		return Red
	case h < 180:
		return Green
	default:
		return Blue
	}
}

// classRune maps the kernel notation onto classes.
func classRune(r rune) (ColorClass, error) {
	switch r {
	case 'k', 'K':
		return Black, nil
	case 'w', 'W':
		return White, nil
	case 'r', 'R':
		return Red, nil
	case 'g', 'G':
		return Green, nil
	case 'b', 'B':
		return Blue, nil
	case '.', '?':
		return DontCare, nil
	default:
		return DontCare, fmt.Errorf("classify: unknown kernel cell %q", r)
	}
}
