package classify

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"golang.org/x/image/draw"

	"github.com/ByLCY/glyphmask/diag"
)

// ErrNoImage is returned when the image provider yields nothing.
var ErrNoImage = errors.New("classify: no source image")

// Classifier returns the palette token for mask cell (x, y). widths is the
// palette width map (token to declared width); regionHeight is the height in
// mask cells covered by one text line.
type Classifier interface {
	Classify(ctx context.Context, widths map[string]int, regionHeight, x, y int) (string, error)
}

// ImageFunc fetches the source image. ImageClassifier calls it at most once.
type ImageFunc func(ctx context.Context) (image.Image, error)

// ImageClassifier samples a square neighbourhood of a source image around
// each mask cell and matches it against the palette kernels.
type ImageClassifier struct {
	Palette *Palette
	Source  ImageFunc
	// MaskWidth and MaskHeight map mask cells onto image pixels. Zero means
	// the mask has the image's shape.
	MaskWidth, MaskHeight int

	once sync.Once
	img  image.Image
	err  error
}

var _ Classifier = (*ImageClassifier)(nil)

// NewImageClassifier classifies against a fixed image.
func NewImageClassifier(p *Palette, img image.Image) *ImageClassifier {
	return &ImageClassifier{
		Palette: p,
		Source:  func(context.Context) (image.Image, error) { return img, nil },
	}
}

func (c *ImageClassifier) image(ctx context.Context) (image.Image, error) {
	c.once.Do(func() {
		if c.Source == nil {
			c.err = ErrNoImage
			return
		}
		c.img, c.err = c.Source(ctx)
		if c.err == nil && c.img == nil {
			c.err = ErrNoImage
		}
	})
	return c.img, c.err
}

// Classify implements Classifier. Cells whose region falls outside the
// image get the fill token; unscorable regions get the unknown token and a
// *KernelError.
func (c *ImageClassifier) Classify(ctx context.Context, widths map[string]int, regionHeight, x, y int) (string, error) {
	p := c.Palette
	if p == nil {
		p = Default()
	}
	if err := ctx.Err(); err != nil {
		return p.Unknown, err
	}
	img, err := c.image(ctx)
	if err != nil {
		return p.Unknown, fmt.Errorf("classify: fetch image: %w", err)
	}

	region, n := c.region(img.Bounds(), regionHeight, x, y)
	if region.Empty() {
		diag.Logger().Debug("classify: empty region", "x", x, "y", y)
		return p.Fill, nil
	}
	return MatchRegion(p.subset(widths), subImage(img, region), n)
}

// region returns the image rectangle centred on mask cell (x, y) and the
// odd sample size it is resampled to.
func (c *ImageClassifier) region(b image.Rectangle, regionHeight, x, y int) (image.Rectangle, int) {
	mw, mh := c.MaskWidth, c.MaskHeight
	if mw <= 0 || mh <= 0 {
		mw, mh = b.Dx(), b.Dy()
	}
	if mw <= 0 || mh <= 0 {
		return image.Rectangle{}, 0
	}
	sx := float64(b.Dx()) / float64(mw)
	sy := float64(b.Dy()) / float64(mh)
	side := int(float64(max(regionHeight, 1)) * sy)
	n := max(side, 1) | 1

	cx := b.Min.X + int((float64(x)+0.5)*sx)
	cy := b.Min.Y + int((float64(y)+0.5)*sy)
	r := image.Rect(cx-n/2, cy-n/2, cx+n/2+1, cy+n/2+1)
	return r.Intersect(b), n
}

func subImage(img image.Image, r image.Rectangle) image.Image {
	if s, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return s.SubImage(r)
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst
}

// MatchRegion resamples region to n×n with nearest neighbour and returns the
// token whose kernel matches the most cared-for cells. Ties go to the earlier
// palette entry.
func MatchRegion(p *Palette, region image.Image, n int) (string, error) {
	b := region.Bounds()
	if b.Empty() {
		return p.Fill, nil
	}
	if n < 1 {
		n = max(b.Dx(), b.Dy())
	}
	n |= 1
	sample := image.NewRGBA(image.Rect(0, 0, n, n))
	draw.NearestNeighbor.Scale(sample, sample.Bounds(), region, b, draw.Src, nil)
	classes := make([]ColorClass, n*n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			classes[y*n+x] = ClassOf(sample.RGBAAt(x, y))
		}
	}

	best, bestScore := "", -1.0
	var errs []error
	for _, e := range p.Entries {
		score, err := e.score(classes, n)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if score > bestScore {
			best, bestScore = e.Token, score
		}
	}
	if bestScore < 0 {
		err := &KernelError{Size: n, Reason: "no kernel could be scored"}
		if len(errs) > 0 {
			err.Reason = errors.Join(errs...).Error()
		}
		diag.Logger().Warn("classify: falling back to unknown token", "size", n, "err", err)
		return p.Unknown, err
	}
	return best, nil
}

// score returns matches / cared cells for the entry's kernel at size n.
// Kernels larger than n are compared against a nearest-neighbour view of
// the samples.
func (e Entry) score(classes []ColorClass, n int) (float64, error) {
	k, ok := e.kernelFor(n)
	if !ok {
		return 0, &KernelError{Token: e.Token, Size: n, Reason: "no kernels"}
	}
	if k.Size < n {
		expanded, err := k.Expand(n)
		if err != nil {
			diag.Logger().Warn("classify: kernel not scalable", "token", e.Token, "err", err)
			return 0, err
		}
		k = expanded
	}
	var cared, matched int
	for ky := 0; ky < k.Size; ky++ {
		for kx := 0; kx < k.Size; kx++ {
			want := k.At(kx, ky)
			if want == DontCare {
				continue
			}
			cared++
			sx, sy := kx*n/k.Size, ky*n/k.Size
			if classes[sy*n+sx] == want {
				matched++
			}
		}
	}
	if cared == 0 {
		return 0, &KernelError{Token: e.Token, Size: k.Size, Reason: "kernel has no cared cells"}
	}
	return float64(matched) / float64(cared), nil
}
