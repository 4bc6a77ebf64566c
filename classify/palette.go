package classify

import (
	"sort"
)

// Entry is one palette token with its kernels keyed by size.
type Entry struct {
	Token   string
	Width   int
	Kernels map[int]Kernel
}

// Palette lists tokens in priority order: on equal scores the earlier entry
// wins.
type Palette struct {
	Entries []Entry
	// Fill is returned when a region has no samples.
	Fill string
	// Unknown is returned when no kernel could be scored.
	Unknown string
}

// Default returns the palette used for edge-encoded sprites: solid interior
// is '#', vertical and horizontal strokes are '|' and '-', diagonals are
// '/' and '\', crossings '+' and isolated dark specks '.'.
func Default() *Palette {
	return &Palette{
		Fill:    " ",
		Unknown: "?",
		Entries: []Entry{
			{Token: "#", Width: 1, Kernels: map[int]Kernel{
				3: MustKernel("kkk", "kkk", "kkk"),
			}},
			{Token: "|", Width: 1, Kernels: map[int]Kernel{
				3: MustKernel(".g.", ".g.", ".g."),
				5: MustKernel("..g..", "..g..", "..g..", "..g..", "..g.."),
			}},
			{Token: "-", Width: 1, Kernels: map[int]Kernel{
				3: MustKernel("...", "rrr", "..."),
				5: MustKernel(".....", ".....", "rrrrr", ".....", "....."),
			}},
			{Token: "/", Width: 1, Kernels: map[int]Kernel{
				3: MustKernel("..b", ".b.", "b.."),
			}},
			{Token: "\\", Width: 1, Kernels: map[int]Kernel{
				3: MustKernel("b..", ".b.", "..b"),
			}},
			{Token: "+", Width: 1, Kernels: map[int]Kernel{
				3: MustKernel(".g.", "r.r", ".g."),
			}},
			{Token: ".", Width: 1, Kernels: map[int]Kernel{
				3: MustKernel("...", ".k.", "..."),
			}},
		},
	}
}

// Widths returns the declared width of every token.
func (p *Palette) Widths() map[string]int {
	out := make(map[string]int, len(p.Entries))
	for _, e := range p.Entries {
		out[e.Token] = max(e.Width, 1)
	}
	return out
}

// Tokens lists every token, fill and unknown included.
func (p *Palette) Tokens() []string {
	out := make([]string, 0, len(p.Entries)+2)
	for _, e := range p.Entries {
		out = append(out, e.Token)
	}
	return append(out, p.Fill, p.Unknown)
}

// subset keeps entries named in widths, in palette order. A nil map keeps all.
func (p *Palette) subset(widths map[string]int) *Palette {
	if widths == nil {
		return p
	}
	out := &Palette{Fill: p.Fill, Unknown: p.Unknown}
	for _, e := range p.Entries {
		if w, ok := widths[e.Token]; ok && w > 0 {
			out.Entries = append(out.Entries, e)
		}
	}
	return out
}

// kernelFor picks the largest authored kernel not bigger than n, or else the
// smallest authored one.
func (e Entry) kernelFor(n int) (Kernel, bool) {
	sizes := make([]int, 0, len(e.Kernels))
	for s := range e.Kernels {
		sizes = append(sizes, s)
	}
	if len(sizes) == 0 {
		return Kernel{}, false
	}
	sort.Ints(sizes)
	pick := sizes[0]
	for _, s := range sizes {
		if s <= n {
			pick = s
		}
	}
	return e.Kernels[pick], true
}
