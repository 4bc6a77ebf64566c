// Package sprites flattens sprite-sheet metadata (the "sprites" object of a
// PokeAPI-style species record) into an ordered list of candidate images.
package sprites

import (
	"cmp"
	"maps"
	"slices"
	"strings"
)

// Sprite is one image reference found in the metadata.
type Sprite struct {
	Source     string `json:"source"`
	Generation int    `json:"generation"`
	Side       string `json:"side"`
	Gender     string `json:"gender"`
	URL        string `json:"url"`
}

// Species carries the record-level facts the metadata keys omit.
type Species struct {
	// Generation applies to sprites under "other" without a generation of
	// their own.
	Generation int
	// HasGender maps the "default" gender label to "male" instead of "none".
	HasGender bool
}

var generations = []string{
	"", "i", "ii", "iii", "iv", "v", "vi", "vii", "viii",
	"ix", "x", "xi", "xii", "xiii", "xiv", "xv",
	"xvi", "xvii", "xviii", "xix", "xx", "xxi",
}

// ParseGeneration maps names such as "generation-iv" to 4, and anything
// unrecognised to 0.
func ParseGeneration(name string) int {
	parts := strings.Split(name, "-")
	roman := strings.ToLower(parts[len(parts)-1])
	return max(slices.Index(generations, roman), 0)
}

// Parse walks the three metadata layers: top-level labels, the "other"
// sources, and the "versions" generations. Shiny and grayscale sprites,
// icons and malformed labels are skipped. The result is ordered by side,
// source, generation and gender.
func Parse(meta map[string]any, sp Species) []Sprite {
	var out []Sprite
	each(meta, func(k0 string, v0 any) {
		switch k0 {
		case "other":
			each(v0, func(source string, v1 any) {
				gen := sp.Generation
				if source == "dream_world" {
					gen = 5
				}
				each(v1, func(label string, url any) {
					out = sp.appendSprite(out, source, gen, label, url)
				})
			})
		case "versions":
			each(v0, func(genName string, v1 any) {
				gen := ParseGeneration(genName)
				each(v1, func(source string, v2 any) {
					if source == "icons" {
						return
					}
					each(v2, func(label string, url any) {
						out = sp.appendSprite(out, source, gen, label, url)
					})
				})
			})
		default:
			out = sp.appendSprite(out, "default", 0, k0, v0)
		}
	})
	slices.SortStableFunc(out, compare)
	return out
}

// Pick returns the first sprite on side ("" matches any) accepted by keep.
func Pick(list []Sprite, side string, keep func(Sprite) bool) (Sprite, bool) {
	for _, s := range list {
		if side != "" && s.Side != side {
			continue
		}
		if keep == nil || keep(s) {
			return s, true
		}
	}
	return Sprite{}, false
}

func (sp Species) appendSprite(out []Sprite, source string, gen int, label string, v any) []Sprite {
	url, _ := v.(string)
	side, gender, ok := strings.Cut(label, "_")
	if !ok || url == "" || strings.Contains(gender, "_") {
		return out
	}
	switch gender {
	case "shiny", "gray":
		return out
	case "default":
		gender = "none"
		if sp.HasGender {
			gender = "male"
		}
	}
	return append(out, Sprite{Source: source, Generation: gen, Side: side, Gender: gender, URL: url})
}

// each visits the entries of a decoded object in key order.
func each(v any, fn func(string, any)) {
	m, ok := v.(map[string]any)
	if !ok {
		return
	}
	for _, k := range slices.Sorted(maps.Keys(m)) {
		fn(k, m[k])
	}
}

var (
	sideOrder   = []string{"front", "back"}
	sourceOrder = []string{"official-artwork", "dream_world", "default"}
	genderOrder = []string{"none", "female", "male"}
)

func rank(order []string, v string) int {
	if i := slices.Index(order, v); i >= 0 {
		return i
	}
	return len(order)
}

func compare(a, b Sprite) int {
	return cmp.Or(
		cmp.Compare(rank(sideOrder, a.Side), rank(sideOrder, b.Side)),
		cmp.Compare(rank(sourceOrder, a.Source), rank(sourceOrder, b.Source)),
		cmp.Compare(a.Generation, b.Generation),
		cmp.Compare(rank(genderOrder, a.Gender), rank(genderOrder, b.Gender)),
	)
}
