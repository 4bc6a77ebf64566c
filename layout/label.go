package layout

import "github.com/charmbracelet/x/ansi"

// SplitLabel 将标签按字素簇拆分为字形序列，组合字符与 emoji 不会被拆开。
func SplitLabel(label string) []Glyph {
	var out []Glyph
	for len(label) > 0 {
		cluster, _ := ansi.FirstGraphemeCluster(label, ansi.GraphemeWidth)
		if cluster == "" {
			break
		}
		out = append(out, Glyph(cluster))
		label = label[len(cluster):]
	}
	return out
}
