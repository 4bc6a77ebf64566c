package mask

// placeholderRows is the MissingNo. silhouette used whenever no valid mask
// is available.
var placeholderRows = []string{
	"000000000",
	"000011100",
	"000011100",
	"000011100",
	"000011100",
	"000011100",
	"001111100",
	"001111100",
	"001111100",
	"001111100",
	"001111100",
	"001111100",
	"001111100",
	"001111100",
	"000000000",
}

var placeholder = func() *Mask {
	m, err := ParseRows(placeholderRows)
	if err != nil {
		panic(err)
	}
	return m
}()

// Placeholder returns the built-in 9×15 silhouette.
func Placeholder() *Mask { return placeholder }

// OrPlaceholder returns src unless it is nil or has an empty shape.
func OrPlaceholder(src Source) (Source, bool) {
	if src == nil {
		return placeholder, true
	}
	if w, h := src.Shape(); w < 1 || h < 1 {
		return placeholder, true
	}
	return src, false
}
