package canvasrenderer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/glyphmask/diag"
	"github.com/ByLCY/glyphmask/fonts"
)

// fontFamily 加载一次字体族；配置的字体不可用时退回内置 Go 字体并记录警告。
func (r *Renderer) fontFamily() (*canvas.FontFamily, canvas.FontStyle, error) {
	r.once.Do(func() {
		style := fontStyle(r.font.Style)
		family, err := r.loadFamily(r.font.Src, style)
		if err != nil {
			diag.Logger().Warn("canvas: font unavailable, using fallback", "src", r.font.Src, "err", err)
			style = canvas.FontRegular
			family, err = r.loadFamily(fonts.Default, style)
		}
		r.family, r.style, r.err = family, style, err
	})
	return r.family, r.style, r.err
}

func (r *Renderer) loadFamily(src string, style canvas.FontStyle) (*canvas.FontFamily, error) {
	data, err := r.fontData(src)
	if err != nil {
		return nil, err
	}
	name := r.font.Name
	if name == "" {
		name = "glyphmask"
	}
	family := canvas.NewFontFamily(name)
	if err := family.LoadFont(data, 0, style); err != nil {
		return nil, fmt.Errorf("加载字体 %s 失败: %w", src, err)
	}
	return family, nil
}

// fontData 解析字体来源：空值与 embed: 使用内置字体，built-in: 查找注入的字体数据，
// 其余视为文件路径。
func (r *Renderer) fontData(src string) ([]byte, error) {
	switch {
	case src == "":
		return fonts.Load(fonts.Default)
	case strings.HasPrefix(src, "embed:"):
		return fonts.Load(src)
	case strings.HasPrefix(src, "built-in:"):
		name := strings.TrimPrefix(src, "built-in:")
		if data, ok := r.blobs[name]; ok && len(data) > 0 {
			return data, nil
		}
		return nil, fmt.Errorf("找不到内置字体资源 %s", src)
	}
	path := src
	if !filepath.IsAbs(path) {
		if r.baseDir == "" {
			return nil, fmt.Errorf("未指定资源目录时不允许使用相对字体路径: %s", src)
		}
		path = filepath.Join(r.baseDir, path)
	}
	return os.ReadFile(path)
}

var fontWeights = []struct {
	word  string
	style canvas.FontStyle
}{
	{"black", canvas.FontBlack},
	{"bold", canvas.FontBold},
	{"light", canvas.FontLight},
}

// fontStyle 将 "bold italic" 之类的描述映射为 canvas 字重与斜体标志。
func fontStyle(desc string) canvas.FontStyle {
	s := strings.ToLower(desc)
	style := canvas.FontRegular
	for _, w := range fontWeights {
		if strings.Contains(s, w.word) {
			style = w.style
			break
		}
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		style |= canvas.FontItalic
	}
	return style
}
