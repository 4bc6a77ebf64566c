// Package scene compiles a parsed scene file into the inputs of a grid: a
// mask, a label, a palette and the layout options.
package scene

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tdewolff/canvas"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ByLCY/glyphmask/binding"
	"github.com/ByLCY/glyphmask/classify"
	"github.com/ByLCY/glyphmask/diag"
	"github.com/ByLCY/glyphmask/dsl"
	"github.com/ByLCY/glyphmask/grid"
	"github.com/ByLCY/glyphmask/layout"
	"github.com/ByLCY/glyphmask/mask"
	"github.com/ByLCY/glyphmask/renderer"
	"github.com/ByLCY/glyphmask/sprites"
)

// ErrNoScene is returned for a nil document.
var ErrNoScene = errors.New("scene: no document")

// Scene is a compiled scene file. Zero-valued options defer to the
// configuration.
type Scene struct {
	Name    string
	Version string

	Label     string
	Fill      layout.Glyph
	Alignment *layout.Alignment
	BatchStep int
	Ideal     layout.Shape

	Font       renderer.Font
	Foreground color.Color
	Background color.Color

	// Mask is nil when the scene gave no usable silhouette; the grid then
	// uses the placeholder.
	Mask  mask.Source
	Image image.Image

	// Palette is set in classification mode.
	Palette *classify.Palette
	Edges   bool

	// Warnings lists every input problem that was replaced by a default.
	Warnings []string
}

// Load parses and compiles the scene file at path. Relative asset paths
// resolve against the file's directory.
func Load(path string, data any, defaultCase string) (*Scene, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开场景文件 %s: %w", path, err)
	}
	defer file.Close()

	doc, err := dsl.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("解析场景 %s 失败: %w", path, err)
	}
	return Compile(doc, data, filepath.Dir(path), defaultCase)
}

// Compile turns a document into a Scene. Bad values never fail compilation:
// they are recorded in Warnings and replaced by defaults.
func Compile(doc *dsl.Document, data any, baseDir, defaultCase string) (*Scene, error) {
	if doc == nil || doc.Body == nil {
		return nil, ErrNoScene
	}
	s := &Scene{Name: doc.Name, Version: doc.Version}
	c := compiler{scene: s, data: data, baseDir: baseDir, letterCase: defaultCase}

	for _, a := range doc.Body.Assignments() {
		c.assign(a)
	}
	for _, cmd := range doc.Body.Commands("") {
		switch cmd.Name {
		case "font":
			c.font(cmd)
		case "mask":
			c.mask(cmd)
		case "palette":
			c.palette(cmd)
		default:
			c.warn("未知的段落 %s", cmd.Name)
		}
	}
	c.finish()
	return s, nil
}

// GridConfig overlays the scene's options on base.
func (s *Scene) GridConfig(base grid.Config) grid.Config {
	cfg := base
	cfg.Label = s.Label
	if s.Fill != "" {
		cfg.Fill = s.Fill
	}
	if s.Alignment != nil {
		cfg.Alignment = *s.Alignment
	}
	if s.BatchStep > 0 {
		cfg.BatchStep = s.BatchStep
	}
	if !s.Ideal.Empty() {
		cfg.Ideal = s.Ideal
	}
	if s.Font.Size > 0 {
		cfg.LineHeight = s.Font.Size
	}
	if s.Palette != nil {
		cfg.Palette = s.Palette
		cfg.Classifier = s.Classifier()
	}
	return cfg
}

// Classifier returns the image classifier for classification mode, or nil.
func (s *Scene) Classifier() classify.Classifier {
	if s.Palette == nil || s.Image == nil {
		return nil
	}
	img, edges := s.Image, s.Edges
	c := &classify.ImageClassifier{
		Palette: s.Palette,
		Source: func(context.Context) (image.Image, error) {
			if edges {
				return classify.EdgeEncode(img), nil
			}
			return img, nil
		},
	}
	if s.Mask != nil {
		c.MaskWidth, c.MaskHeight = s.Mask.Shape()
	}
	return c
}

type compiler struct {
	scene      *Scene
	data       any
	baseDir    string
	letterCase string
}

func (c *compiler) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.scene.Warnings = append(c.scene.Warnings, msg)
	diag.Logger().Warn("scene: "+msg, "scene", c.scene.Name)
}

func (c *compiler) text(v *dsl.Value) string {
	s, _ := v.Text()
	for _, path := range binding.Missing(s, c.data) {
		c.warn("未找到绑定数据 ${%s}", path)
	}
	return binding.Interpolate(s, c.data)
}

func (c *compiler) assign(a *dsl.Assignment) {
	s := c.scene
	switch a.Key {
	case "label":
		s.Label = c.text(a.Value)
	case "case":
		c.letterCase = c.text(a.Value)
	case "fill":
		s.Fill = layout.Glyph(c.text(a.Value))
		if g := layout.SplitLabel(string(s.Fill)); len(g) != 1 {
			c.warn("填充字形 %q 必须是单个字形", s.Fill)
			s.Fill = ""
		}
	case "alignment":
		align, err := layout.ParseAlignment(c.text(a.Value))
		if err != nil {
			c.warn("%v", err)
			return
		}
		s.Alignment = &align
	case "step":
		n, err := a.Value.Float()
		if err != nil || n < 1 {
			c.warn("step 必须是正整数")
			return
		}
		s.BatchStep = int(n)
	case "ideal":
		dims := a.Value.Strings()
		if len(dims) != 2 {
			c.warn("ideal 需要 [宽, 高]")
			return
		}
		w, errW := strconv.Atoi(strings.TrimSuffix(dims[0], "px"))
		h, errH := strconv.Atoi(strings.TrimSuffix(dims[1], "px"))
		if errW != nil || errH != nil || w < 1 || h < 1 {
			c.warn("ideal 尺寸无效: %v", dims)
			return
		}
		s.Ideal = layout.Shape{Width: w, Height: h}
	default:
		c.warn("未知的设置 %s", a.Key)
	}
}

func (c *compiler) font(cmd *dsl.Command) {
	for _, a := range cmd.Block.Assignments() {
		switch a.Key {
		case "src":
			c.scene.Font.Src = c.text(a.Value)
		case "style":
			c.scene.Font.Style = c.text(a.Value)
		case "size":
			size, err := a.Value.Float()
			if err != nil || size <= 0 {
				c.warn("字号无效")
				continue
			}
			c.scene.Font.Size = size
		case "color":
			c.scene.Foreground = c.color(a.Value)
		case "fill-color":
			c.scene.Background = c.color(a.Value)
		default:
			c.warn("未知的字体设置 %s", a.Key)
		}
	}
	if src := c.scene.Font.Src; src != "" && !strings.Contains(src, ":") && !filepath.IsAbs(src) {
		c.scene.Font.Src = filepath.Join(c.baseDir, src)
	}
}

func (c *compiler) color(v *dsl.Value) color.Color {
	s, _ := v.Text()
	if !strings.HasPrefix(s, "#") {
		c.warn("颜色 %q 需要 #RGB 形式", s)
		return nil
	}
	return canvas.Hex(s)
}

func (c *compiler) mask(cmd *dsl.Command) {
	switch cmd.Arg(0) {
	case "image":
		c.maskImage(c.resolve(cmd.Arg(1)))
		return
	case "sprites":
		c.maskSprite(cmd.Arg(1), cmd.Arg(2))
		return
	}
	rows := cmd.Block.Texts()
	for i := range rows {
		rows[i] = binding.Interpolate(rows[i], c.data)
	}
	m, err := mask.ParseRows(rows)
	if err != nil {
		c.warn("轮廓无效: %v", err)
		return
	}
	c.scene.Mask = m
	for _, a := range cmd.Block.Assignments() {
		if a.Key == "image" {
			c.image(c.resolve(c.text(a.Value)))
		}
	}
}

func (c *compiler) resolve(path string) string {
	path = binding.Interpolate(path, c.data)
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.baseDir, path)
}

func (c *compiler) maskImage(path string) {
	file, err := os.Open(path)
	if err != nil {
		c.warn("读取轮廓图片失败: %v", err)
		return
	}
	defer file.Close()
	m, img, err := mask.Decode(file)
	if err != nil {
		c.warn("解码轮廓图片失败: %v", err)
		return
	}
	c.scene.Mask = m
	c.scene.Image = img
}

// maskSprite 从绑定数据中的精灵图元数据选出第一张本地图片作为轮廓。
// 物种信息取自数据根部的 generation.name 与 gender_rate。
func (c *compiler) maskSprite(path, side string) {
	v, ok := binding.Resolve(c.data, path)
	meta, isMap := v.(map[string]any)
	if !ok || !isMap {
		c.warn("找不到精灵图数据 %s", path)
		return
	}
	var sp sprites.Species
	if name, ok := binding.Resolve(c.data, "generation.name"); ok {
		sp.Generation = sprites.ParseGeneration(fmt.Sprint(name))
	}
	if rate, ok := binding.Resolve(c.data, "gender_rate"); ok {
		sp.HasGender = fmt.Sprint(rate) != "-1"
	} else {
		sp.HasGender = true
	}
	local := func(s sprites.Sprite) bool { return !strings.Contains(s.URL, "://") }
	s, ok := sprites.Pick(sprites.Parse(meta, sp), side, local)
	if !ok {
		c.warn("精灵图数据 %s 中没有可用的本地图片", path)
		return
	}
	c.maskImage(c.resolve(s.URL))
}

// image loads a classification source without replacing the mask.
func (c *compiler) image(path string) {
	file, err := os.Open(path)
	if err != nil {
		c.warn("读取分类图片失败: %v", err)
		return
	}
	defer file.Close()
	_, img, err := mask.Decode(file)
	if err != nil {
		c.warn("解码分类图片失败: %v", err)
		return
	}
	c.scene.Image = img
}

func (c *compiler) palette(cmd *dsl.Command) {
	p := &classify.Palette{Fill: " ", Unknown: "?"}
	if cmd.Arg(0) == "default" {
		p = classify.Default()
	}
	for _, a := range cmd.Block.Assignments() {
		switch a.Key {
		case "fill":
			p.Fill = c.text(a.Value)
		case "unknown":
			p.Unknown = c.text(a.Value)
		case "edges":
			edges, err := a.Value.Bool()
			if err != nil {
				c.warn("%v", err)
				continue
			}
			c.scene.Edges = edges
		default:
			c.warn("未知的调色板设置 %s", a.Key)
		}
	}
	for _, tok := range cmd.Block.Commands("token") {
		if e, ok := c.entry(tok); ok {
			p.Entries = append(p.Entries, e)
		}
	}
	if len(p.Entries) == 0 {
		c.warn("调色板为空，使用默认调色板")
		def := classify.Default()
		def.Fill, def.Unknown = p.Fill, p.Unknown
		p = def
	}
	c.scene.Palette = p
}

func (c *compiler) entry(cmd *dsl.Command) (classify.Entry, bool) {
	e := classify.Entry{Token: cmd.Arg(0), Width: 1, Kernels: map[int]classify.Kernel{}}
	if e.Token == "" {
		c.warn("token 缺少符号")
		return e, false
	}
	for i := 1; i+1 < len(cmd.Args); i += 2 {
		if cmd.Arg(i) == "width" {
			if w, err := strconv.Atoi(cmd.Arg(i + 1)); err == nil && w > 0 {
				e.Width = w
			}
		}
	}
	for _, a := range cmd.Block.Assignments() {
		size, err := strconv.Atoi(strings.TrimPrefix(a.Key, "k"))
		if err != nil {
			c.warn("token %q: 未知的设置 %s", e.Token, a.Key)
			continue
		}
		k, err := classify.ParseKernel(a.Value.Strings())
		if err != nil || k.Size != size {
			c.warn("token %q: 内核 %s 无效: %v", e.Token, a.Key, err)
			continue
		}
		e.Kernels[size] = k
	}
	if len(e.Kernels) == 0 {
		c.warn("token %q 没有可用内核", e.Token)
		return e, false
	}
	return e, true
}

// finish applies letter case and reports placeholder fallbacks.
func (c *compiler) finish() {
	s := c.scene
	if s.Palette != nil && s.Image == nil {
		c.warn("分类模式需要图片，回退到标签模式")
		s.Palette = nil
	}
	if s.Palette == nil {
		label, err := applyCase(s.Label, c.letterCase)
		if err != nil {
			c.warn("%v", err)
		}
		s.Label = label
		if strings.TrimSpace(s.Label) == "" {
			c.warn("标签为空，使用占位标签")
			s.Label = ""
		}
	}
	if s.Mask == nil {
		c.warn("未提供轮廓，使用占位轮廓")
	}
}

func applyCase(label, mode string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "none", "keep":
		return label, nil
	case "lower":
		return cases.Lower(language.AmericanEnglish).String(label), nil
	case "upper":
		return cases.Upper(language.AmericanEnglish).String(label), nil
	case "title":
		return cases.Title(language.AmericanEnglish).String(label), nil
	default:
		return label, fmt.Errorf("未知的大小写模式 %q", mode)
	}
}
