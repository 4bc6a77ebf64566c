package binding

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// 若 data 为空或路径不存在，则保留原占位符。
func Interpolate(text string, data any) string {
	out, _ := interpolate(text, data)
	return out
}

// Missing 返回 text 中无法从 data 解析的路径，按出现顺序排列。
func Missing(text string, data any) []string {
	_, missing := interpolate(text, data)
	return missing
}

func interpolate(text string, data any) (string, []string) {
	var missing []string
	out := exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		path := strings.TrimSpace(groups[1])
		if val, ok := Resolve(data, path); ok {
			return fmt.Sprint(val)
		}
		missing = append(missing, path)
		return match
	})
	return out, missing
}

// Resolve 按 a.b[0].c 形式的路径在 JSON/TOML 解码出的数据中取值。
func Resolve(data any, path string) (any, bool) {
	steps, ok := splitPath(path)
	if !ok || data == nil {
		return nil, false
	}
	current := data
	for _, st := range steps {
		if current, ok = st.descend(current); !ok {
			return nil, false
		}
	}
	return current, true
}

// step 是路径中的一级：键名或数组下标（index >= 0）。
type step struct {
	key   string
	index int
}

func splitPath(path string) ([]step, bool) {
	var steps []step
	for _, segment := range strings.Split(path, ".") {
		name, rest, _ := strings.Cut(segment, "[")
		if name != "" {
			steps = append(steps, step{key: name, index: -1})
		}
		for rest != "" {
			idx, tail, found := strings.Cut(rest, "]")
			n, err := strconv.Atoi(idx)
			if !found || err != nil || n < 0 {
				return nil, false
			}
			steps = append(steps, step{index: n})
			rest = strings.TrimPrefix(tail, "[")
		}
	}
	return steps, len(steps) > 0
}

func (s step) descend(current any) (any, bool) {
	if s.index < 0 {
		switch c := current.(type) {
		case map[string]any:
			v, ok := c[s.key]
			return v, ok
		case map[string]string:
			v, ok := c[s.key]
			return v, ok
		}
		return nil, false
	}
	switch c := current.(type) {
	case []any:
		if s.index < len(c) {
			return c[s.index], true
		}
	case []map[string]any:
		if s.index < len(c) {
			return c[s.index], true
		}
	}
	return nil, false
}

// Load 读取绑定数据文件，按扩展名选择 JSON 或 TOML。
func Load(path string) (any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取数据文件 %s 失败: %w", path, err)
	}
	return Decode(raw, filepath.Ext(path))
}

// Decode 解码 JSON（默认）或 TOML（ext 为 ".toml"）数据。
func Decode(raw []byte, ext string) (any, error) {
	if strings.EqualFold(ext, ".toml") {
		var out map[string]any
		if _, err := toml.Decode(string(raw), &out); err != nil {
			return nil, fmt.Errorf("解析 TOML 数据失败: %w", err)
		}
		return out, nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("解析 JSON 数据失败: %w", err)
	}
	return out, nil
}
