// Package config loads glyphmask settings from TOML, with defaults for
// every field.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/ByLCY/glyphmask/diag"
	"github.com/ByLCY/glyphmask/grid"
	"github.com/ByLCY/glyphmask/layout"
)

// EnvConfig names the variable consulted when no config path is given.
const EnvConfig = "GLYPHMASK_CONFIG"

// Backends lists the measuring hosts.
var Backends = []string{"canvas", "xfont", "term"}

// Formats lists the output formats.
var Formats = []string{"pdf", "png", "text", "json"}

// Duration decodes TOML strings such as "333ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Shape is a width/height pair in px.
type Shape struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Font selects the face the hosts measure with.
type Font struct {
	Src   string  `toml:"src"`
	Style string  `toml:"style"`
	Size  float64 `toml:"size"`
}

// Config is the full set of options.
type Config struct {
	Backend   string   `toml:"backend"`
	Format    string   `toml:"format"`
	Async     bool     `toml:"async"`
	Debounce  Duration `toml:"debounce"`
	BatchStep int      `toml:"batch_step"`
	Alignment string   `toml:"alignment"`
	Fill      string   `toml:"fill"`
	Case      string   `toml:"case"`
	CellWidth float64  `toml:"cell_width"`
	Font      Font     `toml:"font"`
	Ideal     Shape    `toml:"ideal"`
	Viewport  Shape    `toml:"viewport"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Backend:   "canvas",
		Format:    "pdf",
		Debounce:  Duration{grid.DefaultDebounce},
		BatchStep: layout.DefaultBatchStep,
		Alignment: "row",
		Fill:      " ",
		Case:      "lower",
		CellWidth: 8,
		Font:      Font{Src: "embed:go-regular", Size: 16},
		Ideal:     Shape{Width: 450, Height: 950},
		Viewport:  Shape{Width: 1280, Height: 1024},
	}
}

// Load reads .env when present, then decodes path over the defaults. An
// empty path falls back to $GLYPHMASK_CONFIG; with neither set the defaults
// are returned.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		diag.Logger().Warn("config: unknown key", "file", path, "key", key.String())
	}
	return cfg, cfg.Validate()
}

// Decode parses TOML text over the defaults.
func Decode(text string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(text, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks enumerated fields and numeric ranges.
func (c Config) Validate() error {
	var errs []error
	if !contains(Backends, c.Backend) {
		errs = append(errs, fmt.Errorf("config: backend %q not one of %s", c.Backend, strings.Join(Backends, ", ")))
	}
	if !contains(Formats, c.Format) {
		errs = append(errs, fmt.Errorf("config: format %q not one of %s", c.Format, strings.Join(Formats, ", ")))
	}
	if _, err := layout.ParseAlignment(c.Alignment); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}
	if c.BatchStep < 1 {
		errs = append(errs, fmt.Errorf("config: batch_step must be at least 1, got %d", c.BatchStep))
	}
	if c.Font.Size <= 0 {
		errs = append(errs, fmt.Errorf("config: font.size must be positive, got %g", c.Font.Size))
	}
	return errors.Join(errs...)
}

// Grid converts the configuration into grid options. Scene settings are
// applied on top by the caller.
func (c Config) Grid() grid.Config {
	align, _ := layout.ParseAlignment(c.Alignment)
	return grid.Config{
		Ideal:      layout.Shape(c.Ideal),
		Viewport:   layout.Shape(c.Viewport),
		LineHeight: c.Font.Size,
		Fill:       layout.Glyph(c.Fill),
		Alignment:  align,
		BatchStep:  c.BatchStep,
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
