package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/glyphmask/binding"
	"github.com/ByLCY/glyphmask/config"
	"github.com/ByLCY/glyphmask/diag"
	"github.com/ByLCY/glyphmask/grid"
	"github.com/ByLCY/glyphmask/layout"
	"github.com/ByLCY/glyphmask/renderer"
	canvasrenderer "github.com/ByLCY/glyphmask/renderer/canvas"
	termrenderer "github.com/ByLCY/glyphmask/renderer/term"
	xfontrenderer "github.com/ByLCY/glyphmask/renderer/xfont"
	"github.com/ByLCY/glyphmask/scene"
)

var (
	version = "dev"
	commit  = ""
)

// options 收集命令行参数，空值表示沿用配置文件。
type options struct {
	config    string
	out       string
	format    string
	backend   string
	data      string
	viewport  string
	debugJSON string
	debug     bool
	async     bool
	timeout   time.Duration
}

func main() {
	if err := fang.Execute(context.Background(), newRootCmd(),
		fang.WithVersion(version),
		fang.WithCommit(commit),
	); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "glyphmask",
		Short:        "沿轮廓排布字形并校准字形宽度",
		SilenceUsage: true,
	}
	root.AddCommand(newRenderCmd())
	return root
}

func newRenderCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "render [scene...]",
		Short: "渲染场景文件，未指定时渲染占位轮廓",
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd.ErrOrStderr(), opts.debug)
			return run(cmd.Context(), opts, args, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.config, "config", "c", "", "TOML 配置文件路径（默认读取 $"+config.EnvConfig+"）")
	f.StringVarP(&opts.out, "out", "o", "", "输出路径，多个场景时为目录，- 表示标准输出")
	f.StringVarP(&opts.format, "format", "f", "", "输出格式: "+strings.Join(config.Formats, "|"))
	f.StringVarP(&opts.backend, "backend", "b", "", "测量后端: "+strings.Join(config.Backends, "|"))
	f.StringVar(&opts.data, "data", "", "绑定数据：JSON/TOML 文件路径或内联 JSON")
	f.StringVar(&opts.viewport, "viewport", "", "视口尺寸，例如 1280x1024")
	f.StringVar(&opts.debugJSON, "debug-json", "", "网格调试 JSON 输出路径")
	f.BoolVar(&opts.debug, "debug", false, "输出调试日志")
	f.BoolVar(&opts.async, "async", false, "异步回报测量结果")
	f.DurationVar(&opts.timeout, "timeout", 30*time.Second, "等待网格收敛的最长时间")
	return cmd
}

func setupLogging(w io.Writer, debug bool) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	diag.SetLogger(slog.New(tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: time.Kitchen})))
}

// run 串联配置、场景解析、网格校准与输出。
func run(ctx context.Context, opts options, paths []string, stdout io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	data, err := loadData(opts.data)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		paths = []string{""}
	}

	outputs := make([][]byte, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			j := &job{cfg: cfg, opts: opts, path: path, data: data, multi: len(paths) > 1}
			out, err := j.run(ctx)
			if err != nil {
				if path == "" {
					return err
				}
				return fmt.Errorf("%s: %w", path, err)
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, out := range outputs {
		if _, err := stdout.Write(out); err != nil {
			return fmt.Errorf("写入标准输出失败: %w", err)
		}
	}
	return nil
}

func loadConfig(opts options) (config.Config, error) {
	cfg, err := config.Load(opts.config)
	if err != nil {
		return cfg, err
	}
	if opts.backend != "" {
		cfg.Backend = opts.backend
	}
	if opts.format != "" {
		cfg.Format = opts.format
	}
	if opts.async {
		cfg.Async = true
	}
	if opts.viewport != "" {
		vp, err := parseShape(opts.viewport)
		if err != nil {
			return cfg, err
		}
		cfg.Viewport = config.Shape(vp)
	}
	return cfg, cfg.Validate()
}

// loadData 接受数据文件路径或内联 JSON。
func loadData(arg string) (any, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, nil
	}
	if strings.HasPrefix(arg, "{") || strings.HasPrefix(arg, "[") {
		var v any
		if err := json.Unmarshal([]byte(arg), &v); err != nil {
			return nil, fmt.Errorf("解析 data JSON 失败: %w", err)
		}
		return v, nil
	}
	return binding.Load(arg)
}

func parseShape(s string) (layout.Shape, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return layout.Shape{}, fmt.Errorf("视口格式应为 宽x高: %q", s)
	}
	width, err1 := strconv.Atoi(strings.TrimSpace(w))
	height, err2 := strconv.Atoi(strings.TrimSpace(h))
	if err1 != nil || err2 != nil || width < 1 || height < 1 {
		return layout.Shape{}, fmt.Errorf("视口格式应为 宽x高: %q", s)
	}
	return layout.Shape{Width: width, Height: height}, nil
}

// job 负责单个场景从解析到输出的全过程。
type job struct {
	cfg   config.Config
	opts  options
	path  string
	data  any
	multi bool

	scene   *scene.Scene
	baseDir string
	font    renderer.Font
	hosts   map[string]renderer.Host
}

// run 返回需要写到标准输出的内容；写入文件时返回 nil。
func (j *job) run(ctx context.Context) ([]byte, error) {
	if err := j.loadScene(); err != nil {
		return nil, err
	}
	for _, w := range j.scene.Warnings {
		diag.Logger().Warn("scene: input replaced by default", "scene", j.name(), "detail", w)
	}

	host, err := j.host(j.cfg.Backend)
	if err != nil {
		return nil, err
	}
	ctl := grid.NewController(j.scene.GridConfig(j.cfg.Grid()), j.scene.Mask, grid.WithDebounce(j.cfg.Debounce.Duration))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- ctl.Run(runCtx, host) }()

	waitCtx, cancelWait := context.WithTimeout(ctx, j.opts.timeout)
	res, err := ctl.WaitSettled(waitCtx)
	cancelWait()
	cancel()
	if runErr := <-errc; runErr != nil {
		return nil, fmt.Errorf("网格运行失败: %w", runErr)
	}
	if err != nil {
		return nil, fmt.Errorf("网格未收敛: %w", err)
	}

	if j.opts.debugJSON != "" {
		if err := writeDebug(res, j.outputPath(j.opts.debugJSON, ".json")); err != nil {
			return nil, err
		}
	}

	toStdout := j.toStdout()
	body, err := j.encode(res, !toStdout)
	if err != nil {
		return nil, err
	}
	if toStdout {
		return body, nil
	}
	path := j.outputPath(j.opts.out, extension(j.cfg.Format))
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("创建输出目录失败: %w", err)
		}
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return nil, fmt.Errorf("写入输出文件失败: %w", err)
	}
	diag.Logger().Info("output written", "scene", j.name(), "path", path)
	return nil, nil
}

func (j *job) loadScene() error {
	if j.path == "" {
		j.scene = &scene.Scene{Name: "missingno"}
	} else {
		s, err := scene.Load(j.path, j.data, j.cfg.Case)
		if err != nil {
			return err
		}
		j.scene = s
		j.baseDir = filepath.Dir(j.path)
	}

	j.font = renderer.Font{Src: j.cfg.Font.Src, Style: j.cfg.Font.Style, Size: j.cfg.Font.Size}
	if f := j.scene.Font; f.Src != "" {
		j.font.Src = f.Src
		j.font.Name = f.Name
	}
	if j.scene.Font.Style != "" {
		j.font.Style = j.scene.Font.Style
	}
	if j.scene.Font.Size > 0 {
		j.font.Size = j.scene.Font.Size
	}
	return nil
}

// host 按名称构建测量宿主，同一场景内复用。
func (j *job) host(kind string) (renderer.Host, error) {
	if h, ok := j.hosts[kind]; ok {
		return h, nil
	}
	var (
		h   renderer.Host
		err error
	)
	switch kind {
	case "canvas":
		h = canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
			BaseDir:    j.baseDir,
			Font:       j.font,
			Async:      j.cfg.Async,
			Title:      j.name(),
			Foreground: j.scene.Foreground,
			Background: j.scene.Background,
		})
	case "xfont":
		h, err = j.xfontHost()
	case "term":
		t := termrenderer.New()
		t.CellWidth = j.cfg.CellWidth
		t.Async = j.cfg.Async
		if j.scene.Foreground != nil {
			t.Foreground = t.Foreground.Foreground(j.scene.Foreground)
		}
		if j.scene.Background != nil {
			t.Background = t.Background.Foreground(j.scene.Background)
		}
		h = t
	default:
		err = fmt.Errorf("未知的测量后端 %q", kind)
	}
	if err != nil {
		return nil, err
	}
	if j.hosts == nil {
		j.hosts = map[string]renderer.Host{}
	}
	j.hosts[kind] = h
	return h, nil
}

func (j *job) xfontHost() (renderer.Host, error) {
	opts := xfontrenderer.Options{
		Font:       j.font,
		Async:      j.cfg.Async,
		Foreground: j.scene.Foreground,
		Background: j.scene.Background,
	}
	if src := j.font.Src; src != "" && !strings.HasPrefix(src, "embed:") {
		path := src
		if !filepath.IsAbs(path) {
			path = filepath.Join(j.baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取字体文件失败: %w", err)
		}
		opts.Data = data
	}
	return xfontrenderer.New(opts)
}

// encode 按输出格式生成内容。plain 为 true 时文本输出不带样式。
func (j *job) encode(res *layout.Result, plain bool) ([]byte, error) {
	var kind string
	switch j.cfg.Format {
	case "json":
		return layout.MarshalDebug(res)
	case "text":
		kind = "term"
	case "png":
		kind = "xfont"
	default:
		kind = "canvas"
	}
	h, err := j.host(kind)
	if err != nil {
		return nil, err
	}
	if t, ok := h.(*termrenderer.Renderer); ok && plain {
		cp := *t
		cp.Plain = true
		h = &cp
	}
	body, err := h.Render(res)
	if err != nil {
		return nil, fmt.Errorf("渲染 %s 失败: %w", j.cfg.Format, err)
	}
	return body, nil
}

func (j *job) toStdout() bool {
	if j.opts.out == "-" {
		return true
	}
	return j.opts.out == "" && (j.cfg.Format == "text" || j.cfg.Format == "json")
}

// outputPath 解析输出位置：多个场景时 out 视为目录，未指定时写到当前目录。
func (j *job) outputPath(out, ext string) string {
	file := j.name() + ext
	switch {
	case out == "" || out == "-":
		return file
	case j.multi:
		return filepath.Join(out, file)
	default:
		return out
	}
}

func (j *job) name() string {
	if j.path != "" {
		base := filepath.Base(j.path)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	if j.scene != nil && j.scene.Name != "" {
		return j.scene.Name
	}
	return "glyphmask"
}

func extension(format string) string {
	switch format {
	case "text":
		return ".txt"
	default:
		return "." + format
	}
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
