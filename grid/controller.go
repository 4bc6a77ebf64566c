package grid

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ByLCY/glyphmask/classify"
	"github.com/ByLCY/glyphmask/diag"
	"github.com/ByLCY/glyphmask/layout"
	"github.com/ByLCY/glyphmask/mask"
)

// ReportFunc delivers the measured pixel width of one committed line. It may
// be called from any goroutine, in any order, after Commit returns.
type ReportFunc func(version uint64, line int, width float64)

// Surface renders the lines of a frame and reports their widths.
type Surface interface {
	Commit(frame layout.Frame, report ReportFunc)
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(frame layout.Frame, report ReportFunc)

// Commit implements Surface.
func (f SurfaceFunc) Commit(frame layout.Frame, report ReportFunc) { f(frame, report) }

// Controller owns a Grid and applies every change and measurement to it
// through one Queue.
type Controller struct {
	grid     *Grid
	queue    *Queue
	debounce *Debouncer

	// Owned by the queue goroutine.
	ctx     context.Context
	surface Surface
	waiting map[int]bool

	mu       sync.Mutex
	viewport *layout.Shape
	force    bool
	done     chan struct{}
	result   *layout.Result
}

// Option configures a Controller.
type Option func(*Controller)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = NewDebouncer(d) }
}

// NewController builds the grid for cfg and src. Nothing happens until Run.
func NewController(cfg Config, src mask.Source, opts ...Option) *Controller {
	c := &Controller{
		grid:     New(cfg, src),
		queue:    NewQueue(),
		debounce: NewDebouncer(DefaultDebounce),
		waiting:  map[int]bool{},
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run drives the grid against s until ctx is done. A cancelled context is
// not an error.
func (c *Controller) Run(ctx context.Context, s Surface) error {
	c.queue.Dispatch(func() {
		c.ctx = ctx
		c.surface = s
		c.step()
	})
	err := c.queue.Run(ctx)
	c.debounce.Stop()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// step proposes the next frame once the previous one has fully reported.
func (c *Controller) step() {
	if c.surface == nil || len(c.waiting) > 0 {
		return
	}
	frame := c.grid.Tick(c.ctx)
	if len(frame.Lines) == 0 {
		c.markSettled()
		return
	}
	for _, l := range frame.Lines {
		c.waiting[l.Index] = true
	}
	c.surface.Commit(frame, c.report)
}

func (c *Controller) report(version uint64, line int, width float64) {
	c.queue.Dispatch(func() { c.apply(version, line, width) })
}

func (c *Controller) apply(version uint64, line int, width float64) {
	if version != c.grid.Version() {
		diag.Logger().Debug("grid: discarding stale measurement", "version", version, "line", line)
		return
	}
	if !c.waiting[line] {
		return
	}
	delete(c.waiting, line)
	if err := c.grid.Apply(version, line, width); err != nil {
		diag.Logger().Warn("grid: measurement absorbed", "line", line, "err", err)
	}
	c.step()
}

// restart runs after every reset of the grid.
func (c *Controller) restart() {
	clear(c.waiting)
	c.mu.Lock()
	if c.result != nil {
		c.result = nil
		c.done = make(chan struct{})
	}
	c.mu.Unlock()
	c.step()
}

func (c *Controller) markSettled() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result != nil {
		return
	}
	c.result = c.grid.Snapshot()
	close(c.done)
	diag.Logger().Info("grid: settled", "version", c.result.Version, "lines", len(c.result.Lines), "glyphs", len(c.result.Widths))
}

// WaitSettled blocks until the grid settles and returns its snapshot.
func (c *Controller) WaitSettled(ctx context.Context) (*layout.Result, error) {
	for {
		c.mu.Lock()
		done := c.done
		c.mu.Unlock()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-done:
		}
		c.mu.Lock()
		res := c.result
		c.mu.Unlock()
		if res != nil {
			return res, nil
		}
	}
}

// Snapshot copies the grid state on the queue goroutine. Run must be active.
func (c *Controller) Snapshot(ctx context.Context) (*layout.Result, error) {
	ch := make(chan *layout.Result, 1)
	c.queue.Dispatch(func() { ch <- c.grid.Snapshot() })
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res, nil
	}
}

// Resize schedules a viewport change after the debounce interval. Only the
// last viewport inside one interval is applied.
func (c *Controller) Resize(viewport layout.Shape) {
	c.mu.Lock()
	c.viewport = &viewport
	c.mu.Unlock()
	c.debounce.Trigger(c.flush)
}

// SetBatchStep changes the batch step and schedules a debounced reset.
func (c *Controller) SetBatchStep(n int) {
	c.queue.Dispatch(func() { c.grid.SetBatchStep(n) })
	c.mu.Lock()
	c.force = true
	c.mu.Unlock()
	c.debounce.Trigger(c.flush)
}

func (c *Controller) flush() {
	c.mu.Lock()
	viewport, force := c.viewport, c.force
	c.viewport, c.force = nil, false
	c.mu.Unlock()
	c.queue.Dispatch(func() {
		changed := viewport != nil && c.grid.Resize(*viewport)
		if !changed && force {
			c.grid.Reset()
			changed = true
		}
		if changed {
			c.restart()
		}
	})
}

// SetLabel replaces the label and resets immediately.
func (c *Controller) SetLabel(label string) {
	c.queue.Dispatch(func() { c.grid.SetLabel(label); c.restart() })
}

// SetFill replaces the fill glyph and resets immediately.
func (c *Controller) SetFill(fill layout.Glyph) {
	c.queue.Dispatch(func() { c.grid.SetFill(fill); c.restart() })
}

// SetAlignment changes the alignment and resets immediately.
func (c *Controller) SetAlignment(a layout.Alignment) {
	c.queue.Dispatch(func() { c.grid.SetAlignment(a); c.restart() })
}

// SetMask replaces the silhouette and resets immediately.
func (c *Controller) SetMask(src mask.Source) {
	c.queue.Dispatch(func() { c.grid.SetMask(src); c.restart() })
}

// SetPalette replaces the palette and classifier and resets immediately.
func (c *Controller) SetPalette(p *classify.Palette, cls classify.Classifier) {
	c.queue.Dispatch(func() { c.grid.SetPalette(p, cls); c.restart() })
}
