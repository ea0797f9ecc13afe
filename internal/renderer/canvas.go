package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/gg"
)

// ErrNoFrame is returned by ReadPixels before the first composite pass.
var ErrNoFrame = errors.New("no frame rendered yet")

// hiddenInterval is the throttled pass rate of a hidden canvas.
const hiddenInterval = time.Second

// Options configures a Canvas.
type Options struct {
	RefreshHz int
	Params    Params
	Logger    *slog.Logger
}

// Canvas is a live animated surface. A host loop (Run, or Tick from a
// caller that owns the loop) redraws it once per composite pass at the
// renderer's own clock, or at the override time while one is set.
type Canvas struct {
	mu     sync.RWMutex
	dc     *gg.Context
	front  *image.RGBA
	logger *slog.Logger

	pattern Pattern
	params  Params

	clock     float64 // free-running seconds
	override  bool
	overrideT float64
	current   float64
	passes    uint64
	cycle     chan struct{}

	hidden   bool
	interval time.Duration
}

// New creates a width x height canvas. Nothing is drawn until the first pass.
func New(width, height int, opts Options) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("canvas size %dx%d", width, height)
	}
	if opts.Params.Pattern == "" {
		opts.Params = DefaultParams()
	}
	if err := opts.Params.Validate(); err != nil {
		return nil, err
	}
	pattern, _ := Lookup(opts.Params.Pattern)
	if opts.RefreshHz <= 0 {
		opts.RefreshHz = 60
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	gg.SetLogger(opts.Logger)

	return &Canvas{
		dc:       gg.NewContext(width, height),
		front:    image.NewRGBA(image.Rect(0, 0, width, height)),
		logger:   opts.Logger,
		pattern:  pattern,
		params:   opts.Params,
		cycle:    make(chan struct{}),
		interval: time.Second / time.Duration(opts.RefreshHz),
	}, nil
}

// Run drives composite passes until ctx is done. While hidden the loop
// throttles to one pass per second, as a host would for a background surface.
func (c *Canvas) Run(ctx context.Context) error {
	last := time.Now()
	for {
		timer := time.NewTimer(c.passInterval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case now := <-timer.C:
			if err := c.Tick(now.Sub(last)); err != nil {
				c.logger.Error("composite pass failed", "error", err)
			}
			last = now
		}
	}
}

func (c *Canvas) passInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.hidden {
		return hiddenInterval
	}
	return c.interval
}

// Tick performs one composite pass dt after the previous one. The clock
// does not advance while an override is set.
func (c *Canvas) Tick(dt time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.override {
		c.clock += dt.Seconds()
	}
	t := c.clock
	if c.override {
		t = c.overrideT
	}

	err := c.pattern.Draw(c.dc, c.params, t)
	if ferr := c.dc.FlushGPU(); err == nil {
		err = ferr
	}
	copy(c.front.Pix, c.dc.ResizeTarget().Data())

	c.current = t
	c.passes++
	close(c.cycle)
	c.cycle = make(chan struct{})
	return err
}

// Redraw performs a composite pass now without advancing the clock. A hidden
// canvas only passes once per hiddenInterval, so exports call this to get
// the pinned time on screen.
func (c *Canvas) Redraw() error {
	return c.Tick(0)
}

// SetOverrideTime pins subsequent passes to t.
func (c *Canvas) SetOverrideTime(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.override = true
	c.overrideT = t
}

// ClearOverrideTime resumes the free-running clock where it was held.
func (c *Canvas) ClearOverrideTime() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.override = false
}

// Overridden reports whether an override time is set.
func (c *Canvas) Overridden() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.override
}

// CurrentTime is the time drawn by the most recent pass.
func (c *Canvas) CurrentTime() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// NextFrame returns a channel closed by the next composite pass.
func (c *Canvas) NextFrame() <-chan struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cycle
}

// Passes is the number of composite passes so far.
func (c *Canvas) Passes() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.passes
}

func (c *Canvas) Bounds() image.Rectangle {
	return c.front.Rect
}

// ReadPixels copies the last completed pass into dst.
func (c *Canvas) ReadPixels(dst *image.RGBA) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.passes == 0 {
		return ErrNoFrame
	}
	if dst.Rect != c.front.Rect {
		return fmt.Errorf("destination %v does not match surface %v", dst.Rect, c.front.Rect)
	}
	copy(dst.Pix, c.front.Pix)
	return nil
}

// Snapshot returns a copy of the last completed pass.
func (c *Canvas) Snapshot() (*image.RGBA, error) {
	img := image.NewRGBA(c.Bounds())
	if err := c.ReadPixels(img); err != nil {
		return nil, err
	}
	return img, nil
}

// SetHidden marks the canvas as hidden (throttled) or visible.
func (c *Canvas) SetHidden(hidden bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hidden != hidden {
		c.logger.Debug("canvas visibility changed", "hidden", hidden)
	}
	c.hidden = hidden
}

func (c *Canvas) Hidden() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hidden
}

// Params returns the current parameter snapshot.
func (c *Canvas) Params() Params {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.params
}

// SetParams replaces the parameter snapshot, including the pattern.
func (c *Canvas) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	pattern, _ := Lookup(p.Pattern)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = p
	c.pattern = pattern
	return nil
}

// SetPattern switches the drawn pattern and keeps the other params.
func (c *Canvas) SetPattern(name string) error {
	p := c.Params()
	p.Pattern = name
	return c.SetParams(p)
}

func (c *Canvas) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dc.Close()
}
