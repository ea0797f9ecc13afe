package renderer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/gif"
	"math"
	"testing"
	"time"

	"github.com/Trailblaze-work/loopcast/internal/export"
)

var (
	_ export.Renderer   = (*Canvas)(nil)
	_ export.Visibility = (*Canvas)(nil)
)

func newTestCanvas(t *testing.T, pattern string) *Canvas {
	t.Helper()
	p := DefaultParams()
	p.Pattern = pattern
	c, err := New(32, 32, Options{Params: p})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCanvas_NoFrameBeforeFirstPass(t *testing.T) {
	c := newTestCanvas(t, "aurora")
	if _, err := c.Snapshot(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("expected ErrNoFrame, got %v", err)
	}
}

func TestCanvas_OverrideHoldsClock(t *testing.T) {
	c := newTestCanvas(t, "radial")
	near := func(got, want float64) bool { return math.Abs(got-want) < 1e-9 }

	c.Tick(16 * time.Millisecond)
	c.Tick(16 * time.Millisecond)
	if got := c.CurrentTime(); !near(got, 0.032) {
		t.Fatalf("free-running time: got %v, want 0.032", got)
	}

	c.SetOverrideTime(1.5)
	c.Tick(16 * time.Millisecond)
	c.Tick(time.Second)
	if got := c.CurrentTime(); got != 1.5 {
		t.Errorf("overridden time: got %v, want 1.5", got)
	}
	if !c.Overridden() {
		t.Error("Overridden should report true")
	}

	c.ClearOverrideTime()
	c.Tick(10 * time.Millisecond)
	if got := c.CurrentTime(); !near(got, 0.042) {
		t.Errorf("resumed time: got %v, want 0.042", got)
	}
}

func TestCanvas_NextFrameClosedByPass(t *testing.T) {
	c := newTestCanvas(t, "spiral")
	ch := c.NextFrame()
	select {
	case <-ch:
		t.Fatal("cycle closed before any pass")
	default:
	}
	c.Tick(time.Millisecond)
	select {
	case <-ch:
	default:
		t.Fatal("cycle not closed after a pass")
	}
	if c.Passes() != 1 {
		t.Errorf("passes: got %d, want 1", c.Passes())
	}
}

func TestCanvas_DeterministicAtPinnedTime(t *testing.T) {
	for _, p := range Patterns() {
		t.Run(p.Name, func(t *testing.T) {
			a := newTestCanvas(t, p.Name)
			b := newTestCanvas(t, p.Name)

			a.SetOverrideTime(0.7)
			a.Tick(0)
			b.Tick(123 * time.Millisecond)
			b.SetOverrideTime(0.7)
			b.Tick(0)

			imgA, err := a.Snapshot()
			if err != nil {
				t.Fatalf("snapshot: %v", err)
			}
			imgB, _ := b.Snapshot()
			if !bytes.Equal(imgA.Pix, imgB.Pix) {
				t.Error("same time rendered different pixels")
			}
		})
	}
}

func TestCanvas_SetPattern(t *testing.T) {
	c := newTestCanvas(t, "aurora")
	if err := c.SetPattern("plasma"); err != nil {
		t.Fatalf("SetPattern error: %v", err)
	}
	if got := c.Params().Pattern; got != "plasma" {
		t.Errorf("pattern: got %q, want plasma", got)
	}
	if err := c.SetPattern("nope"); err == nil {
		t.Error("expected error for unknown pattern")
	}
	if got := c.Params().Pattern; got != "plasma" {
		t.Errorf("failed SetPattern changed pattern to %q", got)
	}
}

func TestCanvas_Hidden(t *testing.T) {
	c := newTestCanvas(t, "aurora")
	if c.passInterval() != time.Second/60 {
		t.Errorf("visible interval: got %v", c.passInterval())
	}
	c.SetHidden(true)
	if !c.Hidden() || c.passInterval() != hiddenInterval {
		t.Errorf("hidden interval: got %v", c.passInterval())
	}
}

func TestCanvas_ExportsThroughPipeline(t *testing.T) {
	c, err := New(32, 32, Options{RefreshHz: 240})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	req := export.DefaultRequest()
	req.Width, req.Height = 32, 32
	req.Duration = 0.5
	req.FPS = 10

	res, err := export.NewExporter(c, export.Options{}).Export(ctx, req, nil)
	if err != nil {
		t.Fatalf("Export error: %v", err)
	}
	anim, err := gif.DecodeAll(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("decoding gif: %v", err)
	}
	if len(anim.Image) != 5 {
		t.Errorf("frames: got %d, want 5", len(anim.Image))
	}
	if c.Overridden() {
		t.Error("canvas still overridden after export")
	}
}

// pinnedReads records the time each ReadPixels call saw on the canvas.
type pinnedReads struct {
	*Canvas
	times []float64
}

func (r *pinnedReads) ReadPixels(dst *image.RGBA) error {
	r.times = append(r.times, r.CurrentTime())
	return r.Canvas.ReadPixels(dst)
}

func TestCanvas_HiddenExportDrawsPinnedTimes(t *testing.T) {
	c := newTestCanvas(t, "aurora")
	c.Tick(300 * time.Millisecond)
	c.SetHidden(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	req := export.DefaultRequest()
	req.Width, req.Height = 32, 32
	req.Duration = 1
	req.FPS = 5

	reads := &pinnedReads{Canvas: c}
	settle := export.SettleOptions{Cycles: 2, Fallback: 5 * time.Millisecond}
	if _, err := export.NewExporter(reads, export.Options{Settle: settle}).Export(ctx, req, nil); err != nil {
		t.Fatalf("Export error: %v", err)
	}

	sched, _ := export.ComputeSchedule(1, 5, export.LoopNormal, export.KindGIF)
	if len(reads.times) != len(sched.Samples) {
		t.Fatalf("reads: got %d, want %d", len(reads.times), len(sched.Samples))
	}
	for i, want := range sched.Samples {
		if got := reads.times[i]; math.Abs(got-want) > 1e-9 {
			t.Errorf("frame %d: surface showed t=%v, want %v", i, got, want)
		}
	}
}

func TestCanvas_Redraw(t *testing.T) {
	c := newTestCanvas(t, "radial")
	c.Tick(40 * time.Millisecond)
	c.SetOverrideTime(2.5)
	if err := c.Redraw(); err != nil {
		t.Fatalf("Redraw error: %v", err)
	}
	if got := c.CurrentTime(); got != 2.5 {
		t.Errorf("time after redraw: got %v, want 2.5", got)
	}
	c.ClearOverrideTime()
	c.Redraw()
	if got := c.CurrentTime(); math.Abs(got-0.04) > 1e-9 {
		t.Errorf("redraw advanced the clock: got %v, want 0.04", got)
	}
}
