package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"

	xdraw "golang.org/x/image/draw"
)

var errEmptySurface = errors.New("renderer surface is empty")

// staleWaits bounds the extra settle cycles spent waiting for a renderer
// that cannot redraw on demand to draw the pinned time.
const staleWaits = 10

// CapturedFrame is one frame read back from the renderer. Pixels belongs to
// the Acquirer and is overwritten by the next acquisition; consumers that
// keep a frame must copy it.
type CapturedFrame struct {
	Index  int
	Time   float64
	Pixels *image.RGBA
}

// FrameRequester is implemented by stream recorders that can capture a
// frame on demand instead of sampling on their own schedule.
type FrameRequester interface {
	RequestFrame() error
}

// Acquirer drives the renderer to an exact sample time and reads the result.
// Acquisitions are strictly sequential: the renderer shows one time at once.
type Acquirer struct {
	renderer Renderer
	lease    *override
	settle   SettleOptions
	clock    Clock
	logger   *slog.Logger

	width  int
	height int
	live   *image.RGBA // sized to the renderer surface
	out    *image.RGBA // sized to the export, only when resampling
}

func newAcquirer(r Renderer, lease *override, width, height int, settle SettleOptions, clock Clock, logger *slog.Logger) *Acquirer {
	return &Acquirer{
		renderer: r,
		lease:    lease,
		settle:   settle,
		clock:    clock,
		logger:   logger,
		width:    width,
		height:   height,
	}
}

// Still pins the renderer to t, waits for it to settle, and reads the frame
// back synchronously at export resolution.
func (a *Acquirer) Still(ctx context.Context, index int, t float64) (CapturedFrame, error) {
	if err := a.pin(ctx, index, t); err != nil {
		return CapturedFrame{}, err
	}
	pixels, err := a.readback()
	if err != nil {
		return CapturedFrame{}, &AcquisitionError{Frame: index, Time: t, Err: err}
	}
	return CapturedFrame{Index: index, Time: t, Pixels: pixels}, nil
}

// Stream pins the renderer to t for a recorder bound to the same surface.
// The frame is consumed by the recorder, not returned.
func (a *Acquirer) Stream(ctx context.Context, index int, t float64, rec StreamRecorder) error {
	if err := a.pin(ctx, index, t); err != nil {
		return err
	}
	if req, ok := rec.(FrameRequester); ok {
		if err := req.RequestFrame(); err != nil {
			return &AcquisitionError{Frame: index, Time: t, Err: err}
		}
	}
	return nil
}

func (a *Acquirer) pin(ctx context.Context, index int, t float64) error {
	a.lease.Set(t)
	throttled, err := Settle(ctx, a.renderer, a.settle, a.clock)
	if err != nil {
		return &AcquisitionError{Frame: index, Time: t, Err: err}
	}
	if throttled {
		a.logger.Warn("render loop throttled, used fallback settle delay",
			"frame", index, "fallback", a.settle.Fallback)
	}
	if err := a.confirm(ctx, t); err != nil {
		return &AcquisitionError{Frame: index, Time: t, Err: err}
	}
	return nil
}

// confirm checks that the last composite pass drew t before pixels are read.
// A renderer that can redraw on demand is asked to; any other renderer gets
// staleWaits more settle cycles.
func (a *Acquirer) confirm(ctx context.Context, t float64) error {
	if drewAt(a.renderer, t) {
		return nil
	}
	if rd, ok := a.renderer.(Redrawer); ok {
		if err := rd.Redraw(); err != nil {
			return fmt.Errorf("redrawing: %w", err)
		}
		if drewAt(a.renderer, t) {
			return nil
		}
	}

	one := SettleOptions{Cycles: 1, Fallback: a.settle.Fallback}
	for range staleWaits {
		if _, err := Settle(ctx, a.renderer, one, a.clock); err != nil {
			return err
		}
		if drewAt(a.renderer, t) {
			return nil
		}
	}
	return fmt.Errorf("%w: surface shows t=%.4fs", ErrStaleFrame, a.renderer.CurrentTime())
}

func drewAt(gate TimeGate, t float64) bool {
	return math.Abs(gate.CurrentTime()-t) < 1e-9
}

func (a *Acquirer) readback() (*image.RGBA, error) {
	b := a.renderer.Bounds()
	if b.Empty() {
		return nil, errEmptySurface
	}
	if a.live == nil || a.live.Rect != b {
		a.live = image.NewRGBA(b)
	}
	if err := a.renderer.ReadPixels(a.live); err != nil {
		return nil, fmt.Errorf("reading pixels: %w", err)
	}

	if b.Dx() == a.width && b.Dy() == a.height {
		return a.live, nil
	}
	if a.out == nil {
		a.out = image.NewRGBA(image.Rect(0, 0, a.width, a.height))
	}
	xdraw.CatmullRom.Scale(a.out, a.out.Bounds(), a.live, b, xdraw.Src, nil)
	return a.out, nil
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}
