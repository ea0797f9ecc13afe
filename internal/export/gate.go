package export

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"
)

// TimeGate is the renderer's single time-override slot plus its frame signal.
type TimeGate interface {
	// SetOverrideTime pins the rendered state to t and holds the renderer's clock.
	SetOverrideTime(t float64)
	// ClearOverrideTime resumes free-running animation from the renderer's own clock.
	ClearOverrideTime()
	// CurrentTime is the simulation time of the most recent composite pass.
	CurrentTime() float64
	// NextFrame returns a channel closed when the next composite pass completes.
	NextFrame() <-chan struct{}
}

// Surface is the renderer's live drawing surface.
type Surface interface {
	Bounds() image.Rectangle
	// ReadPixels copies the last completed frame into dst, which must match Bounds.
	ReadPixels(dst *image.RGBA) error
}

// Renderer is everything the pipeline consumes from the live renderer.
type Renderer interface {
	TimeGate
	Surface
}

// Visibility is implemented by renderers whose host throttles the render
// loop while hidden.
type Visibility interface {
	Hidden() bool
}

// Redrawer is implemented by renderers that can run a composite pass on
// demand, e.g. while the host throttles a hidden render loop.
type Redrawer interface {
	Redraw() error
}

// SettleOptions controls how long to wait after an override before reading pixels.
type SettleOptions struct {
	// Cycles is the number of composite passes to wait. Two are needed when
	// the parameter update and the draw reflecting it land on different passes.
	Cycles int
	// Fallback is the fixed delay used instead of a pass that does not
	// arrive, e.g. because the host throttled a hidden renderer.
	Fallback time.Duration
}

// DefaultSettle waits two composite passes with a 100ms throttling fallback.
func DefaultSettle() SettleOptions {
	return SettleOptions{Cycles: 2, Fallback: 100 * time.Millisecond}
}

// Settle waits for opts.Cycles composite passes of gate. It reports whether
// any pass was replaced by the fallback delay.
func Settle(ctx context.Context, gate TimeGate, opts SettleOptions, clock Clock) (throttled bool, err error) {
	if clock == nil {
		clock = SystemClock{}
	}
	fallback := opts.Fallback
	if fallback <= 0 {
		fallback = DefaultSettle().Fallback
	}

	for range opts.Cycles {
		if v, ok := gate.(Visibility); ok && v.Hidden() {
			throttled = true
			if err := clock.Sleep(ctx, fallback); err != nil {
				return throttled, err
			}
			continue
		}

		timer := time.NewTimer(fallback)
		select {
		case <-gate.NextFrame():
		case <-timer.C:
			throttled = true
		case <-ctx.Done():
			timer.Stop()
			return throttled, ctx.Err()
		}
		timer.Stop()
	}
	return throttled, nil
}

// override is the export's exclusive lease on the renderer's override slot.
// Release always clears the slot and is safe to call more than once.
type override struct {
	gate   TimeGate
	logger *slog.Logger
	once   sync.Once
}

func newOverride(gate TimeGate, logger *slog.Logger) *override {
	return &override{gate: gate, logger: logger}
}

func (o *override) Set(t float64) {
	o.gate.SetOverrideTime(t)
}

func (o *override) Release() {
	o.once.Do(func() {
		o.gate.ClearOverrideTime()
		o.logger.Debug("renderer override cleared")
	})
}
