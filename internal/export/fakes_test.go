package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"
)

var errContextLost = errors.New("context lost")

// fakeRenderer records every override change and paints a color derived
// from the pinned time so captured frames can be told apart.
type fakeRenderer struct {
	mu         sync.Mutex
	width      int
	height     int
	current    float64
	overridden bool
	hidden     bool
	events     []string
	reads      int
	readTimes  []float64 // CurrentTime at each ReadPixels call
	failAt     int       // 1-based ReadPixels call that fails; 0 = never
}

func newFakeRenderer(w, h int) *fakeRenderer {
	return &fakeRenderer{width: w, height: h}
}

func (f *fakeRenderer) SetOverrideTime(t float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = t
	f.overridden = true
	f.events = append(f.events, fmt.Sprintf("set %.4f", t))
}

func (f *fakeRenderer) ClearOverrideTime() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overridden = false
	f.events = append(f.events, "clear")
}

func (f *fakeRenderer) CurrentTime() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeRenderer) NextFrame() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (f *fakeRenderer) Hidden() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hidden
}

func (f *fakeRenderer) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.width, f.height)
}

func (f *fakeRenderer) ReadPixels(dst *image.RGBA) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	f.readTimes = append(f.readTimes, f.current)
	if f.failAt > 0 && f.reads == f.failAt {
		return errContextLost
	}
	v := uint8(int(f.current*1000) % 256)
	for i := 0; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = v
		dst.Pix[i+1] = 255 - v
		dst.Pix[i+2] = 128
		dst.Pix[i+3] = 255
	}
	return nil
}

func (f *fakeRenderer) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func (f *fakeRenderer) Overridden() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overridden
}

func (f *fakeRenderer) ReadTimes() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]float64(nil), f.readTimes...)
}

// laggingRenderer only draws on an explicit pass, so its surface keeps
// showing the previous time until the host loop gets around to it.
type laggingRenderer struct {
	*fakeRenderer
	pending float64
	cycle   chan struct{}
	passes  int
}

func newLaggingRenderer(w, h int, shown float64) *laggingRenderer {
	r := &laggingRenderer{fakeRenderer: newFakeRenderer(w, h), cycle: make(chan struct{})}
	r.current = shown
	return r
}

func (r *laggingRenderer) SetOverrideTime(t float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = t
	r.overridden = true
	r.events = append(r.events, fmt.Sprintf("set %.4f", t))
}

func (r *laggingRenderer) NextFrame() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cycle
}

// pass draws the pinned time, if any, and signals NextFrame waiters.
func (r *laggingRenderer) pass() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.overridden {
		r.current = r.pending
	}
	r.passes++
	close(r.cycle)
	r.cycle = make(chan struct{})
}

// loop passes every interval until ctx is done.
func (r *laggingRenderer) loop(ctx context.Context, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			r.pass()
		}
	}
}

// redrawingRenderer is a lagging renderer that can draw on demand.
type redrawingRenderer struct {
	*laggingRenderer
	redraws int
}

func (r *redrawingRenderer) Redraw() error {
	r.redraws++
	r.pass()
	return nil
}

// fakeClock advances only when slept on or told to.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.advance(d)
	return nil
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.now = c.now.Add(d)
	}
}

// fakeRecorder simulates a stream recorder whose frame capture costs overhead.
type fakeRecorder struct {
	clock    *fakeClock
	surface  Surface
	overhead time.Duration

	started bool
	stopped bool
	aborted bool
	times   []float64
}

func (r *fakeRecorder) Start(ctx context.Context) error {
	r.started = true
	return nil
}

func (r *fakeRecorder) RequestFrame() error {
	if tg, ok := r.surface.(TimeGate); ok {
		r.times = append(r.times, tg.CurrentTime())
	}
	r.clock.advance(r.overhead)
	return nil
}

func (r *fakeRecorder) Stop() ([]byte, error) {
	r.stopped = true
	return []byte("fake-webm"), nil
}

func (r *fakeRecorder) Abort() {
	r.aborted = true
}

func (r *fakeRecorder) MIMEType() string {
	return "video/webm"
}
