// Package recorder captures a live surface as a continuous video stream.
//
// Frames are placed by real elapsed time since Start, not by how many were
// requested: a request that arrives late fills the slots it missed with the
// previous frame, so the stream's duration tracks the wall clock. Longer
// stalls than one second are cut from the stream.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/Trailblaze-work/loopcast/internal/export"
)

var (
	// ErrNotStarted is returned by RequestFrame and Stop before Start.
	ErrNotStarted = errors.New("recorder not started")
	// ErrNoFrames is returned by Stop when nothing was recorded.
	ErrNoFrames = errors.New("recorder captured no frames")
)

// Config selects and tunes the sink shared by every recording.
type Config struct {
	// FFmpeg is the path of an ffmpeg binary. Empty records Motion-JPEG AVI.
	FFmpeg      string
	TempDir     string
	JPEGQuality int // 1..100, Motion-JPEG only
	Clock       export.Clock
	Logger      *slog.Logger
}

// Factory returns an export.RecorderFactory that records with cfg.
func Factory(cfg Config) export.RecorderFactory {
	return func(surface export.Surface, opts export.RecorderOptions) (export.StreamRecorder, error) {
		return New(surface, opts, cfg)
	}
}

// Recorder is one recording session bound to a surface.
type Recorder struct {
	surface export.Surface
	opts    export.RecorderOptions
	cfg     Config
	sink    sink

	mu      sync.Mutex
	started bool
	start   time.Time
	written int
	live    *image.RGBA
	frame   *image.RGBA
}

// New creates a recorder for surface. Nothing is captured until Start.
func New(surface export.Surface, opts export.RecorderOptions, cfg Config) (*Recorder, error) {
	if opts.Width <= 0 || opts.Height <= 0 || opts.FPS <= 0 {
		return nil, fmt.Errorf("invalid recording %dx%d at %d fps", opts.Width, opts.Height, opts.FPS)
	}
	if cfg.Clock == nil {
		cfg.Clock = export.SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.JPEGQuality <= 0 {
		cfg.JPEGQuality = 90
	}

	var s sink
	if cfg.FFmpeg != "" {
		s = newWebMSink(cfg.FFmpeg, opts, cfg.TempDir, cfg.Logger)
	} else {
		s = newMJPEGSink(opts, cfg.TempDir, cfg.JPEGQuality)
	}
	return &Recorder{
		surface: surface,
		opts:    opts,
		cfg:     cfg,
		sink:    s,
		frame:   image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height)),
	}, nil
}

// Start opens the sink and starts the recording clock.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.sink.open(ctx); err != nil {
		return fmt.Errorf("opening %s sink: %w", r.sink.mimeType(), err)
	}
	r.started = true
	r.start = r.cfg.Clock.Now()
	r.cfg.Logger.Debug("recording started",
		"mime", r.sink.mimeType(), "fps", r.opts.FPS, "width", r.opts.Width, "height", r.opts.Height)
	return nil
}

// RequestFrame captures the surface into the slot for the current wall time.
func (r *Recorder) RequestFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return ErrNotStarted
	}

	slot := int(r.cfg.Clock.Now().Sub(r.start).Seconds() * float64(r.opts.FPS))
	if r.written > 0 {
		if err := r.fill(slot - r.written); err != nil {
			return err
		}
	}

	if err := r.grab(); err != nil {
		return err
	}
	if err := r.sink.write(r.frame); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	r.written++
	return nil
}

// fill repeats the previous frame into missed slots. At most one second of
// slots is filled; the rest are dropped by moving the recording start, so a
// stalled renderer does not come back to a long run of frozen frames.
func (r *Recorder) fill(missed int) error {
	if missed <= 0 {
		return nil
	}
	if limit := r.opts.FPS; missed > limit {
		dropped := missed - limit
		r.start = r.start.Add(time.Duration(dropped) * (time.Second / time.Duration(r.opts.FPS)))
		r.cfg.Logger.Warn("recorder stalled, dropping missed slots",
			"dropped", dropped, "repeated", limit, "frame", r.written)
		missed = limit
	}
	for range missed {
		if err := r.sink.repeat(); err != nil {
			return fmt.Errorf("repeating frame: %w", err)
		}
		r.written++
	}
	r.cfg.Logger.Debug("repeated previous frame", "slots", missed, "frame", r.written)
	return nil
}

func (r *Recorder) grab() error {
	b := r.surface.Bounds()
	if b.Dx() == r.opts.Width && b.Dy() == r.opts.Height && b.Min == (image.Point{}) {
		return r.surface.ReadPixels(r.frame)
	}
	if r.live == nil || r.live.Rect != b {
		r.live = image.NewRGBA(b)
	}
	if err := r.surface.ReadPixels(r.live); err != nil {
		return err
	}
	xdraw.ApproxBiLinear.Scale(r.frame, r.frame.Rect, r.live, b, xdraw.Src, nil)
	return nil
}

// Frames is the number of frames written to the stream, repeats included.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

// Stop finalizes the stream and returns it.
func (r *Recorder) Stop() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return nil, ErrNotStarted
	}
	r.started = false
	if r.written == 0 {
		r.sink.abort()
		return nil, ErrNoFrames
	}
	data, err := r.sink.close()
	if err != nil {
		return nil, err
	}
	r.cfg.Logger.Debug("recording stopped", "frames", r.written, "bytes", len(data))
	return data, nil
}

// Abort discards the recording.
func (r *Recorder) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		r.started = false
		r.sink.abort()
	}
}

func (r *Recorder) MIMEType() string {
	return r.sink.mimeType()
}

// sink is an encoder for the recorded frames.
type sink interface {
	open(ctx context.Context) error
	write(frame *image.RGBA) error
	// repeat appends the last written frame again without re-encoding it.
	repeat() error
	close() ([]byte, error)
	abort()
	mimeType() string
}
