package export

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// State is the orchestrator's position in one export.
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateEncoding
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateEncoding:
		return "encoding"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is a finished export.
type Result struct {
	Data     []byte
	MIMEType string
	Frames   int
	Elapsed  time.Duration
}

// Options configures an Exporter.
type Options struct {
	Settle      SettleOptions
	Clock       Clock
	Logger      *slog.Logger
	NewRecorder RecorderFactory // required for video exports
	Workers     int             // GIF quantizer workers; 0 = NumCPU
}

// Exporter owns a renderer's override slot for the duration of an export.
// Only one export per renderer runs at a time.
type Exporter struct {
	renderer Renderer
	opts     Options
	busy     atomic.Bool

	mu    sync.Mutex
	state State
}

// NewExporter creates an exporter for r.
func NewExporter(r Renderer, opts Options) *Exporter {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Settle.Cycles <= 0 {
		opts.Settle.Cycles = DefaultSettle().Cycles
	}
	if opts.Settle.Fallback <= 0 {
		opts.Settle.Fallback = DefaultSettle().Fallback
	}
	return &Exporter{renderer: r, opts: opts}
}

// State returns the state of the current or most recent export.
func (e *Exporter) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Exporter) setState(s State, logger *slog.Logger) {
	e.mu.Lock()
	prev := e.state
	e.state = s
	e.mu.Unlock()
	logger.Info("export state", "from", prev.String(), "to", s.String())
}

// Export runs req against the renderer and returns the complete output.
// On any failure no partial output is returned. The renderer's override is
// cleared before Export returns, whatever the outcome.
func (e *Exporter) Export(ctx context.Context, req Request, onProgress ProgressFunc) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	strategy, err := strategyFor(req.Kind)
	if err != nil {
		return nil, err
	}
	if !e.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer e.busy.Store(false)

	logger := e.opts.Logger.With("kind", string(req.Kind), "loop", string(req.Loop))
	lease := newOverride(e.renderer, logger)
	defer lease.Release()

	started := e.opts.Clock.Now()
	j := &job{
		req:      req,
		renderer: e.renderer,
		acq:      newAcquirer(e.renderer, lease, req.Width, req.Height, e.opts.Settle, e.opts.Clock, logger),
		progress: newProgress(onProgress),
		clock:    e.opts.Clock,
		logger:   logger,
		opts:     e.opts,
	}
	j.encoding = func() {
		lease.Release()
		e.setState(StateEncoding, logger)
	}

	e.setState(StateCapturing, logger)
	res, err := strategy.export(ctx, j)
	if err != nil {
		lease.Release()
		e.setState(StateFailed, logger)
		logger.Error("export failed", "error", err)
		return nil, err
	}

	res.Elapsed = e.opts.Clock.Now().Sub(started)
	j.progress.done()
	e.setState(StateDone, logger)
	logger.Info("export finished",
		"frames", res.Frames, "bytes", len(res.Data), "mime", res.MIMEType, "elapsed", res.Elapsed)
	return res, nil
}

// job carries one export's collaborators through its strategy.
type job struct {
	req      Request
	renderer Renderer
	acq      *Acquirer
	progress *progress
	clock    Clock
	logger   *slog.Logger
	opts     Options

	// encoding leaves the capture phase: it releases the override so the
	// renderer resumes while frames are compressed.
	encoding func()
}

// encoderStrategy is one of the closed set of encoder back ends.
type encoderStrategy interface {
	export(ctx context.Context, j *job) (*Result, error)
}

func strategyFor(k Kind) (encoderStrategy, error) {
	switch k {
	case KindGIF:
		return gifStrategy{}, nil
	case KindVideo:
		return videoStrategy{}, nil
	case KindStill:
		return stillStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown encoder %q", ErrInvalidRequest, k)
	}
}

// gifStrategy realizes ping-pong by mirroring captured frames.
type gifStrategy struct{}

func (gifStrategy) export(ctx context.Context, j *job) (*Result, error) {
	sched, err := ComputeSchedule(j.req.Duration, j.req.FPS, j.req.Loop, KindGIF)
	if err != nil {
		return nil, err
	}

	enc := BeginGIF(j.req.Width, j.req.Height, j.req.Quality, j.opts.Workers)
	mirrored := len(sched.Mirror) > 0
	var retained []*image.RGBA
	if mirrored {
		retained = make([]*image.RGBA, 0, len(sched.Samples))
	}

	capture := j.progress.phase(0, 0.5)
	for i, t := range sched.Samples {
		frame, err := j.acq.Still(ctx, i, t)
		if err != nil {
			return nil, err
		}
		owned := cloneRGBA(frame.Pixels)
		if mirrored {
			retained = append(retained, owned)
		}
		if err := enc.AddFrame(owned, sched.Delays[i]); err != nil {
			return nil, err
		}
		j.logger.Debug("captured frame", "frame", i, "t", t, "delay_ms", sched.Delays[i])
		capture(float64(i+1) / float64(len(sched.Samples)))
	}
	j.encoding()

	encodeFrom := 0.5
	if mirrored {
		mirror := j.progress.phase(0.5, 0.55)
		for k, idx := range sched.Mirror {
			if err := enc.AddFrame(retained[idx], sched.Delays[len(sched.Samples)+k]); err != nil {
				return nil, err
			}
			mirror(float64(k+1) / float64(len(sched.Mirror)))
		}
		encodeFrom = 0.55
	}

	data, err := enc.Finish(ctx, j.progress.phase(encodeFrom, 1))
	if err != nil {
		return nil, err
	}
	return &Result{Data: data, MIMEType: "image/gif", Frames: enc.Frames()}, nil
}

// videoStrategy realizes ping-pong through the sample times alone.
type videoStrategy struct{}

func (videoStrategy) export(ctx context.Context, j *job) (*Result, error) {
	if j.opts.NewRecorder == nil {
		return nil, &EncoderError{Stage: "start", Err: fmt.Errorf("no stream recorder configured")}
	}
	sched, err := ComputeSchedule(j.req.Duration, j.req.FPS, j.req.Loop, KindVideo)
	if err != nil {
		return nil, err
	}

	rec, err := j.opts.NewRecorder(j.renderer, RecorderOptions{
		Width:   j.req.Width,
		Height:  j.req.Height,
		FPS:     j.req.FPS,
		Bitrate: j.req.Bitrate,
	})
	if err != nil {
		return nil, &EncoderError{Stage: "start", Err: err}
	}
	enc, err := BeginVideo(ctx, rec, j.acq, j.req.FPS, j.clock, j.logger)
	if err != nil {
		return nil, err
	}

	capture := j.progress.phase(0, 0.95)
	for i, t := range sched.Samples {
		if err := enc.Tick(ctx, i, t); err != nil {
			rec.Abort()
			return nil, err
		}
		capture(float64(i+1) / float64(len(sched.Samples)))
	}
	j.logger.Debug("video capture paced", "frames", len(sched.Samples), "wall", enc.Elapsed())
	j.encoding()

	data, err := enc.Finish()
	if err != nil {
		return nil, err
	}
	return &Result{Data: data, MIMEType: rec.MIMEType(), Frames: len(sched.Samples)}, nil
}

// stillStrategy captures the renderer's current time once.
type stillStrategy struct{}

func (stillStrategy) export(ctx context.Context, j *job) (*Result, error) {
	t := j.renderer.CurrentTime()
	frame, err := j.acq.Still(ctx, 0, t)
	if err != nil {
		return nil, err
	}
	j.encoding()

	data, mime, err := EncodeStill(frame.Pixels, j.req.ImageFormat, j.req.JPEGQuality)
	if err != nil {
		return nil, err
	}
	return &Result{Data: data, MIMEType: mime, Frames: 1}, nil
}
