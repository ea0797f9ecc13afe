package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// StreamRecorder is a continuous capture session bound to the live surface.
// It timestamps frames by real elapsed time, not by logical frame index.
type StreamRecorder interface {
	Start(ctx context.Context) error
	// Stop ends the session and returns the encoded stream.
	Stop() ([]byte, error)
	// Abort ends the session and discards everything recorded.
	Abort()
	MIMEType() string
}

// RecorderOptions configures a stream recorder for one export.
type RecorderOptions struct {
	Width   int
	Height  int
	FPS     int
	Bitrate int
}

// RecorderFactory binds a new recorder to the renderer's surface.
type RecorderFactory func(surface Surface, opts RecorderOptions) (StreamRecorder, error)

// VideoEncoder paces a stream recording to the wall clock. Each tick is
// followed by a wait until frame i+1 is due relative to the session start,
// so acquisition overhead does not stretch the output.
type VideoEncoder struct {
	rec      StreamRecorder
	acq      *Acquirer
	clock    Clock
	logger   *slog.Logger
	interval time.Duration
	start    time.Time
	lagging  bool
}

// BeginVideo starts the recorder before any frame is requested.
func BeginVideo(ctx context.Context, rec StreamRecorder, acq *Acquirer, fps int, clock Clock, logger *slog.Logger) (*VideoEncoder, error) {
	if err := rec.Start(ctx); err != nil {
		return nil, &EncoderError{Stage: "start", Err: err}
	}
	return &VideoEncoder{
		rec:      rec,
		acq:      acq,
		clock:    clock,
		logger:   logger,
		interval: time.Second / time.Duration(fps),
		start:    clock.Now(),
	}, nil
}

// Tick shows sample t on the recorded surface and waits out the rest of
// frame index's real-time slot.
func (v *VideoEncoder) Tick(ctx context.Context, index int, t float64) error {
	if err := v.acq.Stream(ctx, index, t, v.rec); err != nil {
		return err
	}

	due := time.Duration(index+1) * v.interval
	remaining := due - v.clock.Now().Sub(v.start)
	if remaining > 0 {
		v.lagging = false
		if err := v.clock.Sleep(ctx, remaining); err != nil {
			return &AcquisitionError{Frame: index, Time: t, Err: err}
		}
		return nil
	}

	// Behind schedule: no correction beyond the recomputation above.
	if -remaining > v.interval && !v.lagging {
		v.lagging = true
		v.logger.Warn("video capture behind real time",
			"frame", index, "behind", -remaining, "interval", v.interval)
	}
	return nil
}

// Finish stops the recording and returns the encoded stream.
func (v *VideoEncoder) Finish() ([]byte, error) {
	data, err := v.rec.Stop()
	if err != nil {
		return nil, &EncoderError{Stage: "finish", Err: err}
	}
	if len(data) == 0 {
		return nil, &EncoderError{Stage: "finish", Err: fmt.Errorf("recorder produced no data")}
	}
	return data, nil
}

// Elapsed is the wall-clock time since the session started.
func (v *VideoEncoder) Elapsed() time.Duration {
	return v.clock.Now().Sub(v.start)
}
