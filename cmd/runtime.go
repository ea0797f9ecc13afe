package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Trailblaze-work/loopcast/internal/export"
	"github.com/Trailblaze-work/loopcast/internal/history"
	"github.com/Trailblaze-work/loopcast/internal/logging"
	"github.com/Trailblaze-work/loopcast/internal/recorder"
	"github.com/Trailblaze-work/loopcast/internal/renderer"
)

// loadParams reads a params file when one is given and applies a pattern
// override on top.
func loadParams(path, pattern string) (renderer.Params, error) {
	params := renderer.DefaultParams()
	if path != "" {
		var err error
		if params, err = renderer.LoadParams(path); err != nil {
			return params, fmt.Errorf("loading params: %w", err)
		}
	}
	if pattern != "" {
		params.Pattern = pattern
	}
	if err := params.Validate(); err != nil {
		return params, fmt.Errorf("invalid params: %w", err)
	}
	return params, nil
}

// startCanvas creates a canvas and drives its composite passes until ctx is
// done. The returned stop function ends the loop and releases the canvas.
func startCanvas(ctx context.Context, width, height int, params renderer.Params) (*renderer.Canvas, func(), error) {
	canvas, err := renderer.New(width, height, renderer.Options{
		RefreshHz: cfg.RefreshHz,
		Params:    params,
		Logger:    logging.WithComponent(logger, "renderer"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating canvas: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := canvas.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("canvas loop stopped", "error", err)
		}
	}()

	stop := func() {
		cancel()
		<-done
		if err := canvas.Close(); err != nil {
			logger.Warn("closing canvas", "error", err)
		}
	}
	return canvas, stop, nil
}

// newExporter wires an exporter to canvas with the configured settle and
// recording back end.
func newExporter(canvas *renderer.Canvas) *export.Exporter {
	ff, err := recorder.ResolveFFmpeg(cfg.FFmpeg)
	if err != nil {
		logger.Debug("recording video as Motion-JPEG", "reason", err)
		ff = ""
	}

	return export.NewExporter(canvas, export.Options{
		Settle: export.SettleOptions{
			Cycles:   cfg.SettleCycles,
			Fallback: 100 * time.Millisecond,
		},
		Logger: logging.WithComponent(logger, "export"),
		NewRecorder: recorder.Factory(recorder.Config{
			FFmpeg: ff,
			Logger: logging.WithComponent(logger, "recorder"),
		}),
	})
}

// openHistory opens the export history database under the data directory.
func openHistory() (*history.Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return history.Open(cfg.DBPath(), logging.WithComponent(logger, "history"))
}

// recordable reports whether an export outcome belongs in the history.
// Requests rejected before they touched the canvas are not recorded.
func recordable(err error) bool {
	return !errors.Is(err, export.ErrBusy) && !errors.Is(err, export.ErrInvalidRequest)
}
