package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"runtime"
	"sync"
)

// GifEncoder accumulates frames with per-frame delays and compresses them
// in Finish. Frames may be submitted more than once (ping-pong mirror);
// each distinct frame is quantized only once.
type GifEncoder struct {
	width   int
	height  int
	quality int
	workers int

	frames []*image.RGBA
	delays []int // milliseconds
}

// BeginGIF starts a GIF encoding. quality is passed through to the
// quantizer: lower is better, higher is faster.
func BeginGIF(width, height, quality, workers int) *GifEncoder {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &GifEncoder{width: width, height: height, quality: quality, workers: workers}
}

// AddFrame appends frame with its display duration. The encoder keeps a
// reference; frame must not be modified afterwards.
func (g *GifEncoder) AddFrame(frame *image.RGBA, delayMs int) error {
	if frame.Rect.Dx() != g.width || frame.Rect.Dy() != g.height {
		return &EncoderError{Stage: "add frame", Err: fmt.Errorf("frame is %dx%d, want %dx%d",
			frame.Rect.Dx(), frame.Rect.Dy(), g.width, g.height)}
	}
	if delayMs < 0 {
		return &EncoderError{Stage: "add frame", Err: fmt.Errorf("negative delay %dms", delayMs)}
	}
	g.frames = append(g.frames, frame)
	g.delays = append(g.delays, delayMs)
	return nil
}

// Frames is the number of frames submitted so far.
func (g *GifEncoder) Frames() int {
	return len(g.frames)
}

// Finish quantizes all frames on a worker pool, reporting progress in
// [0, 1], and returns the encoded GIF. It loops forever.
func (g *GifEncoder) Finish(ctx context.Context, onProgress ProgressFunc) ([]byte, error) {
	if len(g.frames) == 0 {
		return nil, &EncoderError{Stage: "finish", Err: fmt.Errorf("no frames")}
	}

	index := make(map[*image.RGBA]int)
	var unique []*image.RGBA
	for _, f := range g.frames {
		if _, ok := index[f]; !ok {
			index[f] = len(unique)
			unique = append(unique, f)
		}
	}

	paletted, err := g.quantizeAll(ctx, unique, onProgress)
	if err != nil {
		return nil, err
	}

	anim := &gif.GIF{
		Image:     make([]*image.Paletted, len(g.frames)),
		Delay:     centiseconds(g.delays),
		LoopCount: 0,
		Config: image.Config{
			Width:  g.width,
			Height: g.height,
		},
	}
	for i, f := range g.frames {
		anim.Image[i] = paletted[index[f]]
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, &EncoderError{Stage: "finish", Err: err}
	}
	return buf.Bytes(), nil
}

func (g *GifEncoder) quantizeAll(ctx context.Context, frames []*image.RGBA, onProgress ProgressFunc) ([]*image.Paletted, error) {
	out := make([]*image.Paletted, len(frames))
	jobs := make(chan int)

	var (
		mu   sync.Mutex
		done int
		wg   sync.WaitGroup
	)
	workers := min(g.workers, len(frames))
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = quantize(frames[i], g.quality)
				mu.Lock()
				done++
				if onProgress != nil {
					onProgress(float64(done) / float64(len(frames)))
				}
				mu.Unlock()
			}
		}()
	}

	var err error
feed:
	for i := range frames {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		return nil, &EncoderError{Stage: "quantize", Err: err}
	}
	return out, nil
}

// centiseconds converts millisecond delays to GIF's 1/100s unit from the
// cumulative timeline, so rounding never accumulates across frames.
func centiseconds(delaysMs []int) []int {
	out := make([]int, len(delaysMs))
	cumMs, emitted := 0, 0
	for i, d := range delaysMs {
		cumMs += d
		target := (cumMs + 5) / 10
		out[i] = target - emitted
		emitted = target
	}
	return out
}
