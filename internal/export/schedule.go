package export

import (
	"fmt"
	"math"
)

// Schedule is the capture plan for one export, computed once before capture.
type Schedule struct {
	// Samples are the simulation times to capture, in capture order.
	Samples []float64

	// Mirror lists Samples indices that are re-emitted, in order, after the
	// forward pass. Only GIF ping-pong uses it.
	Mirror []int

	// Delays holds the display duration in milliseconds of every output
	// frame (forward pass then mirror). Only GIF uses it.
	Delays []int
}

// OutputFrames is the number of frames the encoder emits.
func (s Schedule) OutputFrames() int {
	return len(s.Samples) + len(s.Mirror)
}

// TotalDelay is the sum of all per-frame display durations in milliseconds.
func (s Schedule) TotalDelay() int {
	total := 0
	for _, d := range s.Delays {
		total += d
	}
	return total
}

// ComputeSchedule plans the sample times for a GIF or video export.
//
// GIF ping-pong captures only the forward half and mirrors it; video
// ping-pong maps the same frame budget onto a triangle wave because a
// continuous recorder cannot reuse frames.
func ComputeSchedule(duration float64, fps int, loop LoopMode, kind Kind) (Schedule, error) {
	if fps < 1 || duration <= 0 {
		return Schedule{}, fmt.Errorf("%w: duration %.3fs at %d fps", ErrInvalidRequest, duration, fps)
	}
	frameCount := int(math.Round(duration * float64(fps)))
	if frameCount < 1 {
		return Schedule{}, fmt.Errorf("%w: %.3fs at %d fps yields no frames", ErrInvalidRequest, duration, fps)
	}

	switch kind {
	case KindGIF:
		var s Schedule
		if loop == LoopPingPong {
			s = pingPongMirror(frameCount, fps)
		} else {
			s.Samples = linearSamples(frameCount, duration)
		}
		s.Delays = DisplayDurations(int(math.Round(duration*1000)), s.OutputFrames())
		return s, nil
	case KindVideo:
		if loop == LoopPingPong {
			return Schedule{Samples: triangleSamples(frameCount, duration)}, nil
		}
		return Schedule{Samples: linearSamples(frameCount, duration)}, nil
	default:
		return Schedule{}, fmt.Errorf("%w: no frame schedule for %q", ErrInvalidRequest, kind)
	}
}

// linearSamples spreads n samples over [0, duration). The last sample stops
// one frame short of duration so the loop seam does not repeat frame 0.
func linearSamples(n int, duration float64) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = float64(i) / float64(n) * duration
	}
	return samples
}

// pingPongMirror captures ceil(n/2)+1 forward frames and mirrors the
// interior ones. The first and last captured frames are the loop's shared
// endpoints and are never re-emitted.
func pingPongMirror(n, fps int) Schedule {
	captureCount := (n+1)/2 + 1
	effective := float64(captureCount-1) / float64(fps)

	samples := make([]float64, captureCount)
	for i := range samples {
		samples[i] = float64(i) / float64(captureCount-1) * effective
	}

	var mirror []int
	for i := captureCount - 2; i >= 1; i-- {
		mirror = append(mirror, i)
	}
	return Schedule{Samples: samples, Mirror: mirror}
}

// triangleSamples maps n frames onto 0 -> duration/2 -> 0. Frame n would be
// back at 0, so the sequence loops without a seam. Frame n/2 is exactly
// duration/2; an odd n holds the peak for two frames.
func triangleSamples(n int, duration float64) []float64 {
	samples := make([]float64, n)
	peak := n / 2
	if peak == 0 {
		return samples
	}
	for i := range samples {
		step := i
		if i > peak {
			step = n - i
		}
		samples[i] = float64(step) / float64(peak) * duration / 2
	}
	return samples
}

// DisplayDurations splits totalMs across n frames with running-remainder
// correction: each delay is the cumulative target minus what was already
// emitted, so the delays always sum to exactly totalMs.
func DisplayDurations(totalMs, n int) []int {
	if n <= 0 {
		return nil
	}
	delays := make([]int, n)
	emitted := 0
	for i := range delays {
		// round((i+1) * totalMs / n), half away from zero
		target := (2*(i+1)*totalMs + n) / (2 * n)
		delays[i] = target - emitted
		emitted = target
	}
	return delays
}
