package export

import (
	"fmt"
	"math"
)

// LoopMode controls how the exported animation returns to its first frame.
type LoopMode string

const (
	LoopNormal   LoopMode = "normal"   // 0 -> duration, then jump back
	LoopPingPong LoopMode = "pingpong" // forward then backward, no seam
)

// Kind selects the encoder back end.
type Kind string

const (
	KindGIF   Kind = "gif"
	KindVideo Kind = "video"
	KindStill Kind = "image"
)

// ImageFormat selects the still image codec.
type ImageFormat string

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpg"
)

// Export size limits applied by callers before a request reaches the pipeline.
const (
	MinSize = 128
	MaxSize = 2048
)

// Request describes one export. It is not modified once the export starts.
type Request struct {
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Duration    float64     `json:"duration"` // seconds
	FPS         int         `json:"fps"`
	Quality     int         `json:"quality"` // GIF only, 1 (best) .. 20 (fastest)
	Loop        LoopMode    `json:"loop"`
	Kind        Kind        `json:"kind"`
	ImageFormat ImageFormat `json:"image_format,omitempty"`
	JPEGQuality float64     `json:"jpeg_quality,omitempty"` // 0..1
	Bitrate     int         `json:"bitrate,omitempty"`      // video hint, bits per second
}

// DefaultRequest returns sensible defaults.
func DefaultRequest() Request {
	return Request{
		Width:       512,
		Height:      512,
		Duration:    3,
		FPS:         30,
		Quality:     10,
		Loop:        LoopNormal,
		Kind:        KindGIF,
		ImageFormat: ImagePNG,
		JPEGQuality: 0.92,
		Bitrate:     25_000_000,
	}
}

// ClampSize clamps a requested export dimension to [MinSize, MaxSize].
func ClampSize(v int) int {
	if v < MinSize {
		return MinSize
	}
	if v > MaxSize {
		return MaxSize
	}
	return v
}

// FrameCount is the number of frames a normal loop of this request contains.
func (r Request) FrameCount() int {
	return int(math.Round(r.Duration * float64(r.FPS)))
}

// TotalMillis is the requested playback length in whole milliseconds.
func (r Request) TotalMillis() int {
	return int(math.Round(r.Duration * 1000))
}

// Validate checks the request before any renderer state is touched.
func (r Request) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidRequest, r.Width, r.Height)
	}
	switch r.Loop {
	case LoopNormal, LoopPingPong:
	default:
		return fmt.Errorf("%w: unknown loop mode %q", ErrInvalidRequest, r.Loop)
	}

	switch r.Kind {
	case KindStill:
		switch r.ImageFormat {
		case ImagePNG, ImageJPEG, "":
		default:
			return fmt.Errorf("%w: unknown image format %q", ErrInvalidRequest, r.ImageFormat)
		}
		return nil
	case KindGIF:
		if r.Quality < 1 || r.Quality > 20 {
			return fmt.Errorf("%w: gif quality %d outside 1..20", ErrInvalidRequest, r.Quality)
		}
	case KindVideo:
	default:
		return fmt.Errorf("%w: unknown encoder %q", ErrInvalidRequest, r.Kind)
	}

	if r.FPS < 1 || r.FPS > 120 {
		return fmt.Errorf("%w: fps %d outside 1..120", ErrInvalidRequest, r.FPS)
	}
	if r.Duration <= 0 || r.Duration > 60 {
		return fmt.Errorf("%w: duration %.2fs outside (0, 60]", ErrInvalidRequest, r.Duration)
	}
	if r.FrameCount() < 1 {
		return fmt.Errorf("%w: %.3fs at %d fps yields no frames", ErrInvalidRequest, r.Duration, r.FPS)
	}
	return nil
}

// ExtensionFor returns the file extension, without the dot, for an
// export's MIME type.
func ExtensionFor(mimeType string) string {
	switch mimeType {
	case "image/gif":
		return "gif"
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	case "video/webm":
		return "webm"
	case "video/x-msvideo":
		return "avi"
	default:
		return "bin"
	}
}
