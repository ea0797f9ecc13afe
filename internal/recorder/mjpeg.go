package recorder

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"

	"github.com/icza/mjpeg"

	"github.com/Trailblaze-work/loopcast/internal/export"
)

// mjpegSink writes a Motion-JPEG AVI. It needs no external tools.
type mjpegSink struct {
	opts    export.RecorderOptions
	dir     string
	quality int

	path string
	aw   mjpeg.AviWriter
	buf  bytes.Buffer // last encoded frame
}

func newMJPEGSink(opts export.RecorderOptions, dir string, quality int) *mjpegSink {
	return &mjpegSink{opts: opts, dir: dir, quality: quality}
}

func (s *mjpegSink) open(context.Context) error {
	f, err := os.CreateTemp(s.dir, "loopcast-*.avi")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	s.path = f.Name()
	f.Close()

	aw, err := mjpeg.New(s.path, int32(s.opts.Width), int32(s.opts.Height), int32(s.opts.FPS))
	if err != nil {
		os.Remove(s.path)
		return fmt.Errorf("creating avi writer: %w", err)
	}
	s.aw = aw
	return nil
}

func (s *mjpegSink) write(frame *image.RGBA) error {
	s.buf.Reset()
	if err := jpeg.Encode(&s.buf, frame, &jpeg.Options{Quality: s.quality}); err != nil {
		return fmt.Errorf("encoding jpeg: %w", err)
	}
	return s.aw.AddFrame(s.buf.Bytes())
}

func (s *mjpegSink) repeat() error {
	return s.aw.AddFrame(s.buf.Bytes())
}

func (s *mjpegSink) close() ([]byte, error) {
	defer os.Remove(s.path)
	if err := s.aw.Close(); err != nil {
		return nil, fmt.Errorf("closing avi: %w", err)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading avi: %w", err)
	}
	return data, nil
}

func (s *mjpegSink) abort() {
	if s.aw != nil {
		s.aw.Close()
	}
	os.Remove(s.path)
}

func (s *mjpegSink) mimeType() string {
	return "video/x-msvideo"
}
