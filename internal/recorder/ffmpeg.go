package recorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Trailblaze-work/loopcast/internal/export"
)

// ErrNoFFmpeg is returned by ResolveFFmpeg when no binary is usable.
var ErrNoFFmpeg = errors.New("ffmpeg not available")

const maxStderrBytes = 8 * 1024

// ResolveFFmpeg finds the ffmpeg binary to record WebM with. "off" disables
// ffmpeg; an empty preference searches PATH.
func ResolveFFmpeg(preferred string) (string, error) {
	switch preferred {
	case "off", "none", "false":
		return "", ErrNoFFmpeg
	case "":
		p, err := exec.LookPath("ffmpeg")
		if err != nil {
			return "", ErrNoFFmpeg
		}
		return p, nil
	}
	p, err := exec.LookPath(preferred)
	if err != nil {
		return "", fmt.Errorf("configured ffmpeg %q not found: %w", preferred, ErrNoFFmpeg)
	}
	return p, nil
}

// webmSink pipes raw RGBA frames into ffmpeg, which encodes VP9 WebM.
type webmSink struct {
	ffmpeg string
	opts   export.RecorderOptions
	dir    string
	logger *slog.Logger

	path   string
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	last   []byte
}

func newWebMSink(ffmpeg string, opts export.RecorderOptions, dir string, logger *slog.Logger) *webmSink {
	return &webmSink{ffmpeg: ffmpeg, opts: opts, dir: dir, logger: logger}
}

func (s *webmSink) args() []string {
	bitrate := s.opts.Bitrate
	if bitrate <= 0 {
		bitrate = 25_000_000
	}
	return []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", s.opts.Width, s.opts.Height),
		"-r", strconv.Itoa(s.opts.FPS),
		"-i", "pipe:0",
		"-c:v", "libvpx-vp9",
		"-b:v", strconv.Itoa(bitrate),
		"-deadline", "realtime",
		"-pix_fmt", "yuv420p",
		"-f", "webm",
		s.path,
	}
}

func (s *webmSink) open(ctx context.Context) error {
	f, err := os.CreateTemp(s.dir, "loopcast-*.webm")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	s.path = f.Name()
	f.Close()

	s.cmd = exec.CommandContext(ctx, s.ffmpeg, s.args()...)
	s.cmd.Stdout = io.Discard
	s.cmd.Stderr = &limitedWriter{w: &s.stderr, limit: maxStderrBytes}
	stdin, err := s.cmd.StdinPipe()
	if err != nil {
		os.Remove(s.path)
		return fmt.Errorf("ffmpeg stdin: %w", err)
	}
	s.stdin = stdin

	s.logger.Debug("starting ffmpeg", "path", s.ffmpeg, "args", s.args())
	if err := s.cmd.Start(); err != nil {
		os.Remove(s.path)
		return fmt.Errorf("starting ffmpeg: %w", err)
	}
	return nil
}

func (s *webmSink) write(frame *image.RGBA) error {
	s.last = frame.Pix
	return s.pipe(s.last)
}

// repeat re-sends the last frame. The recorder reuses one frame buffer and
// only repeats before grabbing the next frame, so last is still intact.
func (s *webmSink) repeat() error {
	return s.pipe(s.last)
}

func (s *webmSink) pipe(pix []byte) error {
	if _, err := s.stdin.Write(pix); err != nil {
		return fmt.Errorf("piping frame to ffmpeg: %w (%s)", err, s.tail())
	}
	return nil
}

func (s *webmSink) close() ([]byte, error) {
	defer os.Remove(s.path)
	s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, s.tail())
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading webm: %w", err)
	}
	return data, nil
}

func (s *webmSink) abort() {
	if s.cmd != nil && s.cmd.Process != nil {
		s.stdin.Close()
		s.cmd.Process.Kill()
		s.cmd.Wait()
	}
	os.Remove(s.path)
}

func (s *webmSink) mimeType() string {
	return "video/webm"
}

func (s *webmSink) tail() string {
	return strings.TrimSpace(s.stderr.String())
}

// limitedWriter keeps only the last limit bytes written to it.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		b := lw.w.Bytes()
		tail := append([]byte(nil), b[len(b)-lw.limit:]...)
		lw.w.Reset()
		lw.w.Write(tail)
	}
	return n, nil
}
