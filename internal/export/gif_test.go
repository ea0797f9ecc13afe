package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"testing"
)

func solidFrame(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

func TestCentiseconds_NoDrift(t *testing.T) {
	ms := DisplayDurations(3000, 90) // 33 or 34ms each
	cs := centiseconds(ms)
	sum := 0
	for _, d := range cs {
		sum += d
	}
	if sum != 300 {
		t.Errorf("centiseconds sum: got %d, want 300", sum)
	}
}

func TestGifEncoder_RoundTrip(t *testing.T) {
	enc := BeginGIF(16, 8, 10, 2)
	red := solidFrame(16, 8, color.RGBA{R: 255, A: 255})
	blue := solidFrame(16, 8, color.RGBA{B: 255, A: 255})

	for i, f := range []*image.RGBA{red, blue, red} {
		if err := enc.AddFrame(f, 100); err != nil {
			t.Fatalf("AddFrame %d error: %v", i, err)
		}
	}

	var calls []float64
	data, err := enc.Finish(context.Background(), func(p float64) { calls = append(calls, p) })
	if err != nil {
		t.Fatalf("Finish error: %v", err)
	}

	anim, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding gif: %v", err)
	}
	if len(anim.Image) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(anim.Image))
	}
	for i, d := range anim.Delay {
		if d != 10 {
			t.Errorf("frame %d delay: got %dcs, want 10cs", i, d)
		}
	}
	if anim.Config.Width != 16 || anim.Config.Height != 8 {
		t.Errorf("config: got %dx%d, want 16x8", anim.Config.Width, anim.Config.Height)
	}

	r, _, _, _ := anim.Image[0].At(0, 0).RGBA()
	if r>>8 < 250 {
		t.Errorf("first frame should be red, got r=%d", r>>8)
	}

	// The repeated red frame is quantized once.
	if len(calls) != 2 {
		t.Errorf("expected 2 quantize progress calls, got %d", len(calls))
	}
	if len(calls) > 0 && calls[len(calls)-1] != 1 {
		t.Errorf("last progress: got %v, want 1", calls[len(calls)-1])
	}
}

func TestGifEncoder_RejectsWrongSize(t *testing.T) {
	enc := BeginGIF(16, 16, 10, 1)
	err := enc.AddFrame(solidFrame(8, 8, color.RGBA{A: 255}), 50)
	var encErr *EncoderError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected EncoderError, got %v", err)
	}
}

func TestGifEncoder_FinishWithoutFrames(t *testing.T) {
	enc := BeginGIF(16, 16, 10, 1)
	if _, err := enc.Finish(context.Background(), nil); err == nil {
		t.Error("expected error for empty gif")
	}
}

func TestGifEncoder_FinishCancelled(t *testing.T) {
	enc := BeginGIF(16, 16, 10, 1)
	for range 4 {
		enc.AddFrame(solidFrame(16, 16, color.RGBA{G: 200, A: 255}), 40)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := enc.Finish(ctx, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBuildPalette_Deterministic(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := range 64 {
		for x := range 64 {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 90, A: 255})
		}
	}
	a := buildPalette(img, 1)
	b := buildPalette(img, 1)
	if len(a) != 256 {
		t.Fatalf("expected a full 256-color palette, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("palette differs at %d", i)
		}
	}

	if got := buildPalette(solidFrame(4, 4, color.RGBA{R: 255, A: 255}), 20); len(got) != 1 {
		t.Errorf("solid image palette: got %d colors, want 1", len(got))
	}
}
