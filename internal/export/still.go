package export

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"math"
)

// EncodeStill encodes a single frame as PNG or JPEG. jpegQuality is in
// [0, 1] and ignored for PNG.
func EncodeStill(img *image.RGBA, format ImageFormat, jpegQuality float64) ([]byte, string, error) {
	var buf bytes.Buffer
	if format == ImageJPEG {
		q := int(math.Round(jpegQuality * 100))
		q = max(1, min(100, q))
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
			return nil, "", &EncoderError{Stage: "jpeg", Err: err}
		}
		return buf.Bytes(), "image/jpeg", nil
	}

	if err := png.Encode(&buf, img); err != nil {
		return nil, "", &EncoderError{Stage: "png", Err: err}
	}
	return buf.Bytes(), "image/png", nil
}
