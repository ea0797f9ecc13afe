package export

import (
	"image"
	"image/color"
	"sort"

	xdraw "golang.org/x/image/draw"
)

// quantize reduces img to a 256-color paletted image with Floyd-Steinberg
// dithering. quality is the pixel sampling stride used to build the
// palette: 1 looks at every pixel, 20 at every twentieth.
func quantize(img *image.RGBA, quality int) *image.Paletted {
	pal := buildPalette(img, quality)
	dst := image.NewPaletted(img.Rect, pal)
	xdraw.FloydSteinberg.Draw(dst, dst.Rect, img, img.Rect.Min)
	return dst
}

// buildPalette picks the most popular colors of a 15-bit histogram.
func buildPalette(img *image.RGBA, stride int) color.Palette {
	if stride < 1 {
		stride = 1
	}

	var counts [1 << 15]uint32
	for i := 0; i+3 < len(img.Pix); i += 4 * stride {
		key := int(img.Pix[i]>>3)<<10 | int(img.Pix[i+1]>>3)<<5 | int(img.Pix[i+2]>>3)
		counts[key]++
	}

	type bucket struct {
		key   int
		count uint32
	}
	var buckets []bucket
	for k, n := range counts {
		if n > 0 {
			buckets = append(buckets, bucket{key: k, count: n})
		}
	}
	// Ties break on the key so the palette is deterministic.
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].count != buckets[j].count {
			return buckets[i].count > buckets[j].count
		}
		return buckets[i].key < buckets[j].key
	})
	if len(buckets) > 256 {
		buckets = buckets[:256]
	}

	pal := make(color.Palette, 0, 256)
	for _, b := range buckets {
		pal = append(pal, color.RGBA{
			R: expand5(b.key >> 10),
			G: expand5(b.key >> 5),
			B: expand5(b.key),
			A: 0xff,
		})
	}
	if len(pal) == 0 {
		pal = append(pal, color.RGBA{A: 0xff})
	}
	return pal
}

func expand5(v int) uint8 {
	v &= 0x1f
	return uint8(v<<3 | v>>2)
}
