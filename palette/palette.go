// Package palette derives dominant colors from uploaded images. It is a
// deliberately cheap approximation: exact 24-bit hex bucketing over a
// bounded pixel sample, not perceptual clustering.
package palette

import (
	"fmt"
	"image"
	"io"
	"sort"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Size is the number of palette entries returned for an image item.
const Size = 5

// maxSamples bounds the work per image regardless of resolution.
const maxSamples = 1000

// padColor fills the palette when an image has fewer distinct colors.
const padColor = "#000000"

// Fallback is the palette used when an image cannot be decoded.
var Fallback = []string{"#000000", "#ffffff", "#cccccc", "#999999", "#666666"}

// Decode reads an image in any of the registered formats (PNG, JPEG,
// GIF, WebP).
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	return img, err
}

// Extract samples img at a stride keeping the total under ~1000 pixels,
// skips near-transparent pixels, buckets by exact hex value and returns
// the top n colors by frequency, padded with black when fewer distinct
// colors exist. Ties break on hex order so the result is deterministic.
func Extract(img image.Image, n int) []string {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	total := width * height
	if total == 0 {
		return pad(nil, n)
	}

	stride := total / maxSamples
	if stride < 1 {
		stride = 1
	}

	counts := make(map[string]int)
	for i := 0; i < total; i += stride {
		x := bounds.Min.X + i%width
		y := bounds.Min.Y + i/width
		r, g, b, a := img.At(x, y).RGBA()
		// Skip near-transparent pixels.
		if a>>8 < 128 {
			continue
		}
		hex := fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
		counts[hex]++
	}

	colors := make([]string, 0, len(counts))
	for hex := range counts {
		colors = append(colors, hex)
	}
	sort.Slice(colors, func(i, j int) bool {
		if counts[colors[i]] != counts[colors[j]] {
			return counts[colors[i]] > counts[colors[j]]
		}
		return colors[i] < colors[j]
	})

	if len(colors) > n {
		colors = colors[:n]
	}
	return pad(colors, n)
}

func pad(colors []string, n int) []string {
	out := append([]string(nil), colors...)
	for len(out) < n {
		out = append(out, padColor)
	}
	return out
}
