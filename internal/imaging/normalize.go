package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// pixelArtDirective is appended to the upstream prompt whenever a
// sub-canonical profile is requested. Providers render cleaner tiles when
// told to avoid gradients before the downscale.
const pixelArtDirective = "flat colors, no gradients, bold outlines, simple shapes"

// StyleDirective returns the prompt suffix for the given profile, or an
// empty string when the profile renders at canonical resolution.
func StyleDirective(p Profile) string {
	if p.Canonical() {
		return ""
	}
	return pixelArtDirective
}

// ApplyStyle appends the profile's style directive to a prompt.
func ApplyStyle(prompt string, p Profile) string {
	directive := StyleDirective(p)
	if directive == "" {
		return prompt
	}
	if prompt == "" {
		return directive
	}
	return prompt + ", " + directive
}

// Normalize converts a raw square image into the canonical canvas for the
// given profile. Canonical profiles pass through untouched unless the source
// is not already canonical-sized; sub-canonical profiles are downscaled,
// optionally quantized, and blown back up with nearest-neighbor sampling so
// the logical pixels stay crisp. The result is always exactly
// CanonicalSize x CanonicalSize.
func Normalize(src image.Image, p Profile) image.Image {
	if p.Canonical() {
		b := src.Bounds()
		if b.Dx() == CanonicalSize && b.Dy() == CanonicalSize {
			return src
		}
		return scaleNearest(src, CanonicalSize, CanonicalSize)
	}
	tile := scaleNearest(src, p.Width, p.Height)
	if p.PaletteSize > 0 {
		tile = Quantize(tile, p.PaletteSize)
	}
	return scaleNearest(tile, CanonicalSize, CanonicalSize)
}

// NormalizeBytes decodes encoded image data, runs it through Normalize and
// re-encodes the canonical result as PNG. It also reports the dominant color
// of the final image for theming.
func NormalizeBytes(data []byte, p Profile) (out []byte, colorHex string, err error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode provider image: %w", err)
	}
	final := Normalize(src, p)
	var buf bytes.Buffer
	if err := png.Encode(&buf, final); err != nil {
		return nil, "", fmt.Errorf("encode canonical image: %w", err)
	}
	return buf.Bytes(), DominantHex(final), nil
}

func scaleNearest(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
