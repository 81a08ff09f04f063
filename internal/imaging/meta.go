package imaging

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// ImageMeta carries basic pixel metadata read from encoded bytes. Extraction
// is best-effort: callers that only need the bytes discard the error and
// leave the fields unset.
type ImageMeta struct {
	Width  int
	Height int
	Format string
}

// Meta reads width, height and container format from encoded image data
// without decoding the full pixel payload.
func Meta(data []byte) (ImageMeta, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageMeta{}, fmt.Errorf("read image metadata: %w", err)
	}
	return ImageMeta{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// DominantHex returns the average color of img as a #rrggbb string. The image
// is sampled on a coarse grid, which is plenty for a theme color.
func DominantHex(img image.Image) string {
	b := img.Bounds()
	if b.Empty() {
		return "#000000"
	}
	step := b.Dx() / 64
	if step < 1 {
		step = 1
	}
	var r, g, bl, n uint64
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			r += uint64(cr >> 8)
			g += uint64(cg >> 8)
			bl += uint64(cb >> 8)
			n++
		}
	}
	if n == 0 {
		return "#000000"
	}
	return fmt.Sprintf("#%02x%02x%02x", uint8(r/n), uint8(g/n), uint8(bl/n))
}
