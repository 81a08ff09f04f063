package imaging

import (
	"image"
	"image/color"
	"sort"
)

// Quantize reduces img to a palette of at most k colors using median-cut.
// Alpha is preserved per pixel; only the RGB channels are clustered. The
// output is deterministic for a given input.
func Quantize(img image.Image, k int) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	pixels := make([]color.RGBA, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			pixels = append(pixels, color.RGBAModel.Convert(img.At(x, y)).(color.RGBA))
		}
	}
	if k <= 0 || len(pixels) == 0 {
		return scaleNearest(img, b.Dx(), b.Dy())
	}

	// Boxes are split by sorting in place, so they work on a copy; the
	// original slice keeps pixel order for the mapping pass below.
	work := append([]color.RGBA(nil), pixels...)
	boxes := [][]color.RGBA{work}
	for len(boxes) < k {
		best, bestCh, bestRange := -1, 0, 0
		for i, box := range boxes {
			ch, rng := widestChannel(box)
			if rng > bestRange {
				best, bestCh, bestRange = i, ch, rng
			}
		}
		if best < 0 || bestRange == 0 {
			break
		}
		box := boxes[best]
		sort.SliceStable(box, func(i, j int) bool {
			return channelValue(box[i], bestCh) < channelValue(box[j], bestCh)
		})
		mid := len(box) / 2
		boxes[best] = box[:mid]
		boxes = append(boxes, box[mid:])
	}

	palette := make([]color.RGBA, len(boxes))
	for i, box := range boxes {
		palette[i] = meanColor(box)
	}

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			src := pixels[i]
			mapped := palette[nearestIndex(palette, src)]
			mapped.A = src.A
			out.SetRGBA(x-b.Min.X, y-b.Min.Y, mapped)
			i++
		}
	}
	return out
}

// CountColors reports the number of distinct opaque RGB values in img.
func CountColors(img image.Image) int {
	seen := make(map[color.RGBA]struct{})
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			c.A = 0xff
			seen[c] = struct{}{}
		}
	}
	return len(seen)
}

func widestChannel(box []color.RGBA) (channel, spread int) {
	var minC, maxC [3]int
	for i := range minC {
		minC[i] = 256
		maxC[i] = -1
	}
	for _, c := range box {
		for ch := 0; ch < 3; ch++ {
			v := channelValue(c, ch)
			if v < minC[ch] {
				minC[ch] = v
			}
			if v > maxC[ch] {
				maxC[ch] = v
			}
		}
	}
	for ch := 0; ch < 3; ch++ {
		if rng := maxC[ch] - minC[ch]; rng > spread {
			channel, spread = ch, rng
		}
	}
	return channel, spread
}

func channelValue(c color.RGBA, ch int) int {
	switch ch {
	case 0:
		return int(c.R)
	case 1:
		return int(c.G)
	default:
		return int(c.B)
	}
}

func meanColor(box []color.RGBA) color.RGBA {
	if len(box) == 0 {
		return color.RGBA{A: 0xff}
	}
	var r, g, b uint64
	for _, c := range box {
		r += uint64(c.R)
		g += uint64(c.G)
		b += uint64(c.B)
	}
	n := uint64(len(box))
	return color.RGBA{R: uint8(r / n), G: uint8(g / n), B: uint8(b / n), A: 0xff}
}

func nearestIndex(palette []color.RGBA, c color.RGBA) int {
	best, bestDist := 0, 1<<31-1
	for i, p := range palette {
		dr := int(p.R) - int(c.R)
		dg := int(p.G) - int(c.G)
		db := int(p.B) - int(c.B)
		dist := dr*dr + dg*dg + db*db
		if dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}
