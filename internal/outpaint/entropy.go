package outpaint

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// cropStep is the offset granularity when searching for the busiest window.
const cropStep = 16

// CoverCrop scales img so it covers w x h, then crops the overflow along the
// long axis at the offset with the highest grayscale entropy. Busy regions
// survive the crop; flat borders are the first to go.
func CoverCrop(img image.Image, w, h int) *image.RGBA {
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()
	if srcW == w && srcH == h {
		return toRGBA(img)
	}

	// Scale so the smaller relative dimension matches the target exactly.
	scale := math.Max(float64(w)/float64(srcW), float64(h)/float64(srcH))
	scaledW := int(math.Ceil(float64(srcW) * scale))
	scaledH := int(math.Ceil(float64(srcH) * scale))
	scaled := image.NewRGBA(image.Rect(0, 0, scaledW, scaledH))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, b, draw.Src, nil)

	offX, offY := 0, 0
	if scaledW > w {
		offX = bestOffset(scaled, w, h, scaledW-w, true)
	} else if scaledH > h {
		offY = bestOffset(scaled, w, h, scaledH-h, false)
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Copy(out, image.Point{}, scaled, image.Rect(offX, offY, offX+w, offY+h), draw.Src, nil)
	return out
}

// bestOffset slides a w x h window across the slack and returns the offset
// whose window has the highest entropy. Ties resolve to the lower offset.
func bestOffset(img *image.RGBA, w, h, slack int, horizontal bool) int {
	best, bestScore := 0, -1.0
	for off := 0; off <= slack; off += cropStep {
		var r image.Rectangle
		if horizontal {
			r = image.Rect(off, 0, off+w, h)
		} else {
			r = image.Rect(0, off, w, off+h)
		}
		if score := windowEntropy(img, r); score > bestScore {
			best, bestScore = off, score
		}
	}
	return best
}

// windowEntropy computes the Shannon entropy of a 64-bin grayscale histogram
// over the window, sampling every fourth pixel.
func windowEntropy(img *image.RGBA, r image.Rectangle) float64 {
	var hist [64]int
	total := 0
	for y := r.Min.Y; y < r.Max.Y; y += 4 {
		for x := r.Min.X; x < r.Max.X; x += 4 {
			i := img.PixOffset(x, y)
			gray := (299*int(img.Pix[i]) + 587*int(img.Pix[i+1]) + 114*int(img.Pix[i+2])) / 1000
			hist[gray>>2]++
			total++
		}
	}
	if total == 0 {
		return 0
	}
	entropy := 0.0
	for _, n := range hist {
		if n == 0 {
			continue
		}
		p := float64(n) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(out, image.Point{}, img, b, draw.Src, nil)
	return out
}
