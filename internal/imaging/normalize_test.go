package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func testImage(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 13), B: uint8((x + y) * 3), A: 0xff})
		}
	}
	return img
}

func TestNormalizeAlwaysCanonical(t *testing.T) {
	sources := []int{200, 1024, 2048}
	for _, p := range Profiles() {
		for _, size := range sources {
			out := Normalize(testImage(size), p)
			b := out.Bounds()
			if b.Dx() != CanonicalSize || b.Dy() != CanonicalSize {
				t.Fatalf("profile %s source %d: got %dx%d, want %dx%d", p.Key, size, b.Dx(), b.Dy(), CanonicalSize, CanonicalSize)
			}
		}
	}
}

func TestNormalizeCanonicalPassThrough(t *testing.T) {
	src := testImage(CanonicalSize)
	out := Normalize(src, DefaultProfile())
	if out != image.Image(src) {
		t.Fatal("canonical-size input should pass through unchanged")
	}
}

func TestNormalizePixelArtIsBlocky(t *testing.T) {
	profile, ok := ProfileFor("32x32")
	if !ok {
		t.Fatal("32x32 profile missing")
	}
	out := Normalize(testImage(512), profile)

	// Every canonical pixel inside one 32x32 logical cell must be identical.
	cell := CanonicalSize / profile.Width
	for _, corner := range []image.Point{{0, 0}, {cell * 5, cell * 9}} {
		base := out.At(corner.X, corner.Y)
		for dy := 0; dy < cell; dy++ {
			for dx := 0; dx < cell; dx++ {
				if out.At(corner.X+dx, corner.Y+dy) != base {
					t.Fatalf("cell at %v is not uniform", corner)
				}
			}
		}
	}
	if got := CountColors(out); got > profile.PaletteSize {
		t.Fatalf("color count %d exceeds palette size %d", got, profile.PaletteSize)
	}
}

func TestNormalizeBytesRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(256)); err != nil {
		t.Fatalf("encode source: %v", err)
	}
	profile, _ := ProfileFor("64x64")
	out, colorHex, err := NormalizeBytes(buf.Bytes(), profile)
	if err != nil {
		t.Fatalf("NormalizeBytes error: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != CanonicalSize || b.Dy() != CanonicalSize {
		t.Fatalf("output is %dx%d", b.Dx(), b.Dy())
	}
	if len(colorHex) != 7 || colorHex[0] != '#' {
		t.Fatalf("bad color hex %q", colorHex)
	}
}

func TestNormalizeBytesRejectsGarbage(t *testing.T) {
	if _, _, err := NormalizeBytes([]byte("not an image"), DefaultProfile()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestApplyStyle(t *testing.T) {
	sub, _ := ProfileFor("32x32")
	if got := ApplyStyle("a castle", sub); got == "a castle" {
		t.Fatal("sub-canonical profile should append the style directive")
	}
	if got := ApplyStyle("a castle", DefaultProfile()); got != "a castle" {
		t.Fatalf("canonical profile must not touch the prompt, got %q", got)
	}
}
