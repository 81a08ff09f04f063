package outpaint

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"renderhub/internal/domain"
	"renderhub/internal/jobclient"
)

// fillProvider fakes the fill pathway: it records the submitted canvas and
// returns a small finished sample immediately.
type fillProvider struct {
	t       *testing.T
	submits int
	prompt  string
	canvas  []byte
	server  *httptest.Server
}

func newFillProvider(t *testing.T) *fillProvider {
	p := &fillProvider{t: t}
	p.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		base := "http://" + r.Host
		switch {
		case r.Method == http.MethodPost:
			p.submits++
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				p.t.Errorf("decode fill submit: %v", err)
			}
			p.prompt, _ = body["prompt"].(string)
			if raw, _ := body["image"].(string); raw != "" {
				data, err := base64.StdEncoding.DecodeString(raw)
				if err != nil {
					p.t.Errorf("canvas is not valid base64: %v", err)
				}
				p.canvas = data
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "fill-1", "polling_url": base + "/poll"})
		case r.URL.Path == "/poll":
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "Ready", "result": map[string]any{"sample": base + "/sample"}})
		case r.URL.Path == "/sample":
			var buf bytes.Buffer
			_ = png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 16, 16)))
			_, _ = w.Write(buf.Bytes())
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(p.server.Close)
	return p
}

func (p *fillProvider) compositor() *Compositor {
	jobs := jobclient.New(jobclient.Config{
		BaseURL:      p.server.URL,
		APIKey:       "test-key",
		InitialDelay: time.Millisecond,
		PollInterval: time.Millisecond,
	})
	return NewCompositor(jobs, p.server.Client(), zerolog.Nop())
}

func redSquare(t *testing.T, size int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 0xff, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestOutpaintCanvasGeometry(t *testing.T) {
	p := newFillProvider(t)

	asset, err := p.compositor().Outpaint(context.Background(), Source{Bytes: redSquare(t, 512)}, "")
	if err != nil {
		t.Fatalf("Outpaint error: %v", err)
	}
	if asset.Width != CanvasWidth || asset.Height != CanvasHeight {
		t.Fatalf("reported size %dx%d, want %dx%d", asset.Width, asset.Height, CanvasWidth, CanvasHeight)
	}

	canvas, err := png.Decode(bytes.NewReader(p.canvas))
	if err != nil {
		t.Fatalf("decode submitted canvas: %v", err)
	}
	if b := canvas.Bounds(); b.Dx() != CanvasWidth || b.Dy() != CanvasHeight {
		t.Fatalf("canvas is %dx%d", b.Dx(), b.Dy())
	}
	if _, _, _, a := canvas.At(0, 0).RGBA(); a != 0 {
		t.Fatal("left padding should be transparent")
	}
	if _, _, _, a := canvas.At(CanvasWidth-1, CanvasHeight-1).RGBA(); a != 0 {
		t.Fatal("right padding should be transparent")
	}
	if _, _, _, a := canvas.At(TileOffset-1, 512).RGBA(); a != 0 {
		t.Fatal("pixel just left of the tile should be transparent")
	}
	if r, _, _, a := canvas.At(TileOffset, 512).RGBA(); a == 0 || r>>8 != 0xff {
		t.Fatalf("tile left edge not at offset %d", TileOffset)
	}
	if r, _, _, _ := canvas.At(TileOffset+1023, 512).RGBA(); r>>8 != 0xff {
		t.Fatal("tile right edge missing")
	}
}

func TestOutpaintDefaultInstruction(t *testing.T) {
	p := newFillProvider(t)

	if _, err := p.compositor().Outpaint(context.Background(), Source{Bytes: redSquare(t, 64)}, ""); err != nil {
		t.Fatalf("Outpaint error: %v", err)
	}
	if p.prompt != defaultInstruction {
		t.Fatalf("default instruction not applied, got %q", p.prompt)
	}

	if _, err := p.compositor().Outpaint(context.Background(), Source{Bytes: redSquare(t, 64)}, "keep going left"); err != nil {
		t.Fatalf("Outpaint error: %v", err)
	}
	if p.prompt != "keep going left" {
		t.Fatalf("caller prompt not honored, got %q", p.prompt)
	}
}

func TestOutpaintRejectsOversizedInput(t *testing.T) {
	p := newFillProvider(t)

	_, err := p.compositor().Outpaint(context.Background(), Source{Bytes: make([]byte, maxSourceBytes+1)}, "")
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if p.submits != 0 {
		t.Fatal("oversized input must be rejected before any network call")
	}
}

func TestOutpaintRejectsMissingSource(t *testing.T) {
	p := newFillProvider(t)

	_, err := p.compositor().Outpaint(context.Background(), Source{}, "")
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestOutpaintFetchesURLSource(t *testing.T) {
	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(redSquare(t, 128))
	}))
	defer src.Close()

	p := newFillProvider(t)
	asset, err := p.compositor().Outpaint(context.Background(), Source{URL: src.URL + "/img.png"}, "")
	if err != nil {
		t.Fatalf("Outpaint error: %v", err)
	}
	if asset.Width != CanvasWidth {
		t.Fatalf("asset width %d", asset.Width)
	}
}

func TestOutpaintRejectsUnfetchableURL(t *testing.T) {
	src := httptest.NewServer(http.NotFoundHandler())
	defer src.Close()

	p := newFillProvider(t)
	_, err := p.compositor().Outpaint(context.Background(), Source{URL: src.URL + "/gone.png"}, "")
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if p.submits != 0 {
		t.Fatal("no job must be submitted for an unfetchable source")
	}
}
