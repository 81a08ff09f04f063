package outpaint

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"renderhub/internal/domain"
	"renderhub/internal/imaging"
	"renderhub/internal/jobclient"
)

// Canvas geometry for an outpainted creation. The source tile sits centered
// horizontally, so the provider paints (CanvasWidth-CanonicalSize)/2 pixels
// of new environment on each side.
const (
	CanvasWidth  = 1824
	CanvasHeight = 1024
)

// TileOffset is the left edge of the pasted source tile.
const TileOffset = (CanvasWidth - imaging.CanonicalSize) / 2

// maxSourceBytes caps the accepted source payload before any processing.
const maxSourceBytes = 20 << 20

const defaultInstruction = "Continue the environment beyond the original borders. " +
	"Preserve the subject exactly as it is. Do not introduce new elements, UI, or text."

// Source names an input image by exactly one of: an already-decoded image,
// raw encoded bytes, or a remote URL.
type Source struct {
	Image image.Image
	Bytes []byte
	URL   string
}

// Compositor builds the padded, alpha-masked canvas and has the job client's
// fill pathway paint the padding.
type Compositor struct {
	jobs       *jobclient.Client
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewCompositor wires a compositor to the async fill pathway. The HTTP client
// is only used to fetch URL sources and may be nil.
func NewCompositor(jobs *jobclient.Client, httpClient *http.Client, logger zerolog.Logger) *Compositor {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Compositor{jobs: jobs, httpClient: httpClient, logger: logger}
}

// Outpaint extends src onto a CanvasWidth x CanvasHeight canvas. The source
// is cover-cropped to the canonical square, pasted centered, and the
// transparent padding is filled by the provider. Reported dimensions are
// always the canvas dimensions, whatever the provider claims.
func (c *Compositor) Outpaint(ctx context.Context, src Source, prompt string) (*jobclient.Asset, error) {
	img, err := c.resolveSource(ctx, src)
	if err != nil {
		return nil, err
	}
	tile := CoverCrop(img, imaging.CanonicalSize, imaging.CanonicalSize)

	canvas := image.NewRGBA(image.Rect(0, 0, CanvasWidth, CanvasHeight))
	draw.Draw(canvas,
		image.Rect(TileOffset, 0, TileOffset+imaging.CanonicalSize, CanvasHeight),
		tile, tile.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode outpaint canvas: %w", err)
	}

	instruction := strings.TrimSpace(prompt)
	if instruction == "" {
		instruction = defaultInstruction
	}
	asset, err := c.jobs.Fill(ctx, jobclient.FillPayload{Image: buf.Bytes(), Prompt: instruction})
	if err != nil {
		return nil, err
	}
	asset.Width = CanvasWidth
	asset.Height = CanvasHeight
	return asset, nil
}

func (c *Compositor) resolveSource(ctx context.Context, src Source) (image.Image, error) {
	switch {
	case src.Image != nil:
		return src.Image, nil
	case len(src.Bytes) > 0:
		if len(src.Bytes) > maxSourceBytes {
			return nil, domain.Validation("source image exceeds the 20 MB limit")
		}
		return decodeSource(src.Bytes)
	case strings.TrimSpace(src.URL) != "":
		data, err := c.download(ctx, strings.TrimSpace(src.URL))
		if err != nil {
			return nil, err
		}
		return decodeSource(data)
	default:
		return nil, domain.Validation("source image required")
	}
}

func (c *Compositor) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.Validation("source image url is invalid")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.Validation("source image could not be fetched")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().Str("url", url).Int("status", resp.StatusCode).Msg("outpaint source fetch rejected")
		return nil, domain.Validation("source image could not be fetched")
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes+1))
	if err != nil {
		return nil, domain.Validation("source image could not be fetched")
	}
	if len(data) > maxSourceBytes {
		return nil, domain.Validation("source image exceeds the 20 MB limit")
	}
	return data, nil
}

func decodeSource(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.Validation("source image could not be decoded")
	}
	return img, nil
}
