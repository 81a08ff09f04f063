package jobclient

import "encoding/base64"

// Fill defaults applied when the caller leaves the tuning knobs unset. These
// match what the fill endpoint documents as sensible for canvas extension.
const (
	defaultFillSeed     = 42
	defaultFillSteps    = 50
	defaultFillGuidance = 60.0
	defaultFillFormat   = "png"
)

// GeneratePayload is the submit body for a plain text-to-image job.
type GeneratePayload struct {
	Prompt string
	Width  int
	Height int
	Seed   *int
}

func (p GeneratePayload) body() map[string]any {
	m := map[string]any{
		"prompt": p.Prompt,
		"width":  p.Width,
		"height": p.Height,
	}
	if p.Seed != nil {
		m["seed"] = *p.Seed
	}
	return m
}

// FillPayload is the submit body for an image+mask fill job. The image is an
// encoded PNG whose alpha channel marks the area the provider should paint;
// an explicit mask overrides the alpha-derived one.
type FillPayload struct {
	Image        []byte
	Mask         []byte
	Prompt       string
	Seed         *int
	Steps        *int
	Guidance     *float64
	OutputFormat string
}

func (p FillPayload) body() map[string]any {
	m := map[string]any{
		"prompt":        p.Prompt,
		"seed":          defaultFillSeed,
		"steps":         defaultFillSteps,
		"guidance":      defaultFillGuidance,
		"output_format": defaultFillFormat,
	}
	if len(p.Image) > 0 {
		m["image"] = base64.StdEncoding.EncodeToString(p.Image)
	}
	if len(p.Mask) > 0 {
		m["mask"] = base64.StdEncoding.EncodeToString(p.Mask)
	}
	if p.Seed != nil {
		m["seed"] = *p.Seed
	}
	if p.Steps != nil {
		m["steps"] = *p.Steps
	}
	if p.Guidance != nil {
		m["guidance"] = *p.Guidance
	}
	if p.OutputFormat != "" {
		m["output_format"] = p.OutputFormat
	}
	return m
}
