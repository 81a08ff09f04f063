package gateway

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"renderhub/internal/domain"
	"renderhub/internal/imaging"
	"renderhub/internal/jobclient"
	"renderhub/internal/outpaint"
	provider "renderhub/internal/providers/image"
)

// Dependencies carries the provider-facing collaborators every built-in
// method dispatches to. All of them are constructed once at startup with
// explicit credentials.
type Dependencies struct {
	Jobs     *jobclient.Client
	Outpaint *outpaint.Compositor
	Turbo    provider.Adapter
	OpenAI   provider.Adapter
	Models   provider.Adapter
	Logger   zerolog.Logger
}

// NewRegistry builds the immutable method table. Every method registered
// here has a bound handler; the set never changes after startup.
func NewRegistry(deps Dependencies) *Registry {
	r := newRegistry(deps.Logger)
	r.register(fluxImageMethod(deps))
	r.register(turboImageMethod(deps))
	r.register(openaiImageMethod(deps))
	r.register(customModelMethod(deps))
	r.register(expandImageMethod(deps))
	return r
}

func fluxImageMethod(deps Dependencies) *method {
	return &method{
		descriptor: MethodDescriptor{
			Name:        "fluxImage",
			Description: "Text-to-image generation on the flux backend.",
			Intent:      IntentGenerate,
			CreditCost:  1,
			Fields: []FieldSpec{
				{Name: "prompt", Label: "Prompt", Type: FieldText, Required: true},
				{Name: "resolution", Label: "Resolution", Type: FieldSelect, Default: imaging.DefaultProfile().Key, Options: imaging.ProfileKeys()},
				{Name: "seed", Label: "Seed", Type: FieldNumber},
			},
		},
		kind: kindSimpleGenerate,
		handle: func(ctx context.Context, args map[string]any) (*GenerationResult, error) {
			profile := profileArg(args)
			payload := jobclient.GeneratePayload{
				Prompt: imaging.ApplyStyle(stringArg(args, "prompt"), profile),
				Width:  imaging.CanonicalSize,
				Height: imaging.CanonicalSize,
			}
			if seed, ok := intArg(args, "seed"); ok {
				payload.Seed = &seed
			}
			asset, err := deps.Jobs.Generate(ctx, payload)
			if err != nil {
				return nil, err
			}
			return canonicalResult(asset.Bytes, profile, &GenerationResult{
				DurationMs:       asset.DurationMs,
				PollCount:        asset.PollCount,
				ProviderMetadata: map[string]string{"provider": "flux", "job_id": asset.JobID},
			})
		},
	}
}

func turboImageMethod(deps Dependencies) *method {
	return &method{
		descriptor: MethodDescriptor{
			Name:        "turboImage",
			Description: "Fast single-call generation on the turbo backend.",
			Intent:      IntentGenerate,
			CreditCost:  0.5,
			Fields: []FieldSpec{
				{Name: "prompt", Label: "Prompt", Type: FieldText, Required: true},
				{Name: "resolution", Label: "Resolution", Type: FieldSelect, Default: imaging.DefaultProfile().Key, Options: imaging.ProfileKeys()},
			},
		},
		kind: kindSimpleGenerate,
		handle: func(ctx context.Context, args map[string]any) (*GenerationResult, error) {
			profile := profileArg(args)
			start := time.Now()
			asset, err := deps.Turbo.Generate(ctx, imaging.ApplyStyle(stringArg(args, "prompt"), profile), provider.Options{
				Width:  imaging.CanonicalSize,
				Height: imaging.CanonicalSize,
			})
			if err != nil {
				return nil, err
			}
			return canonicalResult(asset.Bytes, profile, &GenerationResult{
				DurationMs:       time.Since(start).Milliseconds(),
				ProviderMetadata: map[string]string{"provider": "turbo"},
			})
		},
	}
}

func openaiImageMethod(deps Dependencies) *method {
	return &method{
		descriptor: MethodDescriptor{
			Name:        "openaiImage",
			Description: "Generation through the OpenAI images endpoint.",
			Intent:      IntentGenerate,
			CreditCost:  2,
			Fields: []FieldSpec{
				{Name: "prompt", Label: "Prompt", Type: FieldText, Required: true},
				{Name: "quality", Label: "Quality", Type: FieldSelect, Default: "standard", Options: []string{"standard", "hd"}},
			},
		},
		kind: kindSimpleGenerate,
		handle: func(ctx context.Context, args map[string]any) (*GenerationResult, error) {
			start := time.Now()
			asset, err := deps.OpenAI.Generate(ctx, stringArg(args, "prompt"), provider.Options{
				Quality: stringArg(args, "quality"),
			})
			if err != nil {
				return nil, err
			}
			return canonicalResult(asset.Bytes, imaging.DefaultProfile(), &GenerationResult{
				DurationMs:       time.Since(start).Milliseconds(),
				ProviderMetadata: map[string]string{"provider": "openai"},
			})
		},
	}
}

func customModelMethod(deps Dependencies) *method {
	return &method{
		descriptor: MethodDescriptor{
			Name:        "customModel",
			Description: "Proxy to any hosted model, forwarding extra parameters verbatim.",
			Intent:      IntentGenerate,
			CreditCost:  1.5,
			Fields: []FieldSpec{
				{Name: "model", Label: "Model", Type: FieldText, Required: true},
				{Name: "prompt", Label: "Prompt", Type: FieldText, Required: true},
				{Name: "input", Label: "Extra model input (JSON)", Type: FieldText},
			},
		},
		kind: kindModelProxy,
		handle: func(ctx context.Context, args map[string]any) (*GenerationResult, error) {
			model := stringArg(args, "model")
			prompt := stringArg(args, "prompt")
			input := make(map[string]any, len(args))
			for k, v := range args {
				if k == "model" || k == "prompt" {
					continue
				}
				input[k] = v
			}
			start := time.Now()
			asset, err := deps.Models.Generate(ctx, prompt, provider.Options{Model: model, Input: input})
			if err != nil {
				return nil, err
			}
			// Proxied models are not resolution-sensitive; the asset passes
			// through untouched with best-effort metadata.
			result := &GenerationResult{
				Bytes:            asset.Bytes,
				Width:            asset.Width,
				Height:           asset.Height,
				DurationMs:       time.Since(start).Milliseconds(),
				ProviderMetadata: map[string]string{"provider": "modelrunner", "model": model},
			}
			if meta, err := imaging.Meta(asset.Bytes); err == nil {
				result.Format = meta.Format
			}
			return result, nil
		},
	}
}

func expandImageMethod(deps Dependencies) *method {
	return &method{
		descriptor: MethodDescriptor{
			Name:        "expandImage",
			Description: "Extend an existing creation's canvas, or regenerate it in place.",
			Intent:      IntentMutate,
			CreditCost:  1,
			Fields: []FieldSpec{
				{Name: "operation", Label: "Operation", Type: FieldSelect, Default: "outpaint", Options: []string{"generate", "outpaint"}},
				{Name: "image_url", Label: "Source image", Type: FieldImageURL},
				{Name: "prompt", Label: "Prompt", Type: FieldText},
			},
		},
		kind:           kindMultiOperation,
		operationCosts: map[string]float64{"generate": 1, "outpaint": 3},
		operationRequires: map[string][]string{
			"outpaint": {"image_url"},
			"generate": {"prompt"},
		},
		handle: func(ctx context.Context, args map[string]any) (*GenerationResult, error) {
			switch stringArg(args, "operation") {
			case "outpaint":
				asset, err := deps.Outpaint.Outpaint(ctx, outpaint.Source{URL: stringArg(args, "image_url")}, stringArg(args, "prompt"))
				if err != nil {
					return nil, err
				}
				result := &GenerationResult{
					Bytes:            asset.Bytes,
					Width:            asset.Width,
					Height:           asset.Height,
					Format:           asset.Format,
					DurationMs:       asset.DurationMs,
					PollCount:        asset.PollCount,
					ProviderMetadata: map[string]string{"provider": "flux", "operation": "outpaint", "job_id": asset.JobID},
				}
				return result, nil
			case "generate":
				asset, err := deps.Jobs.Generate(ctx, jobclient.GeneratePayload{
					Prompt: stringArg(args, "prompt"),
					Width:  imaging.CanonicalSize,
					Height: imaging.CanonicalSize,
				})
				if err != nil {
					return nil, err
				}
				return canonicalResult(asset.Bytes, imaging.DefaultProfile(), &GenerationResult{
					DurationMs:       asset.DurationMs,
					PollCount:        asset.PollCount,
					ProviderMetadata: map[string]string{"provider": "flux", "operation": "generate", "job_id": asset.JobID},
				})
			default:
				return nil, domain.Validation("operation must be one of: generate, outpaint")
			}
		},
	}
}

// canonicalResult runs raw provider bytes through the resolution pipeline
// and fills the image fields of result in place.
func canonicalResult(raw []byte, profile imaging.Profile, result *GenerationResult) (*GenerationResult, error) {
	normalized, colorHex, err := imaging.NormalizeBytes(raw, profile)
	if err != nil {
		return nil, err
	}
	result.Bytes = normalized
	result.Width = imaging.CanonicalSize
	result.Height = imaging.CanonicalSize
	result.Format = "png"
	result.ColorHex = colorHex
	return result, nil
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func intArg(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func profileArg(args map[string]any) imaging.Profile {
	if p, ok := imaging.ProfileFor(stringArg(args, "resolution")); ok {
		return p
	}
	return imaging.DefaultProfile()
}
