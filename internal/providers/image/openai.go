package image

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"renderhub/internal/imaging"
)

// OpenAIOptions configures the OpenAI image adapter.
type OpenAIOptions struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAIClient generates images through the OpenAI images endpoint. The
// backend returns a finished asset in one call, so it plugs straight into
// the synchronous Adapter contract.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(opts OpenAIOptions) *OpenAIClient {
	cfg := openai.DefaultConfig(strings.TrimSpace(opts.APIKey))
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	model := opts.Model
	if model == "" {
		model = openai.CreateImageModelDallE3
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg), model: model}
}

// Generate fulfils the Adapter contract.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, opts Options) (*Asset, error) {
	quality := openai.CreateImageQualityStandard
	if strings.EqualFold(opts.Quality, "hd") {
		quality = openai.CreateImageQualityHD
	}
	resp, err := c.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          c.model,
		N:              1,
		Quality:        quality,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, &AdapterError{Provider: "openai", StatusCode: apiErr.HTTPStatusCode, Body: truncate([]byte(apiErr.Message))}
		}
		return nil, &AdapterError{Provider: "openai", Body: err.Error()}
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, &AdapterError{Provider: "openai", Body: "empty image in response"}
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, &AdapterError{Provider: "openai", Body: "image payload is not valid base64"}
	}
	meta, err := imaging.Meta(data)
	if err != nil {
		return nil, &AdapterError{Provider: "openai", Body: "image payload is not decodable"}
	}
	return &Asset{Bytes: data, Width: meta.Width, Height: meta.Height}, nil
}

var _ Adapter = (*OpenAIClient)(nil)
