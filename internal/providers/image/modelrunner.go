package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"renderhub/internal/imaging"
)

// ModelRunnerOptions configures the generic model-proxy backend.
type ModelRunnerOptions struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// ModelRunner forwards a prompt plus arbitrary model parameters to a hosted
// model chosen per request. It backs the generic model-proxy method: the
// dispatcher has already validated model and prompt by the time a call
// reaches this adapter.
type ModelRunner struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewModelRunner(opts ModelRunnerOptions) *ModelRunner {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.modelrunner.dev/v1"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &ModelRunner{
		httpClient: client,
		baseURL:    base,
		token:      strings.TrimSpace(opts.APIKey),
	}
}

type modelRunnerResponse struct {
	Image   string `json:"image"`
	Message string `json:"message"`
}

// Generate fulfils the Adapter contract.
func (c *ModelRunner) Generate(ctx context.Context, prompt string, opts Options) (*Asset, error) {
	if c.token == "" {
		return nil, &AdapterError{Provider: "modelrunner", Body: "API key is missing"}
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, &AdapterError{Provider: "modelrunner", Body: "model is required"}
	}
	payload := map[string]any{"prompt": prompt}
	for k, v := range opts.Input {
		payload[k] = v
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &AdapterError{Provider: "modelrunner", Body: err.Error()}
	}
	endpoint := c.baseURL + "/models/" + url.PathEscape(model) + "/run"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &AdapterError{Provider: "modelrunner", Body: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &AdapterError{Provider: "modelrunner", Body: err.Error()}
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &AdapterError{Provider: "modelrunner", StatusCode: resp.StatusCode, Body: truncate(raw)}
	}
	var out modelRunnerResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &AdapterError{Provider: "modelrunner", Body: "malformed response: " + truncate(raw)}
	}
	if out.Image == "" {
		return nil, &AdapterError{Provider: "modelrunner", Body: "empty image in response"}
	}
	data, err := base64.StdEncoding.DecodeString(out.Image)
	if err != nil {
		return nil, &AdapterError{Provider: "modelrunner", Body: "image payload is not valid base64"}
	}
	meta, err := imaging.Meta(data)
	if err != nil {
		return nil, &AdapterError{Provider: "modelrunner", Body: "image payload is not decodable"}
	}
	return &Asset{Bytes: data, Width: meta.Width, Height: meta.Height}, nil
}

var _ Adapter = (*ModelRunner)(nil)
