package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"renderhub/internal/imaging"
)

// TurboOptions configures the turbo adapter. Credentials are injected
// explicitly so tests can point the client at a fake endpoint.
type TurboOptions struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// TurboClient talks to a fast single-call backend: one POST, one finished
// asset in the response body. No polling.
type TurboClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewTurboClient(opts TurboOptions) *TurboClient {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.turbogen.dev/v1"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &TurboClient{
		httpClient: client,
		baseURL:    base,
		token:      strings.TrimSpace(opts.APIKey),
	}
}

type turboRequest struct {
	Prompt string `json:"prompt"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Seed   *int   `json:"seed,omitempty"`
}

type turboResponse struct {
	Image   string `json:"image"`
	Format  string `json:"format"`
	Message string `json:"message"`
}

// Generate fulfils the Adapter contract.
func (c *TurboClient) Generate(ctx context.Context, prompt string, opts Options) (*Asset, error) {
	if c.token == "" {
		return nil, &AdapterError{Provider: "turbo", Body: "API key is missing"}
	}
	payload := turboRequest{Prompt: strings.TrimSpace(prompt), Width: opts.Width, Height: opts.Height, Seed: opts.Seed}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &AdapterError{Provider: "turbo", Body: err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/fast-image", bytes.NewReader(body))
	if err != nil {
		return nil, &AdapterError{Provider: "turbo", Body: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &AdapterError{Provider: "turbo", Body: err.Error()}
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &AdapterError{Provider: "turbo", StatusCode: resp.StatusCode, Body: truncate(raw)}
	}
	var out turboResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &AdapterError{Provider: "turbo", Body: "malformed response: " + truncate(raw)}
	}
	if out.Image == "" {
		return nil, &AdapterError{Provider: "turbo", Body: "empty image in response"}
	}
	data, err := base64.StdEncoding.DecodeString(out.Image)
	if err != nil {
		return nil, &AdapterError{Provider: "turbo", Body: "image payload is not valid base64"}
	}
	meta, err := imaging.Meta(data)
	if err != nil {
		return nil, &AdapterError{Provider: "turbo", Body: "image payload is not decodable"}
	}
	return &Asset{Bytes: data, Width: meta.Width, Height: meta.Height}, nil
}

var _ Adapter = (*TurboClient)(nil)
