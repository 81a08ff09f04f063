package jobclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"renderhub/internal/imaging"
)

// Provider job statuses. Anything else returned by a poll is terminal failure.
const (
	statusPending = "Pending"
	statusReady   = "Ready"
)

const (
	endpointGenerate = "flux-pro-1.1"
	endpointFill     = "flux-pro-1.0-fill"

	defaultBaseURL      = "https://api.bfl.ai/v1"
	defaultInitialDelay = 3 * time.Second
	defaultPollInterval = 2 * time.Second
	defaultMaxPolls     = 150
)

// Config carries the provider credentials and polling cadence. Credentials
// are injected here rather than read from the environment so tests can run
// against a fake endpoint.
type Config struct {
	BaseURL      string
	APIKey       string
	InitialDelay time.Duration
	PollInterval time.Duration
	// MaxPolls bounds the polling loop; a job still Pending after this many
	// polls fails with TimeoutError. Zero selects the package default.
	MaxPolls   int
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client drives the submit/poll/fetch protocol for providers that accept a
// job and return a polling handle. One Client is safe for concurrent use;
// all per-job state lives on the stack of a single call.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	initialDelay time.Duration
	pollInterval time.Duration
	maxPolls     int
	logger       zerolog.Logger
}

// Asset is the result envelope for one completed job. Width, height and
// format are best-effort and may be zero when metadata extraction fails.
type Asset struct {
	Bytes      []byte
	Width      int
	Height     int
	Format     string
	JobID      string
	PollCount  int
	DurationMs int64
}

// New constructs a Client, applying package defaults for anything unset.
func New(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	initial := cfg.InitialDelay
	if initial <= 0 {
		initial = defaultInitialDelay
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	maxPolls := cfg.MaxPolls
	if maxPolls <= 0 {
		maxPolls = defaultMaxPolls
	}
	return &Client{
		httpClient:   httpClient,
		baseURL:      base,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		initialDelay: initial,
		pollInterval: interval,
		maxPolls:     maxPolls,
		logger:       cfg.Logger,
	}
}

// Generate submits a text-to-image job and waits for its asset.
func (c *Client) Generate(ctx context.Context, payload GeneratePayload) (*Asset, error) {
	return c.run(ctx, endpointGenerate, payload.body())
}

// Fill submits an image+mask fill job and waits for its asset.
func (c *Client) Fill(ctx context.Context, payload FillPayload) (*Asset, error) {
	return c.run(ctx, endpointFill, payload.body())
}

type submitResponse struct {
	ID         string  `json:"id"`
	PollingURL string  `json:"polling_url"`
	Cost       float64 `json:"cost"`
}

type pollResponse struct {
	Status string `json:"status"`
	Result *struct {
		Sample string `json:"sample"`
	} `json:"result"`
}

func (c *Client) run(ctx context.Context, endpoint string, payload map[string]any) (*Asset, error) {
	if !hasContent(payload) {
		return nil, &SubmissionError{Reason: "prompt or image payload required"}
	}
	start := time.Now()
	sub, err := c.submit(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}
	if err := c.wait(ctx, c.initialDelay); err != nil {
		return nil, err
	}

	polls := 0
	for {
		if polls >= c.maxPolls {
			return nil, &TimeoutError{JobID: sub.ID, Polls: polls}
		}
		polls++
		status, raw, err := c.poll(ctx, sub)
		if err != nil {
			return nil, err
		}
		switch status.Status {
		case statusPending:
			if err := c.wait(ctx, c.pollInterval); err != nil {
				return nil, err
			}
		case statusReady:
			if status.Result == nil || strings.TrimSpace(status.Result.Sample) == "" {
				return nil, &PollError{JobID: sub.ID, Status: status.Status, RawResponse: raw}
			}
			data, err := c.fetch(ctx, sub.ID, status.Result.Sample)
			if err != nil {
				return nil, err
			}
			asset := &Asset{
				Bytes:      data,
				JobID:      sub.ID,
				PollCount:  polls,
				DurationMs: time.Since(start).Milliseconds(),
			}
			// Metadata is optional; the asset bytes are mandatory.
			if meta, err := imaging.Meta(data); err == nil {
				asset.Width = meta.Width
				asset.Height = meta.Height
				asset.Format = meta.Format
			}
			return asset, nil
		default:
			c.logger.Warn().Str("job_id", sub.ID).Str("status", status.Status).Msg("job ended with terminal status")
			return nil, &PollError{JobID: sub.ID, Status: status.Status, RawResponse: raw}
		}
	}
}

func (c *Client) submit(ctx context.Context, endpoint string, payload map[string]any) (*submitResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &SubmissionError{Reason: fmt.Sprintf("encode payload: %v", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &SubmissionError{Reason: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &SubmissionError{Reason: err.Error()}
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &SubmissionError{Reason: "submit rejected", StatusCode: resp.StatusCode, Body: truncate(raw)}
	}
	var sub submitResponse
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, &SubmissionError{Reason: "malformed submit response", Body: truncate(raw)}
	}
	if sub.ID == "" || sub.PollingURL == "" {
		return nil, &SubmissionError{Reason: "submit response missing polling handle", Body: truncate(raw)}
	}
	c.logger.Debug().Str("job_id", sub.ID).Str("endpoint", endpoint).Msg("job submitted")
	return &sub, nil
}

func (c *Client) poll(ctx context.Context, sub *submitResponse) (*pollResponse, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sub.PollingURL, nil)
	if err != nil {
		return nil, "", &PollError{JobID: sub.ID, Status: "unreachable", RawResponse: err.Error()}
	}
	req.Header.Set("x-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", &PollError{JobID: sub.ID, Status: "unreachable", RawResponse: err.Error()}
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var status pollResponse
	if err := json.Unmarshal(raw, &status); err != nil || status.Status == "" {
		return nil, "", &PollError{JobID: sub.ID, Status: "unparseable", RawResponse: truncate(raw)}
	}
	return &status, truncate(raw), nil
}

func (c *Client) fetch(ctx context.Context, jobID, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{JobID: jobID, URL: url, Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{JobID: jobID, URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{JobID: jobID, URL: url, StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{JobID: jobID, URL: url, Err: err}
	}
	return data, nil
}

// wait sleeps cooperatively so a stuck provider never blocks other requests.
func (c *Client) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func hasContent(payload map[string]any) bool {
	if prompt, ok := payload["prompt"].(string); ok && strings.TrimSpace(prompt) != "" {
		return true
	}
	if img, ok := payload["image"].(string); ok && img != "" {
		return true
	}
	return false
}
