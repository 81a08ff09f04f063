package jobclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// scriptedProvider plays back a fixed sequence of poll statuses.
type scriptedProvider struct {
	t        *testing.T
	statuses []string
	sample   []byte

	submits    int
	polls      int
	fetches    int
	lastSubmit map[string]any

	server *httptest.Server
}

func newScriptedProvider(t *testing.T, statuses []string, sample []byte) *scriptedProvider {
	p := &scriptedProvider{t: t, statuses: statuses, sample: sample}
	p.server = httptest.NewServer(http.HandlerFunc(p.handle))
	t.Cleanup(p.server.Close)
	return p
}

func (p *scriptedProvider) handle(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost:
		p.submits++
		if got := r.Header.Get("x-key"); got != "test-key" {
			p.t.Errorf("unexpected api key header: %q", got)
		}
		p.lastSubmit = map[string]any{}
		if err := json.NewDecoder(r.Body).Decode(&p.lastSubmit); err != nil {
			p.t.Errorf("decode submit body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          "job-1",
			"polling_url": p.server.URL + "/poll",
			"cost":        0.05,
		})
	case r.URL.Path == "/poll":
		status := "Ready"
		if p.polls < len(p.statuses) {
			status = p.statuses[p.polls]
		}
		p.polls++
		resp := map[string]any{"status": status}
		if status == "Ready" {
			resp["result"] = map[string]any{"sample": p.server.URL + "/sample"}
		}
		_ = json.NewEncoder(w).Encode(resp)
	case r.URL.Path == "/sample":
		p.fetches++
		_, _ = w.Write(p.sample)
	default:
		http.NotFound(w, r)
	}
}

func (p *scriptedProvider) client(maxPolls int) *Client {
	return New(Config{
		BaseURL:      p.server.URL,
		APIKey:       "test-key",
		InitialDelay: time.Millisecond,
		PollInterval: time.Millisecond,
		MaxPolls:     maxPolls,
	})
}

func TestGeneratePollsUntilReady(t *testing.T) {
	sample := pngBytes(t, 1024, 1024)
	p := newScriptedProvider(t, []string{"Pending", "Pending", "Ready"}, sample)

	asset, err := p.client(0).Generate(context.Background(), GeneratePayload{Prompt: "a castle", Width: 1024, Height: 1024})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if p.polls != 3 {
		t.Fatalf("poll count on the wire: got %d, want 3", p.polls)
	}
	if asset.PollCount != 3 {
		t.Fatalf("asset.PollCount = %d, want 3", asset.PollCount)
	}
	if !bytes.Equal(asset.Bytes, sample) {
		t.Fatal("asset bytes do not match the Ready sample")
	}
	if asset.JobID != "job-1" {
		t.Fatalf("asset.JobID = %q", asset.JobID)
	}
	if asset.Width != 1024 || asset.Height != 1024 || asset.Format != "png" {
		t.Fatalf("metadata not extracted: %+v", asset)
	}
	if asset.DurationMs < 0 {
		t.Fatalf("negative duration %d", asset.DurationMs)
	}
}

func TestGenerateTerminalStatusFails(t *testing.T) {
	p := newScriptedProvider(t, []string{"Pending", "Error"}, nil)

	_, err := p.client(0).Generate(context.Background(), GeneratePayload{Prompt: "a castle"})
	var pollErr *PollError
	if !errors.As(err, &pollErr) {
		t.Fatalf("expected PollError, got %v", err)
	}
	if pollErr.JobID != "job-1" {
		t.Fatalf("PollError.JobID = %q", pollErr.JobID)
	}
	if pollErr.Status != "Error" {
		t.Fatalf("PollError.Status = %q, want \"Error\"", pollErr.Status)
	}
	if p.fetches != 0 {
		t.Fatal("no fetch should happen after a terminal failure")
	}
}

func TestGenerateRequiresPayloadContent(t *testing.T) {
	p := newScriptedProvider(t, nil, nil)

	_, err := p.client(0).Generate(context.Background(), GeneratePayload{Prompt: "   "})
	var subErr *SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("expected SubmissionError, got %v", err)
	}
	if p.submits != 0 {
		t.Fatal("empty payload must be rejected before any network call")
	}
}

func TestGenerateSubmitRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"invalid key"}`, http.StatusUnauthorized)
	}))
	defer ts.Close()

	client := New(Config{BaseURL: ts.URL, APIKey: "bad", InitialDelay: time.Millisecond, PollInterval: time.Millisecond})
	_, err := client.Generate(context.Background(), GeneratePayload{Prompt: "a castle"})
	var subErr *SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("expected SubmissionError, got %v", err)
	}
	if subErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("StatusCode = %d", subErr.StatusCode)
	}
}

func TestGenerateTimesOutAfterMaxPolls(t *testing.T) {
	p := newScriptedProvider(t, []string{"Pending", "Pending", "Pending", "Pending"}, nil)

	_, err := p.client(3).Generate(context.Background(), GeneratePayload{Prompt: "a castle"})
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if timeoutErr.JobID != "job-1" || timeoutErr.Polls != 3 {
		t.Fatalf("unexpected timeout detail: %+v", timeoutErr)
	}
}

func TestGenerateFetchFailure(t *testing.T) {
	// Ready status pointing at a sample URL that 404s.
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		base := "http://" + r.Host
		switch {
		case r.Method == http.MethodPost:
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "job-3", "polling_url": base + "/poll"})
		case r.URL.Path == "/poll":
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "Ready", "result": map[string]any{"sample": base + "/missing"}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer broken.Close()

	client := New(Config{BaseURL: broken.URL, APIKey: "k", InitialDelay: time.Millisecond, PollInterval: time.Millisecond})
	_, err := client.Generate(context.Background(), GeneratePayload{Prompt: "a castle"})
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.JobID != "job-3" || fetchErr.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected fetch detail: %+v", fetchErr)
	}
}

func TestFillAppliesDefaults(t *testing.T) {
	sample := pngBytes(t, 1824, 1024)
	p := newScriptedProvider(t, []string{"Ready"}, sample)

	_, err := p.client(0).Fill(context.Background(), FillPayload{Image: pngBytes(t, 8, 8), Prompt: "continue"})
	if err != nil {
		t.Fatalf("Fill error: %v", err)
	}
	body := p.lastSubmit
	if body["image"] == "" || body["image"] == nil {
		t.Fatal("fill submit missing image payload")
	}
	if got := body["steps"].(float64); got != 50 {
		t.Fatalf("steps default = %v", got)
	}
	if got := body["guidance"].(float64); got != 60 {
		t.Fatalf("guidance default = %v", got)
	}
	if got := body["seed"].(float64); got != 42 {
		t.Fatalf("seed default = %v", got)
	}
	if got := body["output_format"].(string); got != "png" {
		t.Fatalf("output_format default = %q", got)
	}
}

func TestFillHonorsOverrides(t *testing.T) {
	p := newScriptedProvider(t, []string{"Ready"}, pngBytes(t, 4, 4))

	seed, steps, guidance := 7, 25, 30.0
	_, err := p.client(0).Fill(context.Background(), FillPayload{
		Image:        pngBytes(t, 8, 8),
		Prompt:       "continue",
		Seed:         &seed,
		Steps:        &steps,
		Guidance:     &guidance,
		OutputFormat: "jpeg",
	})
	if err != nil {
		t.Fatalf("Fill error: %v", err)
	}
	body := p.lastSubmit
	if body["seed"].(float64) != 7 || body["steps"].(float64) != 25 || body["guidance"].(float64) != 30 {
		t.Fatalf("overrides not applied: %v", body)
	}
	if body["output_format"].(string) != "jpeg" {
		t.Fatalf("output_format override not applied: %v", body["output_format"])
	}
}

func TestMetadataFailureDoesNotFailCall(t *testing.T) {
	p := newScriptedProvider(t, []string{"Ready"}, []byte("definitely not an image"))

	asset, err := p.client(0).Generate(context.Background(), GeneratePayload{Prompt: "a castle"})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if asset.Width != 0 || asset.Height != 0 || asset.Format != "" {
		t.Fatalf("metadata should be unset on extraction failure: %+v", asset)
	}
	if len(asset.Bytes) == 0 {
		t.Fatal("asset bytes are mandatory")
	}
}

func TestWaitRespectsContext(t *testing.T) {
	c := New(Config{InitialDelay: time.Hour, PollInterval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.wait(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("wait error = %v", err)
	}
}
