package image

import (
	"context"
	"fmt"
)

// Options carries the provider-agnostic knobs a synchronous adapter may use.
// Adapters ignore fields they do not support.
type Options struct {
	Width   int
	Height  int
	Quality string
	Model   string
	Seed    *int
	// Input holds extra model-specific parameters forwarded verbatim by the
	// model-proxy method.
	Input map[string]any
}

// Asset is a finished image returned by a synchronous backend, with its true
// decoded pixel dimensions.
type Asset struct {
	Bytes  []byte
	Width  int
	Height int
}

// Adapter is the contract every synchronous provider implements: one call,
// one finished asset or a loud failure. Retry policy, if any, is the
// adapter's own concern.
type Adapter interface {
	Generate(ctx context.Context, prompt string, opts Options) (*Asset, error)
}

// AdapterError carries the provider's status code and a truncated error body
// for diagnostics.
type AdapterError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *AdapterError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: http %d: %s", e.Provider, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Body)
}

// maxErrorBody bounds the provider error body kept on AdapterError.
const maxErrorBody = 512

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody])
	}
	return string(b)
}
