package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"renderhub/internal/domain"
	"renderhub/internal/gateway"
	"renderhub/internal/jobclient"
	provider "renderhub/internal/providers/image"
)

// Generate runs one generation request end to end: resolve the credit cost,
// debit, dispatch, record, and stream the asset bytes with the envelope in
// headers.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req gateway.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	userID := r.Header.Get("X-User-ID")

	cost, err := a.Registry.Cost(req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if a.Ledger != nil && userID != "" {
		if _, err := a.Ledger.Debit(r.Context(), userID, cost); err != nil {
			if errors.Is(err, domain.ErrInsufficientCredits) {
				a.error(w, http.StatusPaymentRequired, "insufficient_credits", "not enough credits for this method")
				return
			}
			a.Logger.Error().Err(err).Str("user_id", userID).Msg("credit debit failed")
			a.error(w, http.StatusInternalServerError, "internal", "credit ledger unavailable")
			return
		}
	}

	result, err := a.Registry.Handle(r.Context(), req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if a.Ledger != nil && userID != "" {
		// Recording is observability for the feed; the asset is already paid
		// for and must still reach the caller.
		if err := a.Ledger.Record(r.Context(), userID, req.Method, result); err != nil {
			a.Logger.Warn().Err(err).Str("method", req.Method).Msg("creation record failed")
		}
	}
	if a.Store != nil {
		if key, err := a.Store.SaveCreation(r.Context(), req.Method, result.Format, result.Bytes); err != nil {
			a.Logger.Warn().Err(err).Str("method", req.Method).Msg("asset archive failed")
		} else {
			a.Logger.Debug().Str("key", key).Msg("asset archived")
		}
	}

	contentType := "image/png"
	if result.Format != "" && result.Format != "png" {
		contentType = "image/" + result.Format
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Image-Width", strconv.Itoa(result.Width))
	w.Header().Set("X-Image-Height", strconv.Itoa(result.Height))
	w.Header().Set("X-Credit-Cost", strconv.FormatFloat(result.CreditCost, 'f', -1, 64))
	w.Header().Set("X-Duration-Ms", strconv.FormatInt(result.DurationMs, 10))
	w.Header().Set("X-Poll-Count", strconv.Itoa(result.PollCount))
	if result.ColorHex != "" {
		w.Header().Set("X-Color-Hex", result.ColorHex)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Bytes)
}

// writeError maps the gateway error taxonomy onto the wire: validation
// failures name the caller's mistake, provider failures name the stage that
// broke, and neither leaks more than a truncated diagnostic.
func (a *App) writeError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		body := map[string]any{"error": ve.Reason, "stage": "validation"}
		if len(ve.MissingFields) > 0 {
			body["missing_fields"] = ve.MissingFields
		}
		if len(ve.AvailableMethods) > 0 {
			body["available_methods"] = ve.AvailableMethods
		}
		a.json(w, http.StatusBadRequest, body)
		return
	}

	var (
		subErr     *jobclient.SubmissionError
		pollErr    *jobclient.PollError
		fetchErr   *jobclient.FetchError
		timeoutErr *jobclient.TimeoutError
		adapterErr *provider.AdapterError
	)
	switch {
	case errors.As(err, &subErr):
		a.providerError(w, "submission failed", subErr)
	case errors.As(err, &pollErr):
		a.providerError(w, fmt.Sprintf("job %s ended with status %q", pollErr.JobID, pollErr.Status), pollErr)
	case errors.As(err, &fetchErr):
		a.providerError(w, "result download failed", fetchErr)
	case errors.As(err, &timeoutErr):
		a.providerError(w, "job timed out", timeoutErr)
	case errors.As(err, &adapterErr):
		a.providerError(w, adapterErr.Provider+" rejected the request", adapterErr)
	default:
		a.providerError(w, "generation failed", err)
	}
}

func (a *App) providerError(w http.ResponseWriter, message string, err error) {
	a.Logger.Error().Err(err).Msg("provider failure")
	a.json(w, http.StatusBadGateway, map[string]any{
		"error":  "provider_failure",
		"stage":  "provider",
		"detail": message,
	})
}
