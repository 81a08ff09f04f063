package handlers

import (
	"net/http"
	"time"
)

// Methods lists the full method table for capability discovery.
func (a *App) Methods(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"methods":   a.Registry.Methods(),
	})
}
