package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"renderhub/internal/gateway"
	"renderhub/internal/ledger"
	"renderhub/internal/storage"
)

// App is the handler container. Ledger may be nil, in which case generations
// are not metered; Store may be nil, in which case assets are not archived.
type App struct {
	Registry *gateway.Registry
	Ledger   ledger.Ledger
	Store    *storage.FileStore
	Logger   zerolog.Logger
}

func NewApp(registry *gateway.Registry, led ledger.Ledger, logger zerolog.Logger) *App {
	return &App{Registry: registry, Ledger: led, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]string{"error": errCode, "message": message})
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
