// Package handlers implements the /v1 HTTP API.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"wellness/internal/auth"
	"wellness/internal/catalog"
	"wellness/internal/domain"
	"wellness/internal/infra"
	"wellness/internal/middleware"
	"wellness/internal/nutrition"
	"wellness/internal/profile"
	"wellness/internal/progress"
	"wellness/internal/settings"
	"wellness/internal/storage"
)

const (
	maxJSONBytes  = 1 << 20
	maxImageBytes = 10 << 20
)

// App carries the services the handlers call. Nil services make their
// routes answer 503.
type App struct {
	Config   *infra.Config
	Logger   infra.Logger
	Auth     *auth.Service
	Profiles *profile.Builder
	Access   profile.Access
	Settings *settings.Service
	Progress *progress.Service
	Scanner  *nutrition.Scanner
	Scans    domain.ScanHistoryRepository
	Catalog  catalog.Catalog
	Storage  storage.ObjectStore
	Now      func() time.Time
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, errorBody{Error: errorDetail{Code: errCode, Message: message}})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// log returns the request-scoped logger set by the logging middleware.
func (a *App) log(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.Logger
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Invalid("body", "is required")
		}
		return domain.Invalid("body", "invalid JSON payload")
	}
	return nil
}

// unavailable answers for routes whose service is not configured.
func (a *App) unavailable(w http.ResponseWriter, r *http.Request) {
	a.error(w, http.StatusServiceUnavailable, "unavailable", localize(middleware.LocaleFromContext(r.Context()), "unavailable"))
}
