package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"wellness/internal/domain"
)

func (a *App) ScansList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	if a.Scans == nil {
		a.unavailable(w, r)
		return
	}
	items, err := a.Scans.List(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if items == nil {
		items = []domain.ScanHistoryEntry{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) ScanGet(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	if a.Scans == nil {
		a.unavailable(w, r)
		return
	}
	entry, err := a.Scans.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, entry)
}

// ScanDelete removes a history entry and, when this service hosts it, the
// scanned photo.
func (a *App) ScanDelete(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	if a.Scans == nil {
		a.unavailable(w, r)
		return
	}
	id := chi.URLParam(r, "id")
	entry, err := a.Scans.Get(r.Context(), userID, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Scans.Delete(r.Context(), userID, id); err != nil {
		a.fail(w, r, err)
		return
	}
	if entry.ImageURL != "" && a.Storage != nil {
		if key, ok := a.Storage.KeyFromURL(entry.ImageURL); ok {
			if err := a.Storage.Delete(r.Context(), key); err != nil {
				a.log(r).Warn().Err(err).Str("key", key).Msg("delete scan image")
			}
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
