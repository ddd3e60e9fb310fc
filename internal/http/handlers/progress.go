package handlers

import (
	"net/http"

	"wellness/internal/domain"
	"wellness/internal/progress"
)

// MeProgress returns the caller's body progress. range=week or month limits
// the weight log.
func (a *App) MeProgress(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	if a.Progress == nil {
		a.unavailable(w, r)
		return
	}
	window, err := progress.ParseWindow(r.URL.Query().Get("range"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	p, err := a.Progress.Get(r.Context(), userID, window)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, p)
}

func (a *App) MeProgressUpdate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	if a.Progress == nil {
		a.unavailable(w, r)
		return
	}
	var req progress.Update
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	p, err := a.Progress.Record(r.Context(), userID, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, p)
}
