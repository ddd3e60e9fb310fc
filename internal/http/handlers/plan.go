package handlers

import (
	"net/http"
	"time"

	"wellness/internal/domain"
)

type reminderRequest struct {
	ReminderTime string `json:"reminderTime"`
}

// MeReminder sets the daily reminder. The time is RFC 3339 so the client's
// offset decides which wall-clock hour it fires at.
func (a *App) MeReminder(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	if a.Profiles == nil {
		a.unavailable(w, r)
		return
	}
	var req reminderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	at, err := time.Parse(time.RFC3339, req.ReminderTime)
	if err != nil {
		a.fail(w, r, domain.Invalid("reminderTime", "must be an RFC 3339 timestamp"))
		return
	}
	res, err := a.Profiles.SetReminder(r.Context(), userID, at)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, res)
}

func (a *App) MeFitnessPlan(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	if a.Profiles == nil {
		a.unavailable(w, r)
		return
	}
	var req domain.FitnessPlan
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.Profiles.SaveFitnessPlan(r.Context(), userID, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, res)
}
