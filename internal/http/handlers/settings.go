package handlers

import (
	"net/http"

	"wellness/internal/domain"
	"wellness/internal/settings"
)

func (a *App) SettingsGet(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	if a.Settings == nil {
		a.unavailable(w, r)
		return
	}
	s, err := a.Settings.Get(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, s)
}

type settingsPatch struct {
	Notifications settings.NotificationPatch `json:"notifications"`
}

func (a *App) SettingsUpdate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	if a.Settings == nil {
		a.unavailable(w, r)
		return
	}
	var req settingsPatch
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	s, err := a.Settings.UpdateNotifications(r.Context(), userID, req.Notifications)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, s)
}

func (a *App) DeviceConnect(w http.ResponseWriter, r *http.Request) {
	a.setDevice(w, r, true)
}

func (a *App) DeviceDisconnect(w http.ResponseWriter, r *http.Request) {
	a.setDevice(w, r, false)
}

func (a *App) setDevice(w http.ResponseWriter, r *http.Request, connected bool) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	if a.Settings == nil {
		a.unavailable(w, r)
		return
	}
	s, err := a.Settings.SetDeviceConnected(r.Context(), userID, connected)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, s)
}

type pushDeviceRequest struct {
	Platform string `json:"platform"`
	Token    string `json:"token"`
}

func (a *App) PushDevice(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	if a.Settings == nil {
		a.unavailable(w, r)
		return
	}
	var req pushDeviceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	s, err := a.Settings.RegisterPushDevice(r.Context(), userID, req.Platform, req.Token)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, s)
}
