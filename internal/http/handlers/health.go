package handlers

import (
	"net/http"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	demo := a.Config != nil && a.Config.DemoMode
	a.json(w, http.StatusOK, map[string]any{"status": "ok", "demo": demo})
}
