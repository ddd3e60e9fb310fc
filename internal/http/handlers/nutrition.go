package handlers

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"wellness/internal/domain"
	"wellness/internal/nutrition"
)

// NutritionScan estimates macros for an uploaded food photo. The result is
// flagged demo when it came from the demo fallback.
func (a *App) NutritionScan(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	if a.Scanner == nil {
		a.unavailable(w, r)
		return
	}
	img, err := readImage(w, r, "image")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	entry, err := a.Scanner.Scan(r.Context(), userID, img)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, entry)
}

type searchRequest struct {
	Query string `json:"query"`
}

func (a *App) NutritionSearch(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	if a.Scanner == nil {
		a.unavailable(w, r)
		return
	}
	var req searchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	entry, err := a.Scanner.Search(r.Context(), userID, req.Query)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, entry)
}

// NutritionPercentage reports how much of a daily goal a value covers.
func (a *App) NutritionPercentage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	value, err := finiteParam(q.Get("value"), "value")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	goal, err := finiteParam(q.Get("goal"), "goal")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]int{"percentage": nutrition.Percentage(value, goal)})
}

// finiteParam parses a query number. ParseFloat accepts NaN and Inf, which
// are rejected here.
func finiteParam(raw, field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, domain.Invalid(field, "must be a finite number")
	}
	return v, nil
}
