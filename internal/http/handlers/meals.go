package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"wellness/internal/catalog"
	"wellness/internal/domain"
)

// Meals filters the diet plan catalog by ?category=, ?time= (max cooking
// minutes) and ?calories= (range label).
func (a *App) Meals(w http.ResponseWriter, r *http.Request) {
	if a.Catalog == nil {
		a.unavailable(w, r)
		return
	}
	q := r.URL.Query()
	maxCook := 0
	if raw := strings.TrimSpace(q.Get("time")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			a.fail(w, r, domain.Invalid("time", "must be a whole number of minutes"))
			return
		}
		maxCook = v
	}
	filter, err := catalog.ParseFilter(q.Get("category"), maxCook, q.Get("calories"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.Catalog.Filter(r.Context(), filter)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, res)
}

type mealOptions struct {
	Categories []string `json:"categories"`
	Ranges     []string `json:"ranges"`
}

func (a *App) MealOptions(w http.ResponseWriter, r *http.Request) {
	ranges := make([]string, len(catalog.Ranges))
	for i, rg := range catalog.Ranges {
		ranges[i] = rg.Label
	}
	a.json(w, http.StatusOK, mealOptions{Categories: catalog.Categories, Ranges: ranges})
}
