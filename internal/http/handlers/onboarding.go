package handlers

import (
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"wellness/internal/domain"
	"wellness/internal/middleware"
	"wellness/internal/profile"
)

func (a *App) OnboardingDefaults(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, profile.Defaults())
}

type identityRequest struct {
	Gender   string `json:"gender"`
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Country  string `json:"country"`
	ImageURL string `json:"imageUrl"`
	Decision string `json:"decision"`
}

// OnboardingIdentity accepts JSON with an image URL from /v1/uploads/image,
// or a multipart form carrying the picture itself in "image".
func (a *App) OnboardingIdentity(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	if a.Profiles == nil {
		a.unavailable(w, r)
		return
	}

	var (
		req      identityRequest
		imageKey string
	)
	if isMultipart(r) {
		if a.Storage == nil {
			a.unavailable(w, r)
			return
		}
		img, err := readImage(w, r, "image")
		if err != nil {
			a.fail(w, r, err)
			return
		}
		age, err := strconv.Atoi(strings.TrimSpace(r.FormValue("age")))
		if err != nil {
			a.fail(w, r, domain.Invalid("age", "must be a number"))
			return
		}
		req = identityRequest{
			Gender:   r.FormValue("gender"),
			Name:     r.FormValue("name"),
			Age:      age,
			Country:  r.FormValue("country"),
			Decision: r.FormValue("decision"),
		}
		if _, err := profile.ValidateIdentity(req.input(r)); err != nil {
			a.fail(w, r, err)
			return
		}
		url, key, err := a.storeImage(r, "profiles", userID, img)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		req.ImageURL, imageKey = url, key
	} else if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	res, err := a.Profiles.SaveIdentity(r.Context(), userID, req.input(r))
	if err != nil {
		if imageKey != "" {
			a.discardImage(r, imageKey)
		}
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, res)
}

func (req identityRequest) input(r *http.Request) profile.IdentityInput {
	return profile.IdentityInput{
		Gender:     req.Gender,
		Name:       req.Name,
		Age:        req.Age,
		Country:    req.Country,
		ImageURL:   req.ImageURL,
		Decision:   profile.Decision(strings.ToLower(strings.TrimSpace(req.Decision))),
		RegionCode: middleware.CountryFromContext(r.Context()),
	}
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

type metricsRequest struct {
	Height     float64 `json:"height"`
	UnitHeight string  `json:"unitHeight"`
	Weight     float64 `json:"weight"`
	UnitWeight string  `json:"unitWeight"`
	Activity   int     `json:"activity"`
}

func (a *App) OnboardingMetrics(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	if a.Profiles == nil {
		a.unavailable(w, r)
		return
	}
	var req metricsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.Profiles.SaveMetrics(r.Context(), userID, profile.MetricsInput{
		Height:     req.Height,
		UnitHeight: req.UnitHeight,
		Weight:     req.Weight,
		UnitWeight: req.UnitWeight,
		Activity:   req.Activity,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, res)
}

type goalRequest struct {
	Goal string `json:"goal"`
}

func (a *App) OnboardingGoal(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	if a.Profiles == nil {
		a.unavailable(w, r)
		return
	}
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.Profiles.SaveGoal(r.Context(), userID, req.Goal)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, res)
}

func (a *App) OnboardingPlan(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	if a.Profiles == nil {
		a.unavailable(w, r)
		return
	}
	res, err := a.Profiles.GeneratePlan(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, res)
}

type moodRequest struct {
	Mood string `json:"mood"`
}

func (a *App) OnboardingMood(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	if a.Profiles == nil {
		a.unavailable(w, r)
		return
	}
	var req moodRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.Profiles.SaveMood(r.Context(), userID, req.Mood)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, res)
}

// OnboardingSkip moves past a step without writing.
func (a *App) OnboardingSkip(w http.ResponseWriter, r *http.Request) {
	if a.Profiles == nil {
		a.unavailable(w, r)
		return
	}
	step := chi.URLParam(r, "step")
	next, err := a.Profiles.Skip(step)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"skipped": strings.ToLower(step), "next": string(next)})
}
