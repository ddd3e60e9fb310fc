package handlers

import (
	"context"
	"errors"
	"net/http"

	"wellness/internal/domain"
	"wellness/internal/middleware"
	"wellness/internal/nutrition"
	"wellness/internal/profile"
	"wellness/internal/storage"
)

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Error    errorDetail     `json:"error"`
	Existing *domain.Profile `json:"existing,omitempty"`
}

// messages holds the user-facing text per error code and locale.
var messages = map[string]map[string]string{
	"internal": {
		"en": "Something went wrong, please try again.",
		"id": "Terjadi kesalahan, silakan coba lagi.",
	},
	"unavailable": {
		"en": "This feature is not available right now.",
		"id": "Fitur ini sedang tidak tersedia.",
	},
	"unauthorized": {
		"en": "Please sign in again.",
		"id": "Silakan masuk kembali.",
	},
	"not_found": {
		"en": "Not found.",
		"id": "Tidak ditemukan.",
	},
	"profile_not_found": {
		"en": "Profile not found.",
		"id": "Profil tidak ditemukan.",
	},
	"profile_missing": {
		"en": "Profile not found, please restart onboarding.",
		"id": "Profil tidak ditemukan, silakan mulai ulang onboarding.",
	},
	"identity_exists": {
		"en": "A profile with the same identity already exists. Update it or create a new one?",
		"id": "Profil dengan identitas yang sama sudah ada. Perbarui atau buat baru?",
	},
	"invalid_duration": {
		"en": "Duration must look like 30m, 2h or 1d.",
		"id": "Durasi harus seperti 30m, 2h atau 1d.",
	},
	"weak_password": {
		"en": "Password needs 8 characters with upper and lower case letters, a number and a symbol.",
		"id": "Kata sandi minimal 8 karakter dengan huruf besar dan kecil, angka, dan simbol.",
	},
	"password_mismatch": {
		"en": "Passwords do not match.",
		"id": "Kata sandi tidak cocok.",
	},
	"invalid_credentials": {
		"en": "Wrong email or password.",
		"id": "Email atau kata sandi salah.",
	},
	"email_taken": {
		"en": "This email is already registered.",
		"id": "Email ini sudah terdaftar.",
	},
	"token_expired": {
		"en": "This link has expired or was already used.",
		"id": "Tautan ini sudah kedaluwarsa atau sudah digunakan.",
	},
	"provider_failure": {
		"en": "An external service failed, please try again later.",
		"id": "Layanan eksternal gagal, silakan coba lagi nanti.",
	},
	"no_result": {
		"en": "No food was recognised.",
		"id": "Makanan tidak dikenali.",
	},
	"timeout": {
		"en": "The request took too long.",
		"id": "Permintaan terlalu lama.",
	},
}

func localize(locale, code string) string {
	m, ok := messages[code]
	if !ok {
		m = messages["internal"]
	}
	if msg, ok := m[locale]; ok {
		return msg
	}
	return m["en"]
}

type errorMapping struct {
	target error
	status int
	code   string
}

// errorMappings is checked in order; the first match wins.
var errorMappings = []errorMapping{
	{domain.ErrProfileMissing, http.StatusConflict, "profile_missing"},
	{domain.ErrIdentityExists, http.StatusConflict, "identity_exists"},
	{domain.ErrProfileNotFound, http.StatusNotFound, "profile_not_found"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{storage.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrInvalidDuration, http.StatusBadRequest, "invalid_duration"},
	{domain.ErrWeakPassword, http.StatusBadRequest, "weak_password"},
	{domain.ErrPasswordMismatch, http.StatusBadRequest, "password_mismatch"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrEmailTaken, http.StatusConflict, "email_taken"},
	{domain.ErrTokenExpired, http.StatusBadRequest, "token_expired"},
	{nutrition.ErrNoResult, http.StatusUnprocessableEntity, "no_result"},
	{nutrition.ErrMissingAPIKey, http.StatusServiceUnavailable, "unavailable"},
	{domain.ErrProviderFailure, http.StatusBadGateway, "provider_failure"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
}

// fail writes the error payload for err. Validation errors carry their own
// field message; everything else gets a localized message.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	locale := middleware.LocaleFromContext(r.Context())

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		a.error(w, http.StatusBadRequest, "validation", verr.Error())
		return
	}

	var conflict *profile.IdentityConflictError
	if errors.As(err, &conflict) {
		existing := conflict.Existing
		a.json(w, http.StatusConflict, errorBody{
			Error:    errorDetail{Code: "identity_exists", Message: localize(locale, "identity_exists")},
			Existing: &existing,
		})
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.status >= http.StatusInternalServerError {
				a.log(r).Warn().Err(err).Int("status", m.status).Msg("request failed")
			}
			a.error(w, m.status, m.code, localize(locale, m.code))
			return
		}
	}

	if errors.Is(err, context.Canceled) {
		return
	}
	a.log(r).Error().Err(err).Msg("unhandled error")
	a.error(w, http.StatusInternalServerError, "internal", localize(locale, "internal"))
}
