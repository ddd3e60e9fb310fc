package handlers

import (
	"context"
	"net/http"
	"time"

	"wellness/internal/middleware"
)

type signUpRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type googleRequest struct {
	IDToken string `json:"idToken"`
}

type facebookRequest struct {
	AccessToken string `json:"accessToken"`
}

// providerTimeout bounds calls to Google and Facebook.
const providerTimeout = 10 * time.Second

func (a *App) AuthSignUp(w http.ResponseWriter, r *http.Request) {
	if a.Auth == nil {
		a.unavailable(w, r)
		return
	}
	var req signUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	session, err := a.Auth.SignUp(r.Context(), req.Email, req.Password, req.ConfirmPassword, middleware.LocaleFromContext(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, session)
}

func (a *App) AuthSignIn(w http.ResponseWriter, r *http.Request) {
	if a.Auth == nil {
		a.unavailable(w, r)
		return
	}
	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	session, err := a.Auth.SignIn(r.Context(), req.Email, req.Password, middleware.LocaleFromContext(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, session)
}

func (a *App) AuthForgotPassword(w http.ResponseWriter, r *http.Request) {
	if a.Auth == nil {
		a.unavailable(w, r)
		return
	}
	var req forgotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Auth.ForgotPassword(r.Context(), req.Email); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (a *App) AuthResetPassword(w http.ResponseWriter, r *http.Request) {
	if a.Auth == nil {
		a.unavailable(w, r)
		return
	}
	var req resetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Auth.ResetPassword(r.Context(), req.Token, req.Password, req.ConfirmPassword); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (a *App) AuthGoogle(w http.ResponseWriter, r *http.Request) {
	if a.Auth == nil {
		a.unavailable(w, r)
		return
	}
	var req googleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), providerTimeout)
	defer cancel()
	session, err := a.Auth.SignInGoogle(ctx, req.IDToken, middleware.LocaleFromContext(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, sessionStatus(session.Created), session)
}

func (a *App) AuthFacebook(w http.ResponseWriter, r *http.Request) {
	if a.Auth == nil {
		a.unavailable(w, r)
		return
	}
	var req facebookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), providerTimeout)
	defer cancel()
	session, err := a.Auth.SignInFacebook(ctx, req.AccessToken, middleware.LocaleFromContext(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, sessionStatus(session.Created), session)
}

func sessionStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}
