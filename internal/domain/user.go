package domain

import "time"

// AuthProvider identifies how an account signs in.
type AuthProvider string

const (
	AuthProviderPassword AuthProvider = "password"
	AuthProviderGoogle   AuthProvider = "google"
	AuthProviderFacebook AuthProvider = "facebook"
)

// Account is an authenticated identity. Its ID keys the profile document.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	GoogleSub    string
	FacebookID   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the account can sign in with a password.
func (a Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// PasswordReset is a pending reset request. Only the token hash is stored.
type PasswordReset struct {
	TokenHash string
	AccountID string
	ExpiresAt time.Time
	UsedAt    *time.Time
}
