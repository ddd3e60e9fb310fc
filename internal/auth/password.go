// Package auth handles accounts, sessions and password resets.
package auth

import (
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"wellness/internal/domain"
)

var passwordCharset = regexp.MustCompile(`^[A-Za-z\d@$!%*?&]{8,}$`)

const passwordSpecials = "@$!%*?&"

// ValidatePassword requires at least 8 characters drawn from letters, digits
// and @$!%*?&, with at least one lowercase letter, one uppercase letter, one
// digit and one special character.
func ValidatePassword(password string) error {
	if !passwordCharset.MatchString(password) {
		return domain.ErrWeakPassword
	}
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	if !lower || !upper || !digit || !special {
		return domain.ErrWeakPassword
	}
	return nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
