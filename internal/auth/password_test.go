package auth

import (
	"errors"
	"testing"

	"wellness/internal/domain"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		ok       bool
	}{
		{"Abcdef1!", true},
		{"Str0ng&Secure", true},
		{"abcdefgh", false},
		{"ABCDEFG1!", false},
		{"abcdefg1!", false},
		{"Abcdefgh!", false},
		{"Abcdefg1", false},
		{"Ab1!", false},
		{"Abcdef1!#", false},
		{"Abcdef 1!", false},
		{"Äbcdef1!", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.ok && err != nil {
				t.Fatalf("ValidatePassword(%q) unexpected error: %v", tt.password, err)
			}
			if !tt.ok && !errors.Is(err, domain.ErrWeakPassword) {
				t.Fatalf("ValidatePassword(%q) error = %v, want ErrWeakPassword", tt.password, err)
			}
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Abcdef1!")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if !CheckPassword(hash, "Abcdef1!") {
		t.Fatalf("CheckPassword() rejected the right password")
	}
	if CheckPassword(hash, "Abcdef1?") {
		t.Fatalf("CheckPassword() accepted a wrong password")
	}
	if CheckPassword("", "Abcdef1!") {
		t.Fatalf("CheckPassword() accepted an empty hash")
	}
}
