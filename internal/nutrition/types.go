// Package nutrition estimates macros for food photos and food names.
package nutrition

import (
	"context"
	"errors"

	"wellness/internal/domain"
)

// ErrNoResult is returned when a provider recognised nothing.
var ErrNoResult = errors.New("nutrition: no result")

// ErrMissingAPIKey is returned when a client has no credentials.
var ErrMissingAPIKey = errors.New("nutrition: api key is required")

// Image is an uploaded food photo.
type Image struct {
	Data     []byte
	Filename string
	MIME     string
}

// Estimate is the outcome of a scan or search.
type Estimate struct {
	Nutrition domain.Nutrition `json:"nutrition"`
	Label     string           `json:"label,omitempty"`
	Demo      bool             `json:"demo,omitempty"`
}

// ImageAnalyzer estimates nutrition from a photo.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, img Image) (*Estimate, error)
}

// NameLookup estimates nutrition from a food name.
type NameLookup interface {
	Lookup(ctx context.Context, query string) (*Estimate, error)
}

// KeySource resolves an API key at call time so stored keys can be rotated
// without a restart.
type KeySource func(ctx context.Context) (string, error)

// StaticKey returns a KeySource that always yields key.
func StaticKey(key string) KeySource {
	return func(context.Context) (string, error) { return key, nil }
}
