// Package storage hosts uploaded images on the local filesystem or in S3.
package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by Read for unknown keys.
var ErrNotFound = errors.New("storage: object not found")

// ObjectStore keeps blobs under slash-separated keys.
type ObjectStore interface {
	// Upload stores data under key and returns its public URL.
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Read returns the stored bytes.
	Read(ctx context.Context, key string) ([]byte, error)
	// Delete removes the object. Missing objects are not an error.
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every object whose key starts with prefix/.
	DeletePrefix(ctx context.Context, prefix string) error
	// KeyFromURL maps a URL produced by Upload back to its key.
	KeyFromURL(url string) (string, bool)
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.ToSlash(filepath.Clean(key))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}

func keyUnder(base, url string) (string, bool) {
	base = strings.TrimRight(base, "/") + "/"
	if base == "/" || !strings.HasPrefix(url, base) {
		return "", false
	}
	key, err := sanitizeKey(strings.TrimPrefix(url, base))
	if err != nil {
		return "", false
	}
	return key, true
}
