// Package docstore is a keyed JSON document store with partial deep merges,
// key-range scans, equality queries and change subscriptions.
package docstore

import (
	"context"
	"errors"
	"time"
)

// ErrSubscribeUnavailable is returned by Subscribe when the store was built
// without a change feed.
var ErrSubscribeUnavailable = errors.New("docstore: subscriptions not configured")

// Document is one stored JSON object.
type Document struct {
	Collection string         `json:"collection"`
	Key        string         `json:"key"`
	Data       map[string]any `json:"data"`
	Version    int64          `json:"version"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// Op names a change kind.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change is published after every write to a document.
type Change struct {
	Op         Op     `json:"op"`
	Collection string `json:"collection"`
	Key        string `json:"key"`
	Version    int64  `json:"version"`
}

// Store is implemented by the Postgres and in-memory stores.
type Store interface {
	// Get returns domain.ErrNotFound when the document does not exist.
	Get(ctx context.Context, collection, key string) (*Document, error)
	// Set replaces the whole document.
	Set(ctx context.Context, collection, key string, data map[string]any) (*Document, error)
	// Merge creates the document or deep-merges data into it.
	Merge(ctx context.Context, collection, key string, data map[string]any) (*Document, error)
	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, key string) error
	// RangeByKey returns documents with start <= key < end in bytewise key order.
	RangeByKey(ctx context.Context, collection, start, end string, limit int) ([]Document, error)
	// FindEqual returns documents whose top-level fields equal every given value.
	FindEqual(ctx context.Context, collection string, fields map[string]any, limit int) ([]Document, error)
	// Subscribe streams changes to one document until ctx is done.
	Subscribe(ctx context.Context, collection, key string) (<-chan Change, error)
}

const defaultLimit = 100

func clampLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return defaultLimit
	}
	return limit
}
