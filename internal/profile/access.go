// Package profile resolves profile documents and builds them up one
// onboarding step at a time.
package profile

import (
	"context"

	"wellness/internal/docstore"
	"wellness/internal/domain"
)

// Access is the single entry point to profile documents in the users
// collection.
type Access interface {
	Get(ctx context.Context, key string) (*docstore.Document, error)
	Merge(ctx context.Context, key string, patch map[string]any) (*docstore.Document, error)
	Replace(ctx context.Context, key string, data map[string]any) (*docstore.Document, error)
	Delete(ctx context.Context, key string) error
	Range(ctx context.Context, start, end string, limit int) ([]docstore.Document, error)
	Subscribe(ctx context.Context, key string) (<-chan docstore.Change, error)
}

type storeAccess struct {
	store docstore.Store
}

// NewAccess binds a document store to the users collection.
func NewAccess(store docstore.Store) Access {
	return &storeAccess{store: store}
}

func (a *storeAccess) Get(ctx context.Context, key string) (*docstore.Document, error) {
	return a.store.Get(ctx, domain.CollectionUsers, key)
}

func (a *storeAccess) Merge(ctx context.Context, key string, patch map[string]any) (*docstore.Document, error) {
	return a.store.Merge(ctx, domain.CollectionUsers, key, patch)
}

func (a *storeAccess) Replace(ctx context.Context, key string, data map[string]any) (*docstore.Document, error) {
	return a.store.Set(ctx, domain.CollectionUsers, key, data)
}

func (a *storeAccess) Delete(ctx context.Context, key string) error {
	return a.store.Delete(ctx, domain.CollectionUsers, key)
}

func (a *storeAccess) Range(ctx context.Context, start, end string, limit int) ([]docstore.Document, error) {
	return a.store.RangeByKey(ctx, domain.CollectionUsers, start, end, limit)
}

func (a *storeAccess) Subscribe(ctx context.Context, key string) (<-chan docstore.Change, error) {
	return a.store.Subscribe(ctx, domain.CollectionUsers, key)
}
