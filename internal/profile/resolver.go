package profile

import (
	"context"
	"errors"
	"fmt"

	"wellness/internal/docstore"
	"wellness/internal/domain"
	"wellness/internal/infra"
)

// legacyRangeEnd bounds the prefix scan: "~" sorts after every character used
// in legacy keys.
const legacyRangeEnd = domain.ProfileKeyPrefix + "~"

// Resolver maps an authenticated user to their profile document.
type Resolver struct {
	access Access
	logger infra.Logger
}

func NewResolver(access Access, logger infra.Logger) *Resolver {
	return &Resolver{access: access, logger: infra.Component(logger, "profile_resolver")}
}

// KeyFor returns the profile document key of userID.
func (r *Resolver) KeyFor(userID string) string {
	return domain.ProfileKeyPrefix + userID
}

// Resolve returns the user's profile document or domain.ErrProfileNotFound.
func (r *Resolver) Resolve(ctx context.Context, userID string) (*docstore.Document, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	doc, err := r.access.Get(ctx, r.KeyFor(userID))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("profile: resolve %s: %w", userID, err)
	}
	return doc, nil
}

// ResolveProfile is Resolve decoded into the typed profile.
func (r *Resolver) ResolveProfile(ctx context.Context, userID string) (*domain.Profile, *docstore.Document, error) {
	doc, err := r.Resolve(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	var p domain.Profile
	if err := docstore.Decode(doc.Data, &p); err != nil {
		return nil, nil, fmt.Errorf("profile: decode %s: %w", doc.Key, err)
	}
	return &p, doc, nil
}

// LegacyMatch is the result of a prefix scan over legacy keys.
type LegacyMatch struct {
	Document docstore.Document
	Count    int
}

// ResolveLegacy finds the first document whose key starts with the profile
// prefix, in ascending key order. It is used to migrate data written under
// profile_<name>_<timestamp> keys. More than one match is logged since the
// chosen document may not belong to the caller.
func (r *Resolver) ResolveLegacy(ctx context.Context) (*LegacyMatch, error) {
	docs, err := r.access.Range(ctx, domain.ProfileKeyPrefix, legacyRangeEnd, 1000)
	if err != nil {
		return nil, fmt.Errorf("profile: legacy scan: %w", err)
	}
	if len(docs) == 0 {
		return nil, domain.ErrProfileNotFound
	}
	if len(docs) > 1 {
		r.logger.Warn().
			Int("matches", len(docs)).
			Str("chosen", docs[0].Key).
			Msg("multiple legacy profile documents match prefix")
	}
	return &LegacyMatch{Document: docs[0], Count: len(docs)}, nil
}

// ListLegacy returns every document under the profile prefix in key order.
func (r *Resolver) ListLegacy(ctx context.Context, limit int) ([]docstore.Document, error) {
	docs, err := r.access.Range(ctx, domain.ProfileKeyPrefix, legacyRangeEnd, limit)
	if err != nil {
		return nil, fmt.Errorf("profile: legacy scan: %w", err)
	}
	return docs, nil
}
