// Package settings stores per-user notification preferences and device state.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wellness/internal/docstore"
	"wellness/internal/domain"
	"wellness/internal/infra"
)

// PushRegistrar turns a device token into a push endpoint.
type PushRegistrar interface {
	Register(ctx context.Context, platform, token string) (string, error)
}

// Platforms accepted for push registration.
var Platforms = []string{"android", "ios"}

// Service reads and writes settings documents keyed by user id.
type Service struct {
	store  docstore.Store
	push   PushRegistrar
	logger infra.Logger
}

func NewService(store docstore.Store, push PushRegistrar, logger *infra.Logger) *Service {
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &Service{store: store, push: push, logger: infra.Component(*logger, "settings")}
}

// Get returns the stored settings layered over the defaults.
func (s *Service) Get(ctx context.Context, userID string) (domain.Settings, error) {
	if userID == "" {
		return domain.Settings{}, domain.ErrUnauthorized
	}
	out := domain.DefaultSettings()
	doc, err := s.store.Get(ctx, domain.CollectionSettings, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return out, nil
		}
		return out, fmt.Errorf("settings: get: %w", err)
	}
	if err := docstore.Decode(doc.Data, &out); err != nil {
		return out, fmt.Errorf("settings: decode: %w", err)
	}
	return out, nil
}

// NotificationPatch carries the toggles to change. Nil fields are kept.
type NotificationPatch struct {
	Push    *bool `json:"push"`
	Email   *bool `json:"email"`
	Summary *bool `json:"summary"`
}

func (p NotificationPatch) fields() map[string]any {
	out := map[string]any{}
	if p.Push != nil {
		out["push"] = *p.Push
	}
	if p.Email != nil {
		out["email"] = *p.Email
	}
	if p.Summary != nil {
		out["summary"] = *p.Summary
	}
	return out
}

// UpdateNotifications merges the given toggles into the settings document.
func (s *Service) UpdateNotifications(ctx context.Context, userID string, patch NotificationPatch) (domain.Settings, error) {
	fields := patch.fields()
	if len(fields) == 0 {
		return domain.Settings{}, domain.Invalid("notifications", "at least one toggle is required")
	}
	return s.merge(ctx, userID, map[string]any{"notifications": fields})
}

// SetDeviceConnected records whether a wearable is paired.
func (s *Service) SetDeviceConnected(ctx context.Context, userID string, connected bool) (domain.Settings, error) {
	return s.merge(ctx, userID, map[string]any{"deviceConnected": connected})
}

// RegisterPushDevice creates a push endpoint for the device token and stores it.
func (s *Service) RegisterPushDevice(ctx context.Context, userID, platform, token string) (domain.Settings, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	if !validPlatform(platform) {
		return domain.Settings{}, domain.Invalid("platform", "must be one of %s", strings.Join(Platforms, ", "))
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Settings{}, domain.Invalid("token", "is required")
	}
	if s.push == nil {
		return domain.Settings{}, fmt.Errorf("%w: push notifications not configured", domain.ErrProviderFailure)
	}
	endpoint, err := s.push.Register(ctx, platform, token)
	if err != nil {
		return domain.Settings{}, err
	}
	s.logger.Info().Str("user_id", userID).Str("platform", platform).Msg("push device registered")
	return s.merge(ctx, userID, map[string]any{"pushEndpoint": endpoint, "pushPlatform": platform})
}

// Delete removes the settings document.
func (s *Service) Delete(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, domain.CollectionSettings, userID); err != nil {
		return fmt.Errorf("settings: delete: %w", err)
	}
	return nil
}

func (s *Service) merge(ctx context.Context, userID string, patch map[string]any) (domain.Settings, error) {
	if userID == "" {
		return domain.Settings{}, domain.ErrUnauthorized
	}
	if _, err := s.store.Merge(ctx, domain.CollectionSettings, userID, patch); err != nil {
		return domain.Settings{}, fmt.Errorf("settings: merge: %w", err)
	}
	return s.Get(ctx, userID)
}

func validPlatform(p string) bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}
