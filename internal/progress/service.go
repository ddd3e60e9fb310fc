// Package progress stores the body progress record behind the progress
// screen: current weight, body fat, daily steps and the weight log.
package progress

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"wellness/internal/docstore"
	"wellness/internal/domain"
	"wellness/internal/infra"
)

// MaxWeights caps the stored weight log. The oldest entries are dropped.
const MaxWeights = 90

// Window selects how much of the weight log Get returns.
type Window string

const (
	WindowAll   Window = ""
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
)

// ParseWindow accepts week, month or an empty string for the whole log.
func ParseWindow(s string) (Window, error) {
	switch w := Window(strings.ToLower(strings.TrimSpace(s))); w {
	case WindowAll, WindowWeek, WindowMonth:
		return w, nil
	}
	return "", domain.Invalid("range", "must be week or month")
}

func (w Window) since(now time.Time) time.Time {
	switch w {
	case WindowWeek:
		return now.AddDate(0, 0, -7)
	case WindowMonth:
		return now.AddDate(0, -1, 0)
	}
	return time.Time{}
}

// Service reads and writes progress documents.
type Service struct {
	store  docstore.Store
	now    func() time.Time
	logger infra.Logger
}

func NewService(store docstore.Store, now func() time.Time, logger *infra.Logger) *Service {
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now, logger: infra.Component(*logger, "progress")}
}

// Get returns the caller's progress with the weight log cut to window. A
// user who never recorded anything gets an empty record.
func (s *Service) Get(ctx context.Context, userID string, window Window) (domain.Progress, error) {
	p, err := s.load(ctx, userID)
	if err != nil {
		return p, err
	}
	if since := window.since(s.now()); !since.IsZero() {
		kept := p.Weights[:0]
		for _, e := range p.Weights {
			if !e.At.Before(since) {
				kept = append(kept, e)
			}
		}
		p.Weights = kept
	}
	return p, nil
}

// Update carries the values to record. Nil fields are kept.
type Update struct {
	CurrentWeight *float64 `json:"currentWeight"`
	BodyFat       *float64 `json:"bodyFat"`
	Steps         *int     `json:"steps"`
}

// Record stores the given values. A new weight is appended to the log and
// the first weight ever recorded becomes the start weight.
func (s *Service) Record(ctx context.Context, userID string, in Update) (domain.Progress, error) {
	if in.CurrentWeight == nil && in.BodyFat == nil && in.Steps == nil {
		return domain.Progress{}, domain.Invalid("", "no fields to update")
	}
	if in.CurrentWeight != nil && !within(*in.CurrentWeight, 20, 400) {
		return domain.Progress{}, domain.Invalid("currentWeight", "must be between 20 and 400 kg")
	}
	if in.BodyFat != nil && !within(*in.BodyFat, 0, 100) {
		return domain.Progress{}, domain.Invalid("bodyFat", "must be between 0 and 100")
	}
	if in.Steps != nil && (*in.Steps < 0 || *in.Steps > 200000) {
		return domain.Progress{}, domain.Invalid("steps", "must be between 0 and 200000")
	}

	current, err := s.load(ctx, userID)
	if err != nil {
		return current, err
	}
	now := s.now().UTC()
	patch := map[string]any{"updatedAt": now}
	if in.CurrentWeight != nil {
		weight := round1(*in.CurrentWeight)
		patch["currentWeight"] = weight
		if current.StartWeight == 0 {
			patch["startWeight"] = weight
		}
		weights := append(current.Weights, domain.WeightEntry{At: now, Weight: weight})
		if len(weights) > MaxWeights {
			weights = weights[len(weights)-MaxWeights:]
		}
		patch["weights"] = weights
	}
	if in.BodyFat != nil {
		patch["bodyFat"] = round1(*in.BodyFat)
	}
	if in.Steps != nil {
		patch["steps"] = *in.Steps
	}
	if _, err := s.store.Merge(ctx, domain.CollectionProgress, userID, patch); err != nil {
		return domain.Progress{}, fmt.Errorf("progress: merge: %w", err)
	}
	s.logger.Debug().Str("user_id", userID).Msg("progress recorded")
	return s.load(ctx, userID)
}

// Delete removes the progress document.
func (s *Service) Delete(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, domain.CollectionProgress, userID); err != nil {
		return fmt.Errorf("progress: delete: %w", err)
	}
	return nil
}

// Percent is the weight lost since the start weight, relative to it, with
// one decimal. Weight gained yields a negative value.
func Percent(start, current float64) float64 {
	if start <= 0 || current <= 0 {
		return 0
	}
	return round1((start - current) / start * 100)
}

func (s *Service) load(ctx context.Context, userID string) (domain.Progress, error) {
	var out domain.Progress
	if userID == "" {
		return out, domain.ErrUnauthorized
	}
	doc, err := s.store.Get(ctx, domain.CollectionProgress, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return out, nil
		}
		return out, fmt.Errorf("progress: get: %w", err)
	}
	if err := docstore.Decode(doc.Data, &out); err != nil {
		return out, fmt.Errorf("progress: decode: %w", err)
	}
	out.Percent = Percent(out.StartWeight, out.CurrentWeight)
	return out, nil
}

// within rejects NaN and infinities along with out of range values.
func within(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
