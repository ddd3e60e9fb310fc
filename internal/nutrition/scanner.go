package nutrition

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"wellness/internal/domain"
	"wellness/internal/infra"
)

// ImageStore stores a scan photo and returns its public URL. Delete
// removes the photo again when the scan fails.
type ImageStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// FloatSource yields uniform floats in [0, 1).
type FloatSource interface {
	Float64() float64
}

type globalFloat struct{}

func (globalFloat) Float64() float64 { return rand.Float64() }

// ScannerOptions configures a Scanner. Analyzer, Lookup and History are
// required.
type ScannerOptions struct {
	Analyzer  ImageAnalyzer
	Lookup    NameLookup
	History   domain.ScanHistoryRepository
	Images    ImageStore
	DemoMode  bool
	DemoDelay time.Duration
	Rand      FloatSource
	Now       func() time.Time
	Logger    *infra.Logger
}

// Scanner runs scans and searches and records them in the user's history.
type Scanner struct {
	analyzer  ImageAnalyzer
	lookup    NameLookup
	history   domain.ScanHistoryRepository
	images    ImageStore
	demoMode  bool
	demoDelay time.Duration
	rand      FloatSource
	now       func() time.Time
	logger    infra.Logger
}

func NewScanner(opts ScannerOptions) *Scanner {
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	s := &Scanner{
		analyzer:  opts.Analyzer,
		lookup:    opts.Lookup,
		history:   opts.History,
		images:    opts.Images,
		demoMode:  opts.DemoMode,
		demoDelay: opts.DemoDelay,
		rand:      opts.Rand,
		now:       opts.Now,
		logger:    infra.Component(*logger, "scanner"),
	}
	if s.rand == nil {
		s.rand = globalFloat{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.demoDelay < 0 {
		s.demoDelay = 0
	}
	return s
}

// DemoMode reports whether failed scans fall back to random estimates.
func (s *Scanner) DemoMode() bool { return s.demoMode }

// Scan uploads the photo, estimates its nutrition and appends a scan entry.
// In demo mode a failed recognition yields a random estimate flagged demo
// after the configured delay. The photo is removed when the scan fails.
func (s *Scanner) Scan(ctx context.Context, userID string, img Image) (_ *domain.ScanHistoryEntry, err error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrUnauthorized
	}
	if len(img.Data) == 0 {
		return nil, domain.Invalid("image", "is required")
	}

	entry := &domain.ScanHistoryEntry{
		ID:     uuid.NewString(),
		UserID: userID,
		Type:   domain.ScanTypeScan,
	}
	if s.images != nil {
		key := path.Join("scans", userID, entry.ID+imageExt(img))
		url, upErr := s.images.Upload(ctx, key, img.Data, img.MIME)
		if upErr != nil {
			return nil, fmt.Errorf("nutrition: store scan image: %w", upErr)
		}
		entry.ImageURL = url
		defer func() {
			if err != nil {
				s.discard(ctx, key)
			}
		}()
	}

	est, err := s.analyzer.Analyze(ctx, img)
	if err != nil {
		if !s.demoMode || errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		s.logger.Info().Err(err).Str("user_id", userID).Msg("scan failed, returning demo estimate")
		est, err = s.demoEstimate(ctx)
		if err != nil {
			return nil, err
		}
	}
	entry.Nutrition = est.Nutrition
	entry.Demo = est.Demo
	return s.record(ctx, entry)
}

// Search looks up a food by name and appends a search entry.
func (s *Scanner) Search(ctx context.Context, userID, query string) (*domain.ScanHistoryEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrUnauthorized
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.Invalid("query", "is required")
	}
	est, err := s.lookup.Lookup(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.record(ctx, &domain.ScanHistoryEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      domain.ScanTypeSearch,
		Query:     query,
		Nutrition: est.Nutrition,
	})
}

func (s *Scanner) record(ctx context.Context, entry *domain.ScanHistoryEntry) (*domain.ScanHistoryEntry, error) {
	entry.Timestamp = s.now().UTC()
	if err := s.history.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("nutrition: append history: %w", err)
	}
	return entry, nil
}

func (s *Scanner) discard(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.images.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("discard scan image")
	}
}

func (s *Scanner) demoEstimate(ctx context.Context) (*Estimate, error) {
	if s.demoDelay > 0 {
		timer := time.NewTimer(s.demoDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return &Estimate{
		Demo: true,
		Nutrition: domain.Nutrition{
			Calories: s.between(180, 450),
			Carbs:    s.between(20, 70),
			Protein:  s.between(10, 30),
			Fat:      s.between(5, 25),
		},
	}, nil
}

func (s *Scanner) between(lo, hi float64) float64 {
	return round1(s.rand.Float64()*(hi-lo) + lo)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func imageExt(img Image) string {
	switch strings.ToLower(img.MIME) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	if ext := strings.ToLower(path.Ext(img.Filename)); ext != "" {
		return ext
	}
	return ".jpg"
}
