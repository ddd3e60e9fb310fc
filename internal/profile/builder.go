package profile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"path"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"wellness/internal/docstore"
	"wellness/internal/domain"
	"wellness/internal/infra"
)

// Step names an onboarding screen.
type Step string

const (
	StepIdentity Step = "identity"
	StepMetrics  Step = "metrics"
	StepGoal     Step = "goal"
	StepPlan     Step = "plan"
	StepMood     Step = "mood"
	StepDone     Step = "done"
)

var stepOrder = []Step{StepIdentity, StepMetrics, StepGoal, StepPlan, StepMood}

// ParseStep validates a step name.
func ParseStep(s string) (Step, error) {
	for _, st := range stepOrder {
		if string(st) == strings.ToLower(strings.TrimSpace(s)) {
			return st, nil
		}
	}
	return "", domain.Invalid("step", "unknown onboarding step %q", s)
}

// Next returns the step after s, or StepDone after the last one.
func (s Step) Next() Step {
	for i, st := range stepOrder {
		if st == s && i+1 < len(stepOrder) {
			return stepOrder[i+1]
		}
	}
	return StepDone
}

// Decision tells the identity step what to do when the caller's document
// already carries the same identity.
type Decision string

const (
	DecisionNone   Decision = ""
	DecisionUpdate Decision = "update"
	DecisionCreate Decision = "create"
)

// IdentityConflictError carries the existing profile when the identity step
// needs a decision. It matches domain.ErrIdentityExists.
type IdentityConflictError struct {
	Existing domain.Profile
}

func (e *IdentityConflictError) Error() string { return domain.ErrIdentityExists.Error() }

func (e *IdentityConflictError) Is(target error) bool { return target == domain.ErrIdentityExists }

// IntSource yields uniform integers in [0, n).
type IntSource interface {
	Intn(n int) int
}

type globalRand struct{}

func (globalRand) Intn(n int) int { return rand.Intn(n) }

// Eraser removes a per-user document such as settings or progress.
type Eraser interface {
	Delete(ctx context.Context, userID string) error
}

// ImageEraser removes every hosted object under a key prefix.
type ImageEraser interface {
	DeletePrefix(ctx context.Context, prefix string) error
}

// ImagePrefixes are the object store prefixes holding per-user images,
// each followed by the user id.
var ImagePrefixes = []string{"profiles", "scans", "uploads"}

// Options configures a Builder. Only Access is required.
type Options struct {
	Access    Access
	Reminders domain.ReminderRepository
	Scans     domain.ScanHistoryRepository
	Accounts  domain.AccountRepository
	Settings  Eraser
	Progress  Eraser
	Images    ImageEraser
	Rand      IntSource
	Now       func() time.Time
	Logger    *infra.Logger
}

// Builder writes the profile document one facet at a time. Every write is a
// partial merge, so steps may run in any order and be repeated.
type Builder struct {
	access    Access
	resolver  *Resolver
	reminders domain.ReminderRepository
	scans     domain.ScanHistoryRepository
	accounts  domain.AccountRepository
	settings  Eraser
	progress  Eraser
	images    ImageEraser
	rand      IntSource
	now       func() time.Time
	logger    infra.Logger
}

func NewBuilder(opts Options) *Builder {
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	b := &Builder{
		access:    opts.Access,
		reminders: opts.Reminders,
		scans:     opts.Scans,
		accounts:  opts.Accounts,
		settings:  opts.Settings,
		progress:  opts.Progress,
		images:    opts.Images,
		rand:      opts.Rand,
		now:       opts.Now,
		logger:    infra.Component(*logger, "profile_builder"),
	}
	if b.rand == nil {
		b.rand = globalRand{}
	}
	if b.now == nil {
		b.now = time.Now
	}
	b.resolver = NewResolver(opts.Access, *logger)
	return b
}

// Resolver returns the resolver sharing the builder's access.
func (b *Builder) Resolver() *Resolver { return b.resolver }

// Result is the profile after a write.
type Result struct {
	Profile domain.Profile `json:"profile"`
	Version int64          `json:"version"`
	Next    Step           `json:"next,omitempty"`
}

// IdentityInput is the first onboarding step. RegionCode is the ISO 3166
// code resolved for the request and fills in a missing country.
type IdentityInput struct {
	Gender     string
	Name       string
	Age        int
	Country    string
	ImageURL   string
	Decision   Decision
	RegionCode string
}

// ValidateIdentity checks and normalizes every identity field except the
// image, so callers can reject a request before uploading its picture.
func ValidateIdentity(in IdentityInput) (IdentityInput, error) {
	gender, ok := canonicalGender(in.Gender)
	if !ok {
		return in, domain.Invalid("gender", "must be one of %s", strings.Join(Genders, ", "))
	}
	in.Gender = gender
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, domain.Invalid("name", "is required")
	}
	if in.Age < 1 || in.Age > 130 {
		return in, domain.Invalid("age", "must be between 1 and 130")
	}
	in.Country = strings.TrimSpace(in.Country)
	if in.Country == "" {
		in.Country = regionName(in.RegionCode)
	}
	if in.Country == "" {
		return in, domain.Invalid("country", "is required")
	}
	switch in.Decision {
	case DecisionNone, DecisionUpdate, DecisionCreate:
	default:
		return in, domain.Invalid("decision", "must be update or create")
	}
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	return in, nil
}

// regionName returns the English name of an ISO 3166 region code, or "".
func regionName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	region, err := language.ParseRegion(code)
	if err != nil {
		return ""
	}
	return display.English.Regions().Name(region)
}

// SaveIdentity stores gender, name, age, country and image.
func (b *Builder) SaveIdentity(ctx context.Context, userID string, in IdentityInput) (*Result, error) {
	in, err := ValidateIdentity(in)
	if err != nil {
		return nil, err
	}
	if in.ImageURL == "" {
		return nil, domain.Invalid("image", "is required")
	}
	gender, name, country, imageURL := in.Gender, in.Name, in.Country, in.ImageURL

	key := b.resolver.KeyFor(userID)
	existing, err := b.access.Get(ctx, key)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("profile: load identity: %w", err)
	}

	now := b.now().UTC()
	patch := map[string]any{
		"gender":    gender,
		"name":      name,
		"age":       in.Age,
		"country":   country,
		"imageUrl":  imageURL,
		"updatedAt": now,
	}

	if existing == nil {
		patch["createdAt"] = now
		return b.write(ctx, key, patch, false, StepIdentity)
	}

	var current domain.Profile
	if err := docstore.Decode(existing.Data, &current); err != nil {
		return nil, fmt.Errorf("profile: decode %s: %w", key, err)
	}
	if in.Decision == DecisionNone && current.SameIdentity(name, in.Age, gender, country) {
		return nil, &IdentityConflictError{Existing: current}
	}

	if in.Decision == DecisionCreate {
		for _, keep := range []string{"email", "createdAt"} {
			if v, ok := existing.Data[keep]; ok {
				patch[keep] = v
			}
		}
		if _, ok := patch["createdAt"]; !ok {
			patch["createdAt"] = now
		}
		return b.write(ctx, key, patch, true, StepIdentity)
	}
	return b.write(ctx, key, patch, false, StepIdentity)
}

// MetricsInput is the second onboarding step.
type MetricsInput struct {
	Height     float64
	UnitHeight string
	Weight     float64
	UnitWeight string
	Activity   int
}

// SaveMetrics stores formatted height, weight and weekly training count.
func (b *Builder) SaveMetrics(ctx context.Context, userID string, in MetricsInput) (*Result, error) {
	unitHeight := strings.ToLower(strings.TrimSpace(in.UnitHeight))
	if unitHeight == "" {
		unitHeight = "cm"
	}
	unitWeight := strings.ToLower(strings.TrimSpace(in.UnitWeight))
	if unitWeight == "" {
		unitWeight = "kg"
	}

	var height string
	switch unitHeight {
	case "cm":
		if in.Height < 140 || in.Height > 210 {
			return nil, domain.Invalid("height", "must be between 140 and 210 cm")
		}
		height = fmt.Sprintf("%d cm", int(math.Round(in.Height)))
	case "ft":
		if in.Height < 4.5 || in.Height > 7.0 {
			return nil, domain.Invalid("height", "must be between 4.5 and 7.0 ft")
		}
		height = fmt.Sprintf("%.1f ft", in.Height)
	default:
		return nil, domain.Invalid("unitHeight", "must be cm or ft")
	}

	var weight string
	switch unitWeight {
	case "kg":
		if in.Weight < 40 || in.Weight > 150 {
			return nil, domain.Invalid("weight", "must be between 40 and 150 kg")
		}
	case "lb":
		if in.Weight < 88 || in.Weight > 330 {
			return nil, domain.Invalid("weight", "must be between 88 and 330 lb")
		}
	default:
		return nil, domain.Invalid("unitWeight", "must be kg or lb")
	}
	weight = fmt.Sprintf("%d %s", int(math.Round(in.Weight)), unitWeight)

	if in.Activity < 1 || in.Activity > 7 {
		return nil, domain.Invalid("activity", "must be between 1 and 7")
	}

	return b.mergeExisting(ctx, userID, StepMetrics, map[string]any{
		"height":     height,
		"weight":     weight,
		"activity":   fmt.Sprintf("Training %dx/week", in.Activity),
		"unitHeight": unitHeight,
		"unitWeight": unitWeight,
	})
}

// SaveGoal stores the selected goal label.
func (b *Builder) SaveGoal(ctx context.Context, userID, goal string) (*Result, error) {
	label, ok := canonicalGoal(goal)
	if !ok {
		return nil, domain.Invalid("goal", "must be one of %s", strings.Join(Goals, ", "))
	}
	return b.mergeExisting(ctx, userID, StepGoal, map[string]any{"goal": label})
}

// PlanResult reports the generated training progress. The value is a
// placeholder, so Demo is always set.
type PlanResult struct {
	Result
	Progress int  `json:"progress"`
	Demo     bool `json:"demo"`
}

// GeneratePlan assigns a random training progress between 0 and 100.
func (b *Builder) GeneratePlan(ctx context.Context, userID string) (*PlanResult, error) {
	progress := b.rand.Intn(101)
	res, err := b.mergeExisting(ctx, userID, StepPlan, map[string]any{
		"trainingProgress":    fmt.Sprintf("%d%%", progress),
		"trainingPlanCreated": true,
	})
	if err != nil {
		return nil, err
	}
	return &PlanResult{Result: *res, Progress: progress, Demo: true}, nil
}

// SaveMood stores the mood label with its color.
func (b *Builder) SaveMood(ctx context.Context, userID, mood string) (*Result, error) {
	m, ok := lookupMood(mood)
	if !ok {
		labels := make([]string, len(Moods))
		for i, mm := range Moods {
			labels[i] = mm.Label
		}
		return nil, domain.Invalid("mood", "must be one of %s", strings.Join(labels, ", "))
	}
	return b.mergeExisting(ctx, userID, StepMood, map[string]any{
		"mood":      m.Label,
		"moodColor": m.Color,
	})
}

// Skip advances past step without writing anything.
func (b *Builder) Skip(step string) (Step, error) {
	st, err := ParseStep(step)
	if err != nil {
		return "", err
	}
	return st.Next(), nil
}

// SetReminder stores the daily reminder time and schedules its next
// delivery.
func (b *Builder) SetReminder(ctx context.Context, userID string, at time.Time) (*Result, error) {
	if at.IsZero() {
		return nil, domain.Invalid("reminderTime", "is required")
	}
	res, err := b.mergeExisting(ctx, userID, "", map[string]any{
		"reminderTime": at.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}
	if b.reminders != nil {
		due := NextDaily(at, b.now())
		payload := fmt.Sprintf(`{"reminderTime":%q}`, at.UTC().Format(time.RFC3339))
		if err := b.reminders.Schedule(ctx, &domain.Reminder{
			UserID:  userID,
			Kind:    domain.ReminderDaily,
			DueAt:   due,
			Payload: []byte(payload),
		}); err != nil {
			return nil, fmt.Errorf("profile: schedule daily reminder: %w", err)
		}
	}
	return res, nil
}

// NextDaily returns the first instant after now that falls on at's time of
// day, stepping in whole days from at.
func NextDaily(at, now time.Time) time.Time {
	next := at
	if next.After(now) {
		for next.Add(-24 * time.Hour).After(now) {
			next = next.Add(-24 * time.Hour)
		}
		return next.UTC()
	}
	days := int(now.Sub(next)/(24*time.Hour)) + 1
	return next.Add(time.Duration(days) * 24 * time.Hour).UTC()
}

// PlanSaved is the fitness plan write result with the completion reminder.
type PlanSaved struct {
	Result
	CompletesAt time.Time `json:"completesAt"`
}

// SaveFitnessPlan stores the fitness plan and schedules a reminder for when
// its duration has elapsed.
func (b *Builder) SaveFitnessPlan(ctx context.Context, userID string, plan domain.FitnessPlan) (*PlanSaved, error) {
	plan.Goal = strings.TrimSpace(plan.Goal)
	plan.Duration = strings.TrimSpace(plan.Duration)
	plan.Split = strings.TrimSpace(plan.Split)
	plan.Meal = strings.TrimSpace(plan.Meal)
	plan.Notes = strings.TrimSpace(plan.Notes)

	d, err := ParseDuration(plan.Duration)
	if err != nil {
		return nil, err
	}

	res, err := b.mergeExisting(ctx, userID, "", map[string]any{
		"fitnessPlan": map[string]any{
			"goal":     plan.Goal,
			"duration": plan.Duration,
			"split":    plan.Split,
			"meal":     plan.Meal,
			"notes":    plan.Notes,
		},
	})
	if err != nil {
		return nil, err
	}

	due := b.now().Add(d).UTC()
	if b.reminders != nil {
		payload := fmt.Sprintf(`{"duration":%q}`, plan.Duration)
		if err := b.reminders.Schedule(ctx, &domain.Reminder{
			UserID:  userID,
			Kind:    domain.ReminderPlanComplete,
			DueAt:   due,
			Payload: []byte(payload),
		}); err != nil {
			return nil, fmt.Errorf("profile: schedule plan reminder: %w", err)
		}
	}
	return &PlanSaved{Result: *res, CompletesAt: due}, nil
}

// EditInput carries the profile fields the user may edit. Nil fields are
// left unchanged.
type EditInput struct {
	Name     *string
	Age      *int
	Country  *string
	ImageURL *string
}

// Edit updates the identity fields present in in.
func (b *Builder) Edit(ctx context.Context, userID string, in EditInput) (*Result, error) {
	patch := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.Invalid("name", "must not be empty")
		}
		patch["name"] = name
	}
	if in.Age != nil {
		if *in.Age < 1 || *in.Age > 130 {
			return nil, domain.Invalid("age", "must be between 1 and 130")
		}
		patch["age"] = *in.Age
	}
	if in.Country != nil {
		country := strings.TrimSpace(*in.Country)
		if country == "" {
			return nil, domain.Invalid("country", "must not be empty")
		}
		patch["country"] = country
	}
	if in.ImageURL != nil {
		image := strings.TrimSpace(*in.ImageURL)
		if image == "" {
			return nil, domain.Invalid("image", "must not be empty")
		}
		patch["imageUrl"] = image
	}
	if len(patch) == 0 {
		return nil, domain.Invalid("", "no fields to update")
	}

	res, err := b.mergeExisting(ctx, userID, "", patch)
	if errors.Is(err, domain.ErrProfileMissing) {
		return nil, domain.ErrProfileNotFound
	}
	return res, err
}

// DeleteAccount removes everything stored for userID, hosted images
// included. Stores are cleared before the account row so a failure leaves
// the account able to retry.
func (b *Builder) DeleteAccount(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}
	if b.scans != nil {
		if err := b.scans.DeleteAll(ctx, userID); err != nil {
			return fmt.Errorf("profile: delete scans: %w", err)
		}
	}
	if b.reminders != nil {
		if err := b.reminders.DeleteForUser(ctx, userID); err != nil {
			return fmt.Errorf("profile: delete reminders: %w", err)
		}
	}
	if b.settings != nil {
		if err := b.settings.Delete(ctx, userID); err != nil {
			return fmt.Errorf("profile: delete settings: %w", err)
		}
	}
	if b.progress != nil {
		if err := b.progress.Delete(ctx, userID); err != nil {
			return fmt.Errorf("profile: delete progress: %w", err)
		}
	}
	if b.images != nil {
		for _, prefix := range ImagePrefixes {
			if err := b.images.DeletePrefix(ctx, path.Join(prefix, userID)); err != nil {
				return fmt.Errorf("profile: delete %s images: %w", prefix, err)
			}
		}
	}
	if err := b.access.Delete(ctx, b.resolver.KeyFor(userID)); err != nil {
		return fmt.Errorf("profile: delete document: %w", err)
	}
	if b.accounts != nil {
		if err := b.accounts.Delete(ctx, userID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("profile: delete account: %w", err)
		}
	}
	b.logger.Info().Str("user_id", userID).Msg("account deleted")
	return nil
}

// EnsureDocument creates the profile document with the account email if it
// does not exist yet.
func (b *Builder) EnsureDocument(ctx context.Context, userID, email string) error {
	key := b.resolver.KeyFor(userID)
	_, err := b.access.Get(ctx, key)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("profile: load %s: %w", key, err)
	}
	if _, err := b.access.Merge(ctx, key, map[string]any{
		"email":     email,
		"createdAt": b.now().UTC(),
	}); err != nil {
		return fmt.Errorf("profile: create %s: %w", key, err)
	}
	return nil
}

// MigrateLegacy merges the document stored under legacyKey into userID's
// profile and removes the legacy document.
func (b *Builder) MigrateLegacy(ctx context.Context, legacyKey, userID string) (*Result, error) {
	if !strings.HasPrefix(legacyKey, domain.ProfileKeyPrefix) {
		return nil, domain.Invalid("key", "must start with %s", domain.ProfileKeyPrefix)
	}
	target := b.resolver.KeyFor(userID)
	if legacyKey == target {
		return nil, domain.Invalid("key", "already the profile of %s", userID)
	}
	legacy, err := b.access.Get(ctx, legacyKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("profile: load legacy %s: %w", legacyKey, err)
	}
	res, err := b.write(ctx, target, legacy.Data, false, "")
	if err != nil {
		return nil, err
	}
	if err := b.access.Delete(ctx, legacyKey); err != nil {
		return nil, fmt.Errorf("profile: delete legacy %s: %w", legacyKey, err)
	}
	b.logger.Info().Str("from", legacyKey).Str("to", target).Msg("legacy profile migrated")
	return res, nil
}

// mergeExisting merges patch into the user's document, which must already
// exist.
func (b *Builder) mergeExisting(ctx context.Context, userID string, step Step, patch map[string]any) (*Result, error) {
	key := b.resolver.KeyFor(userID)
	if _, err := b.access.Get(ctx, key); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrProfileMissing
		}
		return nil, fmt.Errorf("profile: load %s: %w", key, err)
	}
	patch["updatedAt"] = b.now().UTC()
	return b.write(ctx, key, patch, false, step)
}

func (b *Builder) write(ctx context.Context, key string, data map[string]any, replace bool, step Step) (*Result, error) {
	var (
		doc *docstore.Document
		err error
	)
	if replace {
		doc, err = b.access.Replace(ctx, key, data)
	} else {
		doc, err = b.access.Merge(ctx, key, data)
	}
	if err != nil {
		return nil, fmt.Errorf("profile: write %s: %w", key, err)
	}

	res := &Result{Version: doc.Version}
	if step != "" {
		res.Next = step.Next()
	}
	if err := docstore.Decode(doc.Data, &res.Profile); err != nil {
		return nil, fmt.Errorf("profile: decode %s: %w", key, err)
	}
	b.logger.Debug().Str("key", key).Int64("version", doc.Version).Str("step", string(step)).Msg("profile written")
	return res, nil
}
