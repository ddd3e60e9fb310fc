// Package reminder delivers due reminders by email and push.
package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wellness/internal/domain"
	"wellness/internal/infra"
	"wellness/internal/notify"
)

// SettingsReader loads a user's notification preferences.
type SettingsReader interface {
	Get(ctx context.Context, userID string) (domain.Settings, error)
}

// Options configures a Dispatcher. Reminders, Accounts and Settings are
// required; a nil Mailer or Pusher disables that channel.
type Options struct {
	Reminders domain.ReminderRepository
	Accounts  domain.AccountRepository
	Settings  SettingsReader
	Mailer    notify.Mailer
	Pusher    notify.Pusher
	Interval  time.Duration
	Batch     int
	Now       func() time.Time
	Logger    *infra.Logger
}

// Dispatcher polls for due reminders. Claiming marks a reminder sent, so a
// delivery failure is logged and not retried.
type Dispatcher struct {
	reminders domain.ReminderRepository
	accounts  domain.AccountRepository
	settings  SettingsReader
	mailer    notify.Mailer
	pusher    notify.Pusher
	interval  time.Duration
	batch     int
	now       func() time.Time
	logger    infra.Logger
}

func NewDispatcher(opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	d := &Dispatcher{
		reminders: opts.Reminders,
		accounts:  opts.Accounts,
		settings:  opts.Settings,
		mailer:    opts.Mailer,
		pusher:    opts.Pusher,
		interval:  opts.Interval,
		batch:     opts.Batch,
		now:       opts.Now,
		logger:    infra.Component(*logger, "reminders"),
	}
	if d.interval <= 0 {
		d.interval = 30 * time.Second
	}
	if d.batch <= 0 {
		d.batch = 50
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d
}

// Run polls until ctx is done. A full batch is followed by another poll
// right away.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info().Dur("interval", d.interval).Msg("reminder dispatcher started")
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		n, err := d.RunOnce(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error().Err(err).Msg("poll reminders")
		}
		if n >= d.batch && ctx.Err() == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce claims one batch of due reminders and delivers them. It returns
// the number claimed.
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	now := d.now().UTC()
	due, err := d.reminders.ClaimDue(ctx, now, d.batch)
	if err != nil {
		return 0, fmt.Errorf("reminder: claim: %w", err)
	}
	for _, rem := range due {
		if err := d.deliver(ctx, rem); err != nil {
			d.logger.Warn().Err(err).Str("reminder_id", rem.ID).Str("user_id", rem.UserID).Msg("reminder not delivered")
		}
		if rem.Kind == domain.ReminderDaily {
			if err := d.reschedule(ctx, rem, now); err != nil {
				d.logger.Error().Err(err).Str("user_id", rem.UserID).Msg("reschedule daily reminder")
			}
		}
	}
	return len(due), nil
}

func (d *Dispatcher) deliver(ctx context.Context, rem domain.Reminder) error {
	prefs, err := d.settings.Get(ctx, rem.UserID)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	subject, body := Compose(rem)

	var errs []error
	if prefs.Notifications.Email && d.mailer != nil {
		account, err := d.accounts.GetByID(ctx, rem.UserID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			d.logger.Debug().Str("user_id", rem.UserID).Msg("reminder for deleted account")
			return nil
		case err != nil:
			errs = append(errs, fmt.Errorf("load account: %w", err))
		case account.Email != "":
			if err := d.mailer.SendReminder(ctx, account.Email, subject, body); err != nil {
				errs = append(errs, fmt.Errorf("email: %w", err))
			}
		}
	}
	if prefs.Notifications.Push && prefs.PushEndpoint != "" && d.pusher != nil {
		if err := d.pusher.Publish(ctx, prefs.PushEndpoint, subject, body); err != nil {
			errs = append(errs, fmt.Errorf("push: %w", err))
		}
	}
	if err := d.reminders.MarkSent(ctx, rem.ID, d.now().UTC()); err != nil {
		errs = append(errs, fmt.Errorf("mark sent: %w", err))
	}
	return errors.Join(errs...)
}

// reschedule queues the next daily reminder at the same time of day.
func (d *Dispatcher) reschedule(ctx context.Context, rem domain.Reminder, now time.Time) error {
	next := rem.DueAt.Add(24 * time.Hour)
	for !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return d.reminders.Schedule(ctx, &domain.Reminder{
		UserID:  rem.UserID,
		Kind:    domain.ReminderDaily,
		DueAt:   next,
		Payload: rem.Payload,
	})
}

// Compose returns the notification title and body for a reminder.
func Compose(rem domain.Reminder) (string, string) {
	switch rem.Kind {
	case domain.ReminderPlanComplete:
		var p struct {
			Duration string `json:"duration"`
		}
		_ = json.Unmarshal(rem.Payload, &p)
		if p.Duration != "" {
			return "Fitness plan complete", fmt.Sprintf("Your %s fitness plan is done. Open the app to log how it went.", p.Duration)
		}
		return "Fitness plan complete", "Your fitness plan is done. Open the app to log how it went."
	default:
		return "Daily reminder", "Time for today's workout and a quick mood check-in."
	}
}
