package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wellness/internal/domain"
	"wellness/internal/infra"
	"wellness/internal/sqlinline"
)

// ReminderRepositoryPG implements domain.ReminderRepository.
type ReminderRepositoryPG struct {
	db infra.SQLExecutor
}

func NewReminderRepository(db infra.SQLExecutor) *ReminderRepositoryPG {
	return &ReminderRepositoryPG{db: db}
}

// Schedule inserts a reminder. A user has at most one pending daily
// reminder; scheduling another moves it.
func (r *ReminderRepositoryPG) Schedule(ctx context.Context, rem *domain.Reminder) error {
	if rem.ID == "" {
		rem.ID = uuid.NewString()
	}
	payload := rem.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	if _, err := r.db.Exec(ctx, sqlinline.QScheduleReminder,
		rem.ID,
		rem.UserID,
		string(rem.Kind),
		rem.DueAt,
		[]byte(payload),
	); err != nil {
		return fmt.Errorf("repo: schedule reminder: %w", err)
	}
	return nil
}

// ClaimDue marks up to limit due reminders as sent and returns them.
// Concurrent workers never claim the same row.
func (r *ReminderRepositoryPG) ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.Reminder, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, sqlinline.QClaimDueReminders, now, limit)
	if err != nil {
		return nil, fmt.Errorf("repo: claim reminders: %w", err)
	}
	defer rows.Close()

	var out []domain.Reminder
	for rows.Next() {
		var (
			rem     domain.Reminder
			kind    string
			payload []byte
		)
		if err := rows.Scan(&rem.ID, &rem.UserID, &kind, &rem.DueAt, &payload); err != nil {
			return nil, fmt.Errorf("repo: scan reminder: %w", err)
		}
		rem.Kind = domain.ReminderKind(kind)
		rem.Payload = payload
		sent := now
		rem.SentAt = &sent
		out = append(out, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo: iterate reminders: %w", err)
	}
	return out, nil
}

// MarkSent records the delivery time.
func (r *ReminderRepositoryPG) MarkSent(ctx context.Context, id string, at time.Time) error {
	if _, err := r.db.Exec(ctx, sqlinline.QMarkReminderSent, id, at); err != nil {
		return fmt.Errorf("repo: mark reminder sent: %w", err)
	}
	return nil
}

// DeleteForUser removes every reminder of userID.
func (r *ReminderRepositoryPG) DeleteForUser(ctx context.Context, userID string) error {
	if _, err := r.db.Exec(ctx, sqlinline.QDeleteRemindersForUser, userID); err != nil {
		return fmt.Errorf("repo: delete reminders: %w", err)
	}
	return nil
}

var _ domain.ReminderRepository = (*ReminderRepositoryPG)(nil)
