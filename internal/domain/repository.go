package domain

import (
	"context"
	"time"
)

// AccountRepository persists accounts and password resets.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	UpsertExternal(ctx context.Context, provider AuthProvider, externalID, email string) (*Account, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	Delete(ctx context.Context, id string) error
	CreateReset(ctx context.Context, reset PasswordReset) error
	ConsumeReset(ctx context.Context, tokenHash string, now time.Time) (string, error)
}

// ScanHistoryRepository stores a user's scan history in append order.
type ScanHistoryRepository interface {
	Append(ctx context.Context, entry *ScanHistoryEntry) error
	List(ctx context.Context, userID string) ([]ScanHistoryEntry, error)
	Get(ctx context.Context, userID, id string) (*ScanHistoryEntry, error)
	Delete(ctx context.Context, userID, id string) error
	DeleteAll(ctx context.Context, userID string) error
}

// ReminderRepository schedules and claims reminders.
type ReminderRepository interface {
	Schedule(ctx context.Context, reminder *Reminder) error
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]Reminder, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	DeleteForUser(ctx context.Context, userID string) error
}
