package domain

import (
	"encoding/json"
	"time"
)

// ReminderKind enumerates scheduled reminder types.
type ReminderKind string

const (
	ReminderPlanComplete ReminderKind = "plan_complete"
	ReminderDaily        ReminderKind = "daily"
)

// Reminder is a notification due at a point in time.
type Reminder struct {
	ID      string
	UserID  string
	Kind    ReminderKind
	DueAt   time.Time
	Payload json.RawMessage
	SentAt  *time.Time
}
