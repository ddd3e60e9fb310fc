package repo

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"wellness/internal/domain"
	"wellness/internal/infra/pgxtest"
	"wellness/internal/sqlinline"
)

func TestReminderScheduleDefaults(t *testing.T) {
	exec := &pgxtest.Executor{}
	rem := &domain.Reminder{UserID: testUserID, Kind: domain.ReminderDaily, DueAt: time.Unix(100, 0)}
	if err := NewReminderRepository(exec).Schedule(context.Background(), rem); err != nil {
		t.Fatalf("Schedule() error: %v", err)
	}
	if rem.ID == "" {
		t.Fatalf("Schedule() did not assign id")
	}
	call := exec.Last()
	if call.Query != sqlinline.QScheduleReminder {
		t.Fatalf("Schedule() used wrong query")
	}
	if string(call.Args[4].([]byte)) != "{}" {
		t.Fatalf("payload = %s, want {}", call.Args[4])
	}
}

func TestReminderClaimDue(t *testing.T) {
	now := time.Unix(1000, 0)
	rows := pgxtest.NewRows(func(dest ...any) error {
		*dest[0].(*string) = "r1"
		*dest[1].(*string) = testUserID
		*dest[2].(*string) = "plan_complete"
		*dest[3].(*time.Time) = time.Unix(900, 0)
		*dest[4].(*[]byte) = []byte(`{"duration":"2h"}`)
		return nil
	})
	exec := &pgxtest.Executor{
		QueryFn: func(query string, args ...any) (pgx.Rows, error) { return rows, nil },
	}

	got, err := NewReminderRepository(exec).ClaimDue(context.Background(), now, 0)
	if err != nil {
		t.Fatalf("ClaimDue() error: %v", err)
	}
	if len(got) != 1 || got[0].Kind != domain.ReminderPlanComplete || got[0].SentAt == nil {
		t.Fatalf("ClaimDue() = %+v", got)
	}
	if exec.Last().Args[1] != 50 {
		t.Fatalf("default limit = %v, want 50", exec.Last().Args[1])
	}
}
