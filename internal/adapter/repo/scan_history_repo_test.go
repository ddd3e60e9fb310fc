package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"wellness/internal/domain"
	"wellness/internal/infra/pgxtest"
)

const testUserID = "6f1b0c44-4d2e-4d89-9b1e-2f4a8f0c9e11"

func TestScanAppendValidates(t *testing.T) {
	repo := NewScanHistoryRepository(&pgxtest.Executor{})
	err := repo.Append(context.Background(), &domain.ScanHistoryEntry{UserID: testUserID, Type: "photo"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Append() error = %v, want validation error", err)
	}
	if err := repo.Append(context.Background(), &domain.ScanHistoryEntry{Type: domain.ScanTypeScan}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("Append() without user error = %v", err)
	}
}

func TestScanAppendEncodesNutrition(t *testing.T) {
	exec := &pgxtest.Executor{}
	repo := NewScanHistoryRepository(exec)
	entry := &domain.ScanHistoryEntry{
		UserID:    testUserID,
		Type:      domain.ScanTypeSearch,
		Query:     "banana",
		Nutrition: domain.Nutrition{Calories: 89, Carbs: 22.8, Protein: 1.1, Fat: 0.3},
	}
	if err := repo.Append(context.Background(), entry); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if entry.ID == "" || entry.Timestamp.IsZero() {
		t.Fatalf("Append() did not fill id/timestamp: %+v", entry)
	}
	args := exec.Last().Args
	if got := string(args[5].([]byte)); got != `{"calories":89,"carbs":22.8,"protein":1.1,"fat":0.3}` {
		t.Fatalf("nutrition arg = %s", got)
	}
	if args[2] != "search" || args[3] != "banana" {
		t.Fatalf("args = %+v", args)
	}
}

func TestScanListPreservesOrder(t *testing.T) {
	row := func(id string, kind string, ts int64) func(dest ...any) error {
		return func(dest ...any) error {
			*dest[0].(*string) = id
			*dest[1].(*string) = kind
			*dest[4].(*[]byte) = []byte(`{"calories":100,"carbs":1,"protein":2,"fat":3}`)
			*dest[6].(*time.Time) = time.Unix(ts, 0)
			return nil
		}
	}
	rows := pgxtest.NewRows(row("a", "scan", 30), row("b", "search", 10))
	exec := &pgxtest.Executor{
		QueryFn: func(query string, args ...any) (pgx.Rows, error) { return rows, nil },
	}
	entries, err := NewScanHistoryRepository(exec).List(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != "a" || entries[1].Type != domain.ScanTypeSearch {
		t.Fatalf("List() = %+v", entries)
	}
	if entries[0].Nutrition.Calories != 100 || entries[0].UserID != testUserID {
		t.Fatalf("List()[0] = %+v", entries[0])
	}
	if !rows.Closed {
		t.Fatalf("rows not closed")
	}
}

func TestScanListEmptyIsNotNil(t *testing.T) {
	entries, err := NewScanHistoryRepository(&pgxtest.Executor{}).List(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if entries == nil {
		t.Fatalf("List() returned nil slice")
	}
}

func TestScanDeleteMissing(t *testing.T) {
	exec := &pgxtest.Executor{
		ExecFn: func(query string, args ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("DELETE 0"), nil
		},
	}
	repo := NewScanHistoryRepository(exec)
	if err := repo.Delete(context.Background(), testUserID, "2c5e9c1a-0f7e-4c57-8f0e-7d7b8a1c2d3e"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Delete() error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(context.Background(), testUserID, "../etc"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Delete(malformed) error = %v, want ErrNotFound", err)
	}
}

func TestScanGetNotFound(t *testing.T) {
	_, err := NewScanHistoryRepository(&pgxtest.Executor{}).Get(context.Background(), testUserID, "2c5e9c1a-0f7e-4c57-8f0e-7d7b8a1c2d3e")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}
