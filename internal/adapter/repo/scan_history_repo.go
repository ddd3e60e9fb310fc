package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"wellness/internal/domain"
	"wellness/internal/infra"
	"wellness/internal/sqlinline"
)

// ScanHistoryRepositoryPG implements domain.ScanHistoryRepository.
type ScanHistoryRepositoryPG struct {
	db infra.SQLExecutor
}

func NewScanHistoryRepository(db infra.SQLExecutor) *ScanHistoryRepositoryPG {
	return &ScanHistoryRepositoryPG{db: db}
}

// Append stores entry at the end of the user's history.
func (r *ScanHistoryRepositoryPG) Append(ctx context.Context, entry *domain.ScanHistoryEntry) error {
	if entry.UserID == "" {
		return domain.ErrUnauthorized
	}
	switch entry.Type {
	case domain.ScanTypeScan, domain.ScanTypeSearch:
	default:
		return domain.Invalid("type", "must be scan or search")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	nutrition, err := json.Marshal(entry.Nutrition)
	if err != nil {
		return fmt.Errorf("repo: encode nutrition: %w", err)
	}
	if _, err := r.db.Exec(ctx, sqlinline.QInsertScan,
		entry.ID,
		entry.UserID,
		string(entry.Type),
		entry.Query,
		entry.ImageURL,
		nutrition,
		entry.Demo,
		entry.Timestamp,
	); err != nil {
		return fmt.Errorf("repo: insert scan: %w", err)
	}
	return nil
}

// List returns the user's history in append order.
func (r *ScanHistoryRepositoryPG) List(ctx context.Context, userID string) ([]domain.ScanHistoryEntry, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListScans, userID)
	if err != nil {
		return nil, fmt.Errorf("repo: list scans: %w", err)
	}
	defer rows.Close()

	entries := []domain.ScanHistoryEntry{}
	for rows.Next() {
		entry, err := scanHistoryEntry(rows, userID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo: iterate scans: %w", err)
	}
	return entries, nil
}

// Get returns one entry owned by userID.
func (r *ScanHistoryRepositoryPG) Get(ctx context.Context, userID, id string) (*domain.ScanHistoryEntry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	entry, err := scanHistoryEntry(r.db.QueryRow(ctx, sqlinline.QSelectScan, userID, id), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

// Delete removes one entry owned by userID.
func (r *ScanHistoryRepositoryPG) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	tag, err := r.db.Exec(ctx, sqlinline.QDeleteScan, userID, id)
	if err != nil {
		return fmt.Errorf("repo: delete scan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteAll clears the user's history.
func (r *ScanHistoryRepositoryPG) DeleteAll(ctx context.Context, userID string) error {
	if _, err := r.db.Exec(ctx, sqlinline.QDeleteScansForUser, userID); err != nil {
		return fmt.Errorf("repo: delete scans: %w", err)
	}
	return nil
}

func scanHistoryEntry(row pgx.Row, userID string) (*domain.ScanHistoryEntry, error) {
	var (
		e         domain.ScanHistoryEntry
		entryType string
		nutrition []byte
	)
	if err := row.Scan(&e.ID, &entryType, &e.Query, &e.ImageURL, &nutrition, &e.Demo, &e.Timestamp); err != nil {
		return nil, err
	}
	e.UserID = userID
	e.Type = domain.ScanType(entryType)
	if len(nutrition) > 0 {
		if err := json.Unmarshal(nutrition, &e.Nutrition); err != nil {
			return nil, fmt.Errorf("repo: decode nutrition: %w", err)
		}
	}
	return &e, nil
}

var _ domain.ScanHistoryRepository = (*ScanHistoryRepositoryPG)(nil)
