package docstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"wellness/internal/domain"
	"wellness/internal/infra"
	"wellness/internal/sqlinline"
)

// PostgresStore keeps documents in the documents table. Merges run as a
// single upsert using jsonb_deep_merge, so concurrent merges of disjoint
// fields never lose data.
type PostgresStore struct {
	db       infra.SQLExecutor
	listener *Listener
}

// NewPostgresStore builds a store on db. listener may be nil, in which case
// Subscribe returns ErrSubscribeUnavailable.
func NewPostgresStore(db infra.SQLExecutor, listener *Listener) *PostgresStore {
	return &PostgresStore{db: db, listener: listener}
}

func (s *PostgresStore) Get(ctx context.Context, collection, key string) (*Document, error) {
	doc := &Document{Collection: collection, Key: key}
	var raw []byte
	err := s.db.QueryRow(ctx, sqlinline.QDocumentGet, collection, key).
		Scan(&raw, &doc.Version, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("docstore: get %s/%s: %w", collection, key, err)
	}
	if doc.Data, err = decode(raw); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *PostgresStore) Set(ctx context.Context, collection, key string, data map[string]any) (*Document, error) {
	return s.write(ctx, sqlinline.QDocumentSet, "set", collection, key, data)
}

func (s *PostgresStore) Merge(ctx context.Context, collection, key string, data map[string]any) (*Document, error) {
	return s.write(ctx, sqlinline.QDocumentMerge, "merge", collection, key, data)
}

func (s *PostgresStore) write(ctx context.Context, query, action, collection, key string, data map[string]any) (*Document, error) {
	if key == "" {
		return nil, domain.Invalid("key", "is required")
	}
	if data == nil {
		data = map[string]any{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode %s/%s: %w", collection, key, err)
	}

	doc := &Document{Collection: collection, Key: key}
	var raw []byte
	err = s.db.QueryRow(ctx, query, collection, key, payload).
		Scan(&raw, &doc.Version, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("docstore: %s %s/%s: %w", action, collection, key, err)
	}
	if doc.Data, err = decode(raw); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, key string) error {
	if _, err := s.db.Exec(ctx, sqlinline.QDocumentDelete, collection, key); err != nil {
		return fmt.Errorf("docstore: delete %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *PostgresStore) RangeByKey(ctx context.Context, collection, start, end string, limit int) ([]Document, error) {
	rows, err := s.db.Query(ctx, sqlinline.QDocumentRange, collection, start, end, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("docstore: range %s: %w", collection, err)
	}
	return scanDocuments(rows, collection)
}

func (s *PostgresStore) FindEqual(ctx context.Context, collection string, fields map[string]any, limit int) ([]Document, error) {
	filter, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode filter: %w", err)
	}
	rows, err := s.db.Query(ctx, sqlinline.QDocumentFindEqual, collection, filter, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("docstore: find %s: %w", collection, err)
	}
	return scanDocuments(rows, collection)
}

func (s *PostgresStore) Subscribe(ctx context.Context, collection, key string) (<-chan Change, error) {
	if s.listener == nil {
		return nil, ErrSubscribeUnavailable
	}
	return s.listener.Subscribe(ctx, collection, key), nil
}

func scanDocuments(rows pgx.Rows, collection string) ([]Document, error) {
	defer rows.Close()
	var docs []Document
	for rows.Next() {
		doc := Document{Collection: collection}
		var raw []byte
		if err := rows.Scan(&doc.Key, &raw, &doc.Version, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("docstore: scan %s: %w", collection, err)
		}
		data, err := decode(raw)
		if err != nil {
			return nil, err
		}
		doc.Data = data
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("docstore: iterate %s: %w", collection, err)
	}
	return docs, nil
}

var _ Store = (*PostgresStore)(nil)
