package docstore

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"time"

	"wellness/internal/domain"
)

type memKey struct {
	collection string
	key        string
}

// MemoryStore is an in-process Store used by tests and the CLI dry runs.
// Writes publish changes to subscribers synchronously.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[memKey]*Document
	hub  *hub
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[memKey]*Document), hub: newHub(), now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, collection, key string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[memKey{collection, key}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(doc)
}

func (m *MemoryStore) Set(ctx context.Context, collection, key string, data map[string]any) (*Document, error) {
	return m.write(collection, key, data, false)
}

func (m *MemoryStore) Merge(ctx context.Context, collection, key string, data map[string]any) (*Document, error) {
	return m.write(collection, key, data, true)
}

func (m *MemoryStore) write(collection, key string, data map[string]any, merge bool) (*Document, error) {
	if key == "" {
		return nil, domain.Invalid("key", "is required")
	}
	patch, err := normalize(data)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	now := m.now().UTC()
	k := memKey{collection, key}
	op := OpUpdate
	doc, ok := m.docs[k]
	if !ok {
		op = OpInsert
		doc = &Document{Collection: collection, Key: key, Data: patch, Version: 1, CreatedAt: now, UpdatedAt: now}
		m.docs[k] = doc
	} else {
		if merge {
			doc.Data = DeepMerge(doc.Data, patch)
		} else {
			doc.Data = patch
		}
		doc.Version++
		doc.UpdatedAt = now
	}
	out, err := clone(doc)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	m.hub.publish(Change{Op: op, Collection: collection, Key: key, Version: out.Version})
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, collection, key string) error {
	m.mu.Lock()
	k := memKey{collection, key}
	doc, ok := m.docs[k]
	delete(m.docs, k)
	m.mu.Unlock()

	if ok {
		m.hub.publish(Change{Op: OpDelete, Collection: collection, Key: key, Version: doc.Version})
	}
	return nil
}

func (m *MemoryStore) RangeByKey(_ context.Context, collection, start, end string, limit int) ([]Document, error) {
	return m.selectDocs(collection, clampLimit(limit), func(d *Document) bool {
		return d.Key >= start && d.Key < end
	})
}

func (m *MemoryStore) FindEqual(_ context.Context, collection string, fields map[string]any, limit int) ([]Document, error) {
	filter, err := normalize(fields)
	if err != nil {
		return nil, err
	}
	return m.selectDocs(collection, clampLimit(limit), func(d *Document) bool {
		return contains(d.Data, filter)
	})
}

func (m *MemoryStore) Subscribe(ctx context.Context, collection, key string) (<-chan Change, error) {
	return m.hub.subscribe(ctx, collection, key), nil
}

func (m *MemoryStore) selectDocs(collection string, limit int, match func(*Document) bool) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k, d := range m.docs {
		if k.collection == collection && match(d) {
			keys = append(keys, k.key)
		}
	}
	sort.Strings(keys)
	if len(keys) > limit {
		keys = keys[:limit]
	}

	docs := make([]Document, 0, len(keys))
	for _, key := range keys {
		c, err := clone(m.docs[memKey{collection, key}])
		if err != nil {
			return nil, err
		}
		docs = append(docs, *c)
	}
	return docs, nil
}

func clone(d *Document) (*Document, error) {
	data, err := normalize(d.Data)
	if err != nil {
		return nil, err
	}
	c := *d
	c.Data = data
	return &c, nil
}

// contains mirrors jsonb @> for decoded JSON values.
func contains(have, want any) bool {
	switch w := want.(type) {
	case map[string]any:
		h, ok := have.(map[string]any)
		if !ok {
			return false
		}
		for k, wv := range w {
			hv, ok := h[k]
			if !ok || !contains(hv, wv) {
				return false
			}
		}
		return true
	case []any:
		h, ok := have.([]any)
		if !ok {
			return false
		}
		for _, wv := range w {
			found := false
			for _, hv := range h {
				if contains(hv, wv) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(have, want)
	}
}

var _ Store = (*MemoryStore)(nil)
