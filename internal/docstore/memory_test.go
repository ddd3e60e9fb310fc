package docstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"wellness/internal/domain"
)

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get(context.Background(), "users", "profile_x"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreMergeBumpsVersion(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	doc, err := s.Merge(ctx, "users", "profile_1", map[string]any{"name": "Ann"})
	if err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	if doc.Version != 1 {
		t.Fatalf("first version = %d, want 1", doc.Version)
	}
	doc, err = s.Merge(ctx, "users", "profile_1", map[string]any{"age": 31})
	if err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	if doc.Version != 2 {
		t.Fatalf("second version = %d, want 2", doc.Version)
	}
	if doc.Data["name"] != "Ann" || doc.Data["age"] != 31.0 {
		t.Fatalf("merged data = %#v", doc.Data)
	}
}

func TestMemoryStoreSetReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if _, err := s.Merge(ctx, "users", "k", map[string]any{"a": 1, "b": 2}); err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	doc, err := s.Set(ctx, "users", "k", map[string]any{"c": 3})
	if err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if len(doc.Data) != 1 || doc.Data["c"] != 3.0 {
		t.Fatalf("Set() data = %#v", doc.Data)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	doc, _ := s.Merge(ctx, "users", "k", map[string]any{"a": "x"})
	doc.Data["a"] = "mutated"

	got, err := s.Get(ctx, "users", "k")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Data["a"] != "x" {
		t.Fatalf("stored doc changed through returned copy: %#v", got.Data)
	}
}

func TestMemoryStoreDisjointConcurrentMerges(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.Merge(ctx, "users", "k", map[string]any{fmt.Sprintf("f%d", i): i})
		}(i)
	}
	wg.Wait()

	doc, err := s.Get(ctx, "users", "k")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if len(doc.Data) != 20 {
		t.Fatalf("lost fields: got %d keys", len(doc.Data))
	}
	if doc.Version != 20 {
		t.Fatalf("version = %d, want 20", doc.Version)
	}
}

func TestMemoryStoreRangeByKeyOrdered(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, k := range []string{"profile_zed_1", "profile_ann_2", "settings_x", "profile_Bob_3", "profile~"} {
		if _, err := s.Merge(ctx, "users", k, map[string]any{"k": k}); err != nil {
			t.Fatalf("Merge(%s) error: %v", k, err)
		}
	}

	docs, err := s.RangeByKey(ctx, "users", "profile_", "profile_~", 10)
	if err != nil {
		t.Fatalf("RangeByKey() error: %v", err)
	}
	want := []string{"profile_Bob_3", "profile_ann_2", "profile_zed_1"}
	if len(docs) != len(want) {
		t.Fatalf("RangeByKey() returned %d docs, want %d", len(docs), len(want))
	}
	for i, k := range want {
		if docs[i].Key != k {
			t.Fatalf("docs[%d].Key = %q, want %q", i, docs[i].Key, k)
		}
	}

	limited, _ := s.RangeByKey(ctx, "users", "profile_", "profile_~", 1)
	if len(limited) != 1 || limited[0].Key != "profile_Bob_3" {
		t.Fatalf("limited range = %+v", limited)
	}
}

func TestMemoryStoreFindEqual(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, _ = s.Merge(ctx, "users", "a", map[string]any{"email": "a@x.io", "age": 30, "prefs": map[string]any{"push": true}})
	_, _ = s.Merge(ctx, "users", "b", map[string]any{"email": "b@x.io", "age": 30})

	docs, err := s.FindEqual(ctx, "users", map[string]any{"age": 30}, 0)
	if err != nil {
		t.Fatalf("FindEqual() error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("FindEqual(age) = %d docs, want 2", len(docs))
	}

	docs, _ = s.FindEqual(ctx, "users", map[string]any{"prefs": map[string]any{"push": true}}, 0)
	if len(docs) != 1 || docs[0].Key != "a" {
		t.Fatalf("FindEqual(nested) = %+v", docs)
	}
}

func TestMemoryStoreDeleteMissingIsNoop(t *testing.T) {
	if err := NewMemoryStore().Delete(context.Background(), "users", "nope"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
}

func TestMemoryStoreSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewMemoryStore()

	ch, err := s.Subscribe(ctx, "users", "profile_1")
	if err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}
	_, _ = s.Merge(context.Background(), "users", "profile_2", map[string]any{"a": 1})
	_, _ = s.Merge(context.Background(), "users", "profile_1", map[string]any{"a": 1})
	_ = s.Delete(context.Background(), "users", "profile_1")

	want := []Change{
		{Op: OpInsert, Collection: "users", Key: "profile_1", Version: 1},
		{Op: OpDelete, Collection: "users", Key: "profile_1", Version: 1},
	}
	for i, w := range want {
		select {
		case got := <-ch:
			if got != w {
				t.Fatalf("change %d = %+v, want %+v", i, got, w)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for change %d", i)
		}
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("expected channel to close after cancel")
		}
	case <-time.After(time.Second):
		t.Fatalf("channel not closed after cancel")
	}
}
