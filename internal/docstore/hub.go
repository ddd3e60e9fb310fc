package docstore

import (
	"context"
	"sync"
)

type subscriber struct {
	collection string
	key        string
	ch         chan Change
}

// hub fans changes out to subscribers. Slow subscribers miss changes rather
// than block the publisher.
type hub struct {
	mu   sync.Mutex
	next int
	subs map[int]*subscriber
}

func newHub() *hub {
	return &hub{subs: make(map[int]*subscriber)}
}

func (h *hub) subscribe(ctx context.Context, collection, key string) <-chan Change {
	sub := &subscriber{collection: collection, key: key, ch: make(chan Change, 16)}

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = sub
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
		close(sub.ch)
	}()

	return sub.ch
}

func (h *hub) publish(c Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		if sub.collection != c.Collection || sub.key != c.Key {
			continue
		}
		select {
		case sub.ch <- c:
		default:
		}
	}
}

func (h *hub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
