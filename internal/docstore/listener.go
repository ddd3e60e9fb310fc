package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"wellness/internal/infra"
)

// NotifyChannel is the Postgres channel the documents trigger notifies on.
const NotifyChannel = "docstore_changes"

// Listener turns Postgres notifications from the documents trigger into
// Change events for subscribers.
type Listener struct {
	pq     *pq.Listener
	hub    *hub
	logger infra.Logger
}

// NewListener opens a dedicated LISTEN connection on dsn.
func NewListener(dsn string, logger infra.Logger) (*Listener, error) {
	logger = infra.Component(logger, "docstore_listener")
	callback := func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnectionAttemptFailed, pq.ListenerEventDisconnected:
			logger.Warn().Err(err).Int("event", int(ev)).Msg("listener connection problem")
		case pq.ListenerEventReconnected:
			logger.Info().Msg("listener reconnected")
		}
	}
	l := pq.NewListener(dsn, 10*time.Second, time.Minute, callback)
	if err := l.Listen(NotifyChannel); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("docstore: listen %s: %w", NotifyChannel, err)
	}
	return &Listener{pq: l, hub: newHub(), logger: logger}, nil
}

// Subscribe registers interest in one document until ctx is done.
func (l *Listener) Subscribe(ctx context.Context, collection, key string) <-chan Change {
	return l.hub.subscribe(ctx, collection, key)
}

// Run dispatches notifications until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return l.pq.Close()
		case n := <-l.pq.Notify:
			// A nil notification follows a reconnect.
			if n == nil {
				continue
			}
			change, err := ParseChange(n.Extra)
			if err != nil {
				l.logger.Warn().Err(err).Str("payload", n.Extra).Msg("bad change notification")
				continue
			}
			l.hub.publish(change)
		case <-ping.C:
			if err := l.pq.Ping(); err != nil {
				l.logger.Warn().Err(err).Msg("listener ping failed")
			}
		}
	}
}

// ParseChange decodes a documents trigger payload.
func ParseChange(payload string) (Change, error) {
	var c Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return Change{}, fmt.Errorf("docstore: decode change: %w", err)
	}
	if c.Collection == "" || c.Key == "" {
		return Change{}, fmt.Errorf("docstore: change without collection or key")
	}
	return c, nil
}
