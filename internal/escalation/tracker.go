package escalation

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Key identifies one notification: a ticket, a level and a track. Each key
// fires at most once over the life of the ticket.
type Key struct {
	TicketID string
	Level    Level
	Track    Track
}

func (k Key) String() string {
	return k.TicketID + ":" + string(k.Level) + ":" + string(k.Track)
}

// KeyFor derives the dedup key for an event.
func KeyFor(event Event) Key {
	return Key{TicketID: event.Ticket.TicketID, Level: event.Level, Track: event.Track}
}

// Tracker is the dedup capability guarding repeat notifications. Record must
// be idempotent: concurrent schedulers recording the same key converge to a
// single entry.
type Tracker interface {
	Seen(ctx context.Context, key Key) (bool, error)
	Record(ctx context.Context, key Key) error
}

// RecordStore is the durable ledger behind the default tracker, backed by a
// table with a uniqueness constraint on the key triple.
type RecordStore interface {
	Exists(ctx context.Context, ticketID, level, track string) (bool, error)
	Insert(ctx context.Context, ticketID, level, track string) error
	Healthy(ctx context.Context) error
}

type durableTracker struct {
	store RecordStore
}

// NewDurableTracker wraps a record store as a Tracker.
func NewDurableTracker(store RecordStore) Tracker {
	return &durableTracker{store: store}
}

func (t *durableTracker) Seen(ctx context.Context, key Key) (bool, error) {
	return t.store.Exists(ctx, key.TicketID, string(key.Level), string(key.Track))
}

func (t *durableTracker) Record(ctx context.Context, key Key) error {
	return t.store.Insert(ctx, key.TicketID, string(key.Level), string(key.Track))
}

type memoryTracker struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryTracker returns a process-local tracker. It loses state on
// restart, so previously sent notifications become eligible again; an
// accepted degradation when no durable store is reachable.
func NewMemoryTracker() Tracker {
	return &memoryTracker{seen: make(map[string]struct{})}
}

func (t *memoryTracker) Seen(_ context.Context, key Key) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.seen[key.String()]
	return ok, nil
}

func (t *memoryTracker) Record(_ context.Context, key Key) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seen[key.String()] = struct{}{}
	return nil
}

// SelectTracker probes the durable store once at construction time and picks
// the implementation: durable when healthy, in-memory otherwise. The
// degradation is logged a single time here rather than per request.
func SelectTracker(ctx context.Context, store RecordStore, logger *zap.Logger) Tracker {
	if store == nil {
		logger.Warn("no notification record store configured, using in-memory dedup tracking")
		return NewMemoryTracker()
	}
	if err := store.Healthy(ctx); err != nil {
		logger.Warn("notification record store unavailable, using in-memory dedup tracking", zap.Error(err))
		return NewMemoryTracker()
	}
	return NewDurableTracker(store)
}
