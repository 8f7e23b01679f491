package qparam

import (
	"log/slog"
	"time"

	"github.com/vango-dev/urlsync/pkg/query"
)

// Navigator writes a full query string back to the navigation source.
// pkg/relay implements it.
type Navigator interface {
	Push(rawQuery string) error
	Replace(rawQuery string) error
}

// Store is the parameter store of one schema scope. It owns the parsed map,
// the serialized query, the error set and the subscription buckets.
//
// A Store is not safe for concurrent use; all calls must come from the host's
// event loop.
type Store struct {
	schema     *Schema
	parsed     map[string]any
	serialized *query.Query
	errors     Errors
	causes     map[string]error
	subs       *subscriptions

	// per-cycle state, reset by Flush
	queue       []*record
	changedKeys []string
	message     any
	pending     bool
	flushing    bool

	// echo is the query written by the last Set until the navigation source
	// reports it back.
	echo     string
	awaiting bool

	version   uint64
	changedAt time.Time

	navigator Navigator
	logger    *slog.Logger
	probe     Probe
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithNavigator sets where local updates are written.
// Without a navigator, Set flushes observers synchronously.
func WithNavigator(n Navigator) Option {
	return func(s *Store) {
		s.navigator = n
	}
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithProbe sets the instrumentation probe.
func WithProbe(p Probe) Option {
	return func(s *Store) {
		s.probe = p
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore parses rawQuery against schema. Parse failures and missing
// required fields do not fail construction; they are reported by Errors.
func NewStore(schema *Schema, rawQuery string, opts ...Option) *Store {
	s := &Store{
		schema: schema,
		subs:   newSubscriptions(),
		probe:  nopProbe{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "qparam")

	start := s.now()
	s.construct(rawQuery)
	s.probe.PassCompleted(Pass{
		Op:       OpConstruct,
		Started:  start,
		Duration: s.now().Sub(start),
		Errors:   len(s.errors),
	})
	return s
}

// Schema returns the store's schema.
func (s *Store) Schema() *Schema { return s.schema }

// Errors returns a copy of the current error set.
func (s *Store) Errors() Errors { return s.errors.clone() }

// ErrorCause returns the error recorded for key, if any.
func (s *Store) ErrorCause(key string) error { return s.causes[key] }

// Query returns the serialized query string without a leading "?".
func (s *Store) Query() string { return s.serialized.Encode() }

// Message returns the message of the update being flushed. ok is false when
// the current change did not come from Set.
func (s *Store) Message() (msg any, ok bool) { return s.message, s.pending }

// ChangedKeys returns the keys changed since the last flush, in the order
// they first changed.
func (s *Store) ChangedKeys() []string {
	out := make([]string, len(s.changedKeys))
	copy(out, s.changedKeys)
	return out
}

// Version increases by one on every fanout.
func (s *Store) Version() uint64 { return s.version }

// ChangedAt returns the wall time of the last fanout.
func (s *Store) ChangedAt() time.Time { return s.changedAt }

// Pending reports whether a local update is waiting for its flush.
func (s *Store) Pending() bool { return s.pending }

// State computes a fresh snapshot of keys (all schema keys when empty). Unlike
// Subscription.Snapshot it always reflects the current maps.
func (s *Store) State(keys ...string) Snapshot {
	if len(keys) == 0 {
		keys = s.schema.keys
	}
	return computeState(keys, s.parsed, s.serialized, nil)
}

// ValidState computes the snapshot of every key without an error, for
// rendering an error view next to the values that did parse.
func (s *Store) ValidState() Snapshot {
	keys := make([]string, 0, len(s.schema.keys))
	for _, key := range s.schema.keys {
		if !s.errors[key] {
			keys = append(keys, key)
		}
	}
	return computeState(keys, s.parsed, s.serialized, nil)
}

// Register subscribes fn to keys (every schema key when empty). Observers of
// the same key subset, in any order, share one bucket.
func (s *Store) Register(keys []string, fn Observer) *Subscription {
	sig, sorted, filter := signature(s.schema, keys)

	rec, ok := s.subs.bySig[sig]
	if !ok {
		rec = &record{
			signature: sig,
			keys:      sorted,
			filter:    filter,
			snapshot:  computeState(sorted, s.parsed, s.serialized, nil),
		}
		s.subs.bySig[sig] = rec
		s.subs.order = append(s.subs.order, rec)
	}

	s.subs.nextID++
	id := s.subs.nextID
	rec.observers = append(rec.observers, observerEntry{id: id, fn: fn})

	return &Subscription{store: s, rec: rec, id: id}
}

// ChangeFunc receives the bucket snapshot, the changed keys it watches and
// the message passed to Set (nil for external changes).
type ChangeFunc func(state Snapshot, changed []string, message any)

// OnChange subscribes fn to keys and calls it with the change details.
func (s *Store) OnChange(keys []string, fn ChangeFunc) *Subscription {
	var sub *Subscription
	sub = s.Register(keys, func() {
		changed := sub.rec.intersect(s.changedKeys)
		var msg any
		if s.pending {
			msg = s.message
		}
		fn(sub.Snapshot(), changed, msg)
	})
	return sub
}

// SubscriptionCount returns the number of live buckets.
func (s *Store) SubscriptionCount() int { return len(s.subs.order) }
