package qparam

import "strings"

// Observer is notified when a subscribed key changes.
type Observer func()

// wildcard is the signature of the whole-schema bucket.
const wildcard = ""

// signatureSeparator joins keys in a signature. NUL cannot occur in a
// sensible field name.
const signatureSeparator = "\x00"

type observerEntry struct {
	id uint64
	fn Observer
}

// record is one subscription bucket: every observer of the same key subset
// shares its snapshot.
type record struct {
	signature string
	keys      []string
	filter    map[string]struct{} // nil for the wildcard bucket
	snapshot  Snapshot
	observers []observerEntry
}

// intersect returns the changed keys this record watches, in changed order.
func (r *record) intersect(changed []string) []string {
	if r.filter == nil {
		return changed
	}
	var out []string
	for _, key := range changed {
		if _, ok := r.filter[key]; ok {
			out = append(out, key)
		}
	}
	return out
}

// watching reports whether the record's subset contains key.
func (r *record) watching(key string) bool {
	if r.filter == nil {
		return true
	}
	_, ok := r.filter[key]
	return ok
}

// observerFuncs copies the current observer list.
func (r *record) observerFuncs() []Observer {
	out := make([]Observer, len(r.observers))
	for i, o := range r.observers {
		out[i] = o.fn
	}
	return out
}

func (r *record) remove(id uint64) {
	for i, o := range r.observers {
		if o.id == id {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			return
		}
	}
}

// subscriptions holds records in insertion order.
type subscriptions struct {
	order  []*record
	bySig  map[string]*record
	nextID uint64
}

func newSubscriptions() *subscriptions {
	return &subscriptions{bySig: make(map[string]*record)}
}

func (s *subscriptions) drop(r *record) {
	if s.bySig[r.signature] == r {
		delete(s.bySig, r.signature)
	}
	for i, existing := range s.order {
		if existing == r {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// signature canonicalizes a requested key list against the schema order.
// Empty requests and requests covering every schema key map to the wildcard
// bucket; unknown keys are ignored.
func signature(schema *Schema, requested []string) (sig string, keys []string, filter map[string]struct{}) {
	if len(requested) == 0 {
		return wildcard, schema.Keys(), nil
	}

	want := make(map[string]struct{}, len(requested))
	for _, key := range requested {
		want[key] = struct{}{}
	}

	filter = make(map[string]struct{}, len(want))
	for _, key := range schema.keys {
		if _, ok := want[key]; ok {
			keys = append(keys, key)
			filter[key] = struct{}{}
		}
	}

	if len(keys) == schema.Len() {
		return wildcard, schema.Keys(), nil
	}
	if len(keys) == 0 {
		return signatureSeparator, nil, filter
	}
	return strings.Join(keys, signatureSeparator), keys, filter
}

// Subscription is the handle returned by Register.
type Subscription struct {
	store  *Store
	rec    *record
	id     uint64
	closed bool
}

// Snapshot returns the cached snapshot of the subscription's bucket. It is
// refreshed by fanout, not recomputed on each call.
func (s *Subscription) Snapshot() Snapshot {
	return s.rec.snapshot
}

// Keys returns the schema-ordered keys the subscription watches.
func (s *Subscription) Keys() []string {
	out := make([]string, len(s.rec.keys))
	copy(out, s.rec.keys)
	return out
}

// Signature returns the canonical bucket signature.
func (s *Subscription) Signature() string {
	return s.rec.signature
}

// Unregister detaches the observer. The bucket is dropped once it has no
// observers left. Calling Unregister twice is a no-op.
func (s *Subscription) Unregister() {
	if s.closed {
		return
	}
	s.closed = true
	s.rec.remove(s.id)
	if len(s.rec.observers) == 0 {
		s.store.subs.drop(s.rec)
	}
}
