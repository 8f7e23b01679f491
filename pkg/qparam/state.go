package qparam

import "github.com/vango-dev/urlsync/pkg/query"

// Snapshot is the view of one key subset.
type Snapshot struct {
	// Params holds every key of the subset; undefined fields map to nil.
	Params map[string]any

	// Serialized holds the raw query value of keys present in the query string.
	Serialized map[string]string
}

// Get returns the parsed value of key.
func (s Snapshot) Get(key string) any {
	return s.Params[key]
}

// Raw returns the serialized value of key.
func (s Snapshot) Raw(key string) (string, bool) {
	v, ok := s.Serialized[key]
	return v, ok
}

// Value returns the parsed value of key as T. ok is false when the field is
// undefined, Null, or of another type.
func Value[T any](s Snapshot, key string) (T, bool) {
	v, ok := s.Params[key].(T)
	return v, ok
}

// computeState builds the snapshot of keys. When prev is non-nil the result
// starts from a shallow copy of it and only keys are recomputed.
func computeState(keys []string, parsed map[string]any, serialized *query.Query, prev *Snapshot) Snapshot {
	var next Snapshot
	if prev != nil {
		next.Params = make(map[string]any, len(prev.Params))
		for k, v := range prev.Params {
			next.Params[k] = v
		}
		next.Serialized = make(map[string]string, len(prev.Serialized))
		for k, v := range prev.Serialized {
			next.Serialized[k] = v
		}
	} else {
		next.Params = make(map[string]any, len(keys))
		next.Serialized = make(map[string]string, len(keys))
	}

	for _, key := range keys {
		next.Params[key] = parsed[key]
		if raw, ok := serialized.Get(key); ok {
			next.Serialized[key] = raw
		} else {
			delete(next.Serialized, key)
		}
	}
	return next
}
