package query

import (
	"sort"
	"strings"
)

type pair struct {
	key   string
	value string
}

// Query is an ordered list of key/value pairs.
type Query struct {
	pairs []pair
}

// Parse parses a raw query string. A leading "?" is ignored, empty segments
// are skipped and malformed percent escapes are kept verbatim.
func Parse(raw string) *Query {
	raw = strings.TrimPrefix(raw, "?")
	q := &Query{}
	if raw == "" {
		return q
	}
	for _, segment := range strings.Split(raw, "&") {
		if segment == "" {
			continue
		}
		key, value, _ := strings.Cut(segment, "=")
		q.pairs = append(q.pairs, pair{key: decode(key), value: decode(value)})
	}
	return q
}

// Len returns the number of pairs.
func (q *Query) Len() int {
	return len(q.pairs)
}

// Has reports whether key is present.
func (q *Query) Has(key string) bool {
	_, ok := q.Get(key)
	return ok
}

// Get returns the first value for key.
func (q *Query) Get(key string) (string, bool) {
	for _, p := range q.pairs {
		if p.key == key {
			return p.value, true
		}
	}
	return "", false
}

// GetAll returns every value for key in order.
func (q *Query) GetAll(key string) []string {
	var out []string
	for _, p := range q.pairs {
		if p.key == key {
			out = append(out, p.value)
		}
	}
	return out
}

// Set replaces the first pair for key and drops the others, or appends a new
// pair when key is absent.
func (q *Query) Set(key, value string) {
	found := false
	kept := q.pairs[:0]
	for _, p := range q.pairs {
		if p.key != key {
			kept = append(kept, p)
			continue
		}
		if !found {
			p.value = value
			kept = append(kept, p)
			found = true
		}
	}
	q.pairs = kept
	if !found {
		q.pairs = append(q.pairs, pair{key: key, value: value})
	}
}

// Append adds a pair without touching existing ones.
func (q *Query) Append(key, value string) {
	q.pairs = append(q.pairs, pair{key: key, value: value})
}

// Delete removes every pair for key.
func (q *Query) Delete(key string) {
	kept := q.pairs[:0]
	for _, p := range q.pairs {
		if p.key != key {
			kept = append(kept, p)
		}
	}
	q.pairs = kept
}

// Keys returns the distinct keys in first-occurrence order.
func (q *Query) Keys() []string {
	seen := make(map[string]struct{}, len(q.pairs))
	keys := make([]string, 0, len(q.pairs))
	for _, p := range q.pairs {
		if _, ok := seen[p.key]; ok {
			continue
		}
		seen[p.key] = struct{}{}
		keys = append(keys, p.key)
	}
	return keys
}

// Sort orders pairs by key, keeping the relative order of equal keys.
func (q *Query) Sort() {
	sort.SliceStable(q.pairs, func(i, j int) bool {
		return q.pairs[i].key < q.pairs[j].key
	})
}

// Clone returns an independent copy.
func (q *Query) Clone() *Query {
	c := &Query{pairs: make([]pair, len(q.pairs))}
	copy(c.pairs, q.pairs)
	return c
}

// Map returns the first value of every key.
func (q *Query) Map() map[string]string {
	out := make(map[string]string, len(q.pairs))
	for i := len(q.pairs) - 1; i >= 0; i-- {
		out[q.pairs[i].key] = q.pairs[i].value
	}
	return out
}

// Encode renders the pairs without a leading "?".
func (q *Query) Encode() string {
	var b strings.Builder
	for i, p := range q.pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(encode(p.key))
		b.WriteByte('=')
		b.WriteString(encode(p.value))
	}
	return b.String()
}

// String is Encode.
func (q *Query) String() string {
	return q.Encode()
}
