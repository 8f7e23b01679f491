package qparam

import (
	"time"

	syncerrors "github.com/vango-dev/urlsync/internal/errors"
	"github.com/vango-dev/urlsync/pkg/query"
)

// KV is one field assignment of an Update. A nil Value clears the field.
type KV struct {
	Key   string
	Value any
}

// Update is an ordered partial assignment. Fields are applied in order.
type Update []KV

// With builds a single-field Update.
func With(key string, value any) Update {
	return Update{{Key: key, Value: value}}
}

// And appends an assignment.
func (u Update) And(key string, value any) Update {
	return append(u, KV{Key: key, Value: value})
}

// SetOptions controls how a local update is written back.
type SetOptions struct {
	// Message is handed to observers of the resulting flush.
	Message any

	// Replace overwrites the current navigation entry instead of pushing one.
	Replace bool
}

// construct performs the initial parse.
func (s *Store) construct(rawQuery string) {
	s.serialized = query.Parse(rawQuery)
	s.parsed = make(map[string]any, s.schema.Len())
	s.errors = Errors{}
	s.causes = map[string]error{}

	for _, key := range s.schema.keys {
		field := s.schema.fields[key]
		raw, present := s.serialized.Get(key)
		switch {
		case present:
			s.parseInto(field, raw, s.errors, s.causes)
		case field.required:
			s.errors[key] = true
			s.causes[key] = fieldError(syncerrors.CodeRequiredMissing, key, nil)
		default:
			if v, ok := field.resolveDefault(); ok {
				s.parsed[key] = v
			}
		}
	}

	if len(s.errors) > 0 {
		s.logger.Debug("query parsed with errors", "errors", s.errors.Keys())
	}
}

// parseInto parses raw for field, storing the value or recording an error.
func (s *Store) parseInto(field *FieldDescriptor, raw string, errs Errors, causes map[string]error) {
	v, ok, err := field.parseRaw(raw)
	if err != nil {
		delete(s.parsed, field.name)
		errs[field.name] = true
		causes[field.name] = fieldError(syncerrors.CodeParse, field.name, err)
		return
	}
	if ok {
		s.parsed[field.name] = v
	} else {
		delete(s.parsed, field.name)
	}
}

// HandleExternal diffs rawQuery against the current query string, replaces
// the error set and fans out to every subscription watching a changed key.
// It returns the changed keys. The first change after a Set is skipped when it
// is the query that Set wrote.
func (s *Store) HandleExternal(rawQuery string) []string {
	next := query.Parse(rawQuery)
	if s.awaiting {
		s.awaiting = false
		if next.Encode() == s.echo {
			s.logger.Debug("skipping self-sourced change", "query", rawQuery)
			return nil
		}
	}

	start := s.now()
	prev := s.serialized
	s.serialized = next

	errs := Errors{}
	causes := map[string]error{}
	var changed []string

	for _, key := range s.schema.keys {
		field := s.schema.fields[key]
		raw, present := next.Get(key)
		old, had := prev.Get(key)

		switch {
		case present && had && raw == old:
			// Unchanged raw keeps its previous outcome.
			if s.errors[key] {
				errs[key] = true
				causes[key] = s.causes[key]
			}
		case present:
			s.parseInto(field, raw, errs, causes)
			changed = append(changed, key)
		case field.required:
			errs[key] = true
			causes[key] = fieldError(syncerrors.CodeRequiredMissing, key, nil)
			delete(s.parsed, key)
			if had {
				changed = append(changed, key)
			}
		case had:
			if s.applyDefault(field, old) {
				changed = append(changed, key)
			}
		}
	}

	s.errors = errs
	s.causes = causes

	if len(changed) > 0 {
		s.fanout(changed)
	}

	s.probe.PassCompleted(Pass{
		Op:       OpExternal,
		Started:  start,
		Duration: s.now().Sub(start),
		Changed:  changed,
		Errors:   len(errs),
	})
	return changed
}

// applyDefault resolves the default of a field leaving the query string whose
// last raw value was old. It reports whether the field changed.
func (s *Store) applyDefault(field *FieldDescriptor, old string) bool {
	v, ok := field.resolveDefault()
	if !ok {
		delete(s.parsed, field.name)
		return true
	}
	raw, present, err := field.serializeValue(v)
	if err != nil {
		s.logger.Warn("default does not serialize", "key", field.name, "error", err)
		s.parsed[field.name] = v
		return true
	}
	if present && raw == old {
		return false
	}
	s.parsed[field.name] = v
	return true
}

type pendingWrite struct {
	field   *FieldDescriptor
	value   any
	raw     string
	present bool
}

// Set applies update in order, fans out and writes the new query string to
// the navigator. The whole update is validated first; a *ValidationError
// leaves the store untouched. An update that changes nothing is a no-op.
//
// When the navigator rejects the write the store keeps the update, flushes
// its own observers and returns the navigator's error.
func (s *Store) Set(update Update, opts SetOptions) error {
	start := s.now()
	changed, err := s.apply(update)
	s.probe.PassCompleted(Pass{
		Op:       OpLocal,
		Started:  start,
		Duration: s.now().Sub(start),
		Changed:  changed,
		Errors:   len(s.errors),
		Err:      err,
	})
	if err != nil || len(changed) == 0 {
		return err
	}

	s.message = opts.Message
	s.pending = true
	s.fanout(changed)

	if s.navigator == nil {
		s.Flush()
		return nil
	}
	s.echo = s.serialized.Encode()
	s.awaiting = true
	if opts.Replace {
		err = s.navigator.Replace(s.echo)
	} else {
		err = s.navigator.Push(s.echo)
	}
	if err != nil {
		s.awaiting = false
		s.logger.Warn("navigation write failed", "query", s.echo, "error", err)
		s.Flush()
	}
	return err
}

// SetValues applies values in schema order.
func (s *Store) SetValues(values map[string]any, opts SetOptions) error {
	update := make(Update, 0, len(values))
	for _, key := range s.schema.keys {
		if v, ok := values[key]; ok {
			update = append(update, KV{Key: key, Value: v})
		}
	}
	for key, v := range values {
		if _, ok := s.schema.fields[key]; !ok {
			update = append(update, KV{Key: key, Value: v})
		}
	}
	return s.Set(update, opts)
}

// apply validates and writes update, returning the changed keys.
func (s *Store) apply(update Update) ([]string, error) {
	writes := make([]pendingWrite, 0, len(update))
	for _, kv := range update {
		field, ok := s.schema.fields[kv.Key]
		if !ok {
			return nil, &ValidationError{Key: kv.Key, Reason: "is not in the schema"}
		}
		raw, present, err := field.serializeValue(kv.Value)
		if err != nil {
			return nil, &ValidationError{Key: kv.Key, Reason: "cannot be serialized", Err: err}
		}
		if !present && field.required {
			return nil, &ValidationError{Key: kv.Key, Reason: "is required"}
		}
		writes = append(writes, pendingWrite{field: field, value: kv.Value, raw: raw, present: present})
	}

	var changed []string
	mark := func(key string) {
		if !contains(changed, key) {
			changed = append(changed, key)
		}
	}

	for _, w := range writes {
		key := w.field.name
		current, had := s.serialized.Get(key)
		if w.present {
			if !had || current != w.raw {
				s.serialized.Set(key, w.raw)
				s.parsed[key] = w.value
				mark(key)
			}
		} else if had {
			if s.applyDefault(w.field, current) {
				mark(key)
			}
			s.serialized.Delete(key)
		}
		if s.errors[key] {
			delete(s.errors, key)
			delete(s.causes, key)
			mark(key)
		}
	}
	return changed, nil
}

// stamp records the metadata of a fanout pass. Changed keys accumulate until
// Flush.
func (s *Store) stamp(changed []string) {
	for _, key := range changed {
		if !contains(s.changedKeys, key) {
			s.changedKeys = append(s.changedKeys, key)
		}
	}
	s.version++
	now := s.now()
	if !now.After(s.changedAt) {
		now = s.changedAt.Add(time.Nanosecond)
	}
	s.changedAt = now
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
