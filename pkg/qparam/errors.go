package qparam

import (
	"sort"

	syncerrors "github.com/vango-dev/urlsync/internal/errors"
)

// Errors is the set of fields that failed the required check or parsing.
// A nil or empty set means no errors.
type Errors map[string]bool

// Has reports whether key has an error.
func (e Errors) Has(key string) bool {
	return e[key]
}

// Keys returns the erroring keys, sorted.
func (e Errors) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (e Errors) clone() Errors {
	if len(e) == 0 {
		return Errors{}
	}
	out := make(Errors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// ErrValidation matches every *ValidationError through errors.Is.
var ErrValidation = syncerrors.Sentinel(syncerrors.CodeValidation)

// ValidationError rejects an update before any field is applied.
type ValidationError struct {
	// Key is the offending field.
	Key string

	// Reason says what was wrong.
	Reason string

	// Err is the converter error, if the value failed to serialize.
	Err error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Key + ": " + e.Reason + ": " + e.Err.Error()
	}
	return e.Key + " " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return ErrValidation.Is(target)
}

// fieldError builds the cause recorded for an erroring field.
func fieldError(code, key string, cause error) error {
	err := syncerrors.New(code).WithKey(key)
	if cause != nil {
		err = err.Wrap(cause)
	}
	return err
}
