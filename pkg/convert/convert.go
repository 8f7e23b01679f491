package convert

import (
	"fmt"
	"strings"

	syncerrors "github.com/vango-dev/urlsync/internal/errors"
)

// Converter is a codec for one schema field.
type Converter[T any] interface {
	// Parse interprets a raw query value. ok is false when raw carries no value.
	Parse(raw string) (value T, ok bool, err error)

	// Serialize renders value. ok is false when the key should be omitted.
	Serialize(value T) (raw string, ok bool, err error)
}

// Sentinels for errors.Is checks against converter failures.
var (
	ErrParse      = syncerrors.Sentinel(syncerrors.CodeParse)
	ErrMembership = syncerrors.Sentinel(syncerrors.CodeMembership)
)

// ParseError is returned when a raw string cannot represent a valid value.
type ParseError struct {
	// Raw is the offending query value.
	Raw string

	// Type names the target type ("number", "boolean", ...).
	Type string

	// Err is the underlying failure, if any.
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot parse %q as %s: %v", e.Raw, e.Type, e.Err)
	}
	return fmt.Sprintf("cannot parse %q as %s", e.Raw, e.Type)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is matches ErrParse.
func (e *ParseError) Is(target error) bool {
	return ErrParse.Is(target)
}

// MembershipError is returned by a one-of converter for a value outside its set.
type MembershipError struct {
	// Value is the rejected value (raw string on Parse, typed value on Serialize).
	Value any

	// Allowed lists the permitted values in declaration order.
	Allowed []any
}

func (e *MembershipError) Error() string {
	parts := make([]string, len(e.Allowed))
	for i, v := range e.Allowed {
		parts[i] = fmt.Sprint(v)
	}
	return fmt.Sprintf("%v is not found in [%s]", e.Value, strings.Join(parts, ", "))
}

// Is matches ErrMembership.
func (e *MembershipError) Is(target error) bool {
	return ErrMembership.Is(target)
}

// Funcs adapts a pair of functions into a Converter.
type Funcs[T any] struct {
	ParseFunc     func(raw string) (T, bool, error)
	SerializeFunc func(value T) (string, bool, error)
}

// Parse calls ParseFunc.
func (f Funcs[T]) Parse(raw string) (T, bool, error) {
	return f.ParseFunc(raw)
}

// Serialize calls SerializeFunc.
func (f Funcs[T]) Serialize(value T) (string, bool, error) {
	return f.SerializeFunc(value)
}

// New builds a Converter from parse and serialize functions.
func New[T any](parse func(string) (T, bool, error), serialize func(T) (string, bool, error)) Converter[T] {
	return Funcs[T]{ParseFunc: parse, SerializeFunc: serialize}
}
