package qparam

import (
	"fmt"
	"reflect"

	syncerrors "github.com/vango-dev/urlsync/internal/errors"
	"github.com/vango-dev/urlsync/pkg/convert"
)

// nullValue is the type of Null.
type nullValue struct{}

func (nullValue) String() string { return nullLiteral }

// Null is the parsed value of a nullable field whose raw value is "null".
// Passing Null in an update writes the literal "null".
var Null any = nullValue{}

const nullLiteral = "null"

// IsNull reports whether v is Null.
func IsNull(v any) bool {
	_, ok := v.(nullValue)
	return ok
}

// FieldDescriptor is the type-erased schema entry for one field.
type FieldDescriptor struct {
	name         string
	typ          reflect.Type
	nullable     bool
	required     bool
	defaultValue any
	defaultFunc  func() any

	parse     func(raw string) (any, bool, error)
	serialize func(value any) (string, bool, error)
}

// FieldOption configures a field.
type FieldOption func(*FieldDescriptor)

// Required marks the field as required. A missing required field is reported
// in the error set, and clearing it through an update is rejected.
func Required() FieldOption {
	return func(f *FieldDescriptor) {
		f.required = true
	}
}

// Nullable lets the literal raw value "null" parse to Null.
func Nullable() FieldOption {
	return func(f *FieldDescriptor) {
		f.nullable = true
	}
}

// Default sets the value used when the field is absent from the query string.
func Default(value any) FieldOption {
	return func(f *FieldDescriptor) {
		f.defaultValue = value
		f.defaultFunc = nil
	}
}

// DefaultFunc sets a function computing the default on every resolution.
func DefaultFunc(fn func() any) FieldOption {
	return func(f *FieldDescriptor) {
		f.defaultFunc = fn
		f.defaultValue = nil
	}
}

// Field declares a schema field named name using conv.
//
//	qparam.Field("page", convert.Number, qparam.Default(1.0))
func Field[T any](name string, conv convert.Converter[T], opts ...FieldOption) *FieldDescriptor {
	f := &FieldDescriptor{
		name: name,
		typ:  reflect.TypeOf((*T)(nil)).Elem(),
		parse: func(raw string) (any, bool, error) {
			v, ok, err := conv.Parse(raw)
			if err != nil || !ok {
				return nil, false, err
			}
			return v, true, nil
		},
	}
	f.serialize = func(value any) (string, bool, error) {
		v, ok := value.(T)
		if !ok {
			return "", false, syncerrors.New(syncerrors.CodeTypeMismatch).
				WithKey(name).
				WithDetail(fmt.Sprintf("got %T, want %s", value, f.typ))
		}
		return conv.Serialize(v)
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the field name.
func (f *FieldDescriptor) Name() string { return f.name }

// Type returns the Go type of the field's values.
func (f *FieldDescriptor) Type() reflect.Type { return f.typ }

// IsRequired reports whether the field is required.
func (f *FieldDescriptor) IsRequired() bool { return f.required }

// IsNullable reports whether the field accepts Null.
func (f *FieldDescriptor) IsNullable() bool { return f.nullable }

// HasDefault reports whether a default value is configured.
func (f *FieldDescriptor) HasDefault() bool {
	return f.defaultFunc != nil || f.defaultValue != nil
}

// resolveDefault returns the default, invoking DefaultFunc if set.
func (f *FieldDescriptor) resolveDefault() (any, bool) {
	if f.defaultFunc != nil {
		v := f.defaultFunc()
		return v, v != nil
	}
	return f.defaultValue, f.defaultValue != nil
}

// parseRaw applies the nullable sentinel and the converter.
func (f *FieldDescriptor) parseRaw(raw string) (any, bool, error) {
	if f.nullable && raw == nullLiteral {
		return Null, true, nil
	}
	return f.parse(raw)
}

// serializeValue renders value. nil is "omit".
func (f *FieldDescriptor) serializeValue(value any) (string, bool, error) {
	if value == nil {
		return "", false, nil
	}
	if IsNull(value) {
		if !f.nullable {
			return "", false, syncerrors.New(syncerrors.CodeValidation).
				WithKey(f.name).
				WithDetail("field is not nullable")
		}
		return nullLiteral, true, nil
	}
	return f.serialize(value)
}

// Schema is an ordered, immutable set of field descriptors.
type Schema struct {
	keys   []string
	fields map[string]*FieldDescriptor
}

// NewSchema builds a schema in declaration order. It rejects duplicate names
// and fields that are both required and defaulted.
func NewSchema(fields ...*FieldDescriptor) (*Schema, error) {
	s := &Schema{
		keys:   make([]string, 0, len(fields)),
		fields: make(map[string]*FieldDescriptor, len(fields)),
	}
	for _, f := range fields {
		if f == nil || f.name == "" {
			return nil, syncerrors.New(syncerrors.CodeValidation).WithDetail("schema field without a name")
		}
		if _, dup := s.fields[f.name]; dup {
			return nil, syncerrors.New(syncerrors.CodeValidation).WithKey(f.name).WithDetail("duplicate schema field")
		}
		if f.required && f.HasDefault() {
			return nil, syncerrors.New(syncerrors.CodeValidation).WithKey(f.name).WithDetail("a required field cannot have a default")
		}
		if f.defaultValue != nil {
			if _, _, err := f.serializeValue(f.defaultValue); err != nil {
				return nil, err
			}
		}
		s.keys = append(s.keys, f.name)
		s.fields[f.name] = f
	}
	return s, nil
}

// MustSchema is NewSchema that panics on error.
func MustSchema(fields ...*FieldDescriptor) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Keys returns the field names in declaration order.
func (s *Schema) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Field returns the descriptor for name.
func (s *Schema) Field(name string) (*FieldDescriptor, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.keys) }
