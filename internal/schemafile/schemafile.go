// Package schemafile compiles YAML schema documents into qparam schemas.
//
//	scope: catalog
//	fields:
//	  - name: q
//	    type: string
//	  - name: page
//	    type: number
//	    default: 1
//	  - name: tags
//	    type: array
//	    items: string
//	    separator: "|"
//	  - name: sort
//	    type: oneOf
//	    items: string
//	    values: [asc, desc]
//
// Defaults are written in query-string form and parsed by the field's
// converter, except for json fields, whose default is any YAML value.
package schemafile

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/urlsync/internal/errors"
	"github.com/vango-dev/urlsync/pkg/convert"
	"github.com/vango-dev/urlsync/pkg/qparam"
)

// Document is a parsed schema file.
type Document struct {
	// Scope names the schema, for logs and metrics.
	Scope string `yaml:"scope"`

	Fields []FieldSpec `yaml:"fields"`
}

// FieldSpec declares one field.
type FieldSpec struct {
	Name string `yaml:"name"`

	// Type is string, number, int, boolean, time, json, array or oneOf.
	Type string `yaml:"type"`

	// Items is the element type of array and oneOf fields (default string).
	Items string `yaml:"items,omitempty"`

	// Separator joins array items (default ",").
	Separator string `yaml:"separator,omitempty"`

	// Values is the allowed set of a oneOf field.
	Values []yaml.Node `yaml:"values,omitempty"`

	// Layout is the time layout (default RFC 3339).
	Layout string `yaml:"layout,omitempty"`

	Required bool      `yaml:"required,omitempty"`
	Nullable bool      `yaml:"nullable,omitempty"`
	Default  yaml.Node `yaml:"default,omitempty"`
}

// Load reads and compiles the schema file at path.
func Load(path string) (*Document, *qparam.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.New(errors.CodeSchemaFile).
			WithDetail("Cannot read " + path).
			Wrap(err)
	}
	return Parse(data)
}

// Parse decodes and compiles a schema document.
func Parse(data []byte) (*Document, *qparam.Schema, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, errors.New(errors.CodeSchemaFile).
			WithDetail("Invalid YAML: " + err.Error())
	}
	schema, err := doc.Compile()
	if err != nil {
		return nil, nil, err
	}
	return &doc, schema, nil
}

// Compile builds the schema in field order.
func (d *Document) Compile() (*qparam.Schema, error) {
	if len(d.Fields) == 0 {
		return nil, errors.New(errors.CodeSchemaFile).WithDetail("Schema has no fields")
	}
	fields := make([]*qparam.FieldDescriptor, 0, len(d.Fields))
	for _, spec := range d.Fields {
		f, err := spec.compile()
		if err != nil {
			return nil, fieldErr(spec.Name, err)
		}
		fields = append(fields, f)
	}
	schema, err := qparam.NewSchema(fields...)
	if err != nil {
		return nil, errors.New(errors.CodeSchemaFile).Wrap(err)
	}
	return schema, nil
}

func fieldErr(name string, err error) error {
	if se, ok := err.(*errors.SyncError); ok && se.Code == errors.CodeSchemaFile {
		return se.WithKey(name)
	}
	return errors.New(errors.CodeSchemaFile).WithKey(name).Wrap(err)
}

func (f FieldSpec) compile() (*qparam.FieldDescriptor, error) {
	if f.Name == "" {
		return nil, errors.New(errors.CodeSchemaFile).WithDetail("Field without a name")
	}
	switch strings.ToLower(f.Type) {
	case "string", "":
		return build(f, convert.String)
	case "number":
		return build(f, convert.Number)
	case "int", "integer":
		return build(f, convert.Int)
	case "boolean", "bool":
		return build(f, convert.Boolean)
	case "time":
		return build(f, convert.Time(f.Layout))
	case "json":
		return build(f, convert.JSON[any]())
	case "array":
		return f.compileArray()
	case "oneof":
		return f.compileOneOf()
	}
	return nil, errors.New(errors.CodeSchemaFile).
		WithDetail(fmt.Sprintf("Unknown type %q", f.Type)).
		WithSuggestion("Use string, number, int, boolean, time, json, array or oneOf")
}

func (f FieldSpec) separator() string {
	if f.Separator == "" {
		return convert.DefaultSeparator
	}
	return f.Separator
}

func (f FieldSpec) compileArray() (*qparam.FieldDescriptor, error) {
	sep := f.separator()
	switch strings.ToLower(f.Items) {
	case "string", "":
		return build(f, convert.ArrayWith(convert.String, sep))
	case "number":
		return build(f, convert.ArrayWith(convert.Number, sep))
	case "int", "integer":
		return build(f, convert.ArrayWith(convert.Int, sep))
	case "boolean", "bool":
		return build(f, convert.ArrayWith(convert.Boolean, sep))
	}
	return nil, errors.New(errors.CodeSchemaFile).
		WithDetail(fmt.Sprintf("Unsupported array item type %q", f.Items))
}

func (f FieldSpec) compileOneOf() (*qparam.FieldDescriptor, error) {
	if len(f.Values) == 0 {
		return nil, errors.New(errors.CodeSchemaFile).WithDetail("oneOf needs values")
	}
	switch strings.ToLower(f.Items) {
	case "string", "":
		return oneOf(f, convert.String)
	case "number":
		return oneOf(f, convert.Number)
	case "int", "integer":
		return oneOf(f, convert.Int)
	}
	return nil, errors.New(errors.CodeSchemaFile).
		WithDetail(fmt.Sprintf("Unsupported oneOf item type %q", f.Items))
}

func oneOf[T any](f FieldSpec, item convert.Converter[T]) (*qparam.FieldDescriptor, error) {
	values := make([]T, 0, len(f.Values))
	for _, node := range f.Values {
		v, ok, err := item.Parse(node.Value)
		if err != nil {
			return nil, err
		}
		if ok {
			values = append(values, v)
		}
	}
	return build(f, convert.OneOf(item, values...))
}

func build[T any](f FieldSpec, conv convert.Converter[T]) (*qparam.FieldDescriptor, error) {
	var opts []qparam.FieldOption
	if f.Required {
		opts = append(opts, qparam.Required())
	}
	if f.Nullable {
		opts = append(opts, qparam.Nullable())
	}
	if f.Default.Kind != 0 {
		v, err := decodeDefault(f, conv)
		if err != nil {
			return nil, err
		}
		opts = append(opts, qparam.Default(v))
	}
	return qparam.Field(f.Name, conv, opts...), nil
}

// decodeDefault reads the default node as the query-string form of the field.
func decodeDefault[T any](f FieldSpec, conv convert.Converter[T]) (T, error) {
	var zero T
	node := &f.Default

	if strings.EqualFold(f.Type, "json") {
		var v T
		if err := node.Decode(&v); err != nil {
			return zero, err
		}
		return v, nil
	}

	var raw string
	switch node.Kind {
	case yaml.ScalarNode:
		raw = node.Value
	case yaml.SequenceNode:
		items := make([]string, len(node.Content))
		for i, item := range node.Content {
			items[i] = item.Value
		}
		raw = strings.Join(items, f.separator())
	default:
		return zero, errors.New(errors.CodeSchemaFile).WithDetail("Default must be a scalar or a list")
	}

	v, ok, err := conv.Parse(raw)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, errors.New(errors.CodeSchemaFile).
			WithDetail(fmt.Sprintf("Default %q is empty", raw))
	}
	return v, nil
}
