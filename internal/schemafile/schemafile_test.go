package schemafile

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	syncerrors "github.com/vango-dev/urlsync/internal/errors"
	"github.com/vango-dev/urlsync/pkg/qparam"
)

const catalog = `
scope: catalog
fields:
  - name: q
    type: string
  - name: page
    type: number
    default: 1
  - name: limit
    type: int
    required: true
  - name: tags
    type: array
    items: string
    separator: "|"
    default: [new, sale]
  - name: sort
    type: oneOf
    values: [asc, desc]
    default: asc
  - name: open
    type: boolean
    nullable: true
  - name: since
    type: time
    layout: "2006-01-02"
  - name: filter
    type: json
    default:
      cat: tech
`

func TestParseCatalog(t *testing.T) {
	doc, schema, err := Parse([]byte(catalog))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Scope != "catalog" {
		t.Errorf("Scope = %q", doc.Scope)
	}

	wantKeys := []string{"q", "page", "limit", "tags", "sort", "open", "since", "filter"}
	if got := schema.Keys(); !reflect.DeepEqual(got, wantKeys) {
		t.Errorf("Keys = %v, want %v", got, wantKeys)
	}

	limit, _ := schema.Field("limit")
	if !limit.IsRequired() {
		t.Error("limit should be required")
	}
	open, _ := schema.Field("open")
	if !open.IsNullable() {
		t.Error("open should be nullable")
	}

	store := qparam.NewStore(schema, "limit=10&open=null&since=2024-03-01&tags=a|b")
	state := store.State()

	if state.Get("page") != 1.0 {
		t.Errorf("page = %v, want default 1", state.Get("page"))
	}
	if state.Get("limit") != 10 {
		t.Errorf("limit = %v", state.Get("limit"))
	}
	if got, _ := qparam.Value[[]string](state, "tags"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("tags = %v", got)
	}
	if state.Get("sort") != "asc" {
		t.Errorf("sort = %v, want default asc", state.Get("sort"))
	}
	if !qparam.IsNull(state.Get("open")) {
		t.Errorf("open = %v, want null", state.Get("open"))
	}
	since, _ := qparam.Value[time.Time](state, "since")
	if !since.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("since = %v", since)
	}
	filter, _ := state.Get("filter").(map[string]any)
	if filter["cat"] != "tech" {
		t.Errorf("filter = %v", state.Get("filter"))
	}
	if len(store.Errors()) != 0 {
		t.Errorf("Errors = %v", store.Errors())
	}

	// The array default uses the field's separator.
	store.HandleExternal("limit=10")
	if got, _ := qparam.Value[[]string](store.State(), "tags"); !reflect.DeepEqual(got, []string{"new", "sale"}) {
		t.Errorf("tags default = %v", got)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad yaml", "fields: [\n"},
		{"no fields", "scope: empty\n"},
		{"unknown type", "fields:\n  - name: a\n    type: uuid\n"},
		{"unnamed", "fields:\n  - type: string\n"},
		{"bad default", "fields:\n  - name: a\n    type: number\n    default: abc\n"},
		{"oneOf without values", "fields:\n  - name: a\n    type: oneOf\n"},
		{"default outside oneOf", "fields:\n  - name: a\n    type: oneOf\n    values: [x]\n    default: y\n"},
		{"required with default", "fields:\n  - name: a\n    type: number\n    required: true\n    default: 1\n"},
		{"duplicate", "fields:\n  - name: a\n  - name: a\n"},
		{"bad array items", "fields:\n  - name: a\n    type: array\n    items: time\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse([]byte(tt.doc))
			if !errors.Is(err, syncerrors.Sentinel(syncerrors.CodeSchemaFile)) {
				t.Errorf("Parse() = %v, want E121", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	if err := os.WriteFile(path, []byte(catalog), 0644); err != nil {
		t.Fatal(err)
	}
	if _, schema, err := Load(path); err != nil || schema.Len() != 8 {
		t.Fatalf("Load: %v", err)
	}

	_, _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, syncerrors.Sentinel(syncerrors.CodeSchemaFile)) {
		t.Errorf("Load(missing) = %v, want E121", err)
	}
}

func TestDefaultNodes(t *testing.T) {
	doc := `
fields:
  - name: plain
    type: string
  - name: scalar
    type: int
    default: 5
  - name: list
    type: array
    items: number
    default: [1, 2]
  - name: object
    type: json
    default: {a: 1}
`
	_, schema, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := map[string]bool{"plain": false, "scalar": true, "list": true, "object": true}
	for name, has := range want {
		f, _ := schema.Field(name)
		if f.HasDefault() != has {
			t.Errorf("%s: HasDefault = %v, want %v", name, f.HasDefault(), has)
		}
	}

	state := qparam.NewStore(schema, "").State()
	if state.Get("plain") != nil {
		t.Errorf("plain = %v, want undefined", state.Get("plain"))
	}
	if state.Get("scalar") != 5 {
		t.Errorf("scalar = %v, want 5", state.Get("scalar"))
	}
	if got, _ := qparam.Value[[]float64](state, "list"); !reflect.DeepEqual(got, []float64{1, 2}) {
		t.Errorf("list = %v", got)
	}
	obj, _ := state.Get("object").(map[string]any)
	if obj["a"] == nil {
		t.Errorf("object = %v", state.Get("object"))
	}
}
