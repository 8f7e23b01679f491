package history

import (
	"reflect"
	"testing"

	"github.com/vango-dev/urlsync/pkg/convert"
	"github.com/vango-dev/urlsync/pkg/qparam"
	"github.com/vango-dev/urlsync/pkg/relay"
)

func TestMemoryStack(t *testing.T) {
	m := NewMemory("?a=1")
	var seen []string
	unlisten := m.Listen(func(raw string) { seen = append(seen, raw) })

	m.Push("a=2")
	m.Push("?a=3")
	if !m.Back() {
		t.Fatal("Back failed")
	}
	m.Push("a=4")
	m.Replace("a=5")
	if m.Forward() {
		t.Error("Forward should fail at the top of the stack")
	}
	if m.Go(-10) {
		t.Error("Go out of range should fail")
	}

	if got, want := m.Entries(), []string{"a=1", "a=2", "a=5"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Entries: got %v, want %v", got, want)
	}
	if want := []string{"a=2", "a=3", "a=2", "a=4", "a=5"}; !reflect.DeepEqual(seen, want) {
		t.Errorf("seen: got %v, want %v", seen, want)
	}

	unlisten()
	m.Back()
	if len(seen) != 5 {
		t.Error("listener called after unlisten")
	}
	if m.Location() != "a=2" {
		t.Errorf("Location: got %q", m.Location())
	}
}

func TestMemoryWithRelay(t *testing.T) {
	m := NewMemory("page=1")
	r, err := relay.Init(MemoryAdapter(m))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer r.Teardown()

	schema := qparam.MustSchema(qparam.Field("page", convert.Number, qparam.Default(1.0)))
	scope := relay.NewScope(r, schema, nil)
	defer scope.Close()
	store := scope.Store()

	var pages []any
	store.OnChange(nil, func(state qparam.Snapshot, _ []string, _ any) {
		pages = append(pages, state.Get("page"))
	})

	if err := store.Set(qparam.With("page", 2.0), qparam.SetOptions{}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(qparam.With("page", 3.0), qparam.SetOptions{Replace: true}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	m.Back()

	if want := []any{2.0, 3.0, 1.0}; !reflect.DeepEqual(pages, want) {
		t.Errorf("pages: got %v, want %v", pages, want)
	}
	if got, want := m.Entries(), []string{"page=1", "page=3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Entries: got %v, want %v", got, want)
	}
}
