package qparam

import (
	"reflect"
	"testing"

	"github.com/vango-dev/urlsync/pkg/convert"
)

func abcSchema() *Schema {
	return MustSchema(
		Field("a", convert.Number),
		Field("b", convert.Number),
		Field("c", convert.Number),
	)
}

func TestSignatureDeterministic(t *testing.T) {
	s := NewStore(abcSchema(), "")

	first := s.Register([]string{"b", "a"}, func() {})
	second := s.Register([]string{"a", "b"}, func() {})
	if first.Signature() != second.Signature() {
		t.Errorf("signatures differ: %q vs %q", first.Signature(), second.Signature())
	}
	if first.rec != second.rec {
		t.Error("same key subset should share one record")
	}
	if got := first.Keys(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Keys: got %v, want schema order", got)
	}

	all := s.Register([]string{"c", "b", "a"}, func() {})
	none := s.Register(nil, func() {})
	if all.Signature() != wildcard || none.Signature() != wildcard {
		t.Errorf("full and empty subsets should use the wildcard: %q %q", all.Signature(), none.Signature())
	}
	if s.SubscriptionCount() != 2 {
		t.Errorf("SubscriptionCount: got %d, want 2", s.SubscriptionCount())
	}
}

func TestSignatureUnknownKeys(t *testing.T) {
	s := NewStore(abcSchema(), "")
	sub := s.Register([]string{"zzz"}, func() {})
	if sub.Signature() == wildcard {
		t.Fatal("unknown-only subset must not be the wildcard")
	}
	if len(sub.Keys()) != 0 {
		t.Errorf("Keys: got %v", sub.Keys())
	}

	calls := 0
	s.Register([]string{"zzz"}, func() { calls++ })
	s.HandleExternal("a=1&b=2&c=3")
	s.Flush()
	if calls != 0 {
		t.Errorf("unknown-key subscription notified %d times", calls)
	}
}

func TestFanoutGranularity(t *testing.T) {
	s := NewStore(abcSchema(), "a=1&b=1")
	counts := map[string]int{}
	s.Register([]string{"a"}, func() { counts["a"]++ })
	s.Register([]string{"b"}, func() { counts["b"]++ })
	s.Register(nil, func() { counts["*"]++ })

	s.HandleExternal("a=1&b=2")
	s.Flush()

	if want := map[string]int{"b": 1, "*": 1}; !reflect.DeepEqual(counts, want) {
		t.Errorf("counts: got %v, want %v", counts, want)
	}
}

func TestFlushOrder(t *testing.T) {
	s := NewStore(abcSchema(), "")
	var order []string
	s.Register([]string{"c"}, func() { order = append(order, "c1") })
	s.Register([]string{"a"}, func() { order = append(order, "a1") })
	s.Register([]string{"c"}, func() { order = append(order, "c2") })
	s.Register(nil, func() { order = append(order, "*") })

	s.HandleExternal("a=1&b=1&c=1")
	s.Flush()

	if want := []string{"c1", "c2", "a1", "*"}; !reflect.DeepEqual(order, want) {
		t.Errorf("order: got %v, want %v", order, want)
	}
}

func TestObserversSeeMetadataDuringFlush(t *testing.T) {
	s := NewStore(abcSchema(), "")
	var seen []string
	s.Register(nil, func() { seen = s.ChangedKeys() })

	s.HandleExternal("b=1&c=1")
	if len(s.ChangedKeys()) != 2 {
		t.Fatalf("ChangedKeys before flush: got %v", s.ChangedKeys())
	}
	s.Flush()

	if !reflect.DeepEqual(seen, []string{"b", "c"}) {
		t.Errorf("observer saw %v", seen)
	}
	if len(s.ChangedKeys()) != 0 {
		t.Errorf("ChangedKeys after flush: got %v", s.ChangedKeys())
	}
}

func TestFlushReentrant(t *testing.T) {
	s := NewStore(abcSchema(), "")
	bCalls := 0
	s.Register([]string{"a"}, func() {
		if err := s.Set(With("b", 7.0), SetOptions{}); err != nil {
			t.Errorf("nested Set: %v", err)
		}
	})
	s.Register([]string{"b"}, func() { bCalls++ })

	if err := s.Set(With("a", 1.0), SetOptions{}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if bCalls != 1 {
		t.Errorf("b observer: got %d calls, want 1", bCalls)
	}
	if got := s.State().Get("b"); got != 7.0 {
		t.Errorf("b: got %v", got)
	}
	if s.Pending() {
		t.Error("store should not be pending after the outer flush")
	}
}

func TestSnapshotIncremental(t *testing.T) {
	s := NewStore(abcSchema(), "a=1&b=2")
	sub := s.Register([]string{"a", "b"}, func() {})

	s.HandleExternal("a=5&b=2")
	snap := sub.Snapshot()
	if snap.Get("a") != 5.0 || snap.Get("b") != 2.0 {
		t.Errorf("snapshot: got %v", snap.Params)
	}
	if raw, _ := snap.Raw("a"); raw != "5" {
		t.Errorf("raw a: got %q", raw)
	}
	if _, ok := snap.Params["c"]; ok {
		t.Error("snapshot should hold only subscribed keys")
	}
}

func TestSnapshotCachedUntilFanout(t *testing.T) {
	s := NewStore(abcSchema(), "a=1")
	sub := s.Register([]string{"a"}, func() {})
	before := sub.Snapshot()

	// A change to another key leaves the cached snapshot untouched.
	s.HandleExternal("a=1&c=3")
	if !reflect.DeepEqual(sub.Snapshot(), before) {
		t.Errorf("snapshot changed: %v", sub.Snapshot())
	}
}

func TestUnregister(t *testing.T) {
	s := NewStore(abcSchema(), "")
	calls := 0
	first := s.Register([]string{"a"}, func() { calls++ })
	second := s.Register([]string{"a"}, func() { calls++ })

	first.Unregister()
	first.Unregister()
	if s.SubscriptionCount() != 1 {
		t.Fatalf("record dropped while an observer remains")
	}

	s.HandleExternal("a=1")
	s.Flush()
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}

	second.Unregister()
	if s.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount: got %d, want 0", s.SubscriptionCount())
	}

	// A new record for the same subset starts from the current state.
	third := s.Register([]string{"a"}, func() {})
	if third.Snapshot().Get("a") != 1.0 {
		t.Errorf("fresh snapshot: got %v", third.Snapshot().Params)
	}
}

func TestUnregisterDuringFlush(t *testing.T) {
	s := NewStore(abcSchema(), "")
	var later *Subscription
	laterCalls := 0
	s.Register([]string{"a"}, func() { later.Unregister() })
	later = s.Register([]string{"a"}, func() { laterCalls++ })

	s.HandleExternal("a=1")
	s.Flush()

	// The observer list was captured before the flush started.
	if laterCalls != 1 {
		t.Errorf("laterCalls: got %d, want 1", laterCalls)
	}

	s.HandleExternal("a=2")
	s.Flush()
	if laterCalls != 1 {
		t.Errorf("unregistered observer fired again")
	}
}

func TestOnChangeFiltersKeys(t *testing.T) {
	s := NewStore(abcSchema(), "")
	var got []string
	var gotA any
	s.OnChange([]string{"a", "c"}, func(state Snapshot, changed []string, msg any) {
		got = changed
		gotA = state.Get("a")
		if msg != nil {
			t.Errorf("external change carried message %v", msg)
		}
	})

	s.HandleExternal("a=4&b=1")
	s.Flush()

	if !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("changed: got %v, want [a]", got)
	}
	if gotA != 4.0 {
		t.Errorf("a: got %v", gotA)
	}
}

func TestWatcherGating(t *testing.T) {
	s := NewStore(abcSchema(), "")
	notified := 0
	w := s.Watch([]string{"a"}, func() { notified++ })
	defer w.Close()

	if w.Stale() {
		t.Fatal("new watcher should not be stale")
	}

	_ = s.Set(With("a", 1.0), SetOptions{})
	if !w.Stale() || notified != 1 {
		t.Fatalf("after change: stale=%v notified=%d", w.Stale(), notified)
	}

	if w.Get().Get("a") != 1.0 {
		t.Errorf("Get: got %v", w.Get().Params)
	}
	if w.Stale() {
		t.Error("Get should clear stale")
	}
}
