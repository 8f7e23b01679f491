package qparam

// Watcher is a render-gated reader of a key subset. Its notify function is
// called only when the store changed after the last Get, so a UI layer that
// renders from Get is never asked to re-render for a change it already saw.
type Watcher struct {
	store    *Store
	sub      *Subscription
	rendered uint64
	stale    bool
	notify   func()
}

// Watch subscribes a Watcher to keys. notify may be nil.
func (s *Store) Watch(keys []string, notify func()) *Watcher {
	w := &Watcher{store: s, rendered: s.version, notify: notify}
	w.sub = s.Register(keys, w.observe)
	return w
}

func (w *Watcher) observe() {
	if w.store.version <= w.rendered {
		return
	}
	w.stale = true
	if w.notify != nil {
		w.notify()
	}
}

// Get returns the cached snapshot and marks it rendered.
func (w *Watcher) Get() Snapshot {
	w.rendered = w.store.version
	w.stale = false
	return w.sub.Snapshot()
}

// Stale reports whether the subset changed since the last Get.
func (w *Watcher) Stale() bool { return w.stale }

// Close unregisters the watcher.
func (w *Watcher) Close() { w.sub.Unregister() }
