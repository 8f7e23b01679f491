package relay

import (
	"log/slog"
	"sync"

	syncerrors "github.com/vango-dev/urlsync/internal/errors"
	"github.com/vango-dev/urlsync/pkg/qparam"
)

// History is a navigation backend reduced to its query string.
//
// Push and Replace must notify listeners of the new query string before
// returning, the same way they are notified for navigation the backend
// observes on its own (back, forward, a client edit).
type History interface {
	// Location returns the current raw query string.
	Location() string

	// Listen registers fn for query string changes.
	Listen(fn func(rawQuery string)) (unlisten func())

	Push(rawQuery string)
	Replace(rawQuery string)
}

// Adapter binds a Relay to a concrete backend handle H.
type Adapter[H any] struct {
	// Acquire returns the backend handle.
	Acquire func() (H, error)

	// Map exposes the handle as a History.
	Map func(H) History

	// WrapFlush binds the flush of one mounted store to the host's timing.
	// The returned function runs once per navigation event, after every
	// listener has been called. Nil flushes immediately.
	WrapFlush func(flush func()) func()
}

// ErrClosed matches the error returned when navigating through a torn-down
// relay.
var ErrClosed = syncerrors.Sentinel(syncerrors.CodeRelayClosed)

type listener struct {
	id uint64
	fn func(rawQuery string)
}

type mount struct {
	id    uint64
	flush func()
}

// Relay fans one History out to every registered store. It is built once by
// the host with Init and passed explicitly to the stores that use it.
type Relay struct {
	mu        sync.Mutex
	history   History
	unlisten  func()
	wrapFlush func(func()) func()
	listeners []listener
	mounts    []mount
	nextID    uint64
	closed    bool
	logger    *slog.Logger
}

// Option configures a Relay.
type Option func(*Relay)

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = l
	}
}

// Init acquires the adapter's backend and starts listening to it.
func Init[H any](adapter Adapter[H], opts ...Option) (*Relay, error) {
	if adapter.Acquire == nil || adapter.Map == nil {
		return nil, syncerrors.New(syncerrors.CodeRelayAdapter).
			WithDetail("adapter needs Acquire and Map")
	}
	handle, err := adapter.Acquire()
	if err != nil {
		return nil, syncerrors.FromError(err, syncerrors.CodeRelayAdapter)
	}
	history := adapter.Map(handle)
	if history == nil {
		return nil, syncerrors.New(syncerrors.CodeRelayAdapter).
			WithDetail("adapter mapped the handle to a nil history")
	}

	r := &Relay{
		history:   history,
		wrapFlush: adapter.WrapFlush,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.logger = r.logger.With("component", "relay")
	if r.wrapFlush == nil {
		r.wrapFlush = immediate
	}

	r.unlisten = history.Listen(r.dispatch)
	return r, nil
}

func immediate(flush func()) func() { return flush }

// Teardown stops listening to the backend and drops every registration.
// Calling it twice is a no-op.
func (r *Relay) Teardown() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	unlisten := r.unlisten
	r.listeners = nil
	r.mounts = nil
	r.mu.Unlock()

	if unlisten != nil {
		unlisten()
	}
	r.logger.Debug("relay torn down")
}

// Closed reports whether Teardown ran.
func (r *Relay) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Location returns the backend's current query string.
func (r *Relay) Location() string {
	return r.history.Location()
}

// Register calls fn, in registration order, for every query string change.
func (r *Relay) Register(fn func(rawQuery string)) (unregister func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return func() {}
	}
	r.nextID++
	id := r.nextID
	r.listeners = append(r.listeners, listener{id: id, fn: fn})

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, l := range r.listeners {
			if l.id == id {
				r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
				return
			}
		}
	}
}

// Mount registers store for external changes and flushes it once per
// navigation event. onErrors, if set, receives the store's error set before
// each flush. release undoes both.
func (r *Relay) Mount(store *qparam.Store, onErrors func(qparam.Errors)) (release func()) {
	unregister := r.Register(func(rawQuery string) {
		store.HandleExternal(rawQuery)
	})

	flush := r.wrapFlush(func() {
		if onErrors != nil {
			onErrors(store.Errors())
		}
		store.Flush()
	})

	r.mu.Lock()
	r.nextID++
	id := r.nextID
	if !r.closed {
		r.mounts = append(r.mounts, mount{id: id, flush: flush})
	}
	r.mu.Unlock()

	if onErrors != nil {
		onErrors(store.Errors())
	}

	return func() {
		unregister()
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, m := range r.mounts {
			if m.id == id {
				r.mounts = append(r.mounts[:i], r.mounts[i+1:]...)
				return
			}
		}
	}
}

// dispatch broadcasts rawQuery to the listeners, then runs every mount's
// flush.
func (r *Relay) dispatch(rawQuery string) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	listeners := make([]listener, len(r.listeners))
	copy(listeners, r.listeners)
	mounts := make([]mount, len(r.mounts))
	copy(mounts, r.mounts)
	r.mu.Unlock()

	for _, l := range listeners {
		l.fn(rawQuery)
	}
	for _, m := range mounts {
		m.flush()
	}
}

// Navigate writes rawQuery to the backend.
func (r *Relay) Navigate(rawQuery string, replace bool) error {
	if r.Closed() {
		return syncerrors.New(syncerrors.CodeRelayClosed)
	}
	r.logger.Debug("navigate", "query", rawQuery, "replace", replace)
	if replace {
		r.history.Replace(rawQuery)
	} else {
		r.history.Push(rawQuery)
	}
	return nil
}

// Push adds a navigation entry. qparam.Store calls it through its Navigator.
func (r *Relay) Push(rawQuery string) error {
	return r.Navigate(rawQuery, false)
}

// Replace overwrites the current navigation entry.
func (r *Relay) Replace(rawQuery string) error {
	return r.Navigate(rawQuery, true)
}

var _ qparam.Navigator = (*Relay)(nil)
