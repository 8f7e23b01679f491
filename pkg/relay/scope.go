package relay

import "github.com/vango-dev/urlsync/pkg/qparam"

// Scope owns the store of one mounted schema. The store is created on the
// first call to Store and released by Close.
type Scope struct {
	relay    *Relay
	schema   *qparam.Schema
	opts     []qparam.Option
	onErrors func(qparam.Errors)

	store   *qparam.Store
	release func()
	closed  bool
}

// NewScope prepares a scope for schema on r. onErrors may be nil.
func NewScope(r *Relay, schema *qparam.Schema, onErrors func(qparam.Errors), opts ...qparam.Option) *Scope {
	return &Scope{
		relay:    r,
		schema:   schema,
		opts:     opts,
		onErrors: onErrors,
	}
}

// Store returns the scope's store, creating and mounting it on first use.
// After Close it returns nil.
func (s *Scope) Store() *qparam.Store {
	if s.closed {
		return nil
	}
	if s.store == nil {
		opts := append([]qparam.Option{qparam.WithNavigator(s.relay)}, s.opts...)
		s.store = qparam.NewStore(s.schema, s.relay.Location(), opts...)
		s.release = s.relay.Mount(s.store, s.onErrors)
	}
	return s.store
}

// Active reports whether the store has been created and not closed.
func (s *Scope) Active() bool {
	return s.store != nil && !s.closed
}

// Close unmounts the store. It is safe to call more than once.
func (s *Scope) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.release != nil {
		s.release()
	}
	s.store = nil
	s.release = nil
}
