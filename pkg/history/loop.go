package history

import (
	"context"
	"sync"

	syncerrors "github.com/vango-dev/urlsync/internal/errors"
)

// ErrLoopStopped matches the error returned by Do after Run has returned.
var ErrLoopStopped = syncerrors.Sentinel(syncerrors.CodeRelayClosed)

// Loop runs posted functions one at a time on the goroutine calling Run.
// Stores and relays are not safe for concurrent use; a host with several
// goroutines (socket readers, HTTP handlers) funnels every call through one
// Loop.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stopped bool
}

// NewLoop creates an idle loop.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post queues fn without waiting. It is safe to call from inside the loop.
// It reports false once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs fn on the loop and waits for it to return. It must not be called
// from the loop goroutine.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return syncerrors.New(syncerrors.CodeRelayClosed).WithDetail("event loop stopped")
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes posted functions until ctx is cancelled. Functions still
// queued at that point are dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		l.mu.Lock()
		l.stopped = true
		l.queue = nil
		l.mu.Unlock()
	}()

	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, fn := range batch {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fn()
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// WrapFlush defers flush to the next turn of the loop, after the event that
// triggered it has reached every store.
func (l *Loop) WrapFlush(flush func()) func() {
	return func() {
		l.Post(flush)
	}
}
