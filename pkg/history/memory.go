package history

import (
	"strings"
	"sync"

	"github.com/vango-dev/urlsync/pkg/relay"
)

type memoryListener struct {
	id uint64
	fn func(rawQuery string)
}

// Memory is an in-process navigation stack of query strings.
type Memory struct {
	mu        sync.Mutex
	entries   []string
	index     int
	listeners []memoryListener
	nextID    uint64
}

// NewMemory creates a stack holding initial. A leading "?" is dropped.
func NewMemory(initial string) *Memory {
	return &Memory{entries: []string{trimQuery(initial)}}
}

func trimQuery(raw string) string {
	return strings.TrimPrefix(raw, "?")
}

// Location returns the current entry.
func (m *Memory) Location() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[m.index]
}

// Listen registers fn for every change of the current entry.
func (m *Memory) Listen(fn func(rawQuery string)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.listeners = append(m.listeners, memoryListener{id: id, fn: fn})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, l := range m.listeners {
			if l.id == id {
				m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

// Push discards the forward entries and appends rawQuery.
func (m *Memory) Push(rawQuery string) {
	m.mu.Lock()
	m.entries = append(m.entries[:m.index+1], trimQuery(rawQuery))
	m.index++
	m.mu.Unlock()
	m.notify()
}

// Replace overwrites the current entry.
func (m *Memory) Replace(rawQuery string) {
	m.mu.Lock()
	m.entries[m.index] = trimQuery(rawQuery)
	m.mu.Unlock()
	m.notify()
}

// Go moves delta entries through the stack. It reports false, without
// notifying, when the target is out of range.
func (m *Memory) Go(delta int) bool {
	m.mu.Lock()
	target := m.index + delta
	if delta == 0 || target < 0 || target >= len(m.entries) {
		m.mu.Unlock()
		return false
	}
	m.index = target
	m.mu.Unlock()
	m.notify()
	return true
}

// Back is Go(-1).
func (m *Memory) Back() bool { return m.Go(-1) }

// Forward is Go(1).
func (m *Memory) Forward() bool { return m.Go(1) }

// Len returns the number of entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Entries returns a copy of the stack.
func (m *Memory) Entries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *Memory) notify() {
	m.mu.Lock()
	current := m.entries[m.index]
	listeners := make([]memoryListener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, l := range listeners {
		l.fn(current)
	}
}

// MemoryAdapter binds m to a relay. Flushes run immediately.
func MemoryAdapter(m *Memory) relay.Adapter[*Memory] {
	return relay.Adapter[*Memory]{
		Acquire: func() (*Memory, error) { return m, nil },
		Map:     func(m *Memory) relay.History { return m },
	}
}

var _ relay.History = (*Memory)(nil)
