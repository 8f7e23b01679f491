package history

import (
	"log/slog"
	"net/http"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/urlsync/pkg/relay"
)

// FrameType identifies a socket frame.
type FrameType string

const (
	// FrameHello is sent on connect with the client id and current query.
	FrameHello FrameType = "hello"

	// FramePush and FrameReplace ask the client to update its location.
	FramePush    FrameType = "push"
	FrameReplace FrameType = "replace"

	// FrameNavigate is sent by a client when its location changed
	// (popstate, a link, a typed URL).
	FrameNavigate FrameType = "navigate"
)

// Frame is the JSON message exchanged with browsers.
type Frame struct {
	Type   FrameType `json:"type"`
	Query  string    `json:"query"`
	Client string    `json:"client,omitempty"`
}

type socketClient struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *socketClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

type socketListener struct {
	id uint64
	fn func(rawQuery string)
}

// Socket is a History shared with browsers over WebSocket. Browsers report
// their navigation with FrameNavigate and follow the server's writes.
//
// Client frames are handed to the Loop so listeners always run on the loop
// goroutine. Push and Replace must be called from the loop as well.
type Socket struct {
	mu        sync.RWMutex
	location  string
	clients   map[*socketClient]bool
	listeners []socketListener
	nextID    uint64

	loop     *Loop
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// SocketOption configures a Socket.
type SocketOption func(*Socket)

// WithSocketLogger sets the logger (default slog.Default()).
func WithSocketLogger(l *slog.Logger) SocketOption {
	return func(s *Socket) {
		s.logger = l
	}
}

// WithCheckOrigin overrides the upgrader's origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) SocketOption {
	return func(s *Socket) {
		s.upgrader.CheckOrigin = fn
	}
}

// NewSocket creates a socket history starting at initial.
func NewSocket(loop *Loop, initial string, opts ...SocketOption) *Socket {
	s := &Socket{
		location: trimQuery(initial),
		clients:  make(map[*socketClient]bool),
		loop:     loop,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "socket-history")
	return s
}

// ServeHTTP upgrades the connection and serves one browser until it
// disconnects.
func (s *Socket) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "error", err)
		return
	}

	c := &socketClient{id: uuid.NewString(), conn: conn}

	s.mu.Lock()
	s.clients[c] = true
	hello := Frame{Type: FrameHello, Query: s.location, Client: c.id}
	s.mu.Unlock()

	s.logger.Debug("client connected", "client", c.id)
	if data, err := json.Marshal(hello); err == nil {
		if err := c.write(data); err != nil {
			s.drop(c)
			return
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.logger.Warn("bad frame", "client", c.id, "error", err)
			continue
		}
		if frame.Type != FrameNavigate {
			continue
		}
		raw := trimQuery(frame.Query)
		s.dispatch(func() { s.navigated(c, raw) })
	}

	s.drop(c)
	s.logger.Debug("client disconnected", "client", c.id)
}

func (s *Socket) dispatch(fn func()) {
	if s.loop == nil {
		fn()
		return
	}
	if !s.loop.Post(fn) {
		s.logger.Warn("event loop stopped, navigation dropped")
	}
}

// navigated records a client's navigation, mirrors it to the other clients
// and notifies listeners.
func (s *Socket) navigated(from *socketClient, rawQuery string) {
	s.mu.Lock()
	if rawQuery == s.location {
		s.mu.Unlock()
		return
	}
	s.location = rawQuery
	s.mu.Unlock()

	s.broadcast(Frame{Type: FrameReplace, Query: rawQuery, Client: from.id}, from)
	s.notify(rawQuery)
}

// Location returns the shared query string.
func (s *Socket) Location() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.location
}

// Listen registers fn for every location change.
func (s *Socket) Listen(fn func(rawQuery string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, socketListener{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Push sends a new entry to every browser.
func (s *Socket) Push(rawQuery string) {
	s.write(FramePush, rawQuery)
}

// Replace overwrites the current entry in every browser.
func (s *Socket) Replace(rawQuery string) {
	s.write(FrameReplace, rawQuery)
}

func (s *Socket) write(kind FrameType, rawQuery string) {
	rawQuery = trimQuery(rawQuery)
	s.mu.Lock()
	s.location = rawQuery
	s.mu.Unlock()

	s.broadcast(Frame{Type: kind, Query: rawQuery}, nil)
	s.notify(rawQuery)
}

func (s *Socket) notify(rawQuery string) {
	s.mu.RLock()
	listeners := make([]socketListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, l := range listeners {
		l.fn(rawQuery)
	}
}

// broadcast sends frame to every client except skip.
func (s *Socket) broadcast(frame Frame, skip *socketClient) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}

	s.mu.RLock()
	clients := make([]*socketClient, 0, len(s.clients))
	for c := range s.clients {
		if c != skip {
			clients = append(clients, c)
		}
	}
	s.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(data); err != nil {
			s.logger.Warn("write failed", "client", c.id, "error", err)
			s.drop(c)
		}
	}
}

func (s *Socket) drop(c *socketClient) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.conn.Close()
}

// ClientCount returns the number of connected browsers.
func (s *Socket) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Close disconnects every browser.
func (s *Socket) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		c.conn.Close()
		delete(s.clients, c)
	}
}

// SocketAdapter binds s to a relay. Client navigation already arrives on the
// loop, so flushes run immediately after the event.
func SocketAdapter(s *Socket) relay.Adapter[*Socket] {
	return relay.Adapter[*Socket]{
		Acquire: func() (*Socket, error) { return s, nil },
		Map:     func(s *Socket) relay.History { return s },
	}
}

var _ relay.History = (*Socket)(nil)
