// Package server hosts a socket history, one relay and one schema scope
// behind a chi router.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/urlsync/internal/config"
	syncerrors "github.com/vango-dev/urlsync/internal/errors"
	"github.com/vango-dev/urlsync/pkg/history"
	"github.com/vango-dev/urlsync/pkg/metrics"
	"github.com/vango-dev/urlsync/pkg/qparam"
	"github.com/vango-dev/urlsync/pkg/query"
	"github.com/vango-dev/urlsync/pkg/relay"
)

// Options configures a Server.
type Options struct {
	Config *config.Config
	Schema *qparam.Schema

	// Scope names the schema in logs and spans.
	Scope string

	Logger *slog.Logger

	// Registry receives the collector's metrics (default: a new registry).
	Registry *prometheus.Registry
}

// Server owns the host loop. Every store and relay call runs on it.
type Server struct {
	cfg      *config.Config
	scopeID  string
	logger   *slog.Logger
	registry *prometheus.Registry
	probe    qparam.Probe

	loop   *history.Loop
	socket *history.Socket
	relay  *relay.Relay

	// loop-owned
	scope *relay.Scope
}

// New builds the server. Nothing runs until Run.
func New(opts Options) (*Server, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.New()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Schema == nil {
		return nil, syncerrors.New(syncerrors.CodeSchemaFile).WithDetail("Server needs a schema")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	s := &Server{
		cfg:      cfg,
		scopeID:  opts.Scope,
		logger:   logger.With("component", "server"),
		registry: registry,
		loop:     history.NewLoop(),
	}

	var probes []qparam.Probe
	if !cfg.Metrics.Disabled {
		probes = append(probes, metrics.NewCollector(
			metrics.WithRegistry(registry),
			metrics.WithNamespace(cfg.Metrics.Namespace),
		))
	}
	if cfg.Metrics.Tracing {
		probes = append(probes, metrics.NewTracing(metrics.WithScope(opts.Scope)))
	}
	s.probe = metrics.Multi(probes...)

	socketOpts := []history.SocketOption{history.WithSocketLogger(logger)}
	if len(cfg.Server.AllowedOrigins) > 0 {
		socketOpts = append(socketOpts, history.WithCheckOrigin(allowOrigins(cfg.Server.AllowedOrigins)))
	}
	s.socket = history.NewSocket(s.loop, cfg.Query.Initial, socketOpts...)

	r, err := relay.Init(history.SocketAdapter(s.socket), relay.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	s.relay = r
	s.mount(opts.Schema)
	return s, nil
}

func allowOrigins(origins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.TrimSuffix(o, "/")] = true
	}
	return func(r *http.Request) bool {
		return allowed[r.Header.Get("Origin")]
	}
}

// mount replaces the current scope. Runs on the loop, or before Run.
func (s *Server) mount(schema *qparam.Schema) {
	if s.scope != nil {
		s.scope.Close()
	}
	s.scope = relay.NewScope(s.relay, schema, func(errs qparam.Errors) {
		if len(errs) > 0 {
			s.logger.Info("query has errors", "scope", s.scopeID, "fields", errs.Keys())
		}
	},
		qparam.WithLogger(s.logger),
		qparam.WithProbe(s.probe),
	)
	s.scope.Store()
}

// Reload swaps the schema, remounting the scope on the current location.
func (s *Server) Reload(ctx context.Context, schema *qparam.Schema) error {
	return s.loop.Do(ctx, func() {
		s.mount(schema)
		s.logger.Info("schema reloaded", "scope", s.scopeID, "fields", schema.Len())
	})
}

// Loop returns the host loop.
func (s *Server) Loop() *history.Loop { return s.loop }

// Relay returns the server's relay.
func (s *Server) Relay() *relay.Relay { return s.relay }

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/ws", s.socket)
	r.Get("/state", s.handleState)
	r.Put("/state", s.handleNavigate)
	r.Patch("/state", s.handleMerge)
	if !s.cfg.Metrics.Disabled {
		r.Handle(s.cfg.Server.MetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return r
}

// StateResponse is the body of GET /state.
type StateResponse struct {
	Scope      string            `json:"scope,omitempty"`
	Query      string            `json:"query"`
	Params     map[string]any    `json:"params"`
	Serialized map[string]string `json:"serialized"`
	Errors     []string          `json:"errors"`
	Version    uint64            `json:"version"`
	Clients    int               `json:"clients"`
}

// NavigateRequest is the body of PUT /state.
type NavigateRequest struct {
	Query   string `json:"query"`
	Replace bool   `json:"replace"`
}

// MergeRequest is the body of PATCH /state. A null value removes the key.
type MergeRequest struct {
	Params  map[string]*string `json:"params"`
	Replace bool               `json:"replace"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	var resp StateResponse
	err := s.loop.Do(r.Context(), func() {
		store := s.scope.Store()
		state := store.State()
		resp = StateResponse{
			Scope:      s.scopeID,
			Query:      store.Query(),
			Params:     make(map[string]any, len(state.Params)),
			Serialized: state.Serialized,
			Errors:     store.Errors().Keys(),
			Version:    store.Version(),
		}
		for k, v := range state.Params {
			switch {
			case v == nil:
			case qparam.IsNull(v):
				resp.Params[k] = nil
			default:
				resp.Params[k] = v
			}
		}
	})
	if err != nil {
		s.fail(w, http.StatusServiceUnavailable, syncerrors.CodeRelayClosed, err)
		return
	}
	resp.Clients = s.socket.ClientCount()
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if err := decodeBody(r.Body, &req); err != nil {
		s.fail(w, http.StatusBadRequest, syncerrors.CodeBadArgument, err)
		return
	}
	s.navigate(w, r, func() string { return req.Query }, req.Replace)
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if err := decodeBody(r.Body, &req); err != nil {
		s.fail(w, http.StatusBadRequest, syncerrors.CodeBadArgument, err)
		return
	}
	params := make(query.Params, len(req.Params))
	for k, v := range req.Params {
		if v == nil {
			params[k] = nil
		} else {
			params[k] = *v
		}
	}
	opts := query.Options{
		Sort:            s.cfg.Query.Sort,
		Separator:       s.cfg.Query.Separator,
		KeepEmptyString: s.cfg.Query.KeepEmptyString,
	}
	s.navigate(w, r, func() string {
		merged := query.StringifyURL("?"+s.relay.Location(), params, opts)
		return strings.TrimPrefix(merged, "?")
	}, req.Replace)
}

// navigate writes the query built by next on the loop and answers with the
// new state.
func (s *Server) navigate(w http.ResponseWriter, r *http.Request, next func() string, replace bool) {
	var navErr error
	err := s.loop.Do(r.Context(), func() {
		navErr = s.relay.Navigate(next(), replace)
	})
	if err == nil {
		err = navErr
	}
	if err != nil {
		s.fail(w, http.StatusServiceUnavailable, syncerrors.CodeRelayClosed, err)
		return
	}
	s.handleState(w, r)
}

func decodeBody(body io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(body, 1<<20))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return syncerrors.New(syncerrors.CodeBadArgument).WithDetail("Invalid JSON body: " + err.Error())
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func (s *Server) fail(w http.ResponseWriter, status int, code string, err error) {
	s.logger.Warn("request failed", "status", status, "error", err)
	se := syncerrors.FromError(err, code)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, se.FormatJSON())
}

// Run serves HTTP on the configured address and runs the loop until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Address(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()
	go s.loop.Run(loopCtx)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		s.shutdown()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.shutdown()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) shutdown() {
	s.socket.Close()
	s.relay.Teardown()
}
