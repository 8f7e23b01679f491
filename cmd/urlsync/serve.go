package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/urlsync/internal/config"
	"github.com/vango-dev/urlsync/internal/errors"
	"github.com/vango-dev/urlsync/internal/schemafile"
	"github.com/vango-dev/urlsync/internal/server"
)

type serveFlags struct {
	dir     string
	schema  string
	host    string
	port    int
	initial string
	watch   bool
}

func serveCmd() *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the sync server",
		Long: `Start the sync server.

The server reads urlsync.json from --config (if present), loads the
schema, and serves:

  /ws       WebSocket history clients
  /state    GET the parsed state, PUT a new query, PATCH parameters
  /metrics  Prometheus metrics
  /healthz  Liveness

Examples:
  urlsync serve --schema schema.yaml
  urlsync serve --config ./deploy --watch
  urlsync serve --schema schema.yaml --port=8080 --initial "page=1"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(f)
		},
	}

	cmd.Flags().StringVarP(&f.dir, "config", "c", ".", "Directory containing urlsync.json")
	cmd.Flags().StringVarP(&f.schema, "schema", "f", "", "Schema file (default from urlsync.json)")
	cmd.Flags().IntVarP(&f.port, "port", "p", 0, "Port to run on (default from urlsync.json)")
	cmd.Flags().StringVarP(&f.host, "host", "H", "", "Host to bind to (default from urlsync.json)")
	cmd.Flags().StringVar(&f.initial, "initial", "", "Initial query string")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "Reload the schema when the file changes")

	return cmd
}

// loadServeConfig reads urlsync.json when it exists and applies flag overrides.
func loadServeConfig(f serveFlags) (*config.Config, string, error) {
	cfg := config.New()
	if config.Exists(f.dir) {
		loaded, err := config.Load(f.dir)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
	}
	if f.host != "" {
		cfg.Server.Host = f.host
	}
	if f.port != 0 {
		cfg.Server.Port = f.port
	}
	if f.initial != "" {
		cfg.Query.Initial = f.initial
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	schemaPath := f.schema
	if schemaPath == "" {
		schemaPath = cfg.SchemaPath()
	}
	if schemaPath == "" {
		return nil, "", errors.New(errors.CodeSchemaFile).
			WithDetail("No schema configured").
			WithSuggestion("Pass --schema or set \"schema\" in urlsync.json")
	}
	return cfg, schemaPath, nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func runServe(f serveFlags) error {
	cfg, schemaPath, err := loadServeConfig(f)
	if err != nil {
		return err
	}
	doc, schema, err := schemafile.Load(schemaPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stderr)

	srv, err := server.New(server.Options{
		Config: cfg,
		Schema: schema,
		Scope:  doc.Scope,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		info("Shutting down...")
		cancel()
	}()

	if f.watch {
		w, err := watchSchema(schemaPath, logger, srv.Reload)
		if err != nil {
			return err
		}
		defer w.Close()
		go w.Run(ctx)
	}

	printBanner()
	success("Serving %s on http://%s", schemaPath, cfg.Address())
	info("Sockets:  ws://%s/ws", cfg.Address())
	if !cfg.Metrics.Disabled {
		info("Metrics:  http://%s%s", cfg.Address(), cfg.Server.MetricsPath)
	}
	if f.watch {
		info("Watching %s for changes", schemaPath)
	}

	if err := srv.Run(ctx); err != nil {
		errorMsg("Server stopped: %v", err)
		return err
	}
	return nil
}
