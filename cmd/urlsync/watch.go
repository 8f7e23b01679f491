package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/vango-dev/urlsync/internal/schemafile"
	"github.com/vango-dev/urlsync/pkg/qparam"
)

// ReloadFunc installs a recompiled schema.
type ReloadFunc func(ctx context.Context, schema *qparam.Schema) error

// schemaWatcher recompiles the schema file whenever it is written.
type schemaWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	reload  ReloadFunc
	logger  *slog.Logger
}

// watchSchema watches the directory holding path so that editors doing
// atomic saves are still seen.
func watchSchema(path string, logger *slog.Logger, reload ReloadFunc) (*schemaWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	return &schemaWatcher{
		path:    path,
		watcher: watcher,
		reload:  reload,
		logger:  logger.With("component", "watch"),
	}, nil
}

// Run handles events until ctx is done or the watcher is closed.
func (w *schemaWatcher) Run(ctx context.Context) {
	filename := filepath.Base(w.path)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.logger.Debug("schema changed", "event", event.Op.String(), "file", event.Name)
			if err := w.apply(ctx); err != nil {
				w.logger.Error("schema reload failed", "error", err)
				warn("Schema reload failed: %v", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)

		case <-ctx.Done():
			return
		}
	}
}

// apply recompiles the file and hands the schema to reload. A schema that
// fails to compile leaves the running one in place.
func (w *schemaWatcher) apply(ctx context.Context) error {
	_, schema, err := schemafile.Load(w.path)
	if err != nil {
		return err
	}
	if err := w.reload(ctx, schema); err != nil {
		return err
	}
	w.logger.Info("schema reloaded", "path", w.path, "fields", schema.Len())
	return nil
}

// Close stops the underlying watcher.
func (w *schemaWatcher) Close() error {
	return w.watcher.Close()
}
