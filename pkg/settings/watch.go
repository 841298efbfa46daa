package settings

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the store whenever the settings file changes on disk, so a
// long-running server sees toggles made from another process. The parent
// directory is watched because the file is replaced by rename on save. Watch
// blocks until ctx is cancelled.
func (s *Store) Watch(ctx context.Context, log *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("settings: create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("settings: create dir: %w", err)
	}

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("settings: watch %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(ev.Name) != s.filePath {
				continue
			}

			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}

			if err := s.Reload(); err != nil {
				log.WarnContext(ctx, "settings reload failed", "path", s.filePath, "error", err)
				continue
			}

			cur := s.Get()
			log.DebugContext(ctx, "settings reloaded",
				"path", s.filePath,
				"server_url", cur.ServerURL,
				"automatic_renaming", cur.AutomaticRenaming,
			)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}

			log.WarnContext(ctx, "settings watcher error", "error", err)
		}
	}
}
