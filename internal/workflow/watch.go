package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch calls reload after files named in names change under dir. Bursts
// of events within settle are coalesced into one reload. Watch blocks until
// ctx ends. A failed reload is logged and the previous indexes stay live.
func Watch(ctx context.Context, dir string, names []string, settle time.Duration, reload func() error, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	timer := time.NewTimer(settle)
	timer.Stop()
	defer timer.Stop()
	pending := false

	logger.Info("watching index files", "dir", dir, "files", names)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !wanted[filepath.Base(ev.Name)] || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			logger.Debug("index file changed", "file", ev.Name, "op", ev.Op.String())
			pending = true
			timer.Reset(settle)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			start := time.Now()
			if err := reload(); err != nil {
				logger.Error("reloading indexes failed", "error", err)
				continue
			}
			logger.Info("indexes reloaded", "duration", time.Since(start))
		}
	}
}
