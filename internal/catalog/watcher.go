package catalog

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/forgelink/internal/cache"
)

// EventCallback is called after a watcher-driven catalog change.
// kind is one of "resolved", "removed".
type EventCallback func(kind string, versionID string)

// Watch starts an fsnotify watcher on the cache directory and processes
// cache-file change events until ctx is cancelled. Another host session
// writing the same cache directory shows up here, so the catalog stays
// current without polling.
//
// Removal and rename events carry only the file name, with no record left on
// disk to read the version id from, so they schedule a short reconciliation
// pass against the stored checksums instead of deleting rows directly.
func Watch(ctx context.Context, db *DB, disk *cache.Disk, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(disk.Dir()); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("dir", disk.Dir()))

	// reconcileTimer debounces reconciliation after removals/renames.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, disk, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			name := filepath.Base(ev.Name)
			if !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
				// Temp files from atomic writes and foreign files.
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				info, cs, readErr := disk.ReadEntry(name)
				if readErr != nil {
					// Likely a partial write from another process;
					// reconciliation will catch it.
					logger.Debug("watcher: read failed", slog.String("entry", name), slog.String("error", readErr.Error()))
					scheduleReconcile()
					continue
				}
				if info.FileVersionID == "" {
					continue
				}
				if upErr := db.UpsertFile(info, cs); upErr != nil {
					logger.Warn("watcher: upsert failed", slog.String("version_id", info.FileVersionID), slog.String("error", upErr.Error()))
					continue
				}
				logger.Debug("watcher: catalogued", slog.String("version_id", info.FileVersionID))
				if cb != nil {
					cb("resolved", info.FileVersionID)
				}

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile removes rows whose cache file is gone and catalogues files the
// event stream missed.
func reconcile(db *DB, disk *cache.Disk, logger *slog.Logger, cb EventCallback) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	entries, err := disk.List()
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	onDisk := make(map[string]string, len(entries))
	for _, e := range entries {
		info, cs, readErr := disk.ReadEntry(e.Name)
		if readErr != nil || info.FileVersionID == "" {
			continue
		}
		onDisk[info.FileVersionID] = cs

		if checksums[info.FileVersionID] == cs {
			continue
		}
		if upErr := db.UpsertFile(info, cs); upErr == nil {
			logger.Debug("reconcile: catalogued", slog.String("version_id", info.FileVersionID))
			if cb != nil {
				cb("resolved", info.FileVersionID)
			}
		}
	}

	for id := range checksums {
		if _, ok := onDisk[id]; !ok {
			if delErr := db.DeleteFile(id); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("version_id", id))
				if cb != nil {
					cb("removed", id)
				}
			}
		}
	}
}
