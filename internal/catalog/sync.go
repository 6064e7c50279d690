package catalog

import (
	"log/slog"

	"github.com/starford/forgelink/internal/cache"
)

// Sync walks the disk cache and brings the catalog up to date:
//   - new/changed cache files are decoded and upserted
//   - rows whose cache file is gone are deleted
func Sync(db *DB, disk *cache.Disk, logger *slog.Logger) error {
	entries, err := disk.List()
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	onDisk := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		info, cs, err := disk.ReadEntry(e.Name)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("entry", e.Name), slog.String("error", err.Error()))
			continue
		}
		if info.FileVersionID == "" {
			logger.Warn("sync: entry has no version id", slog.String("entry", e.Name))
			continue
		}
		onDisk[info.FileVersionID] = struct{}{}

		if checksums[info.FileVersionID] == cs {
			continue
		}
		if err := db.UpsertFile(info, cs); err != nil {
			logger.Warn("sync: upsert failed", slog.String("version_id", info.FileVersionID), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: catalogued", slog.String("version_id", info.FileVersionID))
		}
	}

	// Remove stale rows.
	for id := range checksums {
		if _, ok := onDisk[id]; !ok {
			if err := db.DeleteFile(id); err != nil {
				logger.Warn("sync: delete failed", slog.String("version_id", id), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("version_id", id))
			}
		}
	}

	return nil
}
