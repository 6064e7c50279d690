// Package cache implements the two-level identifier cache: a bounded
// in-process LRU in front of a flat-file JSON store keyed by design-file
// version id. Records carry no explicit expiry; a changed version id simply
// misses and the caller recomputes.
package cache

import (
	"errors"
	"fmt"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/starford/forgelink/internal/models"
)

// Cache layers the memory level over the disk level with read-through and
// write-through semantics. Records are treated as immutable once stored.
type Cache struct {
	mem  *lru.Cache[string, *models.DesignInfo]
	disk *Disk
}

// New creates a Cache over disk with a memory level of at most entries
// records.
func New(disk *Disk, entries int) (*Cache, error) {
	if entries <= 0 {
		entries = 256
	}
	mem, err := lru.New[string, *models.DesignInfo](entries)
	if err != nil {
		return nil, fmt.Errorf("cache: init memory level: %w", err)
	}
	return &Cache{mem: mem, disk: disk}, nil
}

// Get returns the record for a file version id, refreshing the memory level
// from disk on a memory miss. Returns apperr.ErrNotFound when neither level
// has the record.
func (c *Cache) Get(versionID string) (*models.DesignInfo, error) {
	if info, ok := c.mem.Get(versionID); ok {
		return info, nil
	}
	info, err := c.disk.Get(versionID)
	if err != nil {
		return nil, err
	}
	c.mem.Add(versionID, info)
	return info, nil
}

// Put writes the record through both levels and returns the checksum of the
// on-disk bytes.
func (c *Cache) Put(info *models.DesignInfo) (string, error) {
	cs, err := c.disk.Put(info)
	if err != nil {
		return "", err
	}
	c.mem.Add(info.FileVersionID, info)
	return cs, nil
}

// Invalidate drops the record from both levels. A missing disk file is not
// an error.
func (c *Cache) Invalidate(versionID string) error {
	c.mem.Remove(versionID)
	if err := c.disk.Remove(versionID); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
