package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/forgelink/internal/apperr"
	"github.com/starford/forgelink/internal/checksum"
	"github.com/starford/forgelink/internal/models"
)

// fileNameReplacer substitutes the separators a file version id carries that
// are unsafe in file names (the `?version=` separator, plus `:` and `/` for
// Windows and nested-urn safety). The escape char itself is escaped first,
// so distinct version ids never collide on one cache file.
var fileNameReplacer = strings.NewReplacer("%", "%25", "?", "%3F", ":", "%3A", "/", "%2F")

// FileName returns the cache file name for a file version id.
func FileName(versionID string) string {
	return fileNameReplacer.Replace(versionID) + ".json"
}

// Disk is the flat-file cache level: one JSON file per design-file version
// id, all in a single directory. The directory must already exist.
type Disk struct {
	dir string
}

// Entry is the metadata of one cache file on disk.
type Entry struct {
	// Name is the cache file name, not the version id: readers recover the
	// version id from the record inside the file rather than decoding the
	// name.
	Name      string
	Checksum  string
	UpdatedAt time.Time
}

// NewDisk creates a Disk rooted at dir.
func NewDisk(dir string) (*Disk, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cache: resolve dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("cache: stat dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cache: not a directory: %s", abs)
	}
	return &Disk{dir: abs}, nil
}

// Dir returns the absolute cache directory.
func (d *Disk) Dir() string { return d.dir }

// Get reads the record for a file version id. Returns apperr.ErrNotFound
// when no cache file exists.
func (d *Disk) Get(versionID string) (*models.DesignInfo, error) {
	data, err := os.ReadFile(filepath.Join(d.dir, FileName(versionID)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("cache: read %s: %w", versionID, err)
	}
	var info models.DesignInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("cache: decode %s: %w", versionID, err)
	}
	return &info, nil
}

// ReadEntry reads and decodes one cache file by its file name.
func (d *Disk) ReadEntry(name string) (*models.DesignInfo, string, error) {
	data, err := os.ReadFile(filepath.Join(d.dir, filepath.Base(name)))
	if err != nil {
		return nil, "", fmt.Errorf("cache: read entry %s: %w", name, err)
	}
	var info models.DesignInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, "", fmt.Errorf("cache: decode entry %s: %w", name, err)
	}
	return &info, checksum.Sum(data), nil
}

// Put writes the record atomically: temp file, fsync, rename. It returns the
// checksum of the written bytes.
func (d *Disk) Put(info *models.DesignInfo) (string, error) {
	data, err := json.MarshalIndent(info, "", "    ")
	if err != nil {
		return "", fmt.Errorf("cache: encode %s: %w", info.FileVersionID, err)
	}

	tmp, err := os.CreateTemp(d.dir, ".forgelink-tmp-*")
	if err != nil {
		return "", fmt.Errorf("cache: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return "", fmt.Errorf("cache: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("cache: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("cache: close temp: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(d.dir, FileName(info.FileVersionID))); err != nil {
		return "", fmt.Errorf("cache: rename: %w", err)
	}
	success = true
	return checksum.Sum(data), nil
}

// Remove deletes the cache file for a file version id.
func (d *Disk) Remove(versionID string) error {
	if err := os.Remove(filepath.Join(d.dir, FileName(versionID))); err != nil {
		return fmt.Errorf("cache: remove %s: %w", versionID, err)
	}
	return nil
}

// List returns metadata for every cache file in the directory.
func (d *Disk) List() ([]Entry, error) {
	var out []Entry
	err := filepath.WalkDir(d.dir, func(p string, de fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if de.IsDir() {
			if p == d.dir {
				return nil
			}
			return fs.SkipDir
		}
		if !strings.HasSuffix(de.Name(), ".json") {
			return nil
		}
		info, err := de.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		out = append(out, Entry{
			Name:      de.Name(),
			Checksum:  checksum.Sum(data),
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cache: list: %w", err)
	}
	return out, nil
}
