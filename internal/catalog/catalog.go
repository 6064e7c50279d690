package catalog

import "github.com/starford/forgelink/internal/models"

// Catalog defines the catalog operations. Consumers should depend on this
// interface rather than the concrete *DB type to facilitate testing.
type Catalog interface {
	UpsertFile(info *models.DesignInfo, checksum string) error
	DeleteFile(versionID string) error
	GetChecksum(versionID string) (string, error)
	AllChecksums() (map[string]string, error)
	ListFiles(limit, offset int) ([]models.FileListItem, int, error)
	SearchComponents(query string, limit int) ([]ComponentHit, error)
	FileComponents(versionID string) ([]models.ComponentInfo, error)
	Close() error
}

// Verify *DB satisfies Catalog at compile time.
var _ Catalog = (*DB)(nil)
