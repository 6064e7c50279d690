package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/forgelink/internal/models"
)

// ComponentHit is one row of a component search.
type ComponentHit struct {
	FileVersionID      string `json:"file_version_id"`
	FileName           string `json:"file_name"`
	Name               string `json:"name"`
	F3DComponentID     string `json:"f3d_component_id"`
	ComponentID        string `json:"component_id"`
	ComponentVersionID string `json:"component_version_id"`
}

// UpsertFile replaces the file row and its component rows in one
// transaction. checksum fingerprints the cache file the record came from.
func (db *DB) UpsertFile(info *models.DesignInfo, checksum string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO files (version_id, file_id, name, folder_id, project_id, hub_id, checksum, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(version_id) DO UPDATE SET
			file_id     = excluded.file_id,
			name        = excluded.name,
			folder_id   = excluded.folder_id,
			project_id  = excluded.project_id,
			hub_id      = excluded.hub_id,
			checksum    = excluded.checksum,
			resolved_at = excluded.resolved_at
	`, info.FileVersionID, info.FileID, info.Name, info.FolderID, info.ProjectID, info.HubID, checksum, time.Now())
	if err != nil {
		return fmt.Errorf("catalog: upsert file: %w", err)
	}

	// Replace component rows: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM components WHERE version_id = ?`, info.FileVersionID)
	if len(info.Components) > 0 {
		stmt, err := tx.Prepare(`
			INSERT OR IGNORE INTO components (version_id, f3d_component_id, name, component_id, component_version_id)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("catalog: prepare component insert: %w", err)
		}
		defer stmt.Close()
		for _, c := range info.Components {
			if _, err := stmt.Exec(info.FileVersionID, c.F3DComponentID, c.Name, c.ComponentID, c.ComponentVersionID); err != nil {
				return fmt.Errorf("catalog: insert component: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteFile removes a file row and its component rows.
func (db *DB) DeleteFile(versionID string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM components WHERE version_id = ?`, versionID)
	_, _ = tx.Exec(`DELETE FROM files WHERE version_id = ?`, versionID)

	return tx.Commit()
}

// GetChecksum returns the stored cache-file checksum for a version id, or
// empty string when the file is not catalogued.
func (db *DB) GetChecksum(versionID string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM files WHERE version_id = ?`, versionID).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("catalog: get checksum %s: %w", versionID, err)
	}
	return cs, nil
}

// AllChecksums returns the checksum of every catalogued file keyed by
// version id.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT version_id, checksum FROM files`)
	if err != nil {
		return nil, fmt.Errorf("catalog: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, cs string
		if err := rows.Scan(&id, &cs); err != nil {
			return nil, err
		}
		out[id] = cs
	}
	return out, rows.Err()
}

// ListFiles returns catalogued files ordered by resolve time, newest first,
// with the total row count for pagination.
func (db *DB) ListFiles(limit, offset int) ([]models.FileListItem, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("catalog: count files: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT name, file_id, version_id, resolved_at
		FROM files
		ORDER BY resolved_at DESC, version_id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog: list files: %w", err)
	}
	defer rows.Close()

	var out []models.FileListItem
	for rows.Next() {
		var it models.FileListItem
		if err := rows.Scan(&it.Name, &it.FileID, &it.FileVersionID, &it.ResolvedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, it)
	}
	return out, total, rows.Err()
}

// SearchComponents finds catalogued components whose name contains the query
// (case-insensitive).
func (db *DB) SearchComponents(query string, limit int) ([]ComponentHit, error) {
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT c.version_id, f.name, c.name, c.f3d_component_id, c.component_id, c.component_version_id
		FROM components c
		JOIN files f ON f.version_id = c.version_id
		WHERE c.name LIKE '%' || ? || '%' COLLATE NOCASE
		ORDER BY c.name, c.version_id
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: search components: %w", err)
	}
	defer rows.Close()

	var out []ComponentHit
	for rows.Next() {
		var h ComponentHit
		if err := rows.Scan(&h.FileVersionID, &h.FileName, &h.Name, &h.F3DComponentID, &h.ComponentID, &h.ComponentVersionID); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// FileComponents returns the component rows of one catalogued file version.
func (db *DB) FileComponents(versionID string) ([]models.ComponentInfo, error) {
	rows, err := db.conn.Query(`
		SELECT name, f3d_component_id, component_id, component_version_id
		FROM components
		WHERE version_id = ?
		ORDER BY f3d_component_id
	`, versionID)
	if err != nil {
		return nil, fmt.Errorf("catalog: file components: %w", err)
	}
	defer rows.Close()

	var out []models.ComponentInfo
	for rows.Next() {
		var c models.ComponentInfo
		if err := rows.Scan(&c.Name, &c.F3DComponentID, &c.ComponentID, &c.ComponentVersionID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
