// Package catalog provides a SQLite catalog of every design-file record held
// in the disk cache, so cached identifiers can be listed and searched across
// sessions without re-reading the cache files.
package catalog

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS files (
	version_id  TEXT PRIMARY KEY,
	file_id     TEXT NOT NULL DEFAULT '',
	name        TEXT NOT NULL DEFAULT '',
	folder_id   TEXT NOT NULL DEFAULT '',
	project_id  TEXT NOT NULL DEFAULT '',
	hub_id      TEXT NOT NULL DEFAULT '',
	checksum    TEXT NOT NULL DEFAULT '',
	resolved_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS components (
	version_id           TEXT NOT NULL,
	f3d_component_id     TEXT NOT NULL,
	name                 TEXT NOT NULL DEFAULT '',
	component_id         TEXT NOT NULL DEFAULT '',
	component_version_id TEXT NOT NULL DEFAULT '',
	UNIQUE(version_id, f3d_component_id)
);

CREATE INDEX IF NOT EXISTS idx_components_version ON components(version_id);
CREATE INDEX IF NOT EXISTS idx_components_name ON components(name);
`

// DB wraps a sql.DB with catalog-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
