// Package testutil provides shared test helpers for setting up caches,
// catalogs, and snapshot-backed host sessions.
package testutil

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/starford/forgelink/internal/cache"
	"github.com/starford/forgelink/internal/catalog"
	"github.com/starford/forgelink/internal/host/snapshot"
)

// TestCatalog creates a temporary SQLite catalog that is automatically
// cleaned up.
func TestCatalog(t *testing.T) *catalog.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "forgelink-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := catalog.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestCache creates a two-level cache over a temporary directory.
func TestCache(t *testing.T) *cache.Cache {
	t.Helper()
	disk, err := cache.NewDisk(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c, err := cache.New(disk, 32)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// TestSession builds a snapshot-backed host session for a small distributed
// design: a root assembly file with two components plus a sub-assembly file
// with one component. The PIM payload covers the root lineage fully and
// leaves the sub lineage without an entry for component "sub-ghost".
func TestSession(t *testing.T) *snapshot.Session {
	t.Helper()
	s, err := snapshot.New(TestSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// TestSnapshot returns the raw snapshot used by TestSession, so tests can
// tweak it before building a session.
func TestSnapshot() snapshot.Snapshot {
	pim := map[string]any{
		"schemaVersion": "1.4",
		"space-root": map[string]any{
			"snapshotId": "snap-root",
			"modelAsset": map[string]any{
				"id": "asset-root",
				"attributes": map[string]any{
					"f3dComponentId": map[string]any{"value": "comp-root"},
					"wipLineageUrn":  map[string]any{"value": "urn:lineage:root"},
				},
			},
		},
		"space-arm": map[string]any{
			"snapshotId": "snap-arm",
			"modelAsset": map[string]any{
				"id": "asset-arm",
				"attributes": map[string]any{
					"f3dComponentId": map[string]any{"value": "comp-arm"},
					"wipLineageUrn":  map[string]any{"value": "urn:lineage:root"},
				},
			},
		},
		"space-shaft": map[string]any{
			"snapshotId": "snap-shaft",
			"modelAsset": map[string]any{
				"id": "asset-shaft",
				"attributes": map[string]any{
					"f3dComponentId": map[string]any{"value": "comp-shaft"},
					"wipLineageUrn":  map[string]any{"value": "urn:lineage:sub"},
				},
			},
		},
	}
	raw, _ := json.Marshal(pim)

	return snapshot.Snapshot{
		CollectionID: "col-1",
		RootFile:     "root",
		Files: map[string]snapshot.File{
			"root": {
				Name: "Gearbox", ID: "urn:lineage:root",
				VersionID: "urn:lineage:root?version=3",
				FolderID:  "folder-1", ProjectID: "project-1", HubID: "hub-1",
			},
			"sub": {
				Name: "Shaft Assembly", ID: "urn:lineage:sub",
				VersionID: "urn:lineage:sub?version=5",
				FolderID:  "folder-1", ProjectID: "project-1", HubID: "hub-1",
			},
		},
		Components: []snapshot.ComponentRef{
			{ID: "comp-root", Name: "Gearbox v3", File: "root"},
			{ID: "comp-arm", Name: "Arm", File: "root"},
			{ID: "comp-shaft", Name: "Shaft", File: "sub"},
			{ID: "sub-ghost", Name: "Ghost", File: "sub"},
		},
		PIM: raw,
	}
}
