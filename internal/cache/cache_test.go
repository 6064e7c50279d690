package cache

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/forgelink/internal/apperr"
	"github.com/starford/forgelink/internal/models"
)

func tempDisk(t *testing.T) *Disk {
	t.Helper()
	d, err := NewDisk(t.TempDir())
	if err != nil {
		t.Fatalf("NewDisk: %v", err)
	}
	return d
}

func sampleInfo(versionID string) *models.DesignInfo {
	return &models.DesignInfo{
		Name:          "Gearbox",
		FileID:        "urn:lineage:root",
		FileVersionID: versionID,
		FolderID:      "folder-1",
		ProjectID:     "project-1",
		HubID:         "hub-1",
		Components: []models.ComponentInfo{
			{Name: "Shaft", F3DComponentID: "comp-1", ComponentID: "id-1", ComponentVersionID: "vid-1"},
		},
		AllComponents: []models.ComponentInfo{
			{Name: "Shaft", F3DComponentID: "comp-1", ComponentID: "id-1", ComponentVersionID: "vid-1"},
		},
	}
}

func TestFileNameSubstitution(t *testing.T) {
	got := FileName("urn:adsk.wipprod:fs.file:vf.ABC?version=2")
	if strings.ContainsAny(got, "?:/") {
		t.Errorf("file name %q still carries unsafe separators", got)
	}
	if !strings.HasSuffix(got, ".json") {
		t.Errorf("file name %q missing .json suffix", got)
	}
}

func TestFileNameNoCollisions(t *testing.T) {
	// Ids that a plain `_` substitution would map to the same file.
	ids := []string{"urn:a?v", "urn:a_v", "urn_a?v", "urn%3Aa?v"}
	seen := make(map[string]string, len(ids))
	for _, id := range ids {
		name := FileName(id)
		if prev, ok := seen[name]; ok {
			t.Errorf("ids %q and %q collide on file name %q", prev, id, name)
		}
		seen[name] = id
	}
}

func TestDiskDistinctIDsKeepDistinctFiles(t *testing.T) {
	d := tempDisk(t)
	a := sampleInfo("urn:a?version=1")
	b := sampleInfo("urn:a_version=1")
	b.Name = "Shaft"
	if _, err := d.Put(a); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Put(b); err != nil {
		t.Fatal(err)
	}
	gotA, err := d.Get(a.FileVersionID)
	if err != nil {
		t.Fatalf("Get a: %v", err)
	}
	gotB, err := d.Get(b.FileVersionID)
	if err != nil {
		t.Fatalf("Get b: %v", err)
	}
	if gotA.Name != "Gearbox" || gotB.Name != "Shaft" {
		t.Errorf("records overwrote each other: %q / %q", gotA.Name, gotB.Name)
	}
}

func TestDiskPutGet(t *testing.T) {
	d := tempDisk(t)
	info := sampleInfo("urn:lineage:root?version=3")

	cs, err := d.Put(info)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if cs == "" {
		t.Error("empty checksum")
	}

	got, err := d.Get(info.FileVersionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Gearbox" || got.FileVersionID != info.FileVersionID {
		t.Errorf("got = %+v", got)
	}
	if len(got.Components) != 1 || got.Components[0].F3DComponentID != "comp-1" {
		t.Errorf("components = %+v", got.Components)
	}
}

func TestDiskGetMiss(t *testing.T) {
	d := tempDisk(t)
	_, err := d.Get("urn:lineage:absent?version=1")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDiskOverwrite(t *testing.T) {
	d := tempDisk(t)
	info := sampleInfo("urn:lineage:root?version=3")
	if _, err := d.Put(info); err != nil {
		t.Fatal(err)
	}
	info.Name = "Gearbox MkII"
	if _, err := d.Put(info); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := d.Get(info.FileVersionID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Gearbox MkII" {
		t.Errorf("name = %q after overwrite", got.Name)
	}
}

func TestDiskList(t *testing.T) {
	d := tempDisk(t)
	if _, err := d.Put(sampleInfo("urn:a?version=1")); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Put(sampleInfo("urn:b?version=2")); err != nil {
		t.Fatal(err)
	}
	// A stray non-JSON file is ignored.
	if err := os.WriteFile(filepath.Join(d.Dir(), "readme.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := d.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("entries = %d, want 2", len(entries))
	}
	for _, e := range entries {
		if e.Checksum == "" {
			t.Errorf("entry %s has empty checksum", e.Name)
		}
	}
}

func TestDiskReadEntry(t *testing.T) {
	d := tempDisk(t)
	info := sampleInfo("urn:a?version=1")
	cs, err := d.Put(info)
	if err != nil {
		t.Fatal(err)
	}
	got, gotCS, err := d.ReadEntry(FileName(info.FileVersionID))
	if err != nil {
		t.Fatalf("ReadEntry: %v", err)
	}
	if got.FileVersionID != info.FileVersionID {
		t.Errorf("version = %q", got.FileVersionID)
	}
	if gotCS != cs {
		t.Errorf("checksum mismatch: %q vs %q", gotCS, cs)
	}
}

func TestCacheReadThrough(t *testing.T) {
	d := tempDisk(t)
	info := sampleInfo("urn:lineage:root?version=3")
	if _, err := d.Put(info); err != nil {
		t.Fatal(err)
	}

	c, err := New(d, 8)
	if err != nil {
		t.Fatal(err)
	}

	// First read populates the memory level from disk.
	got, err := c.Get(info.FileVersionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Gearbox" {
		t.Errorf("name = %q", got.Name)
	}

	// Deleting the disk file must not evict the memory level.
	if err := d.Remove(info.FileVersionID); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(info.FileVersionID); err != nil {
		t.Errorf("memory level should still hold the record: %v", err)
	}
}

func TestCacheWriteThrough(t *testing.T) {
	d := tempDisk(t)
	c, err := New(d, 8)
	if err != nil {
		t.Fatal(err)
	}
	info := sampleInfo("urn:lineage:root?version=4")
	if _, err := c.Put(info); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := d.Get(info.FileVersionID); err != nil {
		t.Errorf("disk level missing record: %v", err)
	}
}

func TestCacheMiss(t *testing.T) {
	c, err := New(tempDisk(t), 8)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get("urn:none?version=1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCacheInvalidate(t *testing.T) {
	d := tempDisk(t)
	c, err := New(d, 8)
	if err != nil {
		t.Fatal(err)
	}
	info := sampleInfo("urn:lineage:root?version=5")
	if _, err := c.Put(info); err != nil {
		t.Fatal(err)
	}
	if err := c.Invalidate(info.FileVersionID); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := c.Get(info.FileVersionID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after invalidate", err)
	}
	// Invalidating an absent record is fine.
	if err := c.Invalidate("urn:none?version=1"); err != nil {
		t.Errorf("Invalidate absent: %v", err)
	}
}
