package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_NewCacheFileCatalogued(t *testing.T) {
	db := testDB(t)
	disk := testDisk(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, db, disk, discard(), func(kind, versionID string) {
		mu.Lock()
		events = append(events, kind+":"+versionID)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	if _, err := disk.Put(sampleInfo("urn:a?version=1", "Gearbox")); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("urn:a?version=1")
		return cs != ""
	}, "cache file was not catalogued")

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "resolved:urn:a?version=1" {
				return true
			}
		}
		return false
	}, "no resolved event seen")
}

func TestWatcher_RemovalReconciled(t *testing.T) {
	db := testDB(t)
	disk := testDisk(t)

	info := sampleInfo("urn:a?version=1", "Gearbox")
	cs, err := disk.Put(info)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertFile(info, cs); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, disk, discard(), nil)

	time.Sleep(100 * time.Millisecond)

	if err := disk.Remove(info.FileVersionID); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		got, _ := db.GetChecksum(info.FileVersionID)
		return got == ""
	}, "stale row was not reconciled away")
}

func TestWatcher_IgnoresTempFiles(t *testing.T) {
	db := testDB(t)
	disk := testDisk(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, disk, discard(), nil)

	time.Sleep(100 * time.Millisecond)

	// Dot-prefixed temp files from atomic writes must not be catalogued.
	if err := os.WriteFile(filepath.Join(disk.Dir(), ".forgelink-tmp-123.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)

	all, err := db.AllChecksums()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Errorf("catalog rows = %v, want none", all)
	}
}
