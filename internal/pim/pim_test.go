package pim

import "testing"

const samplePayload = `{
	"schemaVersion": "1.4",
	"space-a": {
		"snapshotId": "snap-a",
		"modelAsset": {
			"id": "asset-a",
			"attributes": {
				"f3dComponentId": {"value": "comp-1"},
				"wipLineageUrn": {"value": "urn:lineage:root"}
			}
		}
	},
	"space-b": {
		"modelAsset": {
			"id": "asset-b",
			"attributes": {
				"f3dComponentId": {"value": "comp-2"},
				"wipLineageUrn": {"value": "urn:lineage:root"}
			}
		}
	},
	"space-c": {
		"snapshotId": "snap-c",
		"modelAsset": {
			"id": "asset-c",
			"attributes": {
				"f3dComponentId": {"value": "comp-1"},
				"wipLineageUrn": {"value": "urn:lineage:sub"}
			}
		}
	},
	"space-no-asset": {"snapshotId": "snap-x"},
	"space-no-attrs": {"modelAsset": {"id": "asset-y", "attributes": {}}}
}`

func TestParseBuildsLineageTable(t *testing.T) {
	table, err := Parse([]byte(samplePayload))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(table) != 2 {
		t.Fatalf("lineage count = %d, want 2", len(table))
	}

	sp, ok := table.Lookup("urn:lineage:root", "comp-1")
	if !ok {
		t.Fatal("root/comp-1 not found")
	}
	if sp.AssetID != "asset-a" || sp.SnapshotID != "snap-a" {
		t.Errorf("root/comp-1 = %+v", sp)
	}

	// Same in-file component id under a different lineage maps to a
	// different asset.
	sp, ok = table.Lookup("urn:lineage:sub", "comp-1")
	if !ok {
		t.Fatal("sub/comp-1 not found")
	}
	if sp.AssetID != "asset-c" {
		t.Errorf("sub/comp-1 asset = %q, want asset-c", sp.AssetID)
	}
}

func TestParseMissingSnapshotIsEmpty(t *testing.T) {
	table, err := Parse([]byte(samplePayload))
	if err != nil {
		t.Fatal(err)
	}
	sp, ok := table.Lookup("urn:lineage:root", "comp-2")
	if !ok {
		t.Fatal("root/comp-2 not found")
	}
	if sp.SnapshotID != "" {
		t.Errorf("snapshot = %q, want empty", sp.SnapshotID)
	}
}

func TestParseSkipsIrrelevantEntries(t *testing.T) {
	table, err := Parse([]byte(samplePayload))
	if err != nil {
		t.Fatal(err)
	}
	for lineage := range table {
		if lineage == "" {
			t.Error("empty lineage key present")
		}
	}
	if _, ok := table.Lookup("", ""); ok {
		t.Error("entries without attributes should be skipped")
	}
}

func TestParseLookupAbsent(t *testing.T) {
	table, err := Parse([]byte(samplePayload))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := table.Lookup("urn:lineage:root", "comp-404"); ok {
		t.Error("unexpected hit for unknown component id")
	}
	if _, ok := table.Lineage("urn:lineage:other"); ok {
		t.Error("unexpected hit for unknown lineage")
	}
}

func TestParseInvalidJSON(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Error("expected error for invalid payload")
	}
}

func TestParseEmptyObject(t *testing.T) {
	table, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(table) != 0 {
		t.Errorf("table = %v, want empty", table)
	}
}
