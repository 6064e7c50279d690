// Package pim parses the host's per-document PIM (Product Information Model)
// payload. The payload is an undocumented JSON object mapping internal space
// ids to asset metadata; its shape may change without notice, so parsing is
// deliberately tolerant and skips anything it does not recognise.
package pim

import (
	"encoding/json"
	"fmt"
)

// Space is one entry of the payload reduced to the fields the resolver needs.
type Space struct {
	// AssetID is the model asset id, empty when the space has none.
	AssetID string
	// SnapshotID pins the asset to one saved version, empty when absent.
	SnapshotID string
	// ComponentID is the in-file component id the asset belongs to.
	ComponentID string
	// LineageID identifies the parent design file across versions.
	LineageID string
}

// Table indexes spaces by parent-file lineage id, then by in-file component
// id. Component ids are only unique within one file, so the lineage level is
// what makes lookups unambiguous in a distributed design.
type Table map[string]map[string]Space

type rawValue struct {
	Value string `json:"value"`
}

type rawAttributes struct {
	F3DComponentID rawValue `json:"f3dComponentId"`
	WipLineageURN  rawValue `json:"wipLineageUrn"`
}

type rawModelAsset struct {
	ID         string        `json:"id"`
	Attributes rawAttributes `json:"attributes"`
}

type rawSpace struct {
	SnapshotID string         `json:"snapshotId"`
	ModelAsset *rawModelAsset `json:"modelAsset"`
}

// Parse builds a lookup table from the raw payload bytes. Top-level values
// that are not objects, and spaces without a model asset or without the
// component/lineage attributes, are skipped.
func Parse(raw []byte) (Table, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("pim: parse payload: %w", err)
	}

	table := make(Table)
	for _, entry := range payload {
		var sp rawSpace
		if err := json.Unmarshal(entry, &sp); err != nil {
			// Scalar or array value alongside the space entries.
			continue
		}
		if sp.ModelAsset == nil {
			continue
		}
		componentID := sp.ModelAsset.Attributes.F3DComponentID.Value
		lineageID := sp.ModelAsset.Attributes.WipLineageURN.Value
		if componentID == "" || lineageID == "" {
			continue
		}
		if table[lineageID] == nil {
			table[lineageID] = make(map[string]Space)
		}
		table[lineageID][componentID] = Space{
			AssetID:     sp.ModelAsset.ID,
			SnapshotID:  sp.SnapshotID,
			ComponentID: componentID,
			LineageID:   lineageID,
		}
	}
	return table, nil
}

// Lineage returns the component-id index for one design file lineage.
func (t Table) Lineage(lineageID string) (map[string]Space, bool) {
	spaces, ok := t[lineageID]
	return spaces, ok
}

// Lookup returns the space for one component of one file lineage.
func (t Table) Lookup(lineageID, componentID string) (Space, bool) {
	sp, ok := t[lineageID][componentID]
	return sp, ok
}
