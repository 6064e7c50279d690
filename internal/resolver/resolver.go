// Package resolver correlates a design's components with the document's PIM
// payload and derives the cloud data identifiers for every design file
// version the design touches.
package resolver

import (
	"github.com/starford/forgelink/internal/host"
	"github.com/starford/forgelink/internal/ids"
	"github.com/starford/forgelink/internal/models"
	"github.com/starford/forgelink/internal/pim"
)

// Unresolved is returned in place of a derived id when the PIM payload has
// an entry for the component's parent file lineage but no space for the
// component itself. It is a non-fatal marker, not an error.
const Unresolved = "Failed to get ID"

// Resolve derives identifier records for every file version referenced by
// the design, keyed by file version id. Components whose parent-file lineage
// has no PIM entry produce no record at all; components whose lineage is
// present but whose space is missing get the Unresolved marker.
func Resolve(design *host.Design, table pim.Table, collectionID string) map[string]*models.DesignInfo {
	out := make(map[string]*models.DesignInfo)

	ensure := func(f *host.DataFile) *models.DesignInfo {
		if info, ok := out[f.VersionID]; ok {
			return info
		}
		info := &models.DesignInfo{
			Name:          f.Name,
			FileID:        f.ID,
			FileVersionID: f.VersionID,
			FolderID:      f.FolderID,
			ProjectID:     f.ProjectID,
			HubID:         f.HubID,
			Components:    []models.ComponentInfo{},
			AllComponents: []models.ComponentInfo{},
		}
		out[f.VersionID] = info
		return info
	}

	root := ensure(design.File)

	for _, c := range design.Components {
		parent := ensure(c.File)

		spaces, ok := table.Lineage(c.File.ID)
		if !ok {
			continue
		}

		rec := models.ComponentInfo{
			Name:               c.Name,
			F3DComponentID:     c.ID,
			ComponentID:        componentID(c, spaces, collectionID),
			ComponentVersionID: componentVersionID(c, spaces, collectionID),
		}
		parent.Components = append(parent.Components, rec)
		root.AllComponents = append(root.AllComponents, rec)
	}

	return out
}

func componentID(c *host.Component, spaces map[string]pim.Space, collectionID string) string {
	sp, ok := spaces[c.ID]
	if !ok {
		return Unresolved
	}
	return ids.Component(collectionID, sp.AssetID)
}

func componentVersionID(c *host.Component, spaces map[string]pim.Space, collectionID string) string {
	sp, ok := spaces[c.ID]
	if !ok {
		return Unresolved
	}
	return ids.ComponentVersion(collectionID, sp.AssetID, sp.SnapshotID)
}
