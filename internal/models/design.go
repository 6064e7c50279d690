// Package models defines the identifier records produced by Forgelink.
package models

import "time"

// ComponentInfo holds the cloud data identifiers derived for one component.
// F3DComponentID is the host's in-file component id; it is only guaranteed
// to be unique within a single design file.
type ComponentInfo struct {
	Name               string `json:"Name"`
	F3DComponentID     string `json:"f3dComponentId"`
	ComponentID        string `json:"ComponentId"`
	ComponentVersionID string `json:"ComponentVersionId"`
}

// DesignInfo holds the cloud data identifiers derived for one saved version
// of a design file, together with the components it contains.
//
// Components covers components whose parent file is this file. AllComponents
// is only populated on the record of the root design file and covers every
// component reachable through sub-assemblies.
type DesignInfo struct {
	Name          string          `json:"Name"`
	FileID        string          `json:"DesignFileId"`
	FileVersionID string          `json:"DesignFileVersionId"`
	FolderID      string          `json:"FolderId"`
	ProjectID     string          `json:"ProjectId"`
	HubID         string          `json:"HubId"`
	Components    []ComponentInfo `json:"Components"`
	AllComponents []ComponentInfo `json:"AllComponents"`
}

// Component returns the component record with the given in-file component id,
// or nil when this file has no such component.
func (d *DesignInfo) Component(f3dID string) *ComponentInfo {
	for i := range d.Components {
		if d.Components[i].F3DComponentID == f3dID {
			return &d.Components[i]
		}
	}
	return nil
}

// FileListItem is a lightweight catalog listing entry for a cached design
// file version.
type FileListItem struct {
	Name          string    `json:"name"`
	FileID        string    `json:"file_id"`
	FileVersionID string    `json:"file_version_id"`
	ResolvedAt    time.Time `json:"resolved_at"`
}
