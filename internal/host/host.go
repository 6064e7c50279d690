// Package host defines the read-only view of the CAD host's document model
// that identifier resolution needs. The host owns and versions all of these
// objects; Forgelink never mutates them.
package host

import "context"

// DataFile describes one design file in the host's cloud data store.
type DataFile struct {
	Name string
	// ID is the file lineage id, stable across saved versions.
	ID string
	// VersionID is unique to one specific saved version.
	VersionID string
	FolderID  string
	ProjectID string
	HubID     string
}

// Component is one component of a design. ID is only unique within the
// component's parent file.
type Component struct {
	ID   string
	Name string
	// File is the data file of the component's parent design.
	File *DataFile
}

// Design is the root of an open document: its data file plus every component
// reachable through sub-assemblies, root component first.
type Design struct {
	File       *DataFile
	Components []*Component
}

// Component returns the first component with the given in-file id, searching
// the root design file before sub-assembly files.
func (d *Design) Component(f3dID string) *Component {
	var fallback *Component
	for _, c := range d.Components {
		if c.ID != f3dID {
			continue
		}
		if c.File != nil && d.File != nil && c.File.VersionID == d.File.VersionID {
			return c
		}
		if fallback == nil {
			fallback = c
		}
	}
	return fallback
}

// Session is a connection to one host document session.
type Session interface {
	// CollectionID returns the active space collection id.
	CollectionID() string
	// ActiveDesign returns the design of the active document.
	ActiveDesign() (*Design, error)
	// AssemblyPIMData returns the raw PIM payload for a data file. This
	// corresponds to an undocumented host call and is only available for
	// the active document's root file.
	AssemblyPIMData(ctx context.Context, f *DataFile) ([]byte, error)
}
