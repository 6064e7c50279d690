// Package snapshot implements host.Session on top of an exported document
// snapshot: a JSON file carrying the document tree and the raw PIM payload,
// produced inside the host by a thin export add-in.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/starford/forgelink/internal/host"
)

// File describes one design file in the snapshot.
type File struct {
	Name      string `json:"name"`
	ID        string `json:"id"`
	VersionID string `json:"versionId"`
	FolderID  string `json:"folderId"`
	ProjectID string `json:"projectId"`
	HubID     string `json:"hubId"`
}

// ComponentRef describes one component and names its parent file by the key
// it has in Snapshot.Files.
type ComponentRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	File string `json:"file"`
}

// Snapshot is the on-disk export format.
type Snapshot struct {
	CollectionID string          `json:"collectionId"`
	RootFile     string          `json:"rootFile"`
	Files        map[string]File `json:"files"`
	Components   []ComponentRef  `json:"components"`
	PIM          json.RawMessage `json:"pim"`
}

// Session implements host.Session from a snapshot.
type Session struct {
	snap   Snapshot
	files  map[string]*host.DataFile
	design *host.Design
}

// Load reads and validates a snapshot file.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", path, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("snapshot: parse %s: %w", path, err)
	}
	return New(snap)
}

// New builds a session from an in-memory snapshot.
func New(snap Snapshot) (*Session, error) {
	if snap.RootFile == "" {
		return nil, fmt.Errorf("snapshot: missing root file")
	}
	if _, ok := snap.Files[snap.RootFile]; !ok {
		return nil, fmt.Errorf("snapshot: root file %q not in files", snap.RootFile)
	}

	files := make(map[string]*host.DataFile, len(snap.Files))
	for key, f := range snap.Files {
		files[key] = &host.DataFile{
			Name:      f.Name,
			ID:        f.ID,
			VersionID: f.VersionID,
			FolderID:  f.FolderID,
			ProjectID: f.ProjectID,
			HubID:     f.HubID,
		}
	}

	design := &host.Design{File: files[snap.RootFile]}
	for _, ref := range snap.Components {
		f, ok := files[ref.File]
		if !ok {
			return nil, fmt.Errorf("snapshot: component %q references unknown file %q", ref.ID, ref.File)
		}
		design.Components = append(design.Components, &host.Component{
			ID:   ref.ID,
			Name: ref.Name,
			File: f,
		})
	}

	return &Session{snap: snap, files: files, design: design}, nil
}

// CollectionID returns the active space collection id recorded at export.
func (s *Session) CollectionID() string { return s.snap.CollectionID }

// ActiveDesign returns the exported document's design.
func (s *Session) ActiveDesign() (*host.Design, error) {
	return s.design, nil
}

// AssemblyPIMData returns the exported PIM payload. The host only exposes
// the payload for the active document, so any other file is an error.
func (s *Session) AssemblyPIMData(_ context.Context, f *host.DataFile) ([]byte, error) {
	if f == nil || f.VersionID != s.design.File.VersionID {
		return nil, fmt.Errorf("snapshot: no PIM payload for file %+v", f)
	}
	if len(s.snap.PIM) == 0 {
		return nil, fmt.Errorf("snapshot: export carries no PIM payload")
	}
	return s.snap.PIM, nil
}

var _ host.Session = (*Session)(nil)
