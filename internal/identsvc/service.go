// Package identsvc coordinates the host session, the resolver, the cache,
// and the catalog. Resolution is all-or-nothing per call: a miss triggers
// exactly one recompute of the whole design, and a record that is still
// missing afterwards is an error.
package identsvc

import (
	"context"
	"fmt"

	"github.com/starford/forgelink/internal/apperr"
	"github.com/starford/forgelink/internal/cache"
	"github.com/starford/forgelink/internal/catalog"
	"github.com/starford/forgelink/internal/host"
	"github.com/starford/forgelink/internal/models"
	"github.com/starford/forgelink/internal/pim"
	"github.com/starford/forgelink/internal/resolver"
)

// Service derives and serves identifier records for the active document.
type Service struct {
	sess  host.Session
	cache *cache.Cache
	db    catalog.Catalog
}

// New creates a new identifier service.
func New(sess host.Session, c *cache.Cache, db catalog.Catalog) *Service {
	return &Service{sess: sess, cache: c, db: db}
}

// DesignIDs returns the record for the active design's file version,
// computing it when the cache misses.
func (s *Service) DesignIDs(ctx context.Context) (*models.DesignInfo, error) {
	design, err := s.sess.ActiveDesign()
	if err != nil {
		return nil, err
	}

	if info, err := s.cache.Get(design.File.VersionID); err == nil {
		return info, nil
	}

	if err := s.resolve(ctx, design); err != nil {
		return nil, err
	}

	if info, err := s.cache.Get(design.File.VersionID); err == nil {
		return info, nil
	}
	return nil, fmt.Errorf("%w for %q", apperr.ErrUnresolved, design.File.Name)
}

// ComponentIDs returns the record of one component of the active design,
// found by its in-file component id. A cache miss triggers one recompute.
func (s *Service) ComponentIDs(ctx context.Context, f3dID string) (*models.ComponentInfo, error) {
	design, err := s.sess.ActiveDesign()
	if err != nil {
		return nil, err
	}

	comp := design.Component(f3dID)
	if comp == nil {
		return nil, fmt.Errorf("%w: component %q is not part of the active design", apperr.ErrInvalidSelection, f3dID)
	}

	if rec := s.cachedComponent(comp); rec != nil {
		return rec, nil
	}

	if err := s.resolve(ctx, design); err != nil {
		return nil, err
	}

	if rec := s.cachedComponent(comp); rec != nil {
		return rec, nil
	}
	return nil, fmt.Errorf("%w for component %q", apperr.ErrUnresolved, comp.Name)
}

// Refresh recomputes the active design unconditionally and returns the
// fresh root record.
func (s *Service) Refresh(ctx context.Context) (*models.DesignInfo, error) {
	design, err := s.sess.ActiveDesign()
	if err != nil {
		return nil, err
	}
	if err := s.resolve(ctx, design); err != nil {
		return nil, err
	}
	if info, err := s.cache.Get(design.File.VersionID); err == nil {
		return info, nil
	}
	return nil, fmt.Errorf("%w for %q", apperr.ErrUnresolved, design.File.Name)
}

// ListFiles returns catalogued design-file versions.
func (s *Service) ListFiles(_ context.Context, limit, offset int) ([]models.FileListItem, int, error) {
	return s.db.ListFiles(limit, offset)
}

// SearchComponents searches catalogued components by name.
func (s *Service) SearchComponents(_ context.Context, query string, limit int) ([]catalog.ComponentHit, error) {
	return s.db.SearchComponents(query, limit)
}

// cachedComponent looks the component up in its parent file's cached record.
// The in-file component id is only unique per file, so the lookup is scoped
// to the parent file version.
func (s *Service) cachedComponent(comp *host.Component) *models.ComponentInfo {
	info, err := s.cache.Get(comp.File.VersionID)
	if err != nil {
		return nil
	}
	return info.Component(comp.ID)
}

// resolve fetches the PIM payload, derives records for every file version
// the design touches, and writes them through the cache and the catalog.
func (s *Service) resolve(ctx context.Context, design *host.Design) error {
	raw, err := s.sess.AssemblyPIMData(ctx, design.File)
	if err != nil {
		return fmt.Errorf("fetch PIM payload: %w", err)
	}
	table, err := pim.Parse(raw)
	if err != nil {
		return err
	}

	records := resolver.Resolve(design, table, s.sess.CollectionID())
	for _, info := range records {
		cs, err := s.cache.Put(info)
		if err != nil {
			return err
		}
		if err := s.db.UpsertFile(info, cs); err != nil {
			return err
		}
	}
	return nil
}
