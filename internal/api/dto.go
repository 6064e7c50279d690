package api

import (
	"github.com/starford/forgelink/internal/catalog"
	"github.com/starford/forgelink/internal/models"
)

// DesignResponse is the full record for one design file version.
type DesignResponse = models.DesignInfo

// ComponentResponse is the record for one component.
type ComponentResponse = models.ComponentInfo

// FileListResponse wraps paginated catalog listings.
type FileListResponse struct {
	Files []models.FileListItem `json:"files"`
	Total int                   `json:"total"`
}

// SearchResponse wraps component search results.
type SearchResponse struct {
	Results []catalog.ComponentHit `json:"results"`
}
