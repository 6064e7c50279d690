package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/forgelink/internal/identsvc"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *identsvc.Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Active design.
	r.Get("/design", h.GetDesign)
	r.Post("/resolve", h.Resolve)
	r.Get("/components/{id}", h.GetComponent)

	// Catalog.
	r.Get("/files", h.ListFiles)
	r.Get("/search", h.Search)

	return r
}
