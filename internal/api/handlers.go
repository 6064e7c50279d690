package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/forgelink/internal/apperr"
	"github.com/starford/forgelink/internal/catalog"
	"github.com/starford/forgelink/internal/identsvc"
	"github.com/starford/forgelink/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *identsvc.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *identsvc.Service) *Handler {
	return &Handler{svc: svc}
}

// componentParam extracts the in-file component id from the URL. Host
// component ids can carry URL-encoded characters.
func componentParam(r *http.Request) string {
	raw := chi.URLParam(r, "id")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// GetDesign handles GET /design: the identifier record for the active
// design's file version, resolving on a cache miss.
func (h *Handler) GetDesign(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.DesignIDs(r.Context())
	if err != nil {
		if errors.Is(err, apperr.ErrUnresolved) {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
			return
		}
		slog.Error("get design failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Resolve handles POST /resolve: force a recompute of the active design.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Refresh(r.Context())
	if err != nil {
		if errors.Is(err, apperr.ErrUnresolved) {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
			return
		}
		slog.Error("resolve failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// GetComponent handles GET /components/{id}, where id is the in-file
// component id within the active design.
func (h *Handler) GetComponent(w http.ResponseWriter, r *http.Request) {
	id := componentParam(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("component id is required"))
		return
	}
	rec, err := h.svc.ComponentIDs(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrInvalidSelection):
			writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
		case errors.Is(err, apperr.ErrUnresolved):
			writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
		default:
			slog.Error("get component failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListFiles handles GET /files with optional pagination.
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListFiles(r.Context(), limit, offset)
	if err != nil {
		slog.Error("list files failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if items == nil {
		items = []models.FileListItem{}
	}
	writeJSON(w, http.StatusOK, FileListResponse{Files: items, Total: total})
}

// Search handles GET /search over catalogued component names.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	hits, err := h.svc.SearchComponents(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if hits == nil {
		hits = []catalog.ComponentHit{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: hits})
}
