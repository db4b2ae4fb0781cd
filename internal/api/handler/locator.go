package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/talk2dom/web/internal/paging"
)

// LocatorCacheHandler handles the /projects/{id}/locator-cache endpoints.
type LocatorCacheHandler struct {
	sessions *Sessions
}

// NewLocatorCacheHandler creates a new LocatorCacheHandler.
func NewLocatorCacheHandler(sessions *Sessions) *LocatorCacheHandler {
	return &LocatorCacheHandler{sessions: sessions}
}

// List handles GET /projects/{id}/locator-cache.
func (h *LocatorCacheHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := readPageParams(w, r, paging.TableSizes, paging.DefaultTableSize)
	if !ok {
		return
	}

	page, err := h.sessions.Client(r).ListLocatorCache(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		writeBackendError(w, r, err, "Failed to load locator cache")
		return
	}
	writePage(w, r, page)
}

// Delete handles DELETE /projects/{id}/locator-cache/{entryId}.
func (h *LocatorCacheHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	limit, offset, ok := readPageParams(w, r, paging.TableSizes, paging.DefaultTableSize)
	if !ok {
		return
	}

	client := h.sessions.Client(r)
	if err := client.DeleteLocatorCacheEntry(r.Context(), projectID, chi.URLParam(r, "entryId")); err != nil {
		writeBackendError(w, r, err, "Failed to delete cache entry")
		return
	}

	page, err := paging.Correct(r.Context(), client.LocatorCache(projectID), limit, offset)
	if err != nil {
		writeBackendError(w, r, err, "Failed to load locator cache")
		return
	}
	writePage(w, r, page)
}
