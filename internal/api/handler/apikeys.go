package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/talk2dom/web/internal/analytics"
	"github.com/talk2dom/web/internal/api/middleware"
	"github.com/talk2dom/web/internal/api/response"
	"github.com/talk2dom/web/internal/api/validation"
	"github.com/talk2dom/web/internal/backend"
	"github.com/talk2dom/web/internal/paging"
)

type createAPIKeyRequest struct {
	Name *string `json:"name"`
}

type apiKeyResponse struct {
	ID        string  `json:"id"`
	Name      *string `json:"name"`
	Key       string  `json:"key"`
	CreatedAt string  `json:"createdAt"`
	IsActive  bool    `json:"isActive"`
}

// toAPIKeyResponse masks the key. Only the create response carries it in full.
func toAPIKeyResponse(k backend.APIKey) apiKeyResponse {
	return apiKeyResponse{
		ID:        k.ID,
		Name:      k.Name,
		Key:       k.Masked(),
		CreatedAt: k.CreatedAt,
		IsActive:  k.IsActive,
	}
}

// APIKeyHandler handles the /api-keys endpoints.
type APIKeyHandler struct {
	sessions *Sessions
	tracker  *analytics.Safe
}

// NewAPIKeyHandler creates a new APIKeyHandler.
func NewAPIKeyHandler(sessions *Sessions, tracker *analytics.Safe) *APIKeyHandler {
	return &APIKeyHandler{sessions: sessions, tracker: tracker}
}

// List handles GET /api-keys.
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := readPageParams(w, r, paging.TableSizes, paging.DefaultTableSize)
	if !ok {
		return
	}

	page, err := h.sessions.Client(r).ListAPIKeys(r.Context(), limit, offset)
	if err != nil {
		writeBackendError(w, r, err, "Failed to load API keys")
		return
	}
	writePageAs(w, r, page, toAPIKeyResponse)
}

// Create handles POST /api-keys.
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req createAPIKeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
		if name == "" {
			req.Name = nil
		}
	}

	if fieldErrors := validation.ValidateCreateAPIKeyRequest(req.Name); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	key, err := h.sessions.Client(r).CreateAPIKey(r.Context(), backend.CreateAPIKeyInput{Name: req.Name})
	if err != nil {
		writeBackendError(w, r, err, "Failed to create API key")
		return
	}

	resp := toAPIKeyResponse(key)
	if key.Key != nil {
		resp.Key = *key.Key
	}

	h.tracker.Track(r.Context(), analytics.APIKeyCreated, analytics.Props{"key_id": key.ID})
	response.Success(w, http.StatusCreated, resp, requestID)
}

// Delete handles DELETE /api-keys/{id}.
func (h *APIKeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := readPageParams(w, r, paging.TableSizes, paging.DefaultTableSize)
	if !ok {
		return
	}

	client := h.sessions.Client(r)
	if err := client.DeleteAPIKey(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeBackendError(w, r, err, "Failed to delete API key")
		return
	}

	page, err := paging.Correct(r.Context(), client.APIKeys(), limit, offset)
	if err != nil {
		writeBackendError(w, r, err, "Failed to load API keys")
		return
	}
	writePageAs(w, r, page, toAPIKeyResponse)
}
