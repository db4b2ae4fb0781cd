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

type createInviteRequest struct {
	Email string `json:"email"`
}

// InviteHandler handles the /projects/{id}/invites endpoints.
type InviteHandler struct {
	sessions *Sessions
	tracker  *analytics.Safe
}

// NewInviteHandler creates a new InviteHandler.
func NewInviteHandler(sessions *Sessions, tracker *analytics.Safe) *InviteHandler {
	return &InviteHandler{sessions: sessions, tracker: tracker}
}

// List handles GET /projects/{id}/invites.
func (h *InviteHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := readPageParams(w, r, paging.TableSizes, paging.DefaultTableSize)
	if !ok {
		return
	}

	page, err := h.sessions.Client(r).ListInvites(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		writeBackendError(w, r, err, "Failed to load invites")
		return
	}
	writePage(w, r, page)
}

// Create handles POST /projects/{id}/invites.
func (h *InviteHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	projectID := chi.URLParam(r, "id")

	var req createInviteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	if fieldErrors := validation.ValidateCreateInviteRequest(req.Email); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	invite, err := h.sessions.Client(r).CreateInvite(r.Context(), projectID, backend.CreateInviteInput{Email: req.Email})
	if err != nil {
		writeBackendError(w, r, err, "Failed to send invite")
		return
	}

	h.tracker.Track(r.Context(), analytics.InviteSent, analytics.Props{"project_id": projectID})
	response.Success(w, http.StatusCreated, invite, requestID)
}

// Revoke handles DELETE /projects/{id}/invites/{inviteId}.
func (h *InviteHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	limit, offset, ok := readPageParams(w, r, paging.TableSizes, paging.DefaultTableSize)
	if !ok {
		return
	}

	client := h.sessions.Client(r)
	if err := client.RevokeInvite(r.Context(), projectID, chi.URLParam(r, "inviteId")); err != nil {
		writeBackendError(w, r, err, "Failed to revoke invite")
		return
	}

	page, err := paging.Correct(r.Context(), client.Invites(projectID), limit, offset)
	if err != nil {
		writeBackendError(w, r, err, "Failed to load invites")
		return
	}
	writePage(w, r, page)
}
