package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/talk2dom/web/internal/access"
	"github.com/talk2dom/web/internal/analytics"
	"github.com/talk2dom/web/internal/api/middleware"
	"github.com/talk2dom/web/internal/api/response"
	"github.com/talk2dom/web/internal/api/validation"
	"github.com/talk2dom/web/internal/backend"
	"github.com/talk2dom/web/internal/paging"
)

type addMemberRequest struct {
	Email string      `json:"email"`
	Role  access.Role `json:"role"`
}

type memberResponse struct {
	UserID    string      `json:"userId"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      access.Role `json:"role"`
	CanRemove bool        `json:"canRemove"`
}

// toMemberResponses flags each member the current user may remove. all is
// every member of the project; shown is the subset being rendered.
func toMemberResponses(currentUserID string, all []backend.Member, shown []backend.Member) []memberResponse {
	role, ok := access.RoleOf(currentUserID, backend.Principals(all))
	requester := access.Principal{UserID: currentUserID, Role: role}

	out := make([]memberResponse, len(shown))
	for i, m := range shown {
		out[i] = memberResponse{
			UserID:    m.UserID,
			Name:      m.Name,
			Email:     m.Email,
			Role:      m.Role,
			CanRemove: ok && access.CanRemove(requester, m.Principal()),
		}
	}
	return out
}

// MemberHandler handles the /projects/{id}/members endpoints.
type MemberHandler struct {
	sessions *Sessions
	tracker  *analytics.Safe
}

// NewMemberHandler creates a new MemberHandler.
func NewMemberHandler(sessions *Sessions, tracker *analytics.Safe) *MemberHandler {
	return &MemberHandler{sessions: sessions, tracker: tracker}
}

// List handles GET /projects/{id}/members.
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	limit, offset, ok := readPageParams(w, r, paging.TableSizes, paging.DefaultTableSize)
	if !ok {
		return
	}
	user, ok := sessionUser(h.sessions, w, r)
	if !ok {
		return
	}

	client := h.sessions.Client(r)
	var (
		page paging.Page[backend.Member]
		all  []backend.Member
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		page, err = client.ListMembers(ctx, projectID, limit, offset)
		return err
	})
	g.Go(func() error {
		var err error
		all, err = client.AllMembers(ctx, projectID)
		return err
	})
	if err := g.Wait(); err != nil {
		writeBackendError(w, r, err, "Failed to load members")
		return
	}

	writeMembers(w, r, user.ID, all, page)
}

// Add handles POST /projects/{id}/members. The plan's member quota counts
// every member except the owner.
func (h *MemberHandler) Add(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	projectID := chi.URLParam(r, "id")

	var req addMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	if fieldErrors := validation.ValidateAddMemberRequest(req.Email, req.Role); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}
	if req.Role == "" {
		req.Role = access.RoleMember
	}

	user, ok := sessionUser(h.sessions, w, r)
	if !ok {
		return
	}

	client := h.sessions.Client(r)
	members, err := client.AllMembers(r.Context(), projectID)
	if err != nil {
		writeBackendError(w, r, err, "Failed to load members")
		return
	}
	if !access.CanAddMember(user.Plan, nonOwners(members)) {
		response.Err(w, http.StatusForbidden, "LIMIT_REACHED",
			fmt.Sprintf("Your plan allows %d members per project. Upgrade to add more.", access.MemberLimit(user.Plan)), requestID)
		return
	}

	member, err := client.AddMember(r.Context(), projectID, backend.AddMemberInput{Email: req.Email, Role: req.Role})
	if err != nil {
		writeBackendError(w, r, err, "Failed to add member")
		return
	}

	response.Success(w, http.StatusCreated, toMemberResponses(user.ID, append(members, member), []backend.Member{member})[0], requestID)
}

// Remove handles DELETE /projects/{id}/members/{userId}. The rank rule is
// checked here before the backend applies its own; the response is the
// corrected page at the caller's window.
func (h *MemberHandler) Remove(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	projectID := chi.URLParam(r, "id")
	targetID := chi.URLParam(r, "userId")

	limit, offset, ok := readPageParams(w, r, paging.TableSizes, paging.DefaultTableSize)
	if !ok {
		return
	}
	user, ok := sessionUser(h.sessions, w, r)
	if !ok {
		return
	}

	client := h.sessions.Client(r)
	members, err := client.AllMembers(r.Context(), projectID)
	if err != nil {
		writeBackendError(w, r, err, "Failed to load members")
		return
	}

	principals := backend.Principals(members)
	targetRole, found := access.RoleOf(targetID, principals)
	if !found {
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Member not found", requestID)
		return
	}
	requesterRole, _ := access.RoleOf(user.ID, principals)
	if !access.CanRemove(access.Principal{UserID: user.ID, Role: requesterRole}, access.Principal{UserID: targetID, Role: targetRole}) {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "You do not have permission to remove this member", requestID)
		return
	}

	if err := client.RemoveMember(r.Context(), projectID, targetID); err != nil {
		writeBackendError(w, r, err, "Failed to remove member")
		return
	}
	h.tracker.Track(r.Context(), analytics.MemberRemoved, analytics.Props{"project_id": projectID})

	page, err := paging.Correct(r.Context(), client.Members(projectID), limit, offset)
	if err != nil {
		writeBackendError(w, r, err, "Failed to load members")
		return
	}

	remaining := make([]backend.Member, 0, len(members))
	for _, m := range members {
		if m.UserID != targetID {
			remaining = append(remaining, m)
		}
	}
	writeMembers(w, r, user.ID, remaining, page)
}

func writeMembers(w http.ResponseWriter, r *http.Request, currentUserID string, all []backend.Member, page paging.Page[backend.Member]) {
	items := toMemberResponses(currentUserID, all, page.Items)
	response.SuccessList(w, http.StatusOK, items, paging.ViewOf(page), middleware.GetRequestID(r.Context()))
}
