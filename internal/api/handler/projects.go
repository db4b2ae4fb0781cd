package handler

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
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
	"github.com/talk2dom/web/internal/session"
)

// The project list is the card grid; the detail lists are tables.
type createProjectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// projectDetailResponse is the first screen of a project: every member, the
// first page of invites and the usage series.
type projectDetailResponse struct {
	Members        []memberResponse     `json:"members"`
	Invites        []backend.Invite     `json:"invites"`
	InvitesHasNext bool                 `json:"invitesHasNext"`
	Usage          []backend.UsagePoint `json:"usage"`
	Role           access.Role          `json:"role,omitempty"`
	CanAddMember   bool                 `json:"canAddMember"`
}

// ProjectHandler handles the /projects endpoints.
type ProjectHandler struct {
	sessions *Sessions
	tracker  *analytics.Safe
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(sessions *Sessions, tracker *analytics.Safe) *ProjectHandler {
	return &ProjectHandler{sessions: sessions, tracker: tracker}
}

// List handles GET /projects.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := readPageParams(w, r, paging.ProjectSizes, paging.DefaultGridSize)
	if !ok {
		return
	}

	page, err := h.sessions.Client(r).ListProjects(r.Context(), limit, offset)
	if err != nil {
		writeBackendError(w, r, err, "Failed to load projects")
		return
	}

	writePage(w, r, page)
}

// Create handles POST /projects. The plan's project quota is checked first.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req createProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	fieldErrors := validation.ValidateCreateProjectRequest(validation.CreateProjectRequest{
		Name:        req.Name,
		Description: req.Description,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	user, ok := sessionUser(h.sessions, w, r)
	if !ok {
		return
	}

	client := h.sessions.Client(r)
	owned, err := client.CountProjects(r.Context(), user.ID)
	if err != nil {
		writeBackendError(w, r, err, "Failed to load projects")
		return
	}
	if !access.CanCreateProject(user.Plan, owned) {
		response.Err(w, http.StatusForbidden, "LIMIT_REACHED",
			fmt.Sprintf("Your plan allows %d projects. Upgrade to create more.", access.ProjectLimit(user.Plan)), requestID)
		return
	}

	project, err := client.CreateProject(r.Context(), backend.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeBackendError(w, r, err, "Failed to create project")
		return
	}

	h.tracker.Track(r.Context(), analytics.ProjectCreated, analytics.Props{"project_id": project.ID})
	response.Success(w, http.StatusCreated, project, requestID)
}

// Get handles GET /projects/{id}. Members, invites and usage are fetched
// concurrently.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	projectID := chi.URLParam(r, "id")

	user, ok := sessionUser(h.sessions, w, r)
	if !ok {
		return
	}

	client := h.sessions.Client(r)
	var (
		members []backend.Member
		invites paging.Page[backend.Invite]
		usage   []backend.UsagePoint
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		members, err = client.AllMembers(ctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		invites, err = client.ListInvites(ctx, projectID, paging.DefaultTableSize, 0)
		return err
	})
	g.Go(func() error {
		var err error
		usage, err = client.Usage(ctx, projectID)
		return err
	})
	if err := g.Wait(); err != nil {
		writeBackendError(w, r, err, "Failed to load project")
		return
	}

	slices.SortStableFunc(usage, func(a, b backend.UsagePoint) int {
		return strings.Compare(a.Timestamp, b.Timestamp)
	})

	role, _ := access.RoleOf(user.ID, backend.Principals(members))

	response.Success(w, http.StatusOK, projectDetailResponse{
		Members:        toMemberResponses(user.ID, members, members),
		Invites:        invites.Items,
		InvitesHasNext: invites.HasNext,
		Usage:          usage,
		Role:           role,
		CanAddMember:   access.CanAddMember(user.Plan, nonOwners(members)),
	}, requestID)
}

// Delete handles DELETE /projects/{id} and responds with the corrected page
// at the caller's window.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	limit, offset, ok := readPageParams(w, r, paging.ProjectSizes, paging.DefaultGridSize)
	if !ok {
		return
	}

	client := h.sessions.Client(r)
	if err := client.DeleteProject(r.Context(), projectID); err != nil {
		writeBackendError(w, r, err, "Failed to delete project")
		return
	}
	h.tracker.Track(r.Context(), analytics.ProjectDeleted, analytics.Props{"project_id": projectID})

	page, err := paging.Correct(r.Context(), client.Projects(), limit, offset)
	if err != nil {
		writeBackendError(w, r, err, "Failed to load projects")
		return
	}
	writePage(w, r, page)
}

// sessionUser loads the session user, writing the error response itself.
func sessionUser(sessions *Sessions, w http.ResponseWriter, r *http.Request) (backend.User, bool) {
	user, err := sessions.User(r)
	if err != nil {
		if errors.Is(err, session.ErrAnonymous) {
			response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", middleware.GetRequestID(r.Context()))
			return backend.User{}, false
		}
		writeBackendError(w, r, err, "Failed to load user")
		return backend.User{}, false
	}
	return user, true
}

func nonOwners(members []backend.Member) int {
	n := 0
	for _, m := range members {
		if m.Role != access.RoleOwner {
			n++
		}
	}
	return n
}
