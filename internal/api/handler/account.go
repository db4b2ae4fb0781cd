package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/talk2dom/web/internal/access"
	"github.com/talk2dom/web/internal/account"
	"github.com/talk2dom/web/internal/analytics"
	"github.com/talk2dom/web/internal/api/middleware"
	"github.com/talk2dom/web/internal/api/response"
	"github.com/talk2dom/web/internal/api/validation"
	"github.com/talk2dom/web/internal/backend"
)

// AccountService is the sign-up and login service.
type AccountService interface {
	Register(ctx context.Context, in account.RegisterInput) (*account.Session, error)
	Login(ctx context.Context, email, password string) (*account.Session, error)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type accountResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type sessionResponse struct {
	Account   accountResponse `json:"account"`
	Token     string          `json:"token"`
	ExpiresAt string          `json:"expiresAt"`
}

type limitsResponse struct {
	Projects int `json:"projects"`
	Members  int `json:"members"`
}

type meResponse struct {
	User   backend.User   `json:"user"`
	Limits limitsResponse `json:"limits"`
}

// AccountHandler handles the /auth endpoints.
type AccountHandler struct {
	accounts     AccountService
	sessions     *Sessions
	googleURL    string
	cookieSecure bool
	tracker      *analytics.Safe
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts AccountService, sessions *Sessions, googleURL string, cookieSecure bool, tracker *analytics.Safe) *AccountHandler {
	return &AccountHandler{
		accounts:     accounts,
		sessions:     sessions,
		googleURL:    googleURL,
		cookieSecure: cookieSecure,
		tracker:      tracker,
	}
}

// Register handles POST /auth/register.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fieldErrors := validation.ValidateRegisterRequest(validation.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	sess, err := h.accounts.Register(r.Context(), account.RegisterInput{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, account.ErrDuplicateEmail) {
			response.Err(w, http.StatusConflict, "CONFLICT", "An account with this email already exists", requestID)
			return
		}
		writeBackendError(w, r, err, "Registration failed")
		return
	}

	h.tracker.Track(r.Context(), analytics.SignUp, analytics.Props{"account_id": sess.Account.ID.String()})
	h.setCookie(w, sess.Token, sess.ExpiresAt)
	response.Success(w, http.StatusCreated, toSessionResponse(sess), requestID)
}

// Login handles POST /auth/login.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if fieldErrors := validation.ValidateLoginRequest(req.Email, req.Password); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	sess, err := h.accounts.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid email or password", requestID)
			return
		}
		writeBackendError(w, r, err, "Login failed")
		return
	}

	// A fresh login must not see a profile cached under the old credential.
	if err := h.sessions.Invalidate(r.Context(), sess.Account.ID.String()); err != nil {
		slog.Warn("failed to invalidate session user", "error", err, "requestId", requestID)
	}

	h.tracker.Track(r.Context(), analytics.Login, analytics.Props{"account_id": sess.Account.ID.String()})
	h.setCookie(w, sess.Token, sess.ExpiresAt)
	response.Success(w, http.StatusOK, toSessionResponse(sess), requestID)
}

// Logout handles POST /auth/logout.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if identity := middleware.GetIdentity(r.Context()); identity != nil {
		if err := h.sessions.Invalidate(r.Context(), identity.AccountID.String()); err != nil {
			slog.Warn("failed to invalidate session user", "error", err)
		}
	}

	cookie := middleware.ClearSessionCookie()
	cookie.Secure = h.cookieSecure
	http.SetCookie(w, cookie)
	response.NoContent(w)
}

// Me handles GET /auth/me.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	user, ok := sessionUser(h.sessions, w, r)
	if !ok {
		return
	}

	response.Success(w, http.StatusOK, meResponse{
		User: user,
		Limits: limitsResponse{
			Projects: access.ProjectLimit(user.Plan),
			Members:  access.MemberLimit(user.Plan),
		},
	}, requestID)
}

// ForgotPassword handles POST /auth/forgot-password.
func (h *AccountHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req forgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fieldErrors := validation.ValidateForgotPasswordRequest(req.Email); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	if err := h.sessions.Client(r).ForgotPassword(r.Context(), strings.TrimSpace(req.Email)); err != nil {
		writeBackendError(w, r, err, "Failed to send reset email")
		return
	}

	response.Success(w, http.StatusAccepted, map[string]string{
		"message": "If an account exists for this email, a reset link has been sent",
	}, requestID)
}

// ResetPassword handles POST /auth/reset-password.
func (h *AccountHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fieldErrors := validation.ValidateResetPasswordRequest(req.Token, req.Password); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	if err := h.sessions.Client(r).ResetPassword(r.Context(), strings.TrimSpace(req.Token), req.Password); err != nil {
		writeBackendError(w, r, err, "Failed to reset password")
		return
	}

	response.NoContent(w)
}

// Google handles GET /auth/google by redirecting to the backend's OAuth entry point.
func (h *AccountHandler) Google(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.googleURL, http.StatusFound)
}

func (h *AccountHandler) setCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func toSessionResponse(s *account.Session) sessionResponse {
	return sessionResponse{
		Account: accountResponse{
			ID:    s.Account.ID.String(),
			Name:  s.Account.Name,
			Email: s.Account.Email,
		},
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
