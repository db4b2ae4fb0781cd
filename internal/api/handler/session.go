package handler

import (
	"context"
	"net/http"

	"github.com/talk2dom/web/internal/api/middleware"
	"github.com/talk2dom/web/internal/backend"
	"github.com/talk2dom/web/internal/session"
)

// Sessions gives handlers the signed-in user's view of the backend. Every
// route using it sits behind middleware.RequireSession.
type Sessions struct {
	backend   *backend.Client
	directory *session.Directory
}

// NewSessions creates a Sessions.
func NewSessions(b *backend.Client, d *session.Directory) *Sessions {
	return &Sessions{backend: b, directory: d}
}

// Client returns a backend client authenticated as the request's user.
func (s *Sessions) Client(r *http.Request) *backend.Client {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		return s.backend
	}
	return s.backend.WithToken(identity.BackendToken)
}

// User returns the request user's backend profile, cached per account.
func (s *Sessions) User(r *http.Request) (backend.User, error) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		return backend.User{}, session.ErrAnonymous
	}
	client := s.Client(r)
	return s.directory.Lookup(r.Context(), identity.AccountID.String(), client.Me)
}

// Invalidate drops the cached profile of an account.
func (s *Sessions) Invalidate(ctx context.Context, accountID string) error {
	return s.directory.Invalidate(ctx, accountID)
}
