package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/talk2dom/web/internal/account"
	"github.com/talk2dom/web/internal/api/response"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "session"

const identityKey contextKey = "identity"

// Authenticator resolves a session token to an Identity.
type Authenticator interface {
	Authenticate(token string) (*account.Identity, error)
}

// Session resolves the session token from the session cookie or an
// Authorization bearer header and stores the Identity in the context. A
// request without a verifiable token passes through anonymously, so login and
// logout stay reachable; RequireSession guards everything else. An unverifiable
// session cookie is cleared on the response.
func Session(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := auth.Authenticate(token)
			if err != nil {
				if fromCookie(r, token) {
					http.SetCookie(w, ClearSessionCookie())
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects requests that carry no authenticated Identity.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetIdentity(r.Context()) == nil {
			requestID := GetRequestID(r.Context())
			response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", requestID)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetIdentity retrieves the authenticated Identity from the request context.
func GetIdentity(ctx context.Context) *account.Identity {
	if id, ok := ctx.Value(identityKey).(*account.Identity); ok {
		return id
	}
	return nil
}

// WithIdentity returns a context carrying identity.
func WithIdentity(ctx context.Context, identity *account.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// ClearSessionCookie returns a cookie that removes the session cookie.
func ClearSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func fromCookie(r *http.Request, token string) bool {
	c, err := r.Cookie(SessionCookie)
	return err == nil && c.Value == token
}

func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return ""
}
