package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talk2dom/web/internal/account"
	"github.com/talk2dom/web/internal/analytics"
	"github.com/talk2dom/web/internal/api/handler"
	"github.com/talk2dom/web/internal/api/middleware"
)

type mockAccountService struct {
	registerFn func(ctx context.Context, in account.RegisterInput) (*account.Session, error)
	loginFn    func(ctx context.Context, email, password string) (*account.Session, error)
}

func (m *mockAccountService) Register(ctx context.Context, in account.RegisterInput) (*account.Session, error) {
	return m.registerFn(ctx, in)
}

func (m *mockAccountService) Login(ctx context.Context, email, password string) (*account.Session, error) {
	return m.loginFn(ctx, email, password)
}

func testSession() *account.Session {
	return &account.Session{
		Account: &account.Account{
			ID:    testIdentity.AccountID,
			Name:  "Alice",
			Email: "alice@example.com",
		},
		Token:     "signed.jwt.token",
		ExpiresAt: time.Date(2026, 11, 18, 12, 0, 0, 0, time.UTC),
	}
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	return nil
}

func TestAccountHandler_Register(t *testing.T) {
	sink := &recordingSink{}
	svc := &mockAccountService{registerFn: func(_ context.Context, in account.RegisterInput) (*account.Session, error) {
		assert.Equal(t, "alice@example.com", in.Email)
		assert.Equal(t, "Alice", in.Name)
		return testSession(), nil
	}}
	h := handler.NewAccountHandler(svc, newSessions(t, newFakeBackend()), "", true, analytics.NewSafe(sink))

	w := httptest.NewRecorder()
	h.Register(w, newRequest(http.MethodPost, "/auth/register", `{"name":" Alice ","email":"alice@example.com","password":"longenough"}`))

	require.Equal(t, http.StatusCreated, w.Code)
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.Equal(t, "signed.jwt.token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, []string{analytics.SignUp}, sink.eventNames())
}

func TestAccountHandler_Register_Duplicate(t *testing.T) {
	svc := &mockAccountService{registerFn: func(context.Context, account.RegisterInput) (*account.Session, error) {
		return nil, account.ErrDuplicateEmail
	}}
	h := handler.NewAccountHandler(svc, newSessions(t, newFakeBackend()), "", false, nil)

	w := httptest.NewRecorder()
	h.Register(w, newRequest(http.MethodPost, "/auth/register", `{"name":"Alice","email":"alice@example.com","password":"longenough"}`))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", decodeEnvelope(t, w, nil).Error.Code)
}

func TestAccountHandler_Register_ShortPassword(t *testing.T) {
	svc := &mockAccountService{registerFn: func(context.Context, account.RegisterInput) (*account.Session, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	h := handler.NewAccountHandler(svc, newSessions(t, newFakeBackend()), "", false, nil)

	w := httptest.NewRecorder()
	h.Register(w, newRequest(http.MethodPost, "/auth/register", `{"name":"Alice","email":"alice@example.com","password":"short"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccountHandler_Login_InvalidCredentials(t *testing.T) {
	svc := &mockAccountService{loginFn: func(context.Context, string, string) (*account.Session, error) {
		return nil, account.ErrInvalidCredentials
	}}
	h := handler.NewAccountHandler(svc, newSessions(t, newFakeBackend()), "", false, nil)

	w := httptest.NewRecorder()
	h.Login(w, newRequest(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"wrong-password"}`))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, sessionCookie(w))
}

func TestAccountHandler_Login(t *testing.T) {
	sink := &recordingSink{}
	svc := &mockAccountService{loginFn: func(context.Context, string, string) (*account.Session, error) {
		return testSession(), nil
	}}
	h := handler.NewAccountHandler(svc, newSessions(t, newFakeBackend()), "", false, analytics.NewSafe(sink))

	w := httptest.NewRecorder()
	h.Login(w, newRequest(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"longenough"}`))

	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Token     string `json:"token"`
		ExpiresAt string `json:"expiresAt"`
	}
	decodeEnvelope(t, w, &data)
	assert.Equal(t, "signed.jwt.token", data.Token)
	assert.Equal(t, "2026-11-18T12:00:00Z", data.ExpiresAt)
	assert.NotNil(t, sessionCookie(w))
	assert.Equal(t, []string{analytics.Login}, sink.eventNames())
}

func TestAccountHandler_Logout_ClearsCookie(t *testing.T) {
	h := handler.NewAccountHandler(&mockAccountService{}, newSessions(t, newFakeBackend()), "", false, nil)

	w := httptest.NewRecorder()
	h.Logout(w, newRequest(http.MethodPost, "/auth/logout", ""))

	assert.Equal(t, http.StatusNoContent, w.Code)
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.Equal(t, "", cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestAccountHandler_Me(t *testing.T) {
	fb := newFakeBackend()
	fb.user.Plan = "developer"
	h := handler.NewAccountHandler(&mockAccountService{}, newSessions(t, fb), "", false, nil)

	w := httptest.NewRecorder()
	h.Me(w, newRequest(http.MethodGet, "/auth/me", ""))

	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		User struct {
			Email string `json:"email"`
			Plan  string `json:"plan"`
		} `json:"user"`
		Limits struct {
			Projects int `json:"projects"`
			Members  int `json:"members"`
		} `json:"limits"`
	}
	decodeEnvelope(t, w, &data)
	assert.Equal(t, "developer", data.User.Plan)
	assert.Equal(t, 10, data.Limits.Projects)
	assert.Equal(t, 2, data.Limits.Members)
}

func TestAccountHandler_Me_Anonymous(t *testing.T) {
	h := handler.NewAccountHandler(&mockAccountService{}, newSessions(t, newFakeBackend()), "", false, nil)

	w := httptest.NewRecorder()
	h.Me(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAccountHandler_Google_Redirects(t *testing.T) {
	h := handler.NewAccountHandler(&mockAccountService{}, nil, "https://api.talk2dom.example/api/v1/auth/google/login", false, nil)

	w := httptest.NewRecorder()
	h.Google(w, httptest.NewRequest(http.MethodGet, "/auth/google", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://api.talk2dom.example/api/v1/auth/google/login", w.Header().Get("Location"))
}
