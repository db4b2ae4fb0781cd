package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/talk2dom/web/internal/account"
	"github.com/talk2dom/web/internal/analytics"
	"github.com/talk2dom/web/internal/api/handler"
	"github.com/talk2dom/web/internal/api/middleware"
	"github.com/talk2dom/web/internal/backend"
	"github.com/talk2dom/web/internal/session"
)

// --- Fake backend ---

type fakeBackend struct {
	mu       sync.Mutex
	user     backend.User
	projects []backend.Project
	members  map[string][]backend.Member
	invites  map[string][]backend.Invite
	keys     []backend.APIKey
	usage    []backend.UsagePoint
	locator  backend.Locator
	intent   backend.PaymentIntent
	calls    []string
	nextID   int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		user:    backend.User{ID: "u1", Name: "Alice", Email: "alice@example.com", Plan: "free", IsActive: true},
		members: map[string][]backend.Member{},
		invites: map[string][]backend.Invite{},
	}
}

func paginate[T any](w http.ResponseWriter, r *http.Request, all []T) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	end := min(offset+limit, len(all))
	items := []T{}
	if offset < len(all) {
		items = append(items, all[offset:end]...)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "has_next": end < len(all)})
}

func remove[T any](items []T, match func(T) bool) ([]T, bool) {
	for i, it := range items {
		if match(it) {
			return append(items[:i], items[i+1:]...), true
		}
	}
	return items, false
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	wrap := func(pattern string, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.calls = append(f.calls, r.Method+" "+r.URL.Path)
			fn(w, r)
		})
	}

	wrap("GET /api/v1/user/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, f.user)
	})
	wrap("GET /api/v1/project", func(w http.ResponseWriter, r *http.Request) {
		paginate(w, r, f.projects)
	})
	wrap("POST /api/v1/project", func(w http.ResponseWriter, r *http.Request) {
		var in backend.CreateProjectInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.nextID++
		p := backend.Project{ID: fmt.Sprintf("p%d", f.nextID), Name: in.Name, OwnerID: f.user.ID, IsActive: true}
		f.projects = append(f.projects, p)
		writeJSON(w, http.StatusCreated, p)
	})
	wrap("DELETE /api/v1/project/{id}", func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		f.projects, ok = remove(f.projects, func(p backend.Project) bool { return p.ID == r.PathValue("id") })
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Project not found"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	wrap("GET /api/v1/project/{id}/members", func(w http.ResponseWriter, r *http.Request) {
		paginate(w, r, f.members[r.PathValue("id")])
	})
	wrap("POST /api/v1/project/{id}/members", func(w http.ResponseWriter, r *http.Request) {
		var in backend.AddMemberInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.nextID++
		m := backend.Member{UserID: fmt.Sprintf("u%d", 100+f.nextID), Email: in.Email, Role: in.Role}
		f.members[r.PathValue("id")] = append(f.members[r.PathValue("id")], m)
		writeJSON(w, http.StatusCreated, m)
	})
	wrap("DELETE /api/v1/project/{id}/members/{userId}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		f.members[id], _ = remove(f.members[id], func(m backend.Member) bool { return m.UserID == r.PathValue("userId") })
		w.WriteHeader(http.StatusNoContent)
	})
	wrap("GET /api/v1/project/{id}/invites", func(w http.ResponseWriter, r *http.Request) {
		paginate(w, r, f.invites[r.PathValue("id")])
	})
	wrap("POST /api/v1/project/{id}/invites", func(w http.ResponseWriter, r *http.Request) {
		var in backend.CreateInviteInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.nextID++
		inv := backend.Invite{ID: fmt.Sprintf("i%d", f.nextID), Email: in.Email}
		f.invites[r.PathValue("id")] = append(f.invites[r.PathValue("id")], inv)
		writeJSON(w, http.StatusCreated, inv)
	})
	wrap("DELETE /api/v1/project/{id}/invites/{inviteId}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		f.invites[id], _ = remove(f.invites[id], func(i backend.Invite) bool { return i.ID == r.PathValue("inviteId") })
		w.WriteHeader(http.StatusNoContent)
	})
	wrap("GET /api/v1/project/{id}/api-usage", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, f.usage)
	})
	wrap("GET /api/v1/user/api-keys", func(w http.ResponseWriter, r *http.Request) {
		paginate(w, r, f.keys)
	})
	wrap("POST /api/v1/user/api-keys", func(w http.ResponseWriter, r *http.Request) {
		f.nextID++
		key := "t2d_live_0123456789abcdef"
		k := backend.APIKey{ID: fmt.Sprintf("k%d", f.nextID), Key: &key, IsActive: true}
		f.keys = append(f.keys, k)
		writeJSON(w, http.StatusCreated, k)
	})
	wrap("DELETE /api/v1/user/api-keys/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.keys, _ = remove(f.keys, func(k backend.APIKey) bool { return k.ID == r.PathValue("id") })
		w.WriteHeader(http.StatusNoContent)
	})
	wrap("POST /api/v1/inference/locator", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, f.locator)
	})
	wrap("POST /api/v1/payment/create-subscription", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, f.intent)
	})
	wrap("POST /api/v1/subscription/cancel", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "canceled"})
	})
	wrap("GET /api/v1/subscription/history", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"s1","plan":"pro","amount":29,"status":"active","created_at":"2026-01-01"}]`))
	})
	return mux
}

func (f *fakeBackend) called(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == method+" "+path {
			n++
		}
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// --- Request helpers ---

var testIdentity = &account.Identity{
	AccountID:    uuid.MustParse("6f1c2a8e-1d0b-4c8e-9c53-0a9f3c1e7d21"),
	Name:         "Alice",
	Email:        "alice@example.com",
	BackendToken: "backend-token",
}

func newSessions(t *testing.T, fb *fakeBackend) *handler.Sessions {
	t.Helper()
	srv := httptest.NewServer(fb.handler())
	t.Cleanup(srv.Close)
	return handler.NewSessions(backend.New(srv.URL), session.NewDirectory(session.NewMemoryStore(time.Minute)))
}

// newRequest builds a request carrying the test identity and chi URL params
// given as alternating key, value pairs.
func newRequest(method, target, body string, params ...string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(params); i += 2 {
		rctx.URLParams.Add(params[i], params[i+1])
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = middleware.WithIdentity(ctx, testIdentity)
	return req.WithContext(ctx)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta struct {
		Limit   int    `json:"limit"`
		Offset  int    `json:"offset"`
		Count   int    `json:"count"`
		HasNext bool   `json:"hasNext"`
		Range   string `json:"range"`
		Empty   bool   `json:"empty"`
	} `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	if data != nil && env.Data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

// --- Analytics ---

type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (s *recordingSink) Record(_ context.Context, event string, _ analytics.Props) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) eventNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}
