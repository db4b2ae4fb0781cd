package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/talk2dom/web/internal/access"
	"github.com/talk2dom/web/internal/backend"
	"github.com/talk2dom/web/internal/cli"
)

const testToken = "tok-cli"

// --- Fake backend ---

type fakeBackend struct {
	mu       sync.Mutex
	user     backend.User
	projects []backend.Project
	members  map[string][]backend.Member
	invites  map[string][]backend.Invite
	keys     []backend.APIKey
	cache    map[string][]backend.LocatorCacheEntry
	fail     map[string]int
	calls    []string
	nextID   int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		user:    backend.User{ID: "u1", Name: "Alice", Email: "alice@example.com", Plan: "free", IsActive: true},
		members: map[string][]backend.Member{},
		invites: map[string][]backend.Invite{},
		cache:   map[string][]backend.LocatorCacheEntry{},
		fail:    map[string]int{},
	}
}

func (f *fakeBackend) seedProjects(n int, ownerID string) {
	for i := 0; i < n; i++ {
		f.nextID++
		f.projects = append(f.projects, backend.Project{
			ID:         fmt.Sprintf("p%d", f.nextID),
			Name:       fmt.Sprintf("Project %d", f.nextID),
			OwnerID:    ownerID,
			OwnerEmail: "alice@example.com",
			CreatedAt:  "2026-01-02T03:04:05Z",
		})
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

func remove[T any](items []T, match func(T) bool) []T {
	for i, it := range items {
		if match(it) {
			return append(items[:i], items[i+1:]...)
		}
	}
	return items
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	wrap := func(pattern string, authed bool, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.calls = append(f.calls, r.Method+" "+r.URL.Path)
			if status, ok := f.fail[r.Method+" "+r.URL.Path]; ok {
				writeJSON(w, status, map[string]any{"detail": "backend says no"})
				return
			}
			if authed && r.Header.Get("Authorization") != "Bearer "+testToken {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Not authenticated"})
				return
			}
			fn(w, r)
		})
	}

	wrap("POST /api/v1/auth/email/login", false, func(w http.ResponseWriter, r *http.Request) {
		var in backend.Credentials
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Email != f.user.Email || in.Password != "correct horse" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Incorrect email or password"})
			return
		}
		writeJSON(w, http.StatusOK, backend.AuthToken{AccessToken: testToken, TokenType: "bearer"})
	})
	wrap("GET /api/v1/user/me", true, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, f.user)
	})
	wrap("GET /api/v1/project", true, func(w http.ResponseWriter, r *http.Request) {
		paginate(w, r, f.projects)
	})
	wrap("POST /api/v1/project", true, func(w http.ResponseWriter, r *http.Request) {
		var in backend.CreateProjectInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.nextID++
		p := backend.Project{ID: fmt.Sprintf("p%d", f.nextID), Name: in.Name, OwnerID: f.user.ID, IsActive: true}
		f.projects = append(f.projects, p)
		writeJSON(w, http.StatusCreated, p)
	})
	wrap("DELETE /api/v1/project/{id}", true, func(w http.ResponseWriter, r *http.Request) {
		f.projects = remove(f.projects, func(p backend.Project) bool { return p.ID == r.PathValue("id") })
		w.WriteHeader(http.StatusNoContent)
	})
	wrap("GET /api/v1/project/{id}/members", true, func(w http.ResponseWriter, r *http.Request) {
		paginate(w, r, f.members[r.PathValue("id")])
	})
	wrap("POST /api/v1/project/{id}/members", true, func(w http.ResponseWriter, r *http.Request) {
		var in backend.AddMemberInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		m := backend.Member{UserID: "u-new", Email: in.Email, Role: in.Role}
		f.members[r.PathValue("id")] = append(f.members[r.PathValue("id")], m)
		writeJSON(w, http.StatusCreated, m)
	})
	wrap("DELETE /api/v1/project/{id}/members/{userId}", true, func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		f.members[id] = remove(f.members[id], func(m backend.Member) bool { return m.UserID == r.PathValue("userId") })
		w.WriteHeader(http.StatusNoContent)
	})
	wrap("GET /api/v1/project/{id}/invites", true, func(w http.ResponseWriter, r *http.Request) {
		paginate(w, r, f.invites[r.PathValue("id")])
	})
	wrap("POST /api/v1/project/{id}/invites", true, func(w http.ResponseWriter, r *http.Request) {
		var in backend.CreateInviteInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.nextID++
		inv := backend.Invite{ID: fmt.Sprintf("i%d", f.nextID), Email: in.Email}
		f.invites[r.PathValue("id")] = append(f.invites[r.PathValue("id")], inv)
		writeJSON(w, http.StatusCreated, inv)
	})
	wrap("DELETE /api/v1/project/{id}/invites/{inviteId}", true, func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		f.invites[id] = remove(f.invites[id], func(i backend.Invite) bool { return i.ID == r.PathValue("inviteId") })
		w.WriteHeader(http.StatusNoContent)
	})
	wrap("GET /api/v1/user/api-keys", true, func(w http.ResponseWriter, r *http.Request) {
		paginate(w, r, f.keys)
	})
	wrap("POST /api/v1/user/api-keys", true, func(w http.ResponseWriter, r *http.Request) {
		var in backend.CreateAPIKeyInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.nextID++
		key := "t2d_live_0123456789abcdef"
		k := backend.APIKey{ID: fmt.Sprintf("k%d", f.nextID), Name: in.Name, Key: &key, IsActive: true}
		f.keys = append(f.keys, k)
		writeJSON(w, http.StatusCreated, k)
	})
	wrap("DELETE /api/v1/user/api-keys/{id}", true, func(w http.ResponseWriter, r *http.Request) {
		f.keys = remove(f.keys, func(k backend.APIKey) bool { return k.ID == r.PathValue("id") })
		w.WriteHeader(http.StatusNoContent)
	})
	wrap("GET /api/v1/project/{id}/locator-cache", true, func(w http.ResponseWriter, r *http.Request) {
		paginate(w, r, f.cache[r.PathValue("id")])
	})
	wrap("DELETE /api/v1/project/{id}/locator-cache/{entryId}", true, func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		f.cache[id] = remove(f.cache[id], func(e backend.LocatorCacheEntry) bool { return e.ID == r.PathValue("entryId") })
		w.WriteHeader(http.StatusNoContent)
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

// --- Command harness ---

type harness struct {
	fb         *fakeBackend
	url        string
	configPath string
	env        map[string]string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fb := newFakeBackend()
	srv := httptest.NewServer(fb.handler())
	t.Cleanup(srv.Close)
	return &harness{
		fb:         fb,
		url:        srv.URL,
		configPath: filepath.Join(t.TempDir(), "config.yaml"),
		env:        map[string]string{"TALK2DOM_TOKEN": testToken},
	}
}

// run executes one command line and returns stdout.
func (h *harness) run(stdin string, args ...string) (string, error) {
	var out, errOut bytes.Buffer
	root := cli.NewRootCommand(cli.Options{
		In:     strings.NewReader(stdin),
		Out:    &out,
		Err:    &errOut,
		Getenv: func(k string) string { return h.env[k] },
	})
	root.SetArgs(append([]string{"--backend-url", h.url, "--config", h.configPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func member(id string, role access.Role) backend.Member {
	return backend.Member{UserID: id, Name: strings.ToUpper(id), Email: id + "@example.com", Role: role}
}
