// Package session tracks who is signed in. Cache is the per-client lifecycle
// of the current user; Directory is the server-side user cache shared by all
// requests, backed by a Store.
package session

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/talk2dom/web/internal/backend"
)

// State is the lifecycle position of a Cache.
type State int

const (
	Uninitialized State = iota
	Loading
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// ErrAnonymous is returned by User when nobody is signed in.
var ErrAnonymous = errors.New("not signed in")

// Loader fetches the current user. A *backend.FetchError with status 401
// means there is no signed-in user.
type Loader func(ctx context.Context) (backend.User, error)

// Cache loads the current user once and serves it until Invalidate. The user
// is never refreshed piecemeal; an invalidated cache reloads from scratch.
type Cache struct {
	load Loader

	mu     sync.Mutex
	state  State
	user   backend.User
	flight *flight
	stale  bool
}

// flight is one in-progress load shared by every caller that arrives while
// it runs.
type flight struct {
	done chan struct{}
	user backend.User
	err  error
}

// NewCache creates an uninitialized Cache.
func NewCache(load Loader) *Cache {
	return &Cache{load: load}
}

// State returns the current lifecycle state.
func (c *Cache) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// User returns the signed-in user, loading it on first use. Concurrent
// callers during a load wait for that load instead of starting another.
func (c *Cache) User(ctx context.Context) (backend.User, error) {
	c.mu.Lock()
	switch c.state {
	case Authenticated:
		u := c.user
		c.mu.Unlock()
		return u, nil
	case Anonymous:
		c.mu.Unlock()
		return backend.User{}, ErrAnonymous
	case Loading:
		f := c.flight
		c.mu.Unlock()
		select {
		case <-f.done:
		case <-ctx.Done():
			return backend.User{}, ctx.Err()
		}
		return f.user, f.err
	}

	f := &flight{done: make(chan struct{})}
	c.state = Loading
	c.flight = f
	c.mu.Unlock()

	user, err := c.load(ctx)

	c.mu.Lock()
	switch {
	case err == nil:
		c.state = Authenticated
		c.user = user
		f.user = user
	case backend.StatusOf(err) == http.StatusUnauthorized:
		c.state = Anonymous
		f.err = ErrAnonymous
	default:
		// A failed load is not a verdict on the session; the next call retries.
		c.state = Uninitialized
		f.err = err
	}
	if c.stale {
		// Invalidated mid-load: this result answers the callers that were
		// already waiting but is not kept.
		c.stale = false
		c.state = Uninitialized
		c.user = backend.User{}
	}
	c.flight = nil
	close(f.done)
	c.mu.Unlock()

	return f.user, f.err
}

// Invalidate drops the cached user so the next User call reloads it. An
// Invalidate during a load discards that load's result once it lands.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Loading {
		c.stale = true
		return
	}
	c.state = Uninitialized
	c.user = backend.User{}
}
