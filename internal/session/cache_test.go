package session_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talk2dom/web/internal/backend"
	"github.com/talk2dom/web/internal/session"
)

func TestCache_LoadsOnce(t *testing.T) {
	var calls atomic.Int32
	c := session.NewCache(func(context.Context) (backend.User, error) {
		calls.Add(1)
		return backend.User{ID: "u1", Plan: "free"}, nil
	})
	ctx := context.Background()

	assert.Equal(t, session.Uninitialized, c.State())

	for i := 0; i < 3; i++ {
		u, err := c.User(ctx)
		require.NoError(t, err)
		assert.Equal(t, "u1", u.ID)
	}

	assert.Equal(t, session.Authenticated, c.State())
	assert.Equal(t, int32(1), calls.Load())
}

func TestCache_ConcurrentCallersShareLoad(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	c := session.NewCache(func(context.Context) (backend.User, error) {
		calls.Add(1)
		<-release
		return backend.User{ID: "u1"}, nil
	})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := c.User(ctx)
			assert.NoError(t, err)
			assert.Equal(t, "u1", u.ID)
		}()
	}

	require.Eventually(t, func() bool { return c.State() == session.Loading }, 2*time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestCache_UnauthorizedIsAnonymous(t *testing.T) {
	c := session.NewCache(func(context.Context) (backend.User, error) {
		return backend.User{}, &backend.FetchError{Status: http.StatusUnauthorized, Message: "Not authenticated"}
	})

	_, err := c.User(context.Background())

	assert.ErrorIs(t, err, session.ErrAnonymous)
	assert.Equal(t, session.Anonymous, c.State())
}

func TestCache_FailedLoadRetries(t *testing.T) {
	var calls atomic.Int32
	c := session.NewCache(func(context.Context) (backend.User, error) {
		if calls.Add(1) == 1 {
			return backend.User{}, &backend.NetworkError{Op: "GET /user/me", Err: errors.New("refused")}
		}
		return backend.User{ID: "u1"}, nil
	})
	ctx := context.Background()

	_, err := c.User(ctx)
	var ne *backend.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, session.Uninitialized, c.State())

	u, err := c.User(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestCache_InvalidateReloadsWholeUser(t *testing.T) {
	plan := "free"
	c := session.NewCache(func(context.Context) (backend.User, error) {
		return backend.User{ID: "u1", Plan: plan, SubscriptionCredits: len(plan)}, nil
	})
	ctx := context.Background()

	u, err := c.User(ctx)
	require.NoError(t, err)
	require.Equal(t, "free", u.Plan)

	plan = "developer"
	u, _ = c.User(ctx)
	assert.Equal(t, "free", u.Plan, "no refresh before invalidation")

	c.Invalidate()
	assert.Equal(t, session.Uninitialized, c.State())

	u, err = c.User(ctx)
	require.NoError(t, err)
	assert.Equal(t, "developer", u.Plan)
	assert.Equal(t, len("developer"), u.SubscriptionCredits)
}

func TestCache_InvalidateDuringLoadForcesReload(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	c := session.NewCache(func(context.Context) (backend.User, error) {
		if calls.Add(1) == 1 {
			<-release
			return backend.User{ID: "u1", Plan: "free"}, nil
		}
		return backend.User{ID: "u1", Plan: "developer"}, nil
	})
	ctx := context.Background()

	first := make(chan backend.User, 1)
	go func() {
		u, err := c.User(ctx)
		assert.NoError(t, err)
		first <- u
	}()
	require.Eventually(t, func() bool { return c.State() == session.Loading }, 2*time.Second, 5*time.Millisecond)

	c.Invalidate()
	close(release)

	assert.Equal(t, "free", (<-first).Plan)
	assert.Equal(t, session.Uninitialized, c.State(), "the load that raced an invalidation is not kept")

	u, err := c.User(ctx)
	require.NoError(t, err)
	assert.Equal(t, "developer", u.Plan)
	assert.Equal(t, int32(2), calls.Load())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "authenticated", session.Authenticated.String())
	assert.Equal(t, "anonymous", session.Anonymous.String())
	assert.Equal(t, "unknown", session.State(42).String())
}
