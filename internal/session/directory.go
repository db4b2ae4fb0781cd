package session

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/talk2dom/web/internal/backend"
	"github.com/talk2dom/web/internal/metrics"
)

// Directory resolves account IDs to backend users through a Store. Store
// failures degrade to a direct load; they never fail the request.
//
// Every Invalidate bumps a generation. A Lookup whose load overlapped an
// Invalidate removes what it wrote, so a user loaded before a plan change
// cannot outlive the invalidation. The generation is per process; with a
// shared Redis store, an Invalidate on another replica does not reach it.
type Directory struct {
	store Store
	gen   atomic.Uint64
}

// NewDirectory creates a Directory over store.
func NewDirectory(store Store) *Directory {
	return &Directory{store: store}
}

// Lookup returns the cached user for accountID, calling load on a miss.
func (d *Directory) Lookup(ctx context.Context, accountID string, load Loader) (backend.User, error) {
	user, ok, err := d.store.Get(ctx, accountID)
	switch {
	case err != nil:
		metrics.SessionLookups.WithLabelValues("error").Inc()
		slog.Warn("session store read failed", "error", err, "account_id", accountID)
	case ok:
		metrics.SessionLookups.WithLabelValues("hit").Inc()
		return user, nil
	default:
		metrics.SessionLookups.WithLabelValues("miss").Inc()
	}

	gen := d.gen.Load()
	user, err = load(ctx)
	if err != nil {
		return backend.User{}, err
	}
	if err := d.store.Set(ctx, accountID, user); err != nil {
		slog.Warn("session store write failed", "error", err, "account_id", accountID)
		return user, nil
	}
	if d.gen.Load() != gen {
		if err := d.store.Delete(ctx, accountID); err != nil {
			slog.Warn("session store delete failed", "error", err, "account_id", accountID)
		}
	}
	return user, nil
}

// Invalidate drops the cached user so the next Lookup reloads it.
func (d *Directory) Invalidate(ctx context.Context, accountID string) error {
	d.gen.Add(1)
	return d.store.Delete(ctx, accountID)
}
