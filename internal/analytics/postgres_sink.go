package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSink persists events to the analytics_events table.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink creates a PostgresSink.
func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

// Record inserts one event row.
func (s *PostgresSink) Record(ctx context.Context, event string, props Props) error {
	if props == nil {
		props = Props{}
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("encoding event properties: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO analytics_events (event, properties) VALUES ($1, $2)`,
		event, raw,
	)
	if err != nil {
		return fmt.Errorf("inserting analytics event: %w", err)
	}
	return nil
}

// Count returns how many events with the given name were recorded.
func (s *PostgresSink) Count(ctx context.Context, event string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM analytics_events WHERE event = $1`, event,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting analytics events: %w", err)
	}
	return n, nil
}
