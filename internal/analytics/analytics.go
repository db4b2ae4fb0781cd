// Package analytics records product events. Recording is best effort: a
// failing or panicking sink never changes the outcome of the action that
// produced the event.
package analytics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/talk2dom/web/internal/metrics"
)

// Event names.
const (
	SignUp            = "sign_up"
	Login             = "login"
	ProjectCreated    = "project_created"
	ProjectDeleted    = "project_deleted"
	MemberRemoved     = "member_removed"
	InviteSent        = "invite_sent"
	APIKeyCreated     = "api_key_created"
	CheckoutSucceeded = "checkout_succeeded"
	PlaygroundLocate  = "playground_locate"
)

// Props are the properties attached to an event.
type Props map[string]any

// Sink receives events.
type Sink interface {
	Record(ctx context.Context, event string, props Props) error
}

// Safe wraps a Sink so that its errors and panics are logged and dropped.
// A nil sink records nothing.
type Safe struct {
	sink Sink
}

// NewSafe wraps sink.
func NewSafe(sink Sink) *Safe {
	return &Safe{sink: sink}
}

// Track records an event without ever failing the caller.
func (s *Safe) Track(ctx context.Context, event string, props Props) {
	if s == nil || s.sink == nil {
		return
	}

	outcome := "recorded"
	defer func() {
		if r := recover(); r != nil {
			outcome = "panic"
			slog.Error("analytics sink panicked", "event", event, "panic", fmt.Sprint(r))
		}
		metrics.AnalyticsEvents.WithLabelValues(event, outcome).Inc()
	}()

	if err := s.sink.Record(ctx, event, props); err != nil {
		outcome = "failed"
		slog.Warn("failed to record analytics event", "event", event, "error", err)
	}
}

// LogSink writes events to the structured log.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink. A nil logger uses slog.Default.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Record logs the event at info level.
func (l *LogSink) Record(ctx context.Context, event string, props Props) error {
	args := make([]any, 0, 2+2*len(props))
	args = append(args, "event", event)
	for k, v := range props {
		args = append(args, k, v)
	}
	l.logger.InfoContext(ctx, "analytics event", args...)
	return nil
}
