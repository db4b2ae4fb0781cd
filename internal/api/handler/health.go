package handler

import (
	"context"
	"net/http"

	"github.com/talk2dom/web/internal/api/middleware"
	"github.com/talk2dom/web/internal/api/response"
)

// Pinger checks that a dependency answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

// Ping calls f.
func (f PingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	db      Pinger
	backend Pinger
	version string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db, backend Pinger, version string) *HealthHandler {
	return &HealthHandler{
		db:      db,
		backend: backend,
		version: version,
	}
}

type dependencyStatus struct {
	Connected bool    `json:"connected"`
	Error     *string `json:"error"`
}

type healthData struct {
	Status   string           `json:"status"`
	Version  string           `json:"version"`
	Database dependencyStatus `json:"database"`
	Backend  dependencyStatus `json:"backend"`
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	data := healthData{
		Status:   "healthy",
		Version:  h.version,
		Database: check(r.Context(), h.db),
		Backend:  check(r.Context(), h.backend),
	}
	if !data.Database.Connected || !data.Backend.Connected {
		data.Status = "degraded"
	}

	response.Success(w, http.StatusOK, data, requestID)
}

func check(ctx context.Context, p Pinger) dependencyStatus {
	if err := p.Ping(ctx); err != nil {
		msg := err.Error()
		return dependencyStatus{Connected: false, Error: &msg}
	}
	return dependencyStatus{Connected: true}
}
