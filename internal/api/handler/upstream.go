package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/talk2dom/web/internal/api/middleware"
	"github.com/talk2dom/web/internal/api/response"
	"github.com/talk2dom/web/internal/backend"
	"github.com/talk2dom/web/internal/paging"
)

// writeBackendError maps an error from the backend client onto the envelope.
// Backend 4xx statuses pass through with the backend's message; 5xx and
// transport failures become 502.
func writeBackendError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	requestID := middleware.GetRequestID(r.Context())

	var fe *backend.FetchError
	var ne *backend.NetworkError
	switch {
	case errors.As(err, &fe):
		status, code := upstreamStatus(fe.Status)
		if status >= http.StatusInternalServerError {
			slog.Error("backend request failed", "error", err, "requestId", requestID)
		}
		response.Err(w, status, code, backend.UserMessage(err, fallback), requestID)
	case errors.As(err, &ne):
		slog.Error("backend unreachable", "error", err, "requestId", requestID)
		response.Err(w, http.StatusBadGateway, "NETWORK_ERROR", backend.NetworkMessage, requestID)
	case errors.Is(err, backend.ErrMalformedResponse):
		slog.Error("malformed backend response", "error", err, "requestId", requestID)
		response.Err(w, http.StatusBadGateway, "UPSTREAM_ERROR", fallback, requestID)
	case errors.Is(err, paging.ErrInvalidWindow):
		response.Err(w, http.StatusBadRequest, "INVALID_PARAM", err.Error(), requestID)
	default:
		slog.Error("request failed", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", fallback, requestID)
	}
}

func upstreamStatus(status int) (int, string) {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return status, "VALIDATION_ERROR"
	case http.StatusUnauthorized:
		return status, "UNAUTHORIZED"
	case http.StatusPaymentRequired, http.StatusForbidden:
		return status, "FORBIDDEN"
	case http.StatusNotFound:
		return status, "NOT_FOUND"
	case http.StatusConflict:
		return status, "CONFLICT"
	case http.StatusTooManyRequests:
		return status, "RATE_LIMITED"
	}
	if status >= 400 && status < 500 {
		return status, "UPSTREAM_ERROR"
	}
	return http.StatusBadGateway, "UPSTREAM_ERROR"
}
