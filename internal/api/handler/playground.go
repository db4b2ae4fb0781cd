package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/talk2dom/web/internal/analytics"
	"github.com/talk2dom/web/internal/api/middleware"
	"github.com/talk2dom/web/internal/api/response"
	"github.com/talk2dom/web/internal/api/validation"
	"github.com/talk2dom/web/internal/backend"
	"github.com/talk2dom/web/internal/highlight"
)

// playgroundBodyBytes leaves room for the 2 MiB document once JSON-escaped.
const playgroundBodyBytes = 4 << 20

type locateRequest struct {
	URL         string `json:"url"`
	HTML        string `json:"html"`
	Instruction string `json:"instruction"`
}

type locateResponse struct {
	SelectorType  string `json:"selectorType"`
	SelectorValue string `json:"selectorValue"`
	Matches       int    `json:"matches"`
}

type highlightRequest struct {
	HTML          string `json:"html"`
	SelectorType  string `json:"selectorType"`
	SelectorValue string `json:"selectorValue"`
}

type highlightResponse struct {
	HTML    string `json:"html"`
	Matches int    `json:"matches"`
}

// PlaygroundHandler handles the /playground endpoints.
type PlaygroundHandler struct {
	sessions *Sessions
	tracker  *analytics.Safe
}

// NewPlaygroundHandler creates a new PlaygroundHandler.
func NewPlaygroundHandler(sessions *Sessions, tracker *analytics.Safe) *PlaygroundHandler {
	return &PlaygroundHandler{sessions: sessions, tracker: tracker}
}

// Locate handles POST /playground/locate. The selector comes from the
// backend; the match count is computed here against the submitted document.
func (h *PlaygroundHandler) Locate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req locateRequest
	if !decodeJSONLimit(w, r, &req, playgroundBodyBytes) {
		return
	}

	fieldErrors := validation.ValidateLocateRequest(validation.LocateRequest{
		URL:         req.URL,
		HTML:        req.HTML,
		Instruction: req.Instruction,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	loc, err := h.sessions.Client(r).Locate(r.Context(), backend.LocateInput{
		URL:             req.URL,
		HTML:            req.HTML,
		UserInstruction: req.Instruction,
	})
	if err != nil {
		writeBackendError(w, r, err, "Failed to locate element")
		return
	}

	matches := 0
	if doc, err := highlight.Parse(req.HTML); err == nil {
		nodes, err := highlight.ComputeMatches(doc, loc.SelectorType, loc.SelectorValue)
		if err != nil {
			slog.Warn("locator returned an unusable selector", "error", err, "selectorType", loc.SelectorType)
		}
		matches = len(nodes)
	}

	h.tracker.Track(r.Context(), analytics.PlaygroundLocate, analytics.Props{
		"selector_type": loc.SelectorType,
		"matches":       matches,
	})
	response.Success(w, http.StatusOK, locateResponse{
		SelectorType:  loc.SelectorType,
		SelectorValue: loc.SelectorValue,
		Matches:       matches,
	}, requestID)
}

// Highlight handles POST /playground/highlight.
func (h *PlaygroundHandler) Highlight(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req highlightRequest
	if !decodeJSONLimit(w, r, &req, playgroundBodyBytes) {
		return
	}

	fieldErrors := validation.ValidateHighlightRequest(validation.HighlightRequest{
		HTML:          req.HTML,
		SelectorType:  req.SelectorType,
		SelectorValue: req.SelectorValue,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	out, n, err := highlight.Highlight(req.HTML, req.SelectorType, req.SelectorValue, highlight.DefaultClass)
	if err != nil {
		if errors.Is(err, highlight.ErrInvalidSelector) || errors.Is(err, highlight.ErrUnsupportedSelector) {
			response.Err(w, http.StatusBadRequest, "INVALID_SELECTOR", err.Error(), requestID)
			return
		}
		slog.Error("failed to highlight document", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to highlight document", requestID)
		return
	}

	response.Success(w, http.StatusOK, highlightResponse{HTML: out, Matches: n}, requestID)
}
