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
	"github.com/talk2dom/web/internal/billing"
)

type checkoutRequest struct {
	Kind          string `json:"kind"`
	Plan          string `json:"plan"`
	PaymentMethod string `json:"paymentMethod"`
}

type oneTimeRequest struct {
	Plan string `json:"plan"`
}

// BillingHandler handles the /billing endpoints.
type BillingHandler struct {
	sessions *Sessions
	checkout *billing.Service
	tracker  *analytics.Safe
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(sessions *Sessions, checkout *billing.Service, tracker *analytics.Safe) *BillingHandler {
	return &BillingHandler{sessions: sessions, checkout: checkout, tracker: tracker}
}

// Checkout handles POST /billing/checkout. A refused payment is a 402 whose
// message is the provider's.
func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req checkoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fieldErrors := validation.ValidateCheckoutRequest(validation.CheckoutRequest{
		Kind:          req.Kind,
		Plan:          req.Plan,
		PaymentMethod: req.PaymentMethod,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	identity := middleware.GetIdentity(r.Context())
	outcome, err := h.checkout.Checkout(r.Context(), h.sessions.Client(r), billing.CheckoutInput{
		AccountID:     identity.AccountID.String(),
		Kind:          backend.IntentKind(req.Kind),
		Plan:          req.Plan,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrDisabled):
			response.Err(w, http.StatusServiceUnavailable, "PAYMENTS_DISABLED", "Payments are not available", requestID)
		case errors.Is(err, billing.ErrMissingClientSecret):
			slog.Error("failed to start payment", "error", err, "requestId", requestID)
			response.Err(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Failed to start payment", requestID)
		default:
			writeBackendError(w, r, err, "Failed to start payment")
		}
		return
	}

	if outcome.Status == billing.StatusFailed {
		response.Err(w, http.StatusPaymentRequired, "PAYMENT_FAILED", outcome.Message, requestID)
		return
	}
	if outcome.Status == billing.StatusSucceeded {
		h.tracker.Track(r.Context(), analytics.CheckoutSucceeded, analytics.Props{"plan": req.Plan, "kind": req.Kind})
	}

	response.Success(w, http.StatusOK, outcome, requestID)
}

// OneTime handles POST /billing/one-time.
func (h *BillingHandler) OneTime(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req oneTimeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fieldErrors := validation.ValidateOneTimeRequest(req.Plan); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	result, err := h.sessions.Client(r).CreateOneTime(r.Context(), req.Plan)
	if err != nil {
		writeBackendError(w, r, err, "Failed to purchase credits")
		return
	}

	response.Success(w, http.StatusOK, result, requestID)
}

// Cancel handles POST /billing/cancel.
func (h *BillingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Client(r).CancelSubscription(r.Context()); err != nil {
		writeBackendError(w, r, err, "Failed to cancel subscription")
		return
	}

	identity := middleware.GetIdentity(r.Context())
	if err := h.sessions.Invalidate(r.Context(), identity.AccountID.String()); err != nil {
		slog.Warn("failed to invalidate session after cancel", "error", err)
	}
	response.NoContent(w)
}

// History handles GET /billing/history.
func (h *BillingHandler) History(w http.ResponseWriter, r *http.Request) {
	records, err := h.sessions.Client(r).BillingHistory(r.Context())
	if err != nil {
		writeBackendError(w, r, err, "Failed to load billing history")
		return
	}
	response.Success(w, http.StatusOK, records, middleware.GetRequestID(r.Context()))
}
