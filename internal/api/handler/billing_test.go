package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talk2dom/web/internal/analytics"
	"github.com/talk2dom/web/internal/api/handler"
	"github.com/talk2dom/web/internal/backend"
	"github.com/talk2dom/web/internal/billing"
)

type mockConfirmer struct {
	confirmFn func(ctx context.Context, clientSecret, paymentMethod string) (billing.Confirmation, error)
}

func (m *mockConfirmer) Confirm(ctx context.Context, clientSecret, paymentMethod string) (billing.Confirmation, error) {
	return m.confirmFn(ctx, clientSecret, paymentMethod)
}

const checkoutBody = `{"kind":"subscription","plan":"pro","paymentMethod":"pm_card_visa"}`

func TestBillingHandler_Checkout_SucceededInvalidatesSession(t *testing.T) {
	fb := newFakeBackend()
	fb.intent = backend.PaymentIntent{ClientSecret: "pi_1_secret_abc"}
	sessions := newSessions(t, fb)
	confirmer := &mockConfirmer{confirmFn: func(_ context.Context, secret, pm string) (billing.Confirmation, error) {
		assert.Equal(t, "pi_1_secret_abc", secret)
		assert.Equal(t, "pm_card_visa", pm)
		return billing.Confirmation{IntentID: "pi_1", Status: "succeeded"}, nil
	}}
	sink := &recordingSink{}
	h := handler.NewBillingHandler(sessions, billing.NewService(confirmer, sessions), analytics.NewSafe(sink))

	_, err := sessions.User(newRequest(http.MethodGet, "/auth/me", ""))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.Checkout(w, newRequest(http.MethodPost, "/billing/checkout", checkoutBody))

	require.Equal(t, http.StatusOK, w.Code)
	var outcome billing.Outcome
	decodeEnvelope(t, w, &outcome)
	assert.Equal(t, billing.StatusSucceeded, outcome.Status)
	assert.True(t, outcome.Reload)
	assert.Equal(t, []string{analytics.CheckoutSucceeded}, sink.eventNames())

	_, err = sessions.User(newRequest(http.MethodGet, "/auth/me", ""))
	require.NoError(t, err)
	assert.Equal(t, 2, fb.called(http.MethodGet, "/api/v1/user/me"), "the cached user is dropped after payment")
}

func TestBillingHandler_Checkout_DeclinedIs402(t *testing.T) {
	fb := newFakeBackend()
	fb.intent = backend.PaymentIntent{ClientSecret: "pi_1_secret_abc"}
	sessions := newSessions(t, fb)
	confirmer := &mockConfirmer{confirmFn: func(context.Context, string, string) (billing.Confirmation, error) {
		return billing.Confirmation{}, &billing.ProviderError{Code: "card_declined", Message: "Your card was declined."}
	}}
	h := handler.NewBillingHandler(sessions, billing.NewService(confirmer, sessions), nil)

	w := httptest.NewRecorder()
	h.Checkout(w, newRequest(http.MethodPost, "/billing/checkout", checkoutBody))

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	env := decodeEnvelope(t, w, nil)
	assert.Equal(t, "PAYMENT_FAILED", env.Error.Code)
	assert.Equal(t, "Your card was declined.", env.Error.Message)
}

func TestBillingHandler_Checkout_Disabled(t *testing.T) {
	sessions := newSessions(t, newFakeBackend())
	h := handler.NewBillingHandler(sessions, billing.NewService(nil, sessions), nil)

	w := httptest.NewRecorder()
	h.Checkout(w, newRequest(http.MethodPost, "/billing/checkout", checkoutBody))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestBillingHandler_Checkout_Validation(t *testing.T) {
	sessions := newSessions(t, newFakeBackend())
	h := handler.NewBillingHandler(sessions, billing.NewService(nil, sessions), nil)

	w := httptest.NewRecorder()
	h.Checkout(w, newRequest(http.MethodPost, "/billing/checkout", `{"kind":"gift","plan":"free"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, w, nil).Error.Code)
}

func TestBillingHandler_Cancel(t *testing.T) {
	fb := newFakeBackend()
	sessions := newSessions(t, fb)
	h := handler.NewBillingHandler(sessions, billing.NewService(nil, sessions), nil)

	w := httptest.NewRecorder()
	h.Cancel(w, newRequest(http.MethodPost, "/billing/cancel", ""))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 1, fb.called(http.MethodPost, "/api/v1/subscription/cancel"))
}
