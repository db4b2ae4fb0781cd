// Package billing runs checkout: the backend issues a payment intent, the
// payment provider confirms it with a tokenized payment method, and a
// successful payment invalidates the cached session user.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/talk2dom/web/internal/backend"
)

var (
	// ErrMissingClientSecret is returned when the backend issued an intent without a client secret.
	ErrMissingClientSecret = errors.New("payment intent has no client secret")

	// ErrDisabled is returned when no payment provider is configured.
	ErrDisabled = errors.New("payment confirmation is not configured")
)

// FailedMessage is shown when the provider gave no reason for a failure.
const FailedMessage = "Payment failed"

// Status is the result of a checkout.
type Status string

const (
	StatusSucceeded      Status = "succeeded"
	StatusFailed         Status = "failed"
	StatusRequiresAction Status = "requires_action"
	StatusProcessing     Status = "processing"
)

// Outcome is what the caller shows after a checkout. Reload means the
// session user is stale and must be fetched again.
type Outcome struct {
	Status       Status `json:"status"`
	Message      string `json:"message,omitempty"`
	Reload       bool   `json:"reload"`
	ClientSecret string `json:"clientSecret,omitempty"`
}

// Confirmation is the provider's answer to a confirm call.
type Confirmation struct {
	IntentID string
	Status   string
}

// ProviderError is a payment refused by the provider. Message is meant for
// the user.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider refused (%s): %s", e.Code, e.Message)
}

// IntentSource issues payment intents.
type IntentSource interface {
	CreatePaymentIntent(ctx context.Context, kind backend.IntentKind, plan string) (backend.PaymentIntent, error)
}

// Confirmer confirms a payment intent with a payment method token.
type Confirmer interface {
	Confirm(ctx context.Context, clientSecret, paymentMethod string) (Confirmation, error)
}

// Invalidator drops an account's cached session user.
type Invalidator interface {
	Invalidate(ctx context.Context, accountID string) error
}

// CheckoutInput describes one purchase. PaymentMethod is a provider token;
// raw card data never reaches this package.
type CheckoutInput struct {
	AccountID     string
	Kind          backend.IntentKind
	Plan          string
	PaymentMethod string
}

// Service runs checkouts.
type Service struct {
	confirmer Confirmer
	sessions  Invalidator
}

// NewService creates a Service. confirmer may be nil, in which case every
// checkout fails with ErrDisabled. sessions may be nil.
func NewService(confirmer Confirmer, sessions Invalidator) *Service {
	return &Service{confirmer: confirmer, sessions: sessions}
}

// Enabled reports whether a provider is configured.
func (s *Service) Enabled() bool {
	return s.confirmer != nil
}

// Checkout requests an intent from intents and confirms it. Errors from
// obtaining the intent are returned as is; everything after that is reported
// through the Outcome.
func (s *Service) Checkout(ctx context.Context, intents IntentSource, in CheckoutInput) (Outcome, error) {
	if s.confirmer == nil {
		return Outcome{}, ErrDisabled
	}

	pi, err := intents.CreatePaymentIntent(ctx, in.Kind, in.Plan)
	if err != nil {
		return Outcome{}, err
	}
	if strings.TrimSpace(pi.ClientSecret) == "" {
		return Outcome{}, ErrMissingClientSecret
	}

	conf, err := s.confirmer.Confirm(ctx, pi.ClientSecret, in.PaymentMethod)
	if err != nil {
		var pe *ProviderError
		if errors.As(err, &pe) && pe.Message != "" {
			return Outcome{Status: StatusFailed, Message: pe.Message}, nil
		}
		slog.Error("failed to confirm payment", "error", err, "plan", in.Plan)
		return Outcome{Status: StatusFailed, Message: FailedMessage}, nil
	}

	switch conf.Status {
	case string(StatusSucceeded):
		if s.sessions != nil {
			if err := s.sessions.Invalidate(ctx, in.AccountID); err != nil {
				slog.Warn("failed to invalidate session after payment", "error", err, "account_id", in.AccountID)
			}
		}
		return Outcome{Status: StatusSucceeded, Reload: true}, nil
	case string(StatusRequiresAction):
		return Outcome{
			Status:       StatusRequiresAction,
			Message:      "Additional authentication required",
			ClientSecret: pi.ClientSecret,
		}, nil
	case string(StatusProcessing):
		return Outcome{Status: StatusProcessing, Message: "Payment is processing"}, nil
	default:
		return Outcome{Status: StatusFailed, Message: FailedMessage}, nil
	}
}

// IntentID extracts the payment intent ID from its client secret, which has
// the form "<id>_secret_<nonce>".
func IntentID(clientSecret string) (string, error) {
	id, _, ok := strings.Cut(clientSecret, "_secret_")
	if !ok || id == "" {
		return "", fmt.Errorf("%w: unrecognized format", ErrMissingClientSecret)
	}
	return id, nil
}
