package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

// StripeConfirmer confirms payment intents through the Stripe API.
type StripeConfirmer struct {
	client *paymentintent.Client
}

// NewStripeConfirmer creates a confirmer authenticated with secretKey.
func NewStripeConfirmer(secretKey string) *StripeConfirmer {
	return NewStripeConfirmerWithBackend(secretKey, stripe.GetBackend(stripe.APIBackend))
}

// NewStripeConfirmerWithBackend creates a confirmer that talks to Stripe
// through b.
func NewStripeConfirmerWithBackend(secretKey string, b stripe.Backend) *StripeConfirmer {
	return &StripeConfirmer{
		client: &paymentintent.Client{B: b, Key: secretKey},
	}
}

// Confirm confirms the intent behind clientSecret with a payment method.
func (c *StripeConfirmer) Confirm(ctx context.Context, clientSecret, paymentMethod string) (Confirmation, error) {
	id, err := IntentID(clientSecret)
	if err != nil {
		return Confirmation{}, err
	}

	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(paymentMethod),
	}
	params.Context = ctx

	pi, err := c.client.Confirm(id, params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) {
			return Confirmation{}, &ProviderError{Code: string(se.Code), Message: se.Msg}
		}
		return Confirmation{}, fmt.Errorf("confirming payment intent: %w", err)
	}

	return Confirmation{IntentID: pi.ID, Status: string(pi.Status)}, nil
}
