package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// IntentKind selects which payment endpoint issues the client secret.
type IntentKind string

const (
	IntentOneTime            IntentKind = "one_time"
	IntentSubscription       IntentKind = "subscription"
	IntentUpdateSubscription IntentKind = "update_subscription"
)

var intentPaths = map[IntentKind]string{
	IntentOneTime:            "/payment/create-payment-intent",
	IntentSubscription:       "/payment/create-subscription",
	IntentUpdateSubscription: "/payment/update-subscription",
}

// ValidIntentKind reports whether k names a payment endpoint.
func ValidIntentKind(k IntentKind) bool {
	_, ok := intentPaths[k]
	return ok
}

// CreatePaymentIntent requests a client secret for the given plan.
func (c *Client) CreatePaymentIntent(ctx context.Context, kind IntentKind, plan string) (PaymentIntent, error) {
	path, ok := intentPaths[kind]
	if !ok {
		path = intentPaths[IntentOneTime]
	}

	body, err := c.send(ctx, call{
		method:   http.MethodPost,
		route:    path,
		path:     path,
		body:     map[string]string{"plan": plan},
		fallback: "Failed to start payment",
	})
	if err != nil {
		return PaymentIntent{}, err
	}

	var pi PaymentIntent
	if err := decodeWrite(body, &pi); err != nil {
		return PaymentIntent{}, err
	}
	return pi, nil
}

// CreateOneTime buys a one-time credit pack. The backend answers with a
// checkout URL or a status object; the raw JSON is returned as is.
func (c *Client) CreateOneTime(ctx context.Context, plan string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("plan", plan)
	body, err := c.send(ctx, call{
		method:   http.MethodPost,
		route:    "/subscription/create-one-time",
		path:     "/subscription/create-one-time",
		query:    q,
		fallback: "Failed to purchase credits",
	})
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, ErrMalformedResponse
	}
	return json.RawMessage(body), nil
}

// CancelSubscription cancels the caller's subscription at period end.
func (c *Client) CancelSubscription(ctx context.Context) error {
	_, err := c.send(ctx, call{
		method:   http.MethodPost,
		route:    "/subscription/cancel",
		path:     "/subscription/cancel",
		fallback: "Failed to cancel subscription",
	})
	return err
}

// BillingHistory lists the caller's subscription records. An undecodable body
// yields no records.
func (c *Client) BillingHistory(ctx context.Context) ([]SubscriptionRecord, error) {
	body, err := c.send(ctx, call{
		method:   http.MethodGet,
		route:    "/subscription/history",
		path:     "/subscription/history",
		fallback: "Failed to load billing history",
	})
	if err != nil {
		return nil, err
	}

	var records []SubscriptionRecord
	if err := json.Unmarshal(body, &records); err != nil || records == nil {
		return []SubscriptionRecord{}, nil
	}
	return records, nil
}
