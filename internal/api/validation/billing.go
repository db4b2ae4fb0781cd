package validation

import (
	"github.com/talk2dom/web/internal/access"
	"github.com/talk2dom/web/internal/backend"
)

var purchasablePlans = map[string]bool{
	access.PlanDeveloper: true,
	access.PlanPro:       true,
}

// CheckoutRequest mirrors the fields needed for checkout validation.
type CheckoutRequest struct {
	Kind          string
	Plan          string
	PaymentMethod string
}

// ValidateCheckoutRequest validates a checkout.
func ValidateCheckoutRequest(req CheckoutRequest) []FieldError {
	var errs []FieldError

	if !backend.ValidIntentKind(backend.IntentKind(req.Kind)) {
		errs = append(errs, FieldError{Field: "kind", Message: `kind must be "one_time", "subscription" or "update_subscription"`})
	}
	errs = plan(errs, req.Plan)
	errs, _ = required(errs, "paymentMethod", req.PaymentMethod)

	return errs
}

// ValidateOneTimeRequest validates a one-time credit purchase.
func ValidateOneTimeRequest(p string) []FieldError {
	return plan(nil, p)
}

func plan(errs []FieldError, p string) []FieldError {
	errs, ok := required(errs, "plan", p)
	if ok && !purchasablePlans[p] {
		errs = append(errs, FieldError{Field: "plan", Message: `plan must be "developer" or "pro"`})
	}
	return errs
}
