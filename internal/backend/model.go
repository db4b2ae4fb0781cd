package backend

import (
	"unicode/utf8"

	"github.com/talk2dom/web/internal/access"
)

// Timestamps are kept as the backend formats them; the client never does
// arithmetic on them.

// Project is a Talk2Dom project.
type Project struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	OwnerID     string  `json:"owner_id"`
	CreatedAt   string  `json:"created_at"`
	OwnerEmail  string  `json:"owner_email"`
	MemberCount int     `json:"member_count"`
	APICalls    int     `json:"api_calls"`
	IsActive    bool    `json:"is_active"`
}

// Member is a user's membership in a project.
type Member struct {
	UserID string      `json:"user_id"`
	Name   string      `json:"name"`
	Email  string      `json:"email"`
	Role   access.Role `json:"role"`
}

// Principal returns the member as a permission subject.
func (m Member) Principal() access.Principal {
	return access.Principal{UserID: m.UserID, Role: m.Role}
}

// Principals maps members to permission subjects, preserving order.
func Principals(members []Member) []access.Principal {
	out := make([]access.Principal, len(members))
	for i, m := range members {
		out[i] = m.Principal()
	}
	return out
}

// Invite is a pending invitation to a project.
type Invite struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Accepted bool   `json:"accepted"`
}

// APIKey is a user's API key. Key is only populated in full on creation.
type APIKey struct {
	ID        string  `json:"id"`
	Name      *string `json:"name,omitempty"`
	Key       *string `json:"key,omitempty"`
	CreatedAt string  `json:"created_at"`
	IsActive  bool    `json:"is_active"`
}

// Masked returns the key with all but its first six and last four characters
// hidden. Short keys are hidden entirely.
func (k APIKey) Masked() string {
	if k.Key == nil {
		return ""
	}
	key := []rune(*k.Key)
	if len(key) <= 10 {
		return maskRunes(len(key))
	}
	return string(key[:6]) + "…" + string(key[len(key)-4:])
}

func maskRunes(n int) string {
	b := make([]byte, 0, n*utf8.RuneLen('•'))
	for i := 0; i < n; i++ {
		b = utf8.AppendRune(b, '•')
	}
	return string(b)
}

// LocatorCacheEntry is a cached locator result for a project.
type LocatorCacheEntry struct {
	ID              string `json:"id"`
	URL             string `json:"url"`
	UserInstruction string `json:"user_instruction"`
	SelectorType    string `json:"selector_type"`
	SelectorValue   string `json:"selector_value"`
	HTML            string `json:"html"`
}

// UsagePoint is one bucket of a project's API usage series.
type UsagePoint struct {
	Timestamp string `json:"timestamp"`
	Count     int    `json:"count"`
}

// User is the signed-in user as the backend reports it.
type User struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Email               string  `json:"email"`
	Plan                string  `json:"plan"`
	SubscriptionCredits int     `json:"subscription_credits"`
	OneTimeCredits      int     `json:"one_time_credits"`
	SubscriptionStatus  *string `json:"subscription_status,omitempty"`
	SubscriptionEndDate *string `json:"subscription_end_date,omitempty"`
	IsActive            bool    `json:"is_active"`
}

// SubscriptionRecord is one entry of the billing history.
type SubscriptionRecord struct {
	ID        string  `json:"id"`
	Plan      string  `json:"plan"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
}

// PaymentIntent carries the opaque client secret of a provider payment.
type PaymentIntent struct {
	ClientSecret   string `json:"client_secret"`
	SubscriptionID string `json:"subscription_id,omitempty"`
}

// Locator is the selector the inference engine returned.
type Locator struct {
	SelectorType  string `json:"selector_type"`
	SelectorValue string `json:"selector_value"`
}

// AuthToken is the backend credential issued on email login.
type AuthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
