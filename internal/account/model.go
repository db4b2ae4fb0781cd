package account

import (
	"time"

	"github.com/google/uuid"
)

// Account represents a row in the accounts table.
type Account struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// Identity is stored in the request context after the session cookie is verified.
type Identity struct {
	AccountID    uuid.UUID
	Name         string
	Email        string
	BackendToken string // forwarded to the Talk2Dom backend as a bearer token
}

// Session is the result of a successful sign-up or login.
type Session struct {
	Account   *Account
	Token     string
	ExpiresAt time.Time
}
