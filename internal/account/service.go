package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/talk2dom/web/internal/backend"
)

// ErrInvalidCredentials is returned when the email or password does not match.
var ErrInvalidCredentials = errors.New("invalid email or password")

// BackendAuth is the part of the backend client that issues backend credentials.
type BackendAuth interface {
	EmailRegister(ctx context.Context, in backend.Registration) (backend.AuthToken, error)
	EmailLogin(ctx context.Context, in backend.Credentials) (backend.AuthToken, error)
}

// Service provides sign-up and login.
type Service struct {
	repo       Repository
	backend    BackendAuth
	tokens     *TokenService
	bcryptCost int
}

// NewService creates a new account Service.
func NewService(repo Repository, b BackendAuth, tokens *TokenService, bcryptCost int) *Service {
	return &Service{
		repo:       repo,
		backend:    b,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

// RegisterInput holds the fields of a sign-up.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates the account locally and with the backend, then signs the
// user in. The backend registration runs first so a refusal there leaves no
// local account behind. If the local insert fails afterwards, the backend
// account is adopted by the next Login.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, ErrAccountNotFound) {
		return nil, fmt.Errorf("checking existing account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	tok, err := s.backend.EmailRegister(ctx, backend.Registration{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
	})
	if err != nil {
		return nil, err
	}

	a := &Account{Name: in.Name, Email: in.Email, PasswordHash: string(hash)}
	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		slog.Error("backend account registered without a local account", "error", err, "email", in.Email)
		return nil, fmt.Errorf("storing account: %w", err)
	}

	slog.Info("account registered", "account_id", a.ID)
	return s.issue(a, tok.AccessToken)
}

// Login verifies the password and obtains a fresh backend credential. An
// email with no local account is checked against the backend and adopted
// when the backend accepts it.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	a, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrAccountNotFound) {
		return s.adopt(ctx, email, password)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up account: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	tok, err := s.backend.EmailLogin(ctx, backend.Credentials{Email: a.Email, Password: password})
	if err != nil {
		return nil, err
	}

	if err := s.repo.TouchLogin(ctx, a.ID); err != nil {
		slog.Warn("failed to record login time", "error", err, "account_id", a.ID)
	}

	return s.issue(a, tok.AccessToken)
}

// adopt creates the local account for a backend account that has none.
func (s *Service) adopt(ctx context.Context, email, password string) (*Session, error) {
	tok, err := s.backend.EmailLogin(ctx, backend.Credentials{Email: email, Password: password})
	if err != nil {
		switch backend.StatusOf(err) {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound:
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	name, _, _ := strings.Cut(email, "@")
	a := &Account{Name: name, Email: email, PasswordHash: string(hash)}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("adopting backend account: %w", err)
	}

	slog.Info("adopted backend account", "account_id", a.ID)
	return s.issue(a, tok.AccessToken)
}

// Authenticate resolves a session token to an Identity.
func (s *Service) Authenticate(token string) (*Identity, error) {
	return s.tokens.Verify(token)
}

func (s *Service) issue(a *Account, backendToken string) (*Session, error) {
	token, expires, err := s.tokens.Issue(Identity{
		AccountID:    a.ID,
		Name:         a.Name,
		Email:        a.Email,
		BackendToken: backendToken,
	})
	if err != nil {
		return nil, err
	}
	return &Session{Account: a, Token: token, ExpiresAt: expires}, nil
}
