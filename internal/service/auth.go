// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/base-collective/base-events/internal/model"
	"github.com/base-collective/base-events/internal/repository"
)

// ErrInvalidCredentials hides whether the email or the password failed,
// to prevent account-enumeration side channels.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrAccountLocked signals an active lockout window after repeated failures.
var ErrAccountLocked = errors.New("account temporarily locked")

// AccountStore is the persistence surface AuthService needs.
type AccountStore interface {
	Create(ctx context.Context, req model.RegisterAccountRequest, passwordHash string, role model.Role) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	GetByID(ctx context.Context, id string) (*model.Account, error)
	RecordLoginFailure(ctx context.Context, email string, threshold int, window time.Duration) (int, *time.Time, error)
	ResetLoginState(ctx context.Context, email string) error
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Compare(ctx context.Context, hash, password string) error
}

// TokenIssuer signs bearer tokens for authenticated accounts.
type TokenIssuer interface {
	Issue(accountID string, role model.Role) (string, error)
}

// AuthService orchestrates registration, login, and the lockout state machine.
type AuthService struct {
	accounts AccountStore
	hasher   PasswordHasher
	tokens   TokenIssuer

	lockoutThreshold int
	lockoutWindow    time.Duration
	nowFn            func() time.Time
}

// NewAuthService constructs an AuthService.
func NewAuthService(accounts AccountStore, hasher PasswordHasher, tokens TokenIssuer, lockoutThreshold int, lockoutWindow time.Duration) *AuthService {
	return &AuthService{
		accounts:         accounts,
		hasher:           hasher,
		tokens:           tokens,
		lockoutThreshold: lockoutThreshold,
		lockoutWindow:    lockoutWindow,
		nowFn:            time.Now,
	}
}

// Register creates an account with role user and returns a fresh token.
func (s *AuthService) Register(ctx context.Context, req model.RegisterAccountRequest) (*model.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Phone = strings.TrimSpace(req.Phone)

	if !isValidEmail(req.Email) {
		return nil, fmt.Errorf("a valid email is required")
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	if len(req.FirstName) < 2 || len(req.FirstName) > 100 {
		return nil, fmt.Errorf("first_name must be between 2 and 100 characters")
	}
	if len(req.LastName) < 2 || len(req.LastName) > 100 {
		return nil, fmt.Errorf("last_name must be between 2 and 100 characters")
	}

	hash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account, err := s.accounts.Create(ctx, req, hash, model.RoleUser)
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	token, err := s.tokens.Issue(account.ID, account.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &model.AuthResponse{Token: token, Account: account.Summary()}, nil
}

// Login validates credentials and enforces the lockout state machine.
//
// Order matters: the lock check comes first so a locked account is rejected
// without touching the counter regardless of whether the password is right,
// and the failure counter is only advanced by an actual wrong password.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up account: %w", err)
	}

	now := s.nowFn()
	if account.Locked(now) {
		slog.Info("login rejected, lockout active",
			"account_id", account.ID,
			"locked_until", account.LockedUntil,
		)
		return nil, ErrAccountLocked
	}

	if err := s.hasher.Compare(ctx, account.PasswordHash, req.Password); err != nil {
		attempts, lockedUntil, recErr := s.accounts.RecordLoginFailure(ctx, email, s.lockoutThreshold, s.lockoutWindow)
		if recErr != nil {
			slog.Error("failed to record login failure", "account_id", account.ID, "error", recErr)
		} else if lockedUntil != nil && lockedUntil.After(now) {
			slog.Warn("account lockout triggered",
				"account_id", account.ID,
				"failed_attempts", attempts,
				"locked_until", lockedUntil,
			)
		}
		// The attempt that trips the lock still answers invalid credentials;
		// only subsequent attempts inside the window answer locked.
		return nil, ErrInvalidCredentials
	}

	if err := s.accounts.ResetLoginState(ctx, email); err != nil {
		return nil, fmt.Errorf("reset login state: %w", err)
	}

	token, err := s.tokens.Issue(account.ID, account.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &model.AuthResponse{Token: token, Account: account.Summary()}, nil
}

// Me returns the account behind an authenticated identity.
func (s *AuthService) Me(ctx context.Context, accountID string) (*model.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// isValidEmail does a basic structural check; real validation is the
// confirmation email's job.
func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 0 && strings.Contains(parts[1], ".")
}
