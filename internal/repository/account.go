package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/base-collective/base-events/internal/model"
)

const uniqueViolation = "23505"

// AccountRepository handles persistence for accounts, including the
// brute-force lockout state stored on the account row.
type AccountRepository struct {
	db *pgxpool.Pool
}

// NewAccountRepository constructs an AccountRepository.
func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, email, password_hash, first_name, last_name, phone, role,
	failed_attempts, locked_until, last_login, created_at, updated_at`

func scanAccount(row pgx.Row) (*model.Account, error) {
	var (
		a     model.Account
		phone *string
	)
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName, &phone,
		&a.Role, &a.FailedAttempts, &a.LockedUntil, &a.LastLogin, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	if phone != nil {
		a.Phone = *phone
	}
	return &a, nil
}

// Create inserts a new account and returns it with a generated UUID.
func (r *AccountRepository) Create(ctx context.Context, req model.RegisterAccountRequest, passwordHash string, role model.Role) (*model.Account, error) {
	account := &model.Account{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	account.UpdatedAt = account.CreatedAt

	var phone *string
	if account.Phone != "" {
		phone = &account.Phone
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO accounts (id, email, password_hash, first_name, last_name, phone, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		account.ID, account.Email, account.PasswordHash, account.FirstName,
		account.LastName, phone, account.Role, account.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return account, nil
}

// GetByEmail returns the account with the given email or ErrNotFound.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	return scanAccount(row)
}

// GetByID returns the account with the given public identifier or ErrNotFound.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*model.Account, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// RecordLoginFailure increments the failure counter and, when the new count
// reaches threshold, opens a lockout window. The whole read-modify-write is
// one conditional UPDATE so two concurrent failures can never both read the
// same stale counter and lose an increment.
func (r *AccountRepository) RecordLoginFailure(ctx context.Context, email string, threshold int, window time.Duration) (attempts int, lockedUntil *time.Time, err error) {
	err = r.db.QueryRow(ctx,
		`UPDATE accounts
		 SET failed_attempts = failed_attempts + 1,
		     locked_until = CASE
		       WHEN failed_attempts + 1 >= $2 THEN now() + make_interval(secs => $3)
		       ELSE NULL
		     END,
		     updated_at = now()
		 WHERE email = $1
		 RETURNING failed_attempts, locked_until`,
		email, threshold, window.Seconds(),
	).Scan(&attempts, &lockedUntil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil, ErrNotFound
		}
		return 0, nil, fmt.Errorf("record login failure: %w", err)
	}
	return attempts, lockedUntil, nil
}

// ResetLoginState clears the failure counter and lockout after a successful
// login and stamps last_login.
func (r *AccountRepository) ResetLoginState(ctx context.Context, email string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE accounts
		 SET failed_attempts = 0, locked_until = NULL, last_login = now(), updated_at = now()
		 WHERE email = $1`,
		email,
	)
	if err != nil {
		return fmt.Errorf("reset login state: %w", err)
	}
	return nil
}

// Count returns the total number of accounts.
func (r *AccountRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}
