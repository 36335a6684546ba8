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

// lockNotAvailable is the SQLSTATE raised when lock_timeout expires while
// waiting on the event row.
const lockNotAvailable = "55P03"

// RegistrationRepository handles persistence for registrations.
type RegistrationRepository struct {
	db          *pgxpool.Pool
	lockTimeout time.Duration
}

// NewRegistrationRepository constructs a RegistrationRepository.
// lockTimeout bounds how long Register waits for the event row lock.
func NewRegistrationRepository(db *pgxpool.Pool, lockTimeout time.Duration) *RegistrationRepository {
	if lockTimeout <= 0 {
		lockTimeout = 3 * time.Second
	}
	return &RegistrationRepository{db: db, lockTimeout: lockTimeout}
}

// Register performs a concurrency-safe registration inside a transaction.
//
// A naive read-then-write lets two callers read the same count before either
// writes back, overselling the event. The fix is pessimistic: SELECT ... FOR
// UPDATE takes a row-level exclusive lock on the event the moment the read
// executes, so the capacity check and the increment happen under one lock
// and concurrent callers for the same event serialize. Callers for other
// events touch other rows and proceed in parallel.
//
// The lock wait is bounded by SET LOCAL lock_timeout; blowing the timeout
// surfaces as ErrBusy, which is safe to retry because the duplicate check
// makes the operation idempotent per (event, account).
func (r *RegistrationRepository) Register(ctx context.Context, eventID, accountID string) (*model.Registration, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	// Any early return below rolls the whole transaction back; no partial
	// increment or orphaned registration row can persist.
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds()))
	if err != nil {
		return nil, fmt.Errorf("set lock timeout: %w", err)
	}

	// Step 1: exclusive row-level lock on the event, held until commit.
	var (
		capacity     *int
		currentCount int
	)
	err = tx.QueryRow(ctx,
		`SELECT capacity, current_count
		 FROM events
		 WHERE id = $1
		 FOR UPDATE`,
		eventID,
	).Scan(&capacity, &currentCount)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, ErrNotFound
		case isLockTimeout(err):
			return nil, ErrBusy
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}

	// Step 2: capacity guard. NULL capacity means unbounded.
	if capacity != nil && currentCount >= *capacity {
		err = ErrCapacityExceeded
		return nil, err
	}

	// Step 3: one registration per (event, account).
	var dupCount int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND account_id = $2`,
		eventID, accountID,
	).Scan(&dupCount)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if dupCount > 0 {
		err = ErrDuplicateRegistration
		return nil, err
	}

	// Step 4: insert the registration.
	reg := &model.Registration{
		ID:           uuid.New().String(),
		EventID:      eventID,
		AccountID:    accountID,
		Status:       model.StatusConfirmed,
		RegisteredAt: time.Now().UTC(),
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO registrations (id, event_id, account_id, status, registered_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		reg.ID, reg.EventID, reg.AccountID, reg.Status, reg.RegisteredAt,
	)
	if err != nil {
		// The UNIQUE(event_id, account_id) constraint is a backstop; the
		// locked duplicate check above should have caught this already.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			err = ErrDuplicateRegistration
			return nil, err
		}
		return nil, fmt.Errorf("insert registration: %w", err)
	}

	// Step 5: increment the counter in the same transaction.
	_, err = tx.Exec(ctx,
		`UPDATE events SET current_count = current_count + 1, updated_at = now() WHERE id = $1`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("increment current_count: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return reg, nil
}

func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == lockNotAvailable
}

// IsRegistered reports whether the account holds a confirmed or attended
// registration for the event.
func (r *RegistrationRepository) IsRegistered(ctx context.Context, eventID, accountID string) (bool, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations
		 WHERE event_id = $1 AND account_id = $2 AND status IN ('confirmed', 'attended')`,
		eventID, accountID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check registration: %w", err)
	}
	return n > 0, nil
}

// ListByEvent returns all registrations for a given event, oldest first.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, event_id, account_id, status, registered_at
		 FROM registrations
		 WHERE event_id = $1
		 ORDER BY registered_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.AccountID, &reg.Status, &reg.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

// CountConfirmed returns the number of confirmed registrations across all events.
func (r *RegistrationRepository) CountConfirmed(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE status = 'confirmed'`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return n, nil
}
