package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/base-collective/base-events/internal/database"
)

// These tests exercise the row lock and the atomic counters against a real
// PostgreSQL instance. Point TEST_DATABASE_URL at a scratch database to run
// them; they are skipped otherwise.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.Migrate(ctx, pool))
	return pool
}

func seedAccount(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()
	id := uuid.New().String()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO accounts (id, email, password_hash, first_name, last_name, role)
		 VALUES ($1, $2, 'x', 'Test', 'Account', 'user')`,
		id, fmt.Sprintf("%s@example.com", id))
	require.NoError(t, err)
	return id
}

func seedEvent(t *testing.T, pool *pgxpool.Pool, capacity *int) string {
	t.Helper()
	id := uuid.New().String()
	start := time.Now().Add(24 * time.Hour)
	_, err := pool.Exec(context.Background(),
		`INSERT INTO events (id, title, slug, start_date, end_date, capacity, is_published)
		 VALUES ($1, 'Load Test Event', $2, $3, $4, $5, TRUE)`,
		id, "load-test-"+id[:8], start, start.Add(2*time.Hour), capacity)
	require.NoError(t, err)
	return id
}

func eventCount(t *testing.T, pool *pgxpool.Pool, eventID string) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(),
		`SELECT current_count FROM events WHERE id = $1`, eventID).Scan(&n))
	return n
}

func TestRegister_ConcurrentCapacityRace(t *testing.T) {
	pool := testPool(t)
	repo := NewRegistrationRepository(pool, 3*time.Second)

	const capacity = 5
	const contenders = 20

	limit := capacity
	eventID := seedEvent(t, pool, &limit)

	accounts := make([]string, contenders)
	for i := range accounts {
		accounts[i] = seedAccount(t, pool)
	}

	var wg sync.WaitGroup
	results := make(chan error, contenders)
	for _, accountID := range accounts {
		wg.Add(1)
		go func(accountID string) {
			defer wg.Done()
			_, err := repo.Register(context.Background(), eventID, accountID)
			results <- err
		}(accountID)
	}
	wg.Wait()
	close(results)

	var succeeded, full int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrCapacityExceeded):
			full++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, capacity, succeeded, "exactly capacity registrations may succeed")
	assert.Equal(t, contenders-capacity, full)
	assert.Equal(t, capacity, eventCount(t, pool, eventID), "counter matches confirmed rows")

	var rows int
	require.NoError(t, pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status = 'confirmed'`,
		eventID).Scan(&rows))
	assert.Equal(t, capacity, rows)
}

func TestRegister_ConcurrentDuplicates(t *testing.T) {
	pool := testPool(t)
	repo := NewRegistrationRepository(pool, 3*time.Second)

	eventID := seedEvent(t, pool, nil)
	accountID := seedAccount(t, pool)

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Register(context.Background(), eventID, accountID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, duplicate int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrDuplicateRegistration):
			duplicate++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded, "one registration per account and event")
	assert.Equal(t, attempts-1, duplicate)
	assert.Equal(t, 1, eventCount(t, pool, eventID))
}

func TestRegister_UnboundedCapacity(t *testing.T) {
	pool := testPool(t)
	repo := NewRegistrationRepository(pool, 3*time.Second)

	eventID := seedEvent(t, pool, nil)
	for i := 0; i < 3; i++ {
		_, err := repo.Register(context.Background(), eventID, seedAccount(t, pool))
		require.NoError(t, err)
	}
	assert.Equal(t, 3, eventCount(t, pool, eventID))
}

func TestRegister_UnknownEvent(t *testing.T) {
	pool := testPool(t)
	repo := NewRegistrationRepository(pool, 3*time.Second)

	_, err := repo.Register(context.Background(), uuid.New().String(), seedAccount(t, pool))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordLoginFailure_ConcurrentCounter(t *testing.T) {
	pool := testPool(t)
	repo := NewAccountRepository(pool)

	accountID := seedAccount(t, pool)
	var email string
	require.NoError(t, pool.QueryRow(context.Background(),
		`SELECT email FROM accounts WHERE id = $1`, accountID).Scan(&email))

	const failures = 10
	const threshold = 5

	var wg sync.WaitGroup
	for i := 0; i < failures; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := repo.RecordLoginFailure(context.Background(), email, threshold, 15*time.Minute)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	account, err := repo.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	assert.Equal(t, failures, account.FailedAttempts, "no increments lost under contention")
	require.NotNil(t, account.LockedUntil)
	assert.True(t, account.Locked(time.Now()))

	require.NoError(t, repo.ResetLoginState(context.Background(), email))
	account, err = repo.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	assert.Equal(t, 0, account.FailedAttempts)
	assert.Nil(t, account.LockedUntil)
	assert.False(t, account.Locked(time.Now()))
}
