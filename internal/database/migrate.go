package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema DDL, applied in order by Migrate. Statements are idempotent so
// setup can be re-run safely against an existing database.
var schema = []struct {
	name string
	ddl  string
}{
	{"accounts", `
		CREATE TABLE IF NOT EXISTS accounts (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			first_name VARCHAR(100) NOT NULL,
			last_name VARCHAR(100) NOT NULL,
			phone VARCHAR(20),
			role VARCHAR(20) NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user', 'organizer')),
			failed_attempts INTEGER NOT NULL DEFAULT 0,
			locked_until TIMESTAMPTZ,
			last_login TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`},
	{"events", `
		CREATE TABLE IF NOT EXISTS events (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			title VARCHAR(255) NOT NULL,
			slug VARCHAR(255) UNIQUE NOT NULL,
			description TEXT,
			event_type VARCHAR(50) CHECK (event_type IN ('business', 'social', 'networking', 'conference', 'workshop', 'other')),
			start_date TIMESTAMPTZ NOT NULL,
			end_date TIMESTAMPTZ NOT NULL,
			location VARCHAR(500),
			city VARCHAR(100),
			country VARCHAR(100),
			capacity INTEGER,
			current_count INTEGER NOT NULL DEFAULT 0,
			price DECIMAL(10, 2) NOT NULL DEFAULT 0.00,
			currency VARCHAR(3) NOT NULL DEFAULT 'USD',
			image_url VARCHAR(500),
			is_featured BOOLEAN NOT NULL DEFAULT FALSE,
			is_published BOOLEAN NOT NULL DEFAULT FALSE,
			organizer_id UUID REFERENCES accounts(id) ON DELETE SET NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`},
	{"registrations", `
		CREATE TABLE IF NOT EXISTS registrations (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			status VARCHAR(20) NOT NULL DEFAULT 'confirmed' CHECK (status IN ('pending', 'confirmed', 'cancelled', 'attended')),
			registered_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE(event_id, account_id)
		)`},
	{"contact_submissions", `
		CREATE TABLE IF NOT EXISTS contact_submissions (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			phone VARCHAR(20),
			subject VARCHAR(255),
			message TEXT NOT NULL,
			ip_address INET,
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`},
	{"newsletter_subscribers", `
		CREATE TABLE IF NOT EXISTS newsletter_subscribers (
			id SERIAL PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			name VARCHAR(255),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			subscribed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			unsubscribed_at TIMESTAMPTZ
		)`},
	{"testimonials", `
		CREATE TABLE IF NOT EXISTS testimonials (
			id SERIAL PRIMARY KEY,
			author_name VARCHAR(255) NOT NULL,
			author_title VARCHAR(255),
			author_company VARCHAR(255),
			content TEXT NOT NULL,
			rating INTEGER CHECK (rating >= 1 AND rating <= 5),
			is_featured BOOLEAN NOT NULL DEFAULT FALSE,
			is_approved BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`},
	{"services", `
		CREATE TABLE IF NOT EXISTS services (
			id SERIAL PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			slug VARCHAR(255) UNIQUE NOT NULL,
			description TEXT,
			icon VARCHAR(100),
			features TEXT[],
			price_from DECIMAL(10, 2),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			display_order INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`},
	// One statement per entry: pgx's extended protocol rejects multi-statement Exec.
	{"idx_events_start_date", `CREATE INDEX IF NOT EXISTS idx_events_start_date ON events(start_date)`},
	{"idx_events_slug", `CREATE INDEX IF NOT EXISTS idx_events_slug ON events(slug)`},
	{"idx_accounts_email", `CREATE INDEX IF NOT EXISTS idx_accounts_email ON accounts(email)`},
	{"idx_registrations_event", `CREATE INDEX IF NOT EXISTS idx_registrations_event ON registrations(event_id)`},
}

// Migrate applies the schema to the connected database.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range schema {
		if _, err := pool.Exec(ctx, s.ddl); err != nil {
			return fmt.Errorf("apply schema %s: %w", s.name, err)
		}
		slog.Info("schema applied", "object", s.name)
	}
	return nil
}
