// Package repository implements all database queries for the service.
// It uses pgx directly (no ORM) for transparency and performance.
package repository

import "errors"

// Sentinel errors returned by the repositories. Handlers map these to HTTP
// statuses with errors.Is; anything else is treated as an internal failure.
var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCapacityExceeded is returned when an event has no remaining capacity.
	ErrCapacityExceeded = errors.New("event is at full capacity")

	// ErrDuplicateRegistration is returned when an account registers twice
	// for the same event.
	ErrDuplicateRegistration = errors.New("already registered for this event")

	// ErrEmailTaken is returned when an account with the email already exists.
	ErrEmailTaken = errors.New("email already registered")

	// ErrSlugTaken is returned when an event with the slug already exists.
	ErrSlugTaken = errors.New("event slug already in use")

	// ErrBusy is returned when the event row lock could not be acquired
	// within the configured timeout. Callers may retry: the duplicate check
	// makes registration idempotent per (event, account).
	ErrBusy = errors.New("event is busy, retry")
)
