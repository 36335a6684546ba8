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

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, title, slug, description, event_type, start_date, end_date,
	location, city, country, capacity, current_count, price, currency,
	image_url, is_featured, is_published, organizer_id, created_at`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var (
		e                       model.Event
		description, eventType  *string
		location, city, country *string
		imageURL                *string
	)
	err := row.Scan(&e.ID, &e.Title, &e.Slug, &description, &eventType,
		&e.StartDate, &e.EndDate, &location, &city, &country,
		&e.Capacity, &e.CurrentCount, &e.Price, &e.Currency,
		&imageURL, &e.IsFeatured, &e.IsPublished, &e.OrganizerID, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}
	setIfPresent(&e.Description, description)
	setIfPresent(&e.EventType, eventType)
	setIfPresent(&e.Location, location)
	setIfPresent(&e.City, city)
	setIfPresent(&e.Country, country)
	setIfPresent(&e.ImageURL, imageURL)
	return &e, nil
}

func setIfPresent(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// Create inserts a new event for the given organizer.
func (r *EventRepository) Create(ctx context.Context, req model.CreateEventRequest, organizerID string) (*model.Event, error) {
	event := &model.Event{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		EventType:   req.EventType,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Location:    req.Location,
		City:        req.City,
		Country:     req.Country,
		Capacity:    req.Capacity,
		Price:       req.Price,
		Currency:    req.Currency,
		ImageURL:    req.ImageURL,
		IsFeatured:  req.IsFeatured,
		IsPublished: req.IsPublished,
		OrganizerID: &organizerID,
		CreatedAt:   time.Now().UTC(),
	}
	if event.Currency == "" {
		event.Currency = "USD"
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, title, slug, description, event_type, start_date, end_date,
		                     location, city, country, capacity, price, currency, image_url,
		                     is_featured, is_published, organizer_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $18)`,
		event.ID, event.Title, event.Slug, event.Description, event.EventType,
		event.StartDate, event.EndDate, event.Location, event.City, event.Country,
		event.Capacity, event.Price, event.Currency, event.ImageURL,
		event.IsFeatured, event.IsPublished, organizerID, event.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return event, nil
}

// List returns published, not-yet-ended events matching the filter,
// featured first, soonest first.
func (r *EventRepository) List(ctx context.Context, filter model.EventFilter) ([]model.Event, int, error) {
	where := `WHERE is_published = TRUE AND end_date >= now()`
	args := []any{}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where += fmt.Sprintf(` AND event_type = $%d`, len(args))
	}
	if filter.City != "" {
		args = append(args, "%"+filter.City+"%")
		where += fmt.Sprintf(` AND city ILIKE $%d`, len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM events `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 12
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(`SELECT %s FROM events %s
		ORDER BY is_featured DESC, start_date ASC
		LIMIT $%d OFFSET $%d`, eventColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, *e)
	}
	return events, total, rows.Err()
}

// Featured returns up to six featured upcoming events.
func (r *EventRepository) Featured(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE is_published = TRUE AND is_featured = TRUE AND end_date >= now()
		 ORDER BY start_date ASC
		 LIMIT 6`)
	if err != nil {
		return nil, fmt.Errorf("list featured events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// GetBySlug returns a single published event or ErrNotFound.
func (r *EventRepository) GetBySlug(ctx context.Context, slug string) (*model.Event, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE slug = $1 AND is_published = TRUE`, slug)
	return scanEvent(row)
}

// GetByID returns a single event by public identifier or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	return scanEvent(row)
}

// CountActive returns the number of published events.
func (r *EventRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM events WHERE is_published = TRUE`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}
