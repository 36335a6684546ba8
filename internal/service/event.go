package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/base-collective/base-events/internal/model"
	"github.com/base-collective/base-events/internal/repository"
)

// EventStore is the persistence surface EventService needs for events.
type EventStore interface {
	Create(ctx context.Context, req model.CreateEventRequest, organizerID string) (*model.Event, error)
	List(ctx context.Context, filter model.EventFilter) ([]model.Event, int, error)
	Featured(ctx context.Context) ([]model.Event, error)
	GetBySlug(ctx context.Context, slug string) (*model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
}

// RegistrationStore is the persistence surface for reservations.
type RegistrationStore interface {
	Register(ctx context.Context, eventID, accountID string) (*model.Registration, error)
	IsRegistered(ctx context.Context, eventID, accountID string) (bool, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error)
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// EventService orchestrates event browsing, creation, and registration.
type EventService struct {
	events        EventStore
	registrations RegistrationStore
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(events EventStore, registrations RegistrationStore) *EventService {
	return &EventService{events: events, registrations: registrations}
}

// EventPage is a paginated event listing.
type EventPage struct {
	Events []model.Event `json:"events"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
	Total  int           `json:"total"`
	Pages  int           `json:"pages"`
}

// List returns published upcoming events matching the filter.
func (s *EventService) List(ctx context.Context, filter model.EventFilter) (*EventPage, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 12
	}
	events, total, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []model.Event{}
	}
	pages := (total + filter.Limit - 1) / filter.Limit
	return &EventPage{Events: events, Page: filter.Page, Limit: filter.Limit, Total: total, Pages: pages}, nil
}

// Featured returns the featured upcoming events.
func (s *EventService) Featured(ctx context.Context) ([]model.Event, error) {
	events, err := s.events.Featured(ctx)
	if err != nil {
		return nil, fmt.Errorf("list featured events: %w", err)
	}
	if events == nil {
		events = []model.Event{}
	}
	return events, nil
}

// EventDetail is a single event plus viewer-specific state. Registered is
// only meaningful when the request carried a valid identity.
type EventDetail struct {
	model.Event
	Registered bool `json:"registered"`
}

// GetBySlug returns a published event. When viewerID is non-empty the
// result also reports whether that account already holds a registration.
func (s *EventService) GetBySlug(ctx context.Context, slug, viewerID string) (*EventDetail, error) {
	event, err := s.events.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	detail := &EventDetail{Event: *event}
	if viewerID != "" {
		registered, err := s.registrations.IsRegistered(ctx, event.ID, viewerID)
		if err != nil {
			return nil, fmt.Errorf("check viewer registration: %w", err)
		}
		detail.Registered = registered
	}
	return detail, nil
}

// Create validates and stores a new event on behalf of organizerID.
func (s *EventService) Create(ctx context.Context, req model.CreateEventRequest, organizerID string) (*model.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Slug = strings.TrimSpace(strings.ToLower(req.Slug))

	if len(req.Title) < 3 || len(req.Title) > 255 {
		return nil, fmt.Errorf("title must be between 3 and 255 characters")
	}
	if !slugPattern.MatchString(req.Slug) {
		return nil, fmt.Errorf("slug must be lowercase letters, digits, and hyphens")
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return nil, fmt.Errorf("start_date and end_date are required")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, fmt.Errorf("end_date must not be before start_date")
	}
	if req.Capacity != nil && *req.Capacity <= 0 {
		return nil, fmt.Errorf("capacity must be a positive integer when set")
	}
	if req.Capacity != nil && *req.Capacity > 100_000 {
		return nil, fmt.Errorf("capacity cannot exceed 100,000")
	}

	event, err := s.events.Create(ctx, req, organizerID)
	if err != nil {
		if errors.Is(err, repository.ErrSlugTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

// Register delegates the concurrency-safe reservation to the repository and
// surfaces its domain errors unchanged so handlers can map status codes.
func (s *EventService) Register(ctx context.Context, eventID, accountID string) (*model.Registration, error) {
	if eventID == "" {
		return nil, fmt.Errorf("event id is required")
	}

	reg, err := s.registrations.Register(ctx, eventID, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) ||
			errors.Is(err, repository.ErrCapacityExceeded) ||
			errors.Is(err, repository.ErrDuplicateRegistration) ||
			errors.Is(err, repository.ErrBusy) {
			return nil, err
		}
		return nil, fmt.Errorf("register for event: %w", err)
	}
	return reg, nil
}

// ListRegistrations returns all registrations for an event.
func (s *EventService) ListRegistrations(ctx context.Context, eventID string) ([]model.Registration, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	regs, err := s.registrations.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	if regs == nil {
		regs = []model.Registration{}
	}
	return regs, nil
}
