package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/base-collective/base-events/internal/model"
)

// ContentStore is the persistence surface for the marketing-site content.
type ContentStore interface {
	ListServices(ctx context.Context) ([]model.Service, error)
	ListTestimonials(ctx context.Context) ([]model.Testimonial, error)
	CreateContactSubmission(ctx context.Context, sub model.ContactSubmission) error
	SubscribeNewsletter(ctx context.Context, email, name string) error
	CountUnreadContacts(ctx context.Context) (int, error)
}

// StatsSources are the counters the admin dashboard aggregates.
type StatsSources struct {
	Accounts      interface{ Count(ctx context.Context) (int, error) }
	Events        interface{ CountActive(ctx context.Context) (int, error) }
	Registrations interface{ CountConfirmed(ctx context.Context) (int, error) }
}

// ContentService serves the catalogue, testimonials, contact form,
// newsletter, and admin dashboard.
type ContentService struct {
	content ContentStore
	stats   StatsSources
}

// NewContentService constructs a ContentService.
func NewContentService(content ContentStore, stats StatsSources) *ContentService {
	return &ContentService{content: content, stats: stats}
}

// Services returns the active service catalogue.
func (s *ContentService) Services(ctx context.Context) ([]model.Service, error) {
	services, err := s.content.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	if services == nil {
		services = []model.Service{}
	}
	return services, nil
}

// Testimonials returns the approved testimonials.
func (s *ContentService) Testimonials(ctx context.Context) ([]model.Testimonial, error) {
	testimonials, err := s.content.ListTestimonials(ctx)
	if err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	if testimonials == nil {
		testimonials = []model.Testimonial{}
	}
	return testimonials, nil
}

// SubmitContact validates and stores a contact-form message.
func (s *ContentService) SubmitContact(ctx context.Context, sub model.ContactSubmission) error {
	sub.Name = strings.TrimSpace(sub.Name)
	sub.Message = strings.TrimSpace(sub.Message)
	sub.Email = normalizeEmail(sub.Email)

	if len(sub.Name) < 2 || len(sub.Name) > 255 {
		return fmt.Errorf("name must be between 2 and 255 characters")
	}
	if !isValidEmail(sub.Email) {
		return fmt.Errorf("a valid email is required")
	}
	if len(sub.Message) < 10 || len(sub.Message) > 5000 {
		return fmt.Errorf("message must be between 10 and 5000 characters")
	}
	if len(sub.Subject) > 255 {
		return fmt.Errorf("subject cannot exceed 255 characters")
	}

	if err := s.content.CreateContactSubmission(ctx, sub); err != nil {
		return fmt.Errorf("store contact submission: %w", err)
	}
	return nil
}

// Subscribe adds or reactivates a newsletter subscription.
func (s *ContentService) Subscribe(ctx context.Context, req model.NewsletterRequest) error {
	email := normalizeEmail(req.Email)
	if !isValidEmail(email) {
		return fmt.Errorf("a valid email is required")
	}
	if err := s.content.SubscribeNewsletter(ctx, email, strings.TrimSpace(req.Name)); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

// Dashboard aggregates the admin counters.
func (s *ContentService) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	accounts, err := s.stats.Accounts.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count accounts: %w", err)
	}
	events, err := s.stats.Events.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	registrations, err := s.stats.Registrations.CountConfirmed(ctx)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	unread, err := s.content.CountUnreadContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count unread contacts: %w", err)
	}
	return &model.DashboardStats{
		TotalAccounts:      accounts,
		ActiveEvents:       events,
		TotalRegistrations: registrations,
		UnreadContacts:     unread,
	}, nil
}
