package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/base-collective/base-events/internal/model"
)

// ContentRepository handles the marketing-site tables: service catalogue,
// testimonials, contact submissions, and newsletter subscriptions.
type ContentRepository struct {
	db *pgxpool.Pool
}

// NewContentRepository constructs a ContentRepository.
func NewContentRepository(db *pgxpool.Pool) *ContentRepository {
	return &ContentRepository{db: db}
}

// ListServices returns all active catalogue entries in display order.
func (r *ContentRepository) ListServices(ctx context.Context) ([]model.Service, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, slug, description, icon, features, price_from
		 FROM services
		 WHERE is_active = TRUE
		 ORDER BY display_order ASC`)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		var (
			s                 model.Service
			description, icon *string
		)
		if err := rows.Scan(&s.ID, &s.Title, &s.Slug, &description, &icon, &s.Features, &s.PriceFrom); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		setIfPresent(&s.Description, description)
		setIfPresent(&s.Icon, icon)
		services = append(services, s)
	}
	return services, rows.Err()
}

// ListTestimonials returns up to ten approved testimonials, featured first.
func (r *ContentRepository) ListTestimonials(ctx context.Context) ([]model.Testimonial, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, author_name, author_title, author_company, content, rating
		 FROM testimonials
		 WHERE is_approved = TRUE
		 ORDER BY is_featured DESC, created_at DESC
		 LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	defer rows.Close()

	var testimonials []model.Testimonial
	for rows.Next() {
		var (
			tm          model.Testimonial
			title, corp *string
		)
		if err := rows.Scan(&tm.ID, &tm.AuthorName, &title, &corp, &tm.Content, &tm.Rating); err != nil {
			return nil, fmt.Errorf("scan testimonial: %w", err)
		}
		setIfPresent(&tm.AuthorTitle, title)
		setIfPresent(&tm.AuthorCompany, corp)
		testimonials = append(testimonials, tm)
	}
	return testimonials, rows.Err()
}

// CreateContactSubmission stores a contact-form message.
func (r *ContentRepository) CreateContactSubmission(ctx context.Context, sub model.ContactSubmission) error {
	var phone, subject, ip *string
	if sub.Phone != "" {
		phone = &sub.Phone
	}
	if sub.Subject != "" {
		subject = &sub.Subject
	}
	if sub.IPAddress != "" {
		ip = &sub.IPAddress
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO contact_submissions (name, email, phone, subject, message, ip_address)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sub.Name, sub.Email, phone, subject, sub.Message, ip,
	)
	if err != nil {
		return fmt.Errorf("insert contact submission: %w", err)
	}
	return nil
}

// SubscribeNewsletter upserts a subscription; a previously unsubscribed
// address is reactivated.
func (r *ContentRepository) SubscribeNewsletter(ctx context.Context, email, name string) error {
	var namePtr *string
	if name != "" {
		namePtr = &name
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO newsletter_subscribers (email, name)
		 VALUES ($1, $2)
		 ON CONFLICT (email)
		 DO UPDATE SET is_active = TRUE, unsubscribed_at = NULL,
		               name = COALESCE($2, newsletter_subscribers.name)`,
		email, namePtr,
	)
	if err != nil {
		return fmt.Errorf("subscribe newsletter: %w", err)
	}
	return nil
}

// CountUnreadContacts returns the number of unread contact submissions.
func (r *ContentRepository) CountUnreadContacts(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM contact_submissions WHERE is_read = FALSE`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread contacts: %w", err)
	}
	return n, nil
}
