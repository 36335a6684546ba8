// Package model defines the core domain types for the BASE Events service.
package model

import "time"

// Role is the closed set of account roles. It is a first-class type so the
// authorization layer can check membership instead of comparing free-form
// strings.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleUser      Role = "user"
	RoleOrganizer Role = "organizer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleOrganizer:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Account represents a registered user of the service.
// FailedAttempts and LockedUntil carry the brute-force lockout state; both
// are mutated only by login outcomes.
type Account struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Phone          string     `json:"phone,omitempty"`
	Role           Role       `json:"role"`
	FailedAttempts int        `json:"-"`
	LockedUntil    *time.Time `json:"-"`
	LastLogin      *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"-"`
}

// Locked reports whether the account's lockout window is still open at now.
// An expired LockedUntil is ignored; the lock lapses lazily without a write.
func (a *Account) Locked(now time.Time) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(now)
}

// Summary returns the public projection of the account used in auth responses.
func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:        a.ID,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Role:      a.Role,
	}
}

// AccountSummary is the account projection returned alongside a token.
type AccountSummary struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}

// Event represents a bookable event. Capacity is nil for unbounded events;
// CurrentCount always equals the number of confirmed/attended registrations.
type Event struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	EventType    string    `json:"event_type"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Location     string    `json:"location"`
	City         string    `json:"city"`
	Country      string    `json:"country"`
	Capacity     *int      `json:"capacity"`
	CurrentCount int       `json:"current_count"`
	Price        float64   `json:"price"`
	Currency     string    `json:"currency"`
	ImageURL     string    `json:"image_url,omitempty"`
	IsFeatured   bool      `json:"is_featured"`
	IsPublished  bool      `json:"is_published"`
	OrganizerID  *string   `json:"organizer_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Remaining returns the number of open seats, or -1 for unbounded events.
func (e *Event) Remaining() int {
	if e.Capacity == nil {
		return -1
	}
	return *e.Capacity - e.CurrentCount
}

// RegistrationStatus is the lifecycle state of a registration.
type RegistrationStatus string

const (
	StatusPending   RegistrationStatus = "pending"
	StatusConfirmed RegistrationStatus = "confirmed"
	StatusCancelled RegistrationStatus = "cancelled"
	StatusAttended  RegistrationStatus = "attended"
)

// Registration links one account to one event. At most one registration
// exists per (event, account) pair.
type Registration struct {
	ID           string             `json:"id"`
	EventID      string             `json:"event_id"`
	AccountID    string             `json:"account_id"`
	Status       RegistrationStatus `json:"status"`
	RegisteredAt time.Time          `json:"registered_at"`
}

// Service is a catalogue entry on the marketing site.
type Service struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Features    []string `json:"features"`
	PriceFrom   *float64 `json:"price_from"`
}

// Testimonial is an approved customer quote.
type Testimonial struct {
	ID            int    `json:"id"`
	AuthorName    string `json:"author_name"`
	AuthorTitle   string `json:"author_title,omitempty"`
	AuthorCompany string `json:"author_company,omitempty"`
	Content       string `json:"content"`
	Rating        int    `json:"rating"`
}

// ContactSubmission is a contact-form message.
type ContactSubmission struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Message   string `json:"message"`
	IPAddress string `json:"-"`
}

// DashboardStats aggregates the admin dashboard counters.
type DashboardStats struct {
	TotalAccounts      int `json:"total_accounts"`
	ActiveEvents       int `json:"active_events"`
	TotalRegistrations int `json:"total_registrations"`
	UnreadContacts     int `json:"unread_contacts"`
}

// ─── Request payloads ─────────────────────────────────────────────────────────

// RegisterAccountRequest is the payload for POST /api/auth/register.
type RegisterAccountRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// LoginRequest is the payload for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned on successful registration or login.
type AuthResponse struct {
	Token   string         `json:"token"`
	Account AccountSummary `json:"account"`
}

// CreateEventRequest is the payload for POST /api/events.
type CreateEventRequest struct {
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	EventType   string    `json:"event_type"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Location    string    `json:"location"`
	City        string    `json:"city"`
	Country     string    `json:"country"`
	Capacity    *int      `json:"capacity"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
	ImageURL    string    `json:"image_url"`
	IsFeatured  bool      `json:"is_featured"`
	IsPublished bool      `json:"is_published"`
}

// EventFilter narrows the public event listing.
type EventFilter struct {
	Type  string
	City  string
	Page  int
	Limit int
}

// NewsletterRequest is the payload for POST /api/newsletter/subscribe.
type NewsletterRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}
