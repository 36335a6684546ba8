package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/base-collective/base-events/internal/model"
	"github.com/base-collective/base-events/internal/ratelimit"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth    *AuthHandler
	Events  *EventHandler
	Content *ContentHandler

	AuthMW       *AuthMiddleware
	LoginLimit   *ratelimit.Limiter
	ContactLimit *ratelimit.Limiter
}

// NewRouter builds the chi router with the full middleware stack.
func NewRouter(h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger)
	r.Use(chimiddleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", HealthCheck)
		r.Get("/config", h.Content.SiteConfig)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.With(h.LoginLimit.Middleware).Post("/login", h.Auth.Login)
			r.With(h.AuthMW.Authenticate).Get("/me", h.Auth.Me)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.Events.List)
			r.Get("/featured", h.Events.Featured)
			r.With(h.AuthMW.Optional).Get("/{slug}", h.Events.GetBySlug)

			r.Group(func(r chi.Router) {
				r.Use(h.AuthMW.Authenticate)
				r.With(RequireRole(model.RoleAdmin, model.RoleOrganizer)).Post("/", h.Events.Create)
				r.Post("/{id}/register", h.Events.Register)
				r.With(RequireRole(model.RoleAdmin, model.RoleOrganizer)).Get("/{id}/registrations", h.Events.ListRegistrations)
			})
		})

		r.Get("/services", h.Content.Services)
		r.Get("/testimonials", h.Content.Testimonials)
		r.With(h.ContactLimit.Middleware).Post("/contact", h.Content.Contact)
		r.Post("/newsletter/subscribe", h.Content.Newsletter)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.AuthMW.Authenticate)
			r.Use(RequireRole(model.RoleAdmin))
			r.Get("/dashboard", h.Content.Dashboard)
		})
	})

	return r
}
