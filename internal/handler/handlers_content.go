package handler

import (
	"net"
	"net/http"

	"github.com/base-collective/base-events/internal/config"
	"github.com/base-collective/base-events/internal/model"
	"github.com/base-collective/base-events/internal/service"
)

// ContentHandler holds the HTTP handlers for the marketing-site surface.
type ContentHandler struct {
	svc        *service.ContentService
	cfg        config.Config
	production bool
}

// NewContentHandler constructs a ContentHandler.
func NewContentHandler(svc *service.ContentService, cfg config.Config) *ContentHandler {
	return &ContentHandler{svc: svc, cfg: cfg, production: cfg.IsProduction()}
}

// HealthCheck handles GET /api/health.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SiteConfig handles GET /api/config.
func (h *ContentHandler) SiteConfig(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]any{
		"domain": h.cfg.DomainURL,
		"social": map[string]string{
			"facebook":  h.cfg.Social.Facebook,
			"instagram": h.cfg.Social.Instagram,
			"linkedin":  h.cfg.Social.LinkedIn,
			"twitter":   h.cfg.Social.Twitter,
		},
	})
}

// Services handles GET /api/services.
func (h *ContentHandler) Services(w http.ResponseWriter, r *http.Request) {
	services, err := h.svc.Services(r.Context())
	if err != nil {
		writeInternal(w, r, h.production, "Failed to fetch services", err)
		return
	}
	writeData(w, http.StatusOK, services)
}

// Testimonials handles GET /api/testimonials.
func (h *ContentHandler) Testimonials(w http.ResponseWriter, r *http.Request) {
	testimonials, err := h.svc.Testimonials(r.Context())
	if err != nil {
		writeInternal(w, r, h.production, "Failed to fetch testimonials", err)
		return
	}
	writeData(w, http.StatusOK, testimonials)
}

// Contact handles POST /api/contact.
func (h *ContentHandler) Contact(w http.ResponseWriter, r *http.Request) {
	var sub model.ContactSubmission
	if err := decodeJSON(r, &sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		sub.IPAddress = host
	}

	if err := h.svc.SubmitContact(r.Context(), sub); err != nil {
		if isInternal(err) {
			writeInternal(w, r, h.production, "Failed to submit message", err)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeMessage(w, http.StatusOK, "Thank you for your message. We will get back to you soon!")
}

// Newsletter handles POST /api/newsletter/subscribe.
func (h *ContentHandler) Newsletter(w http.ResponseWriter, r *http.Request) {
	var req model.NewsletterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.svc.Subscribe(r.Context(), req); err != nil {
		if isInternal(err) {
			writeInternal(w, r, h.production, "Failed to subscribe", err)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeMessage(w, http.StatusOK, "Successfully subscribed to newsletter!")
}

// Dashboard handles GET /api/admin/dashboard (admin only).
func (h *ContentHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Dashboard(r.Context())
	if err != nil {
		writeInternal(w, r, h.production, "Failed to fetch dashboard data", err)
		return
	}
	writeData(w, http.StatusOK, stats)
}
