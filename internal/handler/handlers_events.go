package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/base-collective/base-events/internal/model"
	"github.com/base-collective/base-events/internal/repository"
	"github.com/base-collective/base-events/internal/service"
)

// EventHandler holds the HTTP handlers for the event API.
type EventHandler struct {
	svc        *service.EventService
	production bool
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc *service.EventService, production bool) *EventHandler {
	return &EventHandler{svc: svc, production: production}
}

// List handles GET /api/events.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.EventFilter{
		Type: q.Get("type"),
		City: q.Get("city"),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	page, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeInternal(w, r, h.production, "Failed to fetch events", err)
		return
	}
	writeData(w, http.StatusOK, page)
}

// Featured handles GET /api/events/featured.
func (h *EventHandler) Featured(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.Featured(r.Context())
	if err != nil {
		writeInternal(w, r, h.production, "Failed to fetch featured events", err)
		return
	}
	writeData(w, http.StatusOK, events)
}

// GetBySlug handles GET /api/events/{slug}. Under optional authentication
// the response also reports whether the viewer is registered.
func (h *EventHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	viewerID := ""
	if identity, ok := IdentityFrom(r.Context()); ok {
		viewerID = identity.AccountID
	}

	detail, err := h.svc.GetBySlug(r.Context(), slug, viewerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Event not found")
			return
		}
		writeInternal(w, r, h.production, "Failed to fetch event", err)
		return
	}
	writeData(w, http.StatusOK, detail)
}

// Create handles POST /api/events (admin or organizer only).
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req model.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.Create(r.Context(), req, identity.AccountID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSlugTaken):
			writeError(w, http.StatusBadRequest, "Event slug already in use")
		case isInternal(err):
			writeInternal(w, r, h.production, "Failed to create event", err)
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeData(w, http.StatusCreated, event)
}

// Register handles POST /api/events/{id}/register. The row lock and
// capacity check happen inside one repository transaction; this handler
// only maps outcomes to statuses.
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id := chi.URLParam(r, "id")

	_, err := h.svc.Register(r.Context(), id, identity.AccountID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "Event not found")
		case errors.Is(err, repository.ErrCapacityExceeded):
			writeError(w, http.StatusBadRequest, "Event is at full capacity")
		case errors.Is(err, repository.ErrDuplicateRegistration):
			writeError(w, http.StatusBadRequest, "Already registered for this event")
		case errors.Is(err, repository.ErrBusy):
			writeError(w, http.StatusServiceUnavailable, "Event is busy, please retry")
		default:
			writeInternal(w, r, h.production, "Registration failed", err)
		}
		return
	}
	writeMessage(w, http.StatusOK, "Successfully registered for event")
}

// ListRegistrations handles GET /api/events/{id}/registrations
// (admin or organizer only).
func (h *EventHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	regs, err := h.svc.ListRegistrations(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Event not found")
			return
		}
		writeInternal(w, r, h.production, "Failed to list registrations", err)
		return
	}
	writeData(w, http.StatusOK, regs)
}
