package handler

import (
	"errors"
	"net/http"

	"github.com/base-collective/base-events/internal/model"
	"github.com/base-collective/base-events/internal/repository"
	"github.com/base-collective/base-events/internal/service"
)

// AuthHandler holds the HTTP handlers for registration and login.
type AuthHandler struct {
	svc        *service.AuthService
	production bool
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(svc *service.AuthService, production bool) *AuthHandler {
	return &AuthHandler{svc: svc, production: production}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.svc.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailTaken):
			writeError(w, http.StatusBadRequest, "Email already registered")
		case isInternal(err):
			writeInternal(w, r, h.production, "Registration failed", err)
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeData(w, http.StatusCreated, resp)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.svc.Login(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, service.ErrAccountLocked):
			writeError(w, http.StatusForbidden, "Account temporarily locked. Try again later.")
		default:
			writeInternal(w, r, h.production, "Login failed", err)
		}
		return
	}

	writeData(w, http.StatusOK, resp)
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	account, err := h.svc.Me(r.Context(), identity.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "Account not found")
			return
		}
		writeInternal(w, r, h.production, "Failed to get account", err)
		return
	}

	writeData(w, http.StatusOK, account)
}

// isInternal distinguishes infrastructure failures from validation errors:
// anything that isn't a known domain sentinel but wraps a deeper cause is
// treated as internal.
func isInternal(err error) bool {
	return errors.Unwrap(err) != nil
}
