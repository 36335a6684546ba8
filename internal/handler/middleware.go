package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/base-collective/base-events/internal/auth"
	"github.com/base-collective/base-events/internal/model"
	"github.com/base-collective/base-events/internal/repository"
)

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	AccountID string
	Email     string
	Role      model.Role
}

type ctxKey int

const identityKey ctxKey = 0

// IdentityFrom returns the identity attached by Authenticate or Optional.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// TokenVerifier validates a bearer token into claims.
type TokenVerifier interface {
	Verify(raw string) (auth.Claims, error)
}

// AccountResolver resolves a token subject to a live account.
type AccountResolver interface {
	GetByID(ctx context.Context, id string) (*model.Account, error)
}

// AuthMiddleware resolves bearer tokens into request identities.
type AuthMiddleware struct {
	tokens   TokenVerifier
	accounts AccountResolver
	nowFn    func() time.Time
}

// NewAuthMiddleware constructs an AuthMiddleware.
func NewAuthMiddleware(tokens TokenVerifier, accounts AccountResolver) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, accounts: accounts, nowFn: time.Now}
}

// authFailure describes why a request could not be authenticated.
type authFailure struct {
	status  int
	message string
}

// resolve runs the shared authentication pipeline: extract the bearer
// token, verify it, resolve the subject to an account, and re-check the
// lockout state. Tokens outlive a lock, so this per-request check is what
// bounds the exposure of an already-issued token on a locked account.
func (m *AuthMiddleware) resolve(r *http.Request) (Identity, *authFailure) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if header == "" || !strings.HasPrefix(header, prefix) {
		return Identity{}, &authFailure{http.StatusUnauthorized, "Authentication required"}
	}

	claims, err := m.tokens.Verify(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return Identity{}, &authFailure{http.StatusUnauthorized, "Invalid or expired token"}
	}

	account, err := m.accounts.GetByID(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Identity{}, &authFailure{http.StatusUnauthorized, "Account not found"}
		}
		return Identity{}, &authFailure{http.StatusInternalServerError, "Authentication failed"}
	}

	if account.Locked(m.nowFn()) {
		return Identity{}, &authFailure{http.StatusForbidden, "Account is temporarily locked"}
	}

	return Identity{AccountID: account.ID, Email: account.Email, Role: account.Role}, nil
}

// Authenticate rejects requests without a valid, unlocked identity.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, failure := m.resolve(r)
		if failure != nil {
			writeError(w, failure.status, failure.message)
			return
		}
		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Optional attaches an identity when one can be resolved and proceeds
// anonymously otherwise. No failure in the pipeline surfaces to the client.
func (m *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity, failure := m.resolve(r); failure == nil {
			r = r.WithContext(context.WithValue(r.Context(), identityKey, identity))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole admits only identities whose role is in the given set.
// It must run after Authenticate.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	allowed := make(map[model.Role]struct{}, len(roles))
	for _, role := range roles {
		if !role.Valid() {
			panic("handler: RequireRole called with unknown role " + role.String())
		}
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if _, ok := allowed[identity.Role]; !ok {
				writeError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Logger is a structured access log over slog.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", chimiddleware.GetReqID(r.Context()),
			"remote", r.RemoteAddr,
		}
		switch {
		case ww.Status() >= 500:
			slog.ErrorContext(r.Context(), "http request", fields...)
		case ww.Status() >= 400:
			slog.WarnContext(r.Context(), "http request", fields...)
		default:
			slog.InfoContext(r.Context(), "http request", fields...)
		}
	})
}
