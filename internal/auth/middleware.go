package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kedai-dimesem/storefront/internal/platform/httpx"
	"github.com/kedai-dimesem/storefront/internal/shared"
)

// RoleResolver looks up the authoritative role of a user.
type RoleResolver interface {
	Role(ctx context.Context, userID int64) (string, error)
}

// Guard provides route guards backed by the request session.
type Guard struct {
	Roles  RoleResolver
	Logger *slog.Logger
}

// RequireAuthenticated rejects requests without a logged-in session with 401.
func (g Guard) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := shared.CurrentUser(r.Context()); !ok {
			httpx.Error(w, http.StatusUnauthorized, "unauthorized: please log in first")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireFreshRole behaves like RequireAuthenticated and also refreshes the
// cached session role from the database, for routes that grant admins more
// than regular users.
func (g Guard) RequireFreshRole(next http.Handler) http.Handler {
	return g.RequireAuthenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.refreshRole(w, r) {
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// RequireAdmin rejects anonymous requests with 401 and non-admin sessions with
// 403. The role is re-read on every request so promotions apply to live
// sessions; the cached session role is refreshed accordingly.
func (g Guard) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if !sess.Authenticated() {
			httpx.Error(w, http.StatusUnauthorized, "unauthorized: please log in first")
			return
		}
		if !g.refreshRole(w, r) {
			return
		}
		if sess.Data().Role != shared.RoleAdmin {
			httpx.Error(w, http.StatusForbidden, "forbidden: admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// refreshRole re-reads the role of the session user and stores it on the
// session. It writes an error response and returns false on failure.
func (g Guard) refreshRole(w http.ResponseWriter, r *http.Request) bool {
	sess := shared.SessionFromContext(r.Context())
	if g.Roles == nil || sess == nil {
		return true
	}
	current, err := g.Roles.Role(r.Context(), sess.User())
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Error(w, http.StatusUnauthorized, "unauthorized: account no longer exists")
		return false
	case err != nil:
		if g.Logger != nil {
			g.Logger.Error("resolve role", slog.Int64("user_id", sess.User()), slog.Any("error", err))
		}
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
		return false
	}
	sess.SetRole(current)
	return true
}
