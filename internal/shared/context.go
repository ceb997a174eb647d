package shared

import "context"

type sessionContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// CurrentUser returns the authenticated session data carried by ctx.
func CurrentUser(ctx context.Context) (SessionData, bool) {
	sess := SessionFromContext(ctx)
	if !sess.Authenticated() {
		return SessionData{}, false
	}
	return sess.Data(), true
}

// Roles known to the storefront.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// IsAdmin reports whether the session data carries the admin role.
func (d SessionData) IsAdmin() bool {
	return d.Role == RoleAdmin
}
