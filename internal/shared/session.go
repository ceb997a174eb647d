package shared

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SessionManager orchestrates cookie based sessions on top of a SessionStore.
type SessionManager struct {
	store      SessionStore
	cookieName string
	ttl        time.Duration
	secure     bool
	secret     []byte
}

// Session holds per-request session data.
type Session struct {
	ID        string
	data      SessionData
	previous  string
	isNew     bool
	dirty     bool
	destroyed bool
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(store SessionStore, cookieName string, secret string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		store:      store,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		secret:     []byte(secret),
	}
}

// Load resolves the session referenced by the request cookie. Requests without
// a cookie, or with an unknown token, get a fresh anonymous session.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return sm.newSession(), nil
		}
		return nil, err
	}

	data, ok, err := sm.store.Get(ctx, cookie.Value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return sm.newSession(), nil
	}
	return &Session{ID: cookie.Value, data: data}, nil
}

// Commit persists the session and writes cookie headers as needed. Anonymous
// sessions are never stored.
func (sm *SessionManager) Commit(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess == nil {
		return nil
	}

	if sess.destroyed {
		if !sess.isNew {
			if err := sm.store.Destroy(ctx, sess.ID); err != nil {
				return err
			}
		}
		if sess.previous != "" {
			if err := sm.store.Destroy(ctx, sess.previous); err != nil {
				return err
			}
		}
		sm.expireCookie(w)
		return nil
	}

	if sess.previous != "" {
		if err := sm.store.Destroy(ctx, sess.previous); err != nil {
			return err
		}
		sess.previous = ""
	}

	if !sess.dirty || !sess.data.Authenticated() {
		return nil
	}
	if err := sm.store.Set(ctx, sess.ID, sess.data, sm.ttl); err != nil {
		return err
	}
	sess.dirty = false
	sess.isNew = false

	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sm.ttl.Seconds()),
		Expires:  time.Now().Add(sm.ttl),
	})
	return nil
}

// Destroy marks the session for deletion. Calling it on an anonymous or already
// destroyed session is a no-op apart from clearing the cookie.
func (sm *SessionManager) Destroy(sess *Session) {
	if sess == nil {
		return
	}
	sess.destroyed = true
	sess.data = SessionData{}
}

// Renew issues a new session ID for sess, dropping the old token on commit.
// Used on login to avoid session fixation.
func (sm *SessionManager) Renew(sess *Session) {
	if sess == nil {
		return
	}
	if !sess.isNew {
		sess.previous = sess.ID
	}
	sess.ID = sm.generateSessionID()
	sess.isNew = true
	sess.dirty = true
}

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// CookieName returns the cookie identifier used for sessions.
func (sm *SessionManager) CookieName() string {
	return sm.cookieName
}

// SetUser associates the session with an authenticated user.
func (s *Session) SetUser(data SessionData) {
	s.data = data
	s.dirty = true
	s.destroyed = false
}

// SetRole updates the cached role of the session user.
func (s *Session) SetRole(role string) {
	if s.data.Role == role {
		return
	}
	s.data.Role = role
	s.dirty = true
}

// Data returns a copy of the stored session values.
func (s *Session) Data() SessionData {
	if s == nil {
		return SessionData{}
	}
	return s.data
}

// User returns the current user ID, or zero for anonymous sessions.
func (s *Session) User() int64 {
	if s == nil {
		return 0
	}
	return s.data.UserID
}

// Authenticated reports whether a user is logged in on this session.
func (s *Session) Authenticated() bool {
	return s != nil && !s.destroyed && s.data.Authenticated()
}

func (sm *SessionManager) newSession() *Session {
	return &Session{
		ID:    sm.generateSessionID(),
		isNew: true,
	}
}

func (sm *SessionManager) expireCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (sm *SessionManager) generateSessionID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return base64.RawURLEncoding.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))
		}
		return base64.RawURLEncoding.EncodeToString(b)
	}
	if len(sm.secret) == 0 {
		return id.String()
	}
	mac := hmac.New(sha256.New, sm.secret)
	_, _ = mac.Write(id[:])
	return id.String() + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil)[:12])
}
