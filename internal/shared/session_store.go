package shared

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionData is the server-side state attached to a session token.
type SessionData struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	Name   string `json:"name"`
}

// Authenticated reports whether the data identifies a logged-in user.
func (d SessionData) Authenticated() bool {
	return d.UserID > 0
}

// SessionStore persists session data keyed by an opaque token.
type SessionStore interface {
	Get(ctx context.Context, token string) (SessionData, bool, error)
	Set(ctx context.Context, token string, data SessionData, ttl time.Duration) error
	Destroy(ctx context.Context, token string) error
}

// RedisSessionStore keeps sessions in Redis so several API instances can share them.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
}

// NewRedisSessionStore constructs a Redis backed store.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client, prefix: "session:"}
}

// Get loads the session data for token.
func (s *RedisSessionStore) Get(ctx context.Context, token string) (SessionData, bool, error) {
	payload, err := s.client.Get(ctx, s.prefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return SessionData{}, false, nil
		}
		return SessionData{}, false, err
	}
	var data SessionData
	if err := json.Unmarshal(payload, &data); err != nil {
		return SessionData{}, false, err
	}
	return data, true, nil
}

// Set stores data under token for ttl.
func (s *RedisSessionStore) Set(ctx context.Context, token string, data SessionData, ttl time.Duration) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+token, payload, ttl).Err()
}

// Destroy removes token. Missing tokens are not an error.
func (s *RedisSessionStore) Destroy(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.prefix+token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// MemorySessionStore keeps sessions in process memory. Suitable for a single
// instance and for tests.
type MemorySessionStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	data      SessionData
	expiresAt time.Time
}

// NewMemorySessionStore constructs an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get loads the session data for token, dropping it when expired.
func (s *MemorySessionStore) Get(_ context.Context, token string) (SessionData, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[token]
	if !ok {
		return SessionData{}, false, nil
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		delete(s.entries, token)
		return SessionData{}, false, nil
	}
	return entry.data, true, nil
}

// Set stores data under token for ttl. A zero ttl never expires.
func (s *MemorySessionStore) Set(_ context.Context, token string, data SessionData, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := memoryEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.entries[token] = entry
	return nil
}

// Destroy removes token.
func (s *MemorySessionStore) Destroy(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, token)
	return nil
}

var (
	_ SessionStore = (*RedisSessionStore)(nil)
	_ SessionStore = (*MemorySessionStore)(nil)
)
