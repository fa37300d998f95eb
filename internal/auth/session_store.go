package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"tlgsite/internal/cache"
	"tlgsite/internal/pocketbase"
)

const sessionKeyPrefix = "session:"

// SessionData is what survives between requests of one browser session.
type SessionData struct {
	Token         string            `json:"token,omitempty"`
	Record        pocketbase.Record `json:"record,omitempty"`
	RefreshedAt   time.Time         `json:"refreshed_at,omitempty"`
	StaffVerified bool              `json:"staff_verified,omitempty"`
	OAuth         *PendingOAuth     `json:"oauth,omitempty"`
}

// PendingOAuth is an OAuth2 login started but not yet completed.
type PendingOAuth struct {
	Provider     string    `json:"provider"`
	State        string    `json:"state"`
	CodeVerifier string    `json:"code_verifier"`
	Next         string    `json:"next,omitempty"`
	StartedAt    time.Time `json:"started_at"`
}

// SessionStore persists SessionData by session id.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (*SessionData, error)
	Save(ctx context.Context, sessionID string, data *SessionData, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
}

// NewSessionStore picks the store for the server: redis when it answers, an in-process store
// otherwise. The ping error is returned for logging.
func NewSessionStore(ctx context.Context, c *cache.Client) (SessionStore, error) {
	if c == nil {
		return NewMemorySessionStore(), cache.ErrNoClient
	}
	if err := c.Ping(ctx); err != nil {
		return NewMemorySessionStore(), err
	}
	return NewRedisSessionStore(c), nil
}

// RedisSessionStore keeps sessions in redis. Reads fail safe (an unreachable redis makes the
// session look new) but writes report errors, so a login that cannot be kept is not reported
// as a success.
type RedisSessionStore struct {
	cache *cache.Client
}

// Ensure RedisSessionStore implements SessionStore
var _ SessionStore = (*RedisSessionStore)(nil)

func NewRedisSessionStore(cache *cache.Client) *RedisSessionStore {
	return &RedisSessionStore{cache: cache}
}

// Load returns nil, nil for an unknown session.
func (s *RedisSessionStore) Load(ctx context.Context, sessionID string) (*SessionData, error) {
	raw, err := s.cache.Get(ctx, sessionKeyPrefix+sessionID)
	if err != nil || raw == nil {
		return nil, nil
	}
	var data SessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshal session data: %w", err)
	}
	return &data, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, sessionID string, data *SessionData, ttl time.Duration) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal session data: %w", err)
	}
	if err := s.cache.Persist(ctx, sessionKeyPrefix+sessionID, payload, ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.cache.Delete(ctx, sessionKeyPrefix+sessionID)
}

// MemorySessionStore keeps sessions in process memory. Sessions are lost on restart and are
// not shared between instances.
type MemorySessionStore struct {
	mu   sync.Mutex
	data map[string]memorySession
	now  func() time.Time
}

type memorySession struct {
	data      SessionData
	expiresAt time.Time
}

var _ SessionStore = (*MemorySessionStore)(nil)

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{data: make(map[string]memorySession), now: time.Now}
}

// Load returns nil, nil for unknown and expired sessions.
func (s *MemorySessionStore) Load(_ context.Context, sessionID string) (*SessionData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.data[sessionID]
	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		delete(s.data, sessionID)
		return nil, nil
	}
	data := entry.data
	return &data, nil
}

// Save stores a copy of data. A zero ttl keeps it until deleted.
func (s *MemorySessionStore) Save(_ context.Context, sessionID string, data *SessionData, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := memorySession{data: *data}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.data[sessionID] = entry
	s.sweep()
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// sweep drops expired sessions. Callers hold s.mu.
func (s *MemorySessionStore) sweep() {
	now := s.now()
	for id, entry := range s.data {
		if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
			delete(s.data, id)
		}
	}
}
