package auth

import (
	"context"
	"sync"
	"time"

	"tlgsite/internal/model"
	"tlgsite/internal/pocketbase"
)

// State is a snapshot of a mirror.
type State struct {
	Token string
	User  *model.User
}

// Mirror is the local copy of one browser session's backend auth state. It is the single
// source of truth for everything rendered for that session: views read it and listeners
// registered with OnChange are told synchronously about every change.
type Mirror struct {
	id      string
	store   SessionStore
	ttl     time.Duration
	fileURL model.FileURLFunc

	mu        sync.RWMutex
	data      SessionData
	user      *model.User
	listeners map[int]func(State)
	nextID    int
}

func newMirror(id string, store SessionStore, ttl time.Duration, fileURL model.FileURLFunc, data *SessionData) *Mirror {
	m := &Mirror{
		id:        id,
		store:     store,
		ttl:       ttl,
		fileURL:   fileURL,
		listeners: make(map[int]func(State)),
	}
	if data != nil {
		m.data = *data
		m.user = model.UserFromRecord(data.Record, fileURL)
	}
	return m
}

// ID is the session id the mirror belongs to.
func (m *Mirror) ID() string {
	return m.id
}

func (m *Mirror) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return State{Token: m.data.Token, User: m.user}
}

// User is the signed-in user, or nil.
func (m *Mirror) User() *model.User {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

func (m *Mirror) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.Token
}

// IsValid reports whether the mirror holds a user and an unexpired token.
func (m *Mirror) IsValid(now time.Time) bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil && pocketbase.TokenValid(m.data.Token, now)
}

// Context returns ctx authenticated as the mirror's user, when there is one.
func (m *Mirror) Context(ctx context.Context) context.Context {
	if m == nil {
		return ctx
	}
	return pocketbase.WithToken(ctx, m.Token())
}

// OnChange registers fn to be called after every Set or Clear. Call the returned func to stop.
func (m *Mirror) OnChange(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// Set replaces the auth state with token and record and persists it.
func (m *Mirror) Set(ctx context.Context, token string, record pocketbase.Record) error {
	m.mu.Lock()
	m.data.Token = token
	m.data.Record = record
	m.data.RefreshedAt = time.Now()
	m.user = model.UserFromRecord(record, m.fileURL)
	snapshot := m.data
	m.mu.Unlock()

	err := m.store.Save(ctx, m.id, &snapshot, m.ttl)
	m.notify()
	return err
}

// Clear drops the auth state from memory and from the store.
func (m *Mirror) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.data = SessionData{}
	m.user = nil
	m.mu.Unlock()

	err := m.store.Delete(ctx, m.id)
	m.notify()
	return err
}

// forget drops the in-memory state only. Used when the backend is unavailable and nothing
// can be verified, without destroying the persisted session.
func (m *Mirror) forget() {
	m.mu.Lock()
	changed := m.user != nil || m.data.Token != ""
	m.data.Token = ""
	m.data.Record = nil
	m.user = nil
	m.mu.Unlock()
	if changed {
		m.notify()
	}
}

func (m *Mirror) refreshedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.RefreshedAt
}

// StaffVerified reports whether the staff password check passed in this session.
func (m *Mirror) StaffVerified() bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.StaffVerified
}

// MarkStaffVerified records a successful staff password check.
func (m *Mirror) MarkStaffVerified(ctx context.Context) error {
	return m.update(ctx, func(d *SessionData) { d.StaffVerified = true })
}

func (m *Mirror) setPendingOAuth(ctx context.Context, p *PendingOAuth) error {
	return m.update(ctx, func(d *SessionData) { d.OAuth = p })
}

// takePendingOAuth returns and removes the pending OAuth login, if any.
func (m *Mirror) takePendingOAuth(ctx context.Context) (*PendingOAuth, error) {
	var pending *PendingOAuth
	err := m.update(ctx, func(d *SessionData) {
		pending = d.OAuth
		d.OAuth = nil
	})
	return pending, err
}

func (m *Mirror) update(ctx context.Context, fn func(*SessionData)) error {
	m.mu.Lock()
	fn(&m.data)
	snapshot := m.data
	m.mu.Unlock()
	return m.store.Save(ctx, m.id, &snapshot, m.ttl)
}

func (m *Mirror) notify() {
	m.mu.RLock()
	state := State{Token: m.data.Token, User: m.user}
	fns := make([]func(State), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.RUnlock()

	for _, fn := range fns {
		fn(state)
	}
}
