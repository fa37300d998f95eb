package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "tlgsite/internal/errors"
	"tlgsite/internal/model"
	"tlgsite/internal/pocketbase"
)

const (
	// RefreshInterval is how long a restored token is trusted before asking the backend again.
	RefreshInterval = 5 * time.Minute
	// oauthStateTTL bounds how long a started OAuth login can be completed.
	oauthStateTTL = 10 * time.Minute
)

var (
	// ErrInvalidOAuthState is returned when the callback does not match the login that was started.
	ErrInvalidOAuthState = errors.New("invalid oauth state")
	// ErrStaffCheckRequired is returned when OAuth login is attempted before the staff password check.
	ErrStaffCheckRequired = errors.New("staff password check required")
	// ErrSessionNotSaved is returned when a login succeeded upstream but could not be stored,
	// so the next request would be anonymous again.
	ErrSessionNotSaved = errors.New("session could not be saved")
)

// Manager opens session mirrors and runs the login flows against the backend.
type Manager struct {
	handle pocketbase.Handle
	store  SessionStore
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(handle pocketbase.Handle, store SessionStore, ttl time.Duration) *Manager {
	return &Manager{
		handle: handle,
		store:  store,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Open loads the mirror of sessionID. Unknown sessions start empty.
func (mg *Manager) Open(ctx context.Context, sessionID string) (*Mirror, error) {
	data, err := mg.store.Load(ctx, sessionID)
	if err != nil {
		return newMirror(sessionID, mg.store, mg.ttl, mg.handle.FileURL, nil), err
	}
	return newMirror(sessionID, mg.store, mg.ttl, mg.handle.FileURL, data), nil
}

// Restore revalidates a persisted token. Expired tokens and tokens the backend refuses are
// cleared from memory and from the store. Without a backend nothing is kept in memory.
func (mg *Manager) Restore(ctx context.Context, m *Mirror) error {
	token := m.Token()
	if token == "" {
		return nil
	}

	client, ok := mg.handle.Client()
	if !ok {
		m.forget()
		return nil
	}

	now := mg.now()
	if !pocketbase.TokenValid(token, now) {
		return m.Clear(ctx)
	}
	if now.Sub(m.refreshedAt()) < RefreshInterval {
		return nil
	}

	res, err := client.AuthRefresh(ctx, model.CollectionUsers, token)
	if err != nil {
		if clearErr := m.Clear(ctx); clearErr != nil {
			return clearErr
		}
		return fmt.Errorf("refresh session: %w", err)
	}
	return m.Set(ctx, res.Token, res.Record)
}

// LoginWithPassword signs the session in. Backend failures are returned as is so their
// message can be shown to the user.
func (mg *Manager) LoginWithPassword(ctx context.Context, m *Mirror, email, password string) (*model.User, error) {
	client, ok := mg.handle.Client()
	if !ok {
		return nil, apperrors.ErrUnavailable
	}
	res, err := client.AuthWithPassword(ctx, model.CollectionUsers, strings.TrimSpace(email), password)
	if err != nil {
		return nil, err
	}
	if err := mg.keep(ctx, m, res); err != nil {
		return nil, err
	}
	return m.User(), nil
}

// Logout clears the session.
func (mg *Manager) Logout(ctx context.Context, m *Mirror) error {
	return m.Clear(ctx)
}

// BeginOAuth starts a federated login and returns the provider URL to send the browser to.
// The staff password check must have passed in this session first.
func (mg *Manager) BeginOAuth(ctx context.Context, m *Mirror, provider, redirectURL, next string) (string, error) {
	if !m.StaffVerified() {
		return "", ErrStaffCheckRequired
	}
	client, ok := mg.handle.Client()
	if !ok {
		return "", apperrors.ErrUnavailable
	}

	methods, err := client.ListAuthMethods(ctx, model.CollectionUsers)
	if err != nil {
		return "", err
	}
	p, ok := methods.Provider(provider)
	if !ok || !methods.OAuth2.Enabled {
		return "", fmt.Errorf("oauth provider %q: %w", provider, apperrors.ErrNotFound)
	}

	pending := &PendingOAuth{
		Provider:     p.Name,
		State:        p.State,
		CodeVerifier: p.CodeVerifier,
		Next:         next,
		StartedAt:    mg.now(),
	}
	if err := m.setPendingOAuth(ctx, pending); err != nil {
		return "", err
	}
	return p.AuthorizationURL(redirectURL), nil
}

// CompleteOAuth finishes the login started by BeginOAuth. It returns the signed-in user and
// the page the login was started from.
func (mg *Manager) CompleteOAuth(ctx context.Context, m *Mirror, state, code, redirectURL string) (*model.User, string, error) {
	pending, err := m.takePendingOAuth(ctx)
	if err != nil {
		return nil, "", err
	}
	if pending == nil || state == "" || pending.State != state || mg.now().Sub(pending.StartedAt) > oauthStateTTL {
		return nil, "", ErrInvalidOAuthState
	}

	client, ok := mg.handle.Client()
	if !ok {
		return nil, "", apperrors.ErrUnavailable
	}
	res, err := client.AuthWithOAuth2Code(ctx, model.CollectionUsers, pending.Provider, code, pending.CodeVerifier, redirectURL)
	if err != nil {
		return nil, "", err
	}
	if err := mg.keep(ctx, m, res); err != nil {
		return nil, "", err
	}
	return m.User(), pending.Next, nil
}

// AuthMethods lists the sign-in methods of the users collection.
func (mg *Manager) AuthMethods(ctx context.Context) (*pocketbase.AuthMethods, error) {
	client, ok := mg.handle.Client()
	if !ok {
		return nil, apperrors.ErrUnavailable
	}
	return client.ListAuthMethods(ctx, model.CollectionUsers)
}

// keep stores a fresh login in the session. If it cannot be persisted the mirror is signed
// out again rather than left authenticated for this request only.
func (mg *Manager) keep(ctx context.Context, m *Mirror, res *pocketbase.AuthResponse) error {
	if err := m.Set(ctx, res.Token, res.Record); err != nil {
		m.forget()
		return fmt.Errorf("%w: %v", ErrSessionNotSaved, err)
	}
	return nil
}
