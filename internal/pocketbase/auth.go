package pocketbase

import (
	"context"
	"net/http"
	"net/url"
)

// AuthResponse is returned by every auth endpoint.
type AuthResponse struct {
	Token  string         `json:"token"`
	Record Record         `json:"record"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// AuthProvider describes one OAuth2 provider enabled on an auth collection.
type AuthProvider struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	State        string `json:"state"`
	AuthURL      string `json:"authURL"`
	CodeVerifier string `json:"codeVerifier"`
}

// AuthMethods lists the sign-in methods enabled on an auth collection.
type AuthMethods struct {
	Password struct {
		Enabled        bool     `json:"enabled"`
		IdentityFields []string `json:"identityFields"`
	} `json:"password"`
	OAuth2 struct {
		Enabled   bool           `json:"enabled"`
		Providers []AuthProvider `json:"providers"`
	} `json:"oauth2"`
}

// Provider looks up an OAuth2 provider by name.
func (m *AuthMethods) Provider(name string) (AuthProvider, bool) {
	for _, p := range m.OAuth2.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return AuthProvider{}, false
}

// AuthorizationURL is the provider URL the browser is sent to; the service leaves redirect_uri open.
func (p AuthProvider) AuthorizationURL(redirectURL string) string {
	return p.AuthURL + url.QueryEscape(redirectURL)
}

func (c *Client) AuthWithPassword(ctx context.Context, collection, identity, password string) (*AuthResponse, error) {
	var res AuthResponse
	body := JSONPayload{"identity": identity, "password": password}
	if err := c.send(ctx, http.MethodPost, collectionPath(collection, "auth-with-password"), nil, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// AuthRefresh validates token and returns a fresh one with the current user record.
func (c *Client) AuthRefresh(ctx context.Context, collection, token string) (*AuthResponse, error) {
	var res AuthResponse
	if err := c.send(WithToken(ctx, token), http.MethodPost, collectionPath(collection, "auth-refresh"), nil, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ListAuthMethods(ctx context.Context, collection string) (*AuthMethods, error) {
	var res AuthMethods
	if err := c.send(ctx, http.MethodGet, collectionPath(collection, "auth-methods"), nil, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// AuthWithOAuth2Code exchanges the code the provider redirected back with.
func (c *Client) AuthWithOAuth2Code(ctx context.Context, collection, provider, code, codeVerifier, redirectURL string) (*AuthResponse, error) {
	var res AuthResponse
	body := JSONPayload{
		"provider":     provider,
		"code":         code,
		"codeVerifier": codeVerifier,
		"redirectURL":  redirectURL,
	}
	if err := c.send(ctx, http.MethodPost, collectionPath(collection, "auth-with-oauth2"), nil, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
