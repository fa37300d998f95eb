package auth

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"tlgsite/internal/model"
)

const (
	// CookieName carries the signed session id.
	CookieName = "tlg_session"

	tokenContextKey  = "session_token"
	mirrorContextKey = "auth_mirror"
)

// CookieConfig controls how the session cookie is written.
type CookieConfig struct {
	Secure bool
	TTL    time.Duration
}

// SessionJWT reads the session cookie. Missing or invalid cookies are not an error: the
// request continues anonymously and Attach starts a new session.
func SessionJWT(jwtService *JWTService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:  jwtService.Secret(),
		TokenLookup: "cookie:" + CookieName,
		ContextKey:  tokenContextKey,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(SessionClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return nil
		},
		ContinueOnIgnoredError: true,
	})
}

// Attach loads the session mirror for the request and makes it available through MirrorFrom.
func (mg *Manager) Attach(jwtService *JWTService, cookie CookieConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			sessionID := sessionIDFrom(c)
			if sessionID == "" {
				sessionID = NewSessionID()
				if err := writeSessionCookie(c, jwtService, sessionID, cookie); err != nil {
					c.Logger().Errorf("auth: issue session cookie: %v", err)
				}
			}

			m, err := mg.Open(ctx, sessionID)
			if err != nil {
				c.Logger().Warnf("auth: load session %s: %v", sessionID, err)
			}
			if err := mg.Restore(ctx, m); err != nil {
				c.Logger().Infof("auth: session %s signed out: %v", sessionID, err)
			}

			stop := m.OnChange(func(s State) {
				if s.User != nil {
					c.Logger().Infof("auth: session %s signed in as %s", sessionID, s.User.ID)
				} else {
					c.Logger().Infof("auth: session %s signed out", sessionID)
				}
			})
			defer stop()

			c.Set(mirrorContextKey, m)
			return next(c)
		}
	}
}

func sessionIDFrom(c echo.Context) string {
	token, ok := c.Get(tokenContextKey).(*jwt.Token)
	if !ok || !token.Valid {
		return ""
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return ""
	}
	return claims.ID
}

func writeSessionCookie(c echo.Context, jwtService *JWTService, sessionID string, cfg CookieConfig) error {
	value, err := jwtService.GenerateSessionToken(sessionID, cfg.TTL)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(cfg.TTL),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// MirrorFrom returns the session mirror attached to the request, or nil outside Attach.
func MirrorFrom(c echo.Context) *Mirror {
	m, _ := c.Get(mirrorContextKey).(*Mirror)
	return m
}

// UserFrom returns the signed-in user of the request, or nil.
func UserFrom(c echo.Context) *model.User {
	return MirrorFrom(c).User()
}
