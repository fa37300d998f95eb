package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims identify a browser session. The session id travels as the JWT ID.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// JWTService signs and validates session cookies.
type JWTService struct {
	secret []byte
}

// NewJWTService creates a new JWT service with the given secret.
func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
	}
}

// Secret is the HMAC key, shared with the echo-jwt middleware.
func (s *JWTService) Secret() []byte {
	return s.secret
}

// NewSessionID generates a unique id for a browser session.
func NewSessionID() string {
	return uuid.New().String()
}

// GenerateSessionToken signs a cookie value for sessionID valid for ttl.
func (s *JWTService) GenerateSessionToken(sessionID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
