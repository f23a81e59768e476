package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Session identifies a parsed, still-valid token.
type Session struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

// TokenManager signs and parses HS256 session tokens.
// Each token carries a unique id (jti) so logout can revoke it.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a token manager from the configured shared secret.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}, nil
}

// Issue creates a signed token for the user and returns it with its session metadata.
func (m *TokenManager) Issue(userID string) (string, Session, error) {
	now := time.Now().UTC()
	session := Session{
		UserID:    userID,
		TokenID:   uuid.New().String(),
		ExpiresAt: now.Add(m.ttl),
	}
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        session.TokenID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", Session{}, err
	}
	return signed, session, nil
}

// Parse validates a raw token and returns its session metadata.
func (m *TokenManager) Parse(raw string) (Session, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return Session{}, err
	}
	if !token.Valid || claims.Subject == "" || claims.ID == "" {
		return Session{}, errors.New("invalid token claims")
	}
	session := Session{
		UserID:  claims.Subject,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}
