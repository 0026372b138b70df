package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// ErrInvalidSession covers every reason a token does not resolve to a live session.
var ErrInvalidSession = errors.New("invalid or expired session")

const issuer = "fitness-log"

// claims is the token payload. SessionID points into the Store.
type claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Manager issues, resolves and revokes session tokens.
type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
}

// NewManager panics on an empty secret.
func NewManager(store Store, secret string, ttl time.Duration) *Manager {
	if secret == "" {
		panic("session secret cannot be empty") // Critical configuration
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{store: store, secret: []byte(secret), ttl: ttl}
}

// TTL is how long an issued session lives.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue starts a session for memberID and returns its signed token.
func (m *Manager) Issue(ctx context.Context, memberID string) (string, error) {
	sid := uuid.NewString()
	if err := m.store.Save(ctx, sid, memberID, m.ttl); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   memberID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		_ = m.store.Delete(ctx, sid)
		return "", err
	}
	return signed, nil
}

// Resolve returns the member id behind a token.
// Store failures other than a missing session are returned as is.
func (m *Manager) Resolve(ctx context.Context, tokenString string) (string, error) {
	c, err := m.parse(tokenString)
	if err != nil {
		return "", err
	}
	memberID, err := m.store.Lookup(ctx, c.SessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return "", ErrInvalidSession
		}
		return "", err
	}
	if memberID != c.Subject {
		return "", ErrInvalidSession
	}
	return memberID, nil
}

// Revoke ends the session named by the token.
func (m *Manager) Revoke(ctx context.Context, tokenString string) error {
	c, err := m.parse(tokenString)
	if err != nil {
		return err
	}
	return m.store.Delete(ctx, c.SessionID)
}

func (m *Manager) parse(tokenString string) (*claims, error) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !token.Valid || c.SessionID == "" || c.Subject == "" {
		return nil, ErrInvalidSession
	}
	return c, nil
}
