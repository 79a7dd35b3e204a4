// Package credentials stores the backend access token for the client.
package credentials

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoToken is returned when no usable token is stored.
var ErrNoToken = errors.New("no access token")

// Provider supplies the bearer token attached to backend requests. A token
// is set at login and cleared at logout or when the backend answers 401.
type Provider interface {
	Token(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Claims is the subset of access token claims the client reads.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry that has passed.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// ParseClaims reads token claims without verifying the signature. The
// backend remains the authority; the client only uses them for display and
// to drop tokens that have visibly expired.
func ParseClaims(token string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, err
	}

	var c Claims
	if sub, err := mc.GetSubject(); err == nil {
		c.Subject = sub
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

// usable reports whether a token may be sent. Tokens that do not parse as
// JWTs pass through; JWTs with a past expiry do not.
func usable(token string, now time.Time) bool {
	if token == "" {
		return false
	}
	c, err := ParseClaims(token)
	if err != nil {
		return true
	}
	return !c.Expired(now)
}

// MemoryStore keeps the token in process memory only.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	now   func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Token returns the stored token.
func (s *MemoryStore) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !usable(s.token, s.now()) {
		return "", ErrNoToken
	}
	return s.token, nil
}

// Set stores a token.
func (s *MemoryStore) Set(ctx context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// Clear removes the token.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}
