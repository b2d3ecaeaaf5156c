// Package session owns the signed in user's session record. A Manager is the
// single source of truth; it is passed to whatever needs identity and announces
// every change on its event channel.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoSession is returned when nobody is signed in.
	ErrNoSession = errors.New("session: not signed in")
	// ErrExpired is returned when the token's exp claim has passed.
	ErrExpired = errors.New("session: token expired")
)

// Session is the persisted session record.
type Session struct {
	Username string
	Roles    []string
	Token    string
}

// IsZero reports whether s holds no session.
func (s Session) IsZero() bool {
	return s.Token == "" && s.Username == ""
}

// HasRole reports whether s carries role.
func (s Session) HasRole(role string) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ExpiresAt returns the token's exp claim. ok is false when the token is not a
// JWT or carries no exp. The signature is not checked; the API does that.
func (s Session) ExpiresAt() (t time.Time, ok bool) {
	if s.Token == "" {
		return time.Time{}, false
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether the token's exp claim is before now. Tokens without
// exp never expire locally.
func (s Session) Expired(now time.Time) bool {
	exp, ok := s.ExpiresAt()
	return ok && !now.Before(exp)
}

// Store persists the session record. Load returns ok false when nothing is stored.
type Store interface {
	Load(ctx context.Context) (s Session, ok bool, err error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}
