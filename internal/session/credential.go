// Package session owns the persisted bearer credential and the auth change bus.
package session

import (
	"errors"
	"time"

	"golang.org/x/oauth2"
)

// DefaultTTL is how long a stored credential stays usable.
const DefaultTTL = 7 * 24 * time.Hour

// ErrNoCredential means no usable credential is stored.
var ErrNoCredential = errors.New("no credential stored")

// Credential is the bearer token plus the attributes it was stored with.
type Credential struct {
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Token     string    `json:"token"`
	Path      string    `json:"path"`
	SameSite  string    `json:"same_site"`
}

// NewCredential stamps token with the root path scope and a lax same-site policy.
func NewCredential(token string, now time.Time, ttl time.Duration) Credential {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return Credential{
		Token:     token,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
		Path:      "/",
		SameSite:  "lax",
	}
}

// OAuth2 returns the credential as a bearer oauth2 token.
func (c Credential) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: c.Token,
		TokenType:   "Bearer",
		Expiry:      c.ExpiresAt,
	}
}

// Usable reports whether the credential has a token and has not expired.
func (c Credential) Usable() bool {
	return c.OAuth2().Valid()
}

// Store persists at most one credential.
type Store interface {
	// Load returns ErrNoCredential when nothing usable is stored.
	Load() (Credential, error)
	Save(cred Credential) error
	// Clear removes the credential; clearing an empty store is not an error.
	Clear() error
}
