// Package models defines the client-side records mirrored from the backend:
// the signed-in user, the session token pair, and listed files.
package models

import (
	"strings"
	"time"
)

// FullNameKey is the user-metadata key holding the display name.
const FullNameKey = "full_name"

// User is the backend's view of the signed-in account.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	CreatedAt    *time.Time     `json:"created_at,omitempty"`
}

// FullName returns the full_name metadata value, or "" when unset.
func (u *User) FullName() string {
	if u == nil || u.UserMetadata == nil {
		return ""
	}
	s, _ := u.UserMetadata[FullNameKey].(string)
	return strings.TrimSpace(s)
}

// Session is the access/refresh token pair issued by the auth service.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	// ExpiresAt is a unix timestamp; zero means unknown.
	ExpiresAt int64 `json:"expires_at,omitempty"`
	User      *User `json:"user,omitempty"`
}

// Expired reports whether the access token expires within margin of now.
// A session with unknown expiry is never considered expired.
func (s *Session) Expired(now time.Time, margin time.Duration) bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt == 0 {
		return false
	}
	return !now.Before(time.Unix(s.ExpiresAt, 0).Add(-margin))
}

// Valid reports whether the session carries both tokens.
func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != "" && s.RefreshToken != ""
}
