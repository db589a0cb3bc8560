package client

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access-token claims the client cares about.
type Claims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email,omitempty"`
	Role         string         `json:"role,omitempty"`
	SessionID    string         `json:"session_id,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// ParseClaims decodes an access token without verifying its signature; the
// client does not hold the signing secret. Use the result for expiry and
// display only.
func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
