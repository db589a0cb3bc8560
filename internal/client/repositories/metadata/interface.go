// Package metadata is the local key/value store kept in the client's sqlite
// database. It holds the persisted session and UI preferences.
package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeySession     = "session"
	KeySessionSalt = "session_salt"
	KeyThemeMode   = "theme_mode"
)

// Repository stores opaque values by key. Get returns (nil, nil) for a
// missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetMany(ctx context.Context, values map[string][]byte) error
	Delete(ctx context.Context, key string) error
}
