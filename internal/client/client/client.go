package client

import (
	"context"

	"github.com/dmitrijs2005/gophstash/internal/client/models"
)

// Client is the auth API contract the rest of the app depends on.
type Client interface {
	SignInWithPassword(ctx context.Context, email string, password []byte) (*models.Session, error)
	// SignUp returns a nil session when the account still needs email
	// confirmation; the created user is returned either way.
	SignUp(ctx context.Context, email string, password []byte, redirectTo string) (*models.Session, *models.User, error)
	RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error)
	GetUser(ctx context.Context, accessToken string) (*models.User, error)
	UpdateUser(ctx context.Context, accessToken string, data map[string]any) (*models.User, error)
	SignOut(ctx context.Context, accessToken string) error
	AuthorizeURL(provider, redirectTo string) string
	Health(ctx context.Context) error
}
