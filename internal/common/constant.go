// Package common contains shared constants and helpers used across
// gophstash components.
package common

// Header names understood by the backend gateway.
const (
	// APIKeyHeaderName carries the project's public (anon) key on every request.
	APIKeyHeaderName = "apikey"

	// AuthorizationHeaderName carries "Bearer <access token>" for user-scoped calls.
	AuthorizationHeaderName = "Authorization"

	// UpsertHeaderName tells the storage API to overwrite an existing object.
	UpsertHeaderName = "x-upsert"
)

// BearerPrefix is prepended to access tokens in the Authorization header.
const BearerPrefix = "Bearer "

// PlaceholderObjectName is the marker object the storage service creates
// for empty folders. It is never shown to the user.
const PlaceholderObjectName = ".emptyFolderPlaceholder"
