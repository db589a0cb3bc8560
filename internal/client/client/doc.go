// Package client is the auth side of the backend SDK used by the gophstash
// CLI.
//
// # Overview
//
// Client is the transport-agnostic contract: password sign-in, sign-up,
// refresh-token exchange, user lookup and metadata update, sign-out, the
// OAuth authorize URL, and a health probe. RESTClient implements it over the
// backend's /auth/v1 HTTP API, sending the project's anon key on every call
// and the user's access token where one is required.
//
// # Error Handling
//
// Failed responses are decoded into *APIError, which unwraps to the package
// sentinels (ErrUnauthorized, ErrNotFound, ErrUnavailable,
// ErrInvalidCredentials) so callers can match with errors.Is. Transport
// failures wrap ErrUnavailable. RefreshSession reports a rejected refresh
// token as ErrSessionExpired.
//
// ParseClaims decodes access-token claims for expiry scheduling.
package client
