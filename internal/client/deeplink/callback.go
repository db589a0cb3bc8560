// Package deeplink receives OAuth callback URLs and hands them to the auth
// service.
//
// A callback arrives either as a custom-scheme URL passed to a second
// process (forwarded to the running instance over a unix socket), as the
// URL the app was launched with, or through the optional loopback HTTP
// callback server.
package deeplink

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// CallbackPath is the path component every OAuth redirect URL carries.
const CallbackPath = "auth/callback"

var (
	// ErrNotCallback is returned for URLs that are not OAuth callbacks.
	// Callers ignore them.
	ErrNotCallback = errors.New("not an auth callback url")

	// ErrMissingTokens is returned when a callback lacks either token.
	ErrMissingTokens = errors.New("auth callback is missing tokens")
)

// OAuthError is an error reported by the identity provider in the callback.
type OAuthError struct {
	Code        string
	Description string
}

func (e *OAuthError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("oauth error: %s: %s", e.Code, e.Description)
	}
	return "oauth error: " + e.Code
}

// Tokens are the session values carried in a callback fragment.
type Tokens struct {
	AccessToken   string
	RefreshToken  string
	ExpiresIn     int64
	TokenType     string
	ProviderToken string
}

// Handler consumes callback URLs.
type Handler interface {
	HandleURL(ctx context.Context, rawURL string) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, rawURL string) error

func (f HandlerFunc) HandleURL(ctx context.Context, rawURL string) error {
	return f(ctx, rawURL)
}

// ParseCallback extracts the session tokens from an OAuth callback URL of the
// form <scheme>://auth/callback#access_token=...&refresh_token=...
//
// The text between the first and second '#' is parsed as a query string.
// Malformed pairs are skipped; only missing tokens reject the URL. Provider
// errors are reported before the token check, since error redirects carry no
// tokens.
func ParseCallback(raw string) (Tokens, error) {
	if !strings.Contains(raw, CallbackPath) {
		return Tokens{}, ErrNotCallback
	}

	parts := strings.Split(raw, "#")
	before, fragment := parts[0], ""
	if len(parts) > 1 {
		fragment = parts[1]
	}
	// ParseQuery keeps every well-formed pair even when it reports an error.
	params, _ := url.ParseQuery(fragment)

	if oe := oauthError(params); oe != nil {
		return Tokens{}, oe
	}
	if _, query, ok := strings.Cut(before, "?"); ok {
		q, _ := url.ParseQuery(query)
		if oe := oauthError(q); oe != nil {
			return Tokens{}, oe
		}
	}

	if !strings.Contains(raw, "access_token") {
		return Tokens{}, ErrNotCallback
	}

	t := Tokens{
		AccessToken:   params.Get("access_token"),
		RefreshToken:  params.Get("refresh_token"),
		TokenType:     params.Get("token_type"),
		ProviderToken: params.Get("provider_token"),
	}
	if t.AccessToken == "" || t.RefreshToken == "" {
		return Tokens{}, ErrMissingTokens
	}
	if v := params.Get("expires_in"); v != "" {
		t.ExpiresIn, _ = strconv.ParseInt(v, 10, 64)
	}
	return t, nil
}

func oauthError(v url.Values) *OAuthError {
	code := v.Get("error")
	if code == "" {
		code = v.Get("error_code")
	}
	if code == "" {
		return nil
	}
	return &OAuthError{Code: code, Description: v.Get("error_description")}
}
