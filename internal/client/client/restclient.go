package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophstash/internal/client/models"
	"github.com/dmitrijs2005/gophstash/internal/common"
)

// RESTClient implements Client over the backend's /auth/v1 HTTP API.
type RESTClient struct {
	baseURL string
	anonKey string
	hc      *http.Client
	now     func() time.Time
}

// NewRESTClient returns a client for <backendURL>/auth/v1. A zero timeout
// leaves requests bounded by their context only.
func NewRESTClient(backendURL, anonKey string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		baseURL: strings.TrimRight(backendURL, "/") + "/auth/v1",
		anonKey: anonKey,
		hc:      &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *RESTClient) SignInWithPassword(ctx context.Context, email string, password []byte) (*models.Session, error) {
	var s models.Session
	q := url.Values{"grant_type": {"password"}}
	if err := c.do(ctx, http.MethodPost, "/token", q, "", credentials{Email: email, Password: string(password)}, &s); err != nil {
		return nil, err
	}
	c.fillExpiry(&s)
	return &s, nil
}

// signUpResponse covers both answers of /signup: a full session when the
// project auto-confirms, or the bare user otherwise.
type signUpResponse struct {
	models.Session
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	CreatedAt    *time.Time     `json:"created_at"`
}

func (c *RESTClient) SignUp(ctx context.Context, email string, password []byte, redirectTo string) (*models.Session, *models.User, error) {
	var q url.Values
	if redirectTo != "" {
		q = url.Values{"redirect_to": {redirectTo}}
	}

	var resp signUpResponse
	if err := c.do(ctx, http.MethodPost, "/signup", q, "", credentials{Email: email, Password: string(password)}, &resp); err != nil {
		return nil, nil, err
	}

	if resp.AccessToken != "" {
		s := resp.Session
		c.fillExpiry(&s)
		return &s, s.User, nil
	}

	return nil, &models.User{
		ID:           resp.ID,
		Email:        resp.Email,
		UserMetadata: resp.UserMetadata,
		CreatedAt:    resp.CreatedAt,
	}, nil
}

func (c *RESTClient) RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	var s models.Session
	q := url.Values{"grant_type": {"refresh_token"}}
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.do(ctx, http.MethodPost, "/token", q, "", body, &s); err != nil {
		if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrUnauthorized) {
			return nil, fmt.Errorf("%w: %v", ErrSessionExpired, err)
		}
		return nil, err
	}
	c.fillExpiry(&s)
	return &s, nil
}

func (c *RESTClient) GetUser(ctx context.Context, accessToken string) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/user", nil, accessToken, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *RESTClient) UpdateUser(ctx context.Context, accessToken string, data map[string]any) (*models.User, error) {
	var u models.User
	body := map[string]any{"data": data}
	if err := c.do(ctx, http.MethodPut, "/user", nil, accessToken, body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SignOut revokes the session server-side. A token the backend no longer
// knows counts as already signed out.
func (c *RESTClient) SignOut(ctx context.Context, accessToken string) error {
	err := c.do(ctx, http.MethodPost, "/logout", nil, accessToken, nil, nil)
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func (c *RESTClient) AuthorizeURL(provider, redirectTo string) string {
	q := url.Values{"provider": {provider}}
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return c.baseURL + "/authorize?" + q.Encode()
}

func (c *RESTClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, "", nil, nil)
}

// fillExpiry makes ExpiresAt absolute when the response only carried
// expires_in, falling back to the token's exp claim.
func (c *RESTClient) fillExpiry(s *models.Session) {
	if s.ExpiresAt != 0 {
		return
	}
	if s.ExpiresIn > 0 {
		s.ExpiresAt = c.now().Unix() + s.ExpiresIn
		return
	}
	if claims, err := ParseClaims(s.AccessToken); err == nil && claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Unix()
	}
}

func (c *RESTClient) do(ctx context.Context, method, path string, query url.Values, token string, in any, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	SetAuthHeaders(req, c.anonKey, token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return DecodeAPIError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// SetAuthHeaders adds the project key and the bearer token. Without a user
// token the anon key doubles as the bearer, as the gateway expects.
func SetAuthHeaders(req *http.Request, anonKey, accessToken string) {
	req.Header.Set(common.APIKeyHeaderName, anonKey)
	if accessToken == "" {
		accessToken = anonKey
	}
	if accessToken != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+accessToken)
	}
}
