package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	ErrUnavailable        = errors.New("backend unavailable")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrNoSession          = errors.New("not signed in")
	ErrSessionExpired     = errors.New("session expired, please sign in again")
	ErrInvalidToken       = errors.New("invalid token")
)

// APIError is an error response decoded from the auth or storage API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Code != "":
		return e.Code
	default:
		return fmt.Sprintf("backend error: %d %s", e.Status, http.StatusText(e.Status))
	}
}

// Unwrap maps the response to one of the package sentinels so callers can
// use errors.Is without looking at status codes.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusBadRequest && isCredentialsCode(e.Code):
		return ErrInvalidCredentials
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return ErrUnauthorized
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status >= 500:
		return ErrUnavailable
	}
	return nil
}

func isCredentialsCode(code string) bool {
	switch code {
	case "invalid_grant", "invalid_credentials", "refresh_token_not_found", "refresh_token_already_used":
		return true
	}
	return false
}

// DecodeAPIError builds an *APIError from a failed response. The auth API
// answers with {error, error_description} or {code, error_code, msg}; the
// storage API uses {statusCode, error, message}. Unknown bodies keep only the
// status.
func DecodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var body struct {
		Error            string          `json:"error"`
		ErrorDescription string          `json:"error_description"`
		ErrorCode        string          `json:"error_code"`
		Code             json.RawMessage `json:"code"`
		Msg              string          `json:"msg"`
		Message          string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		apiErr.Message = strings.TrimSpace(string(raw))
		return apiErr
	}

	var code string
	_ = json.Unmarshal(body.Code, &code)

	apiErr.Code = firstNonEmpty(body.ErrorCode, code, body.Error)
	apiErr.Message = firstNonEmpty(body.ErrorDescription, body.Msg, body.Message, body.Error)
	return apiErr
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
