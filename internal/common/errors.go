package common

import "errors"

var (
	// ErrInvalidInput is returned before any network call when a required
	// user-supplied value is empty.
	ErrInvalidInput = errors.New("please fill in all fields")

	// ErrNotFound is returned by local repositories when a key is absent.
	ErrNotFound = errors.New("not found")
)
