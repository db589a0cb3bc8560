// Package storage is the client side of the backend's object storage: list,
// upload and remove objects in one bucket, and derive public URLs.
//
// Two drivers implement Storage. RESTStorage speaks the storage REST API;
// S3Storage speaks the S3-compatible endpoint of the same service. Both send
// the user's access token so bucket policies apply per user.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"
)

// Storage drivers accepted by New.
const (
	DriverREST = "rest"
	DriverS3   = "s3"
)

// Sort orders for ListOptions.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Object is one entry of a bucket listing.
type Object struct {
	ID          string
	Name        string
	Size        int64
	ContentType string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type SortBy struct {
	Column string `json:"column"`
	Order  string `json:"order"`
}

type ListOptions struct {
	Limit  int
	Offset int
	SortBy SortBy
}

// Storage is the object storage contract used by the file service. Paths are
// relative to the bucket.
type Storage interface {
	List(ctx context.Context, accessToken, prefix string, opts ListOptions) ([]Object, error)
	Upload(ctx context.Context, accessToken, path string, body io.Reader, contentType string, upsert bool) error
	Remove(ctx context.Context, accessToken string, paths []string) error
	PublicURL(path string) string
}

// Options configures New.
type Options struct {
	Driver        string
	BackendURL    string
	AnonKey       string
	Bucket        string
	S3Region      string
	S3AccessKeyID string
	Timeout       time.Duration
}

// New returns the driver named by opts.Driver.
func New(ctx context.Context, opts Options) (Storage, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("storage: bucket is required")
	}

	switch strings.ToLower(opts.Driver) {
	case "", DriverREST:
		return NewRESTStorage(opts.BackendURL, opts.AnonKey, opts.Bucket, opts.Timeout), nil
	case DriverS3:
		return NewS3Storage(ctx, opts)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", opts.Driver)
	}
}

// PublicURL builds the public download URL of path in bucket. No request is
// made; the bucket must be public for the URL to resolve.
func PublicURL(backendURL, bucket, path string) string {
	return storageBase(backendURL) + "/object/public/" + url.PathEscape(bucket) + "/" + EscapePath(path)
}

// EscapePath escapes each segment of an object path, keeping the slashes.
func EscapePath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func storageBase(backendURL string) string {
	return strings.TrimRight(backendURL, "/") + "/storage/v1"
}

func applyDefaults(opts ListOptions) ListOptions {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	if opts.SortBy.Column == "" {
		opts.SortBy.Column = "name"
	}
	if opts.SortBy.Order == "" {
		opts.SortBy.Order = OrderAsc
	}
	return opts
}
