package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophstash/internal/client/client"
	"github.com/dmitrijs2005/gophstash/internal/common"
)

// RESTStorage implements Storage over <backend>/storage/v1.
type RESTStorage struct {
	backendURL string
	anonKey    string
	bucket     string
	hc         *http.Client
}

func NewRESTStorage(backendURL, anonKey, bucket string, timeout time.Duration) *RESTStorage {
	return &RESTStorage{
		backendURL: backendURL,
		anonKey:    anonKey,
		bucket:     bucket,
		hc:         &http.Client{Timeout: timeout},
	}
}

type listRequest struct {
	Prefix string `json:"prefix"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	SortBy SortBy `json:"sortBy"`
}

// listEntry is one element of the list response. Folders come back with a
// null id and null metadata.
type listEntry struct {
	ID        *string    `json:"id"`
	Name      string     `json:"name"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
	Metadata  *struct {
		Size     json.Number `json:"size"`
		Mimetype string      `json:"mimetype"`
	} `json:"metadata"`
}

func (s *RESTStorage) List(ctx context.Context, accessToken, prefix string, opts ListOptions) ([]Object, error) {
	opts = applyDefaults(opts)
	body, err := json.Marshal(listRequest{
		Prefix: prefix,
		Limit:  opts.Limit,
		Offset: opts.Offset,
		SortBy: opts.SortBy,
	})
	if err != nil {
		return nil, err
	}

	u := storageBase(s.backendURL) + "/object/list/" + url.PathEscape(s.bucket)
	var entries []listEntry
	if err := s.do(ctx, http.MethodPost, u, accessToken, bytes.NewReader(body), "application/json", nil, &entries); err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}

	objects := make([]Object, 0, len(entries))
	for _, e := range entries {
		o := Object{Name: e.Name}
		if e.ID != nil {
			o.ID = *e.ID
		}
		if e.CreatedAt != nil {
			o.CreatedAt = *e.CreatedAt
		}
		if e.UpdatedAt != nil {
			o.UpdatedAt = *e.UpdatedAt
		}
		if e.Metadata != nil {
			o.Size, _ = strconv.ParseInt(e.Metadata.Size.String(), 10, 64)
			o.ContentType = e.Metadata.Mimetype
		}
		objects = append(objects, o)
	}
	return objects, nil
}

func (s *RESTStorage) Upload(ctx context.Context, accessToken, path string, body io.Reader, contentType string, upsert bool) error {
	u := storageBase(s.backendURL) + "/object/" + url.PathEscape(s.bucket) + "/" + EscapePath(path)
	hdr := http.Header{}
	hdr.Set(common.UpsertHeaderName, strconv.FormatBool(upsert))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := s.do(ctx, http.MethodPost, u, accessToken, body, contentType, hdr, nil); err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	return nil
}

func (s *RESTStorage) Remove(ctx context.Context, accessToken string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	body, err := json.Marshal(map[string][]string{"prefixes": paths})
	if err != nil {
		return err
	}

	u := storageBase(s.backendURL) + "/object/" + url.PathEscape(s.bucket)
	if err := s.do(ctx, http.MethodDelete, u, accessToken, bytes.NewReader(body), "application/json", nil, nil); err != nil {
		return fmt.Errorf("remove %s: %w", strings.Join(paths, ", "), err)
	}
	return nil
}

func (s *RESTStorage) PublicURL(path string) string {
	return PublicURL(s.backendURL, s.bucket, path)
}

func (s *RESTStorage) do(ctx context.Context, method, u, token string, body io.Reader, contentType string, hdr http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	for k, v := range hdr {
		req.Header[k] = v
	}
	client.SetAuthHeaders(req, s.anonKey, token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", client.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return client.DecodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
