// Package netx holds plain HTTP transfer helpers used outside the backend
// SDK clients (for example fetching a file through its public URL).
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// Download GETs url and streams the body to w. Non-2xx responses are errors
// that include the beginning of the response body.
func Download(ctx context.Context, hc *http.Client, url string, w io.Writer) (int64, error) {
	if hc == nil {
		hc = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := hc.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("download failed: %s; body: %s", resp.Status, string(b))
	}

	return io.Copy(w, resp.Body)
}

// DownloadToFile downloads url into path. The body goes to a temporary file
// in the same directory that replaces path only after a complete transfer,
// so a failed download leaves an existing file untouched.
func DownloadToFile(ctx context.Context, hc *http.Client, url, path string) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.part")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()

	n, err := Download(ctx, hc, url, tmp)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpName, path)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return 0, err
	}
	return n, nil
}
