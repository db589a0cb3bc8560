package services

import (
	"context"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophstash/internal/client/client"
	"github.com/dmitrijs2005/gophstash/internal/client/models"
	"github.com/dmitrijs2005/gophstash/internal/client/storage"
	"github.com/dmitrijs2005/gophstash/internal/common"
	"github.com/dmitrijs2005/gophstash/internal/filex"
	"github.com/dmitrijs2005/gophstash/internal/logging"
	"github.com/dmitrijs2005/gophstash/internal/netx"
)

// ListLimit is the page size of the home screen list.
const ListLimit = 100

// DefaultDownloadDir is where files are saved when no directory is given.
const DefaultDownloadDir = "download"

// TokenSource is the part of AuthService the file service needs.
type TokenSource interface {
	User() *models.User
	AccessToken(ctx context.Context) (string, error)
}

// FileService lists and manages the signed-in user's files. Objects live
// under "<user id>/" in the bucket.
type FileService interface {
	List(ctx context.Context) ([]models.FileItem, error)
	Upload(ctx context.Context, localPath, name string) error
	Remove(ctx context.Context, name string) error
	Download(ctx context.Context, item models.FileItem, dir string) (string, error)
}

type fileService struct {
	auth    TokenSource
	storage storage.Storage
	hc      *http.Client
	logger  logging.Logger
	now     func() time.Time
}

func NewFileService(auth TokenSource, st storage.Storage, hc *http.Client, l logging.Logger) FileService {
	return &fileService{
		auth:    auth,
		storage: st,
		hc:      hc,
		logger:  l.With("module", "files"),
		now:     time.Now,
	}
}

// userScope returns the signed-in user's id and a usable access token.
func (s *fileService) userScope(ctx context.Context) (string, string, error) {
	u := s.auth.User()
	if u == nil || u.ID == "" {
		return "", "", client.ErrNoSession
	}
	token, err := s.auth.AccessToken(ctx)
	if err != nil {
		return "", "", err
	}
	return u.ID, token, nil
}

func (s *fileService) List(ctx context.Context) ([]models.FileItem, error) {
	uid, token, err := s.userScope(ctx)
	if err != nil {
		return []models.FileItem{}, err
	}

	objects, err := s.storage.List(ctx, token, uid, storage.ListOptions{
		Limit:  ListLimit,
		Offset: 0,
		SortBy: storage.SortBy{Column: "name", Order: storage.OrderAsc},
	})
	if err != nil {
		return []models.FileItem{}, err
	}

	items := make([]models.FileItem, 0, len(objects))
	for _, o := range objects {
		if o.Name == common.PlaceholderObjectName {
			continue
		}
		item := models.FileItem{
			ID:        o.ID,
			Name:      o.Name,
			Size:      o.Size,
			CreatedAt: o.CreatedAt,
			PublicURL: s.storage.PublicURL(uid + "/" + o.Name),
		}
		if item.ID == "" {
			item.ID = o.Name
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = s.now()
		}
		items = append(items, item)
	}
	return items, nil
}

// Upload stores localPath as name (default: its base name), replacing an
// existing file of the same name.
func (s *fileService) Upload(ctx context.Context, localPath, name string) error {
	localPath = strings.TrimSpace(filex.ExpandHome(localPath))
	if localPath == "" {
		return common.ErrInvalidInput
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = filepath.Base(localPath)
	}
	name = filex.SafeName(name)

	uid, token, err := s.userScope(ctx)
	if err != nil {
		return err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	contentType, err := detectContentType(f, name)
	if err != nil {
		return err
	}

	if err := s.storage.Upload(ctx, token, uid+"/"+name, f, contentType, true); err != nil {
		return err
	}
	s.logger.Info(ctx, "File uploaded", "name", name)
	return nil
}

// detectContentType uses the extension of name, falling back to sniffing
// the first 512 bytes of f. f is rewound afterwards.
func detectContentType(f io.ReadSeeker, name string) (string, error) {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct, nil
	}

	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

func (s *fileService) Remove(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return common.ErrInvalidInput
	}

	uid, token, err := s.userScope(ctx)
	if err != nil {
		return err
	}

	if err := s.storage.Remove(ctx, token, []string{uid + "/" + name}); err != nil {
		return err
	}
	s.logger.Info(ctx, "File removed", "name", name)
	return nil
}

// Download saves item into dir through its public URL and returns the
// written path.
func (s *fileService) Download(ctx context.Context, item models.FileItem, dir string) (string, error) {
	if item.PublicURL == "" {
		return "", common.ErrInvalidInput
	}
	if strings.TrimSpace(dir) == "" {
		dir = DefaultDownloadDir
	}

	abs, err := filex.EnsureDir(filex.ExpandHome(dir))
	if err != nil {
		return "", err
	}
	path := filepath.Join(abs, filex.SafeName(item.Name))

	if _, err := netx.DownloadToFile(ctx, s.hc, item.PublicURL, path); err != nil {
		return "", fmt.Errorf("download %s: %w", item.Name, err)
	}
	return path, nil
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders bytes with 1024-based units and at most two
// decimals, e.g. "1.5 KB".
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}

	v, i := float64(bytes), 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

// IsImage reports whether name has a common image extension.
func IsImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif":
		return true
	}
	return false
}
