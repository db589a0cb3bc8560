package models

import "time"

// FileItem is one row of the home screen list. It is rebuilt from the
// storage listing on every fetch and never cached locally.
type FileItem struct {
	ID        string
	Name      string
	Size      int64
	CreatedAt time.Time
	PublicURL string
}
