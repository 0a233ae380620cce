// Package asset stores uploaded images with an external object host and
// hands back a public URL plus the handle needed to delete them later.
package asset

import (
	"context"
	"errors"
)

// Folders used by the resource handlers.
const (
	FolderUsers    = "users"
	FolderProjects = "projects"
)

var ErrEmptyPayload = errors.New("asset payload is empty")

// Asset is the result of a successful upload.
type Asset struct {
	URL      string
	PublicID string
}

// Uploader is the external image host.
type Uploader interface {
	Upload(ctx context.Context, folder string, data []byte) (Asset, error)
	Destroy(ctx context.Context, publicID string) error
}
