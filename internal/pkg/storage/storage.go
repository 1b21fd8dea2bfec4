package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"time"
)

var ErrNotFound = errors.New("file not found")

// File is an opened artifact that can be served with http.ServeContent.
type File interface {
	io.ReadSeekCloser
	Stat() (fs.FileInfo, error)
}

// FileStorage keeps uploaded exports and generated import artifacts under slash-separated keys.
type FileStorage interface {
	// Upload stores a file and returns its storage key
	Upload(ctx context.Context, file io.Reader, path string, contentType string) (string, error)

	// Open returns ErrNotFound for keys that were never written or were deleted
	Open(ctx context.Context, path string) (File, error)

	// Delete removes a file; deleting a missing file is not an error
	Delete(ctx context.Context, path string) error

	// GetURL returns a URL the importer can fetch the file from
	GetURL(ctx context.Context, path string, expiry time.Duration) (string, error)

	Exists(ctx context.Context, path string) (bool, error)
}
