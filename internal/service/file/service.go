package file

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/storage"
)

// Artifact content types.
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv"
	ContentTypePDF  = "application/pdf"
)

type FileService interface {
	// UploadSource archives the export a run was created from
	UploadSource(ctx context.Context, company, correlationID string, file io.Reader, filename string) (string, error)

	// UploadArtifact stores a generated file of a run
	UploadArtifact(ctx context.Context, company, correlationID, name string, data []byte, contentType string) (string, error)

	// Generic operations
	DeleteFile(ctx context.Context, path string) error
	FileExists(ctx context.Context, path string) (bool, error)
	GetFileURL(ctx context.Context, path string, expiry time.Duration) (string, error)
}

type fileServiceImpl struct {
	storage storage.FileStorage
}

func NewFileService(storage storage.FileStorage) FileService {
	return &fileServiceImpl{
		storage: storage,
	}
}

// runDir groups every file of a run: imports/{company}/{correlationID}.
func runDir(company, correlationID string) string {
	return path.Join("imports", Slug(company), correlationID)
}

// Slug keeps company names usable as a directory name.
func Slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "-"):
			b.WriteByte('-')
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "default"
	}
	return out
}

// CompanySlug returns the company directory of a run file key such as
// "imports/acme-works/<correlationID>/attendance.csv".
func CompanySlug(key string) (string, bool) {
	parts := strings.Split(strings.Trim(key, "/"), "/")
	if len(parts) < 3 || parts[0] != "imports" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// UploadSource uploads the original export
func (s *fileServiceImpl) UploadSource(ctx context.Context, company, correlationID string, file io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	key := path.Join(runDir(company, correlationID), "source"+ext)

	uploadedPath, err := s.storage.Upload(ctx, file, key, "application/octet-stream")
	if err != nil {
		return "", fmt.Errorf("failed to upload source export: %w", err)
	}
	return uploadedPath, nil
}

// UploadArtifact uploads a generated artifact
func (s *fileServiceImpl) UploadArtifact(ctx context.Context, company, correlationID, name string, data []byte, contentType string) (string, error) {
	key := path.Join(runDir(company, correlationID), path.Base(name))

	uploadedPath, err := s.storage.Upload(ctx, bytes.NewReader(data), key, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return uploadedPath, nil
}

// DeleteFile deletes a file
func (s *fileServiceImpl) DeleteFile(ctx context.Context, path string) error {
	return s.storage.Delete(ctx, path)
}

// FileExists reports whether path is still present in storage
func (s *fileServiceImpl) FileExists(ctx context.Context, path string) (bool, error) {
	return s.storage.Exists(ctx, path)
}

// GetFileURL generates URL to access file
func (s *fileServiceImpl) GetFileURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	return s.storage.GetURL(ctx, path, expiry)
}
