package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_UploadAndURL(t *testing.T) {
	t.Parallel()

	// Arrange
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/artifacts/")
	require.NoError(t, err)

	// Act
	key, err := s.Upload(ctx, strings.NewReader("a,b\n"), "imports/acme/run-1/attendance.csv", "text/csv")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "imports/acme/run-1/attendance.csv", key)

	exists, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	url, err := s.GetURL(ctx, key, 0)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/artifacts/imports/acme/run-1/attendance.csv", url)
}

func TestLocalStorage_Open(t *testing.T) {
	t.Parallel()

	// Arrange
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir(), "http://localhost")
	require.NoError(t, err)
	key, err := s.Upload(ctx, strings.NewReader("a,b\n"), "imports/acme/run-1/attendance.csv", "text/csv")
	require.NoError(t, err)

	// Act
	f, err := s.Open(ctx, key)

	// Assert
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	_, err = s.Open(ctx, "imports/acme/run-1/missing.csv")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Open(ctx, "imports/acme")
	assert.ErrorIs(t, err, ErrNotFound, "directories are not files")
}

func TestLocalStorage_DeleteIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir(), "http://localhost")
	require.NoError(t, err)
	key, err := s.Upload(ctx, strings.NewReader("x"), "a/b.txt", "text/plain")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key))

	exists, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStorage_PathsStayInsideBase(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir(), "http://localhost")
	require.NoError(t, err)

	key, err := s.Upload(ctx, strings.NewReader("x"), "../../etc/passwd", "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "etc/passwd", key, "traversal is clamped to the base directory")

	_, err = s.Upload(ctx, strings.NewReader("x"), "", "text/plain")
	assert.ErrorIs(t, err, ErrInvalidPath)
}
