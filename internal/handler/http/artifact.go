package http

import (
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/storage"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/service/file"
	"github.com/go-chi/chi/v5"
)

// NewArtifactHandler serves stored exports and generated artifacts by storage key. Keys
// outside the caller's company answer 404.
func NewArtifactHandler(store storage.FileStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")
		if !ownsArtifact(r, key) {
			response.NotFound(w, "Artifact not found")
			return
		}
		f, err := store.Open(r.Context(), key)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidPath) {
				response.NotFound(w, "Artifact not found")
				return
			}
			slog.ErrorContext(r.Context(), "failed to open artifact", "key", key, "error", err)
			response.InternalServerError(w, "Failed to read artifact")
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			response.InternalServerError(w, "Failed to read artifact")
			return
		}

		w.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(key)+`"`)
		http.ServeContent(w, r, path.Base(key), info.ModTime(), f)
	}
}

func ownsArtifact(r *http.Request, key string) bool {
	owner, ok := file.CompanySlug(key)
	if !ok {
		return false
	}
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return false
	}
	return strings.TrimSpace(principal.Company) == "" || file.Slug(principal.Company) == owner
}
