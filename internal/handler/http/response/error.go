package response

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/directory"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Fatal normalization errors carry the values the operator needs to fix the upload
	var formatErr *attendance.FormatError
	if errors.As(err, &formatErr) {
		Unprocessable(w, "MISSING_COLUMNS", err.Error(), map[string]string{
			"format":  formatErr.Format,
			"missing": strings.Join(formatErr.Missing, ", "),
		})
		return
	}

	var rangeErr *attendance.RangeError
	if errors.As(err, &rangeErr) {
		details := map[string]string{}
		if !rangeErr.File.IsZero() {
			details["file_from"] = rangeErr.File.From.Format(attendance.DateLayout)
			details["file_to"] = rangeErr.File.To.Format(attendance.DateLayout)
		}
		Unprocessable(w, "INVALID_RANGE", err.Error(), details)
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrTokenRevoked):
		Unauthorized(w, "Token revoked")
	case errors.Is(err, auth.ErrPermissionDenied), errors.Is(err, auth.ErrCompanyMismatch):
		Forbidden(w, err.Error())

	// Attendance domain errors
	case errors.Is(err, attendance.ErrStructureNotRecognized):
		Unprocessable(w, "STRUCTURE_NOT_RECOGNIZED", err.Error(), nil)
	case errors.Is(err, attendance.ErrEmptyResult):
		Unprocessable(w, "EMPTY_RESULT", err.Error(), nil)
	case errors.Is(err, attendance.ErrImportNotFound):
		NotFound(w, "Attendance import not found")
	case errors.Is(err, attendance.ErrEmptyFile):
		BadRequest(w, "Uploaded file is empty", nil)
	case errors.Is(err, attendance.ErrUnsupportedFile):
		BadRequest(w, err.Error(), nil)

	// Directory
	case errors.Is(err, directory.ErrDirectoryUnavailable):
		ServiceUnavailable(w, "Employee directory unavailable, try again later")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
