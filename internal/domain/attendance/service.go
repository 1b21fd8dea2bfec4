package attendance

import (
	"context"
)

// ImportService drives a normalization run and the hand-off to the bulk importer.
type ImportService interface {
	// Normalize parses an uploaded export, writes the canonical artifact and registers an import job
	Normalize(ctx context.Context, req NormalizeRequest) (NormalizeResponse, error)

	// GetImport returns the importer's progress for a run
	GetImport(ctx context.Context, correlationID string) (ImportResponse, error)

	// CancelImport marks a run cancelled so records stamped with its correlation id are rolled back
	CancelImport(ctx context.Context, correlationID string) error

	// ListFormats describes the registered branch formats
	ListFormats(ctx context.Context) []FormatInfo
}
