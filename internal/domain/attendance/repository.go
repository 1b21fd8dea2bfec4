package attendance

import (
	"context"
)

// ImportJobRepository persists hand-offs to the bulk importer.
type ImportJobRepository interface {
	// Create registers a new job in queued state
	Create(ctx context.Context, job ImportJob) (ImportJob, error)

	// GetByCorrelationID retrieves a job and its importer progress
	GetByCorrelationID(ctx context.Context, correlationID string) (ImportJob, error)

	// UpdateStatus moves a job to a new status
	UpdateStatus(ctx context.Context, correlationID string, status ImportStatus) error

	// ListPending returns jobs the importer has not finished yet
	ListPending(ctx context.Context) ([]ImportJob, error)
}
