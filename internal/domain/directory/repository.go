package directory

import (
	"context"
)

// Repository is the read-only personnel directory consumed by the normalizer.
type Repository interface {
	// ListEntries returns every active directory entry of a company
	ListEntries(ctx context.Context, company string) ([]Entry, error)
}
