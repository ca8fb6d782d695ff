package ports

import (
	"context"

	"github.com/aretw0/lockstep/pkg/report"
)

// ResultStore defines the interface for caching solve reports.
// Keys are derived from the input digest and the analysis settings, so an
// entry never needs invalidation; expiry only bounds storage.
type ResultStore interface {
	// Save persists the report under key.
	Save(ctx context.Context, key string, r *report.Report) error

	// Load retrieves the report stored under key.
	// Returns domain.ErrResultNotFound if no report exists.
	Load(ctx context.Context, key string) (*report.Report, error)

	// Delete removes the report stored under key.
	Delete(ctx context.Context, key string) error

	// List returns the keys of every stored report.
	List(ctx context.Context) ([]string, error)
}
