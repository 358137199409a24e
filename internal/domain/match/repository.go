package match

import (
	"context"
	"time"
)

// Repository describes match persistence needs from use cases.
type Repository interface {
	FindByExternalID(ctx context.Context, externalID string) (Match, bool, error)
	// Upsert inserts the match or refreshes provider fields of an existing row keyed by external id.
	// Status and created_at of an existing row are preserved.
	Upsert(ctx context.Context, item Match) (Match, error)
	LatestPendingCreatedAt(ctx context.Context) (*time.Time, error)
}
