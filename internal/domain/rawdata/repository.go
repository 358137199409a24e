package rawdata

import "context"

// Repository archives payloads. Archiving is best effort; callers log failures and continue.
type Repository interface {
	UpsertMany(ctx context.Context, items []Payload) error
}
