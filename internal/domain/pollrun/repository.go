package pollrun

import "context"

type Repository interface {
	// UpsertRun is keyed by RunID; later statuses overwrite earlier ones.
	UpsertRun(ctx context.Context, run Run) error
}
