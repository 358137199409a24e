package role

import "context"

type Repository interface {
	// FindByLabel matches the short name exactly or the name partially.
	FindByLabel(ctx context.Context, videoGameID int64, label string) (Role, bool, error)
}
