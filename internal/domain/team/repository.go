package team

import "context"

// Repository describes team persistence needs from use cases.
type Repository interface {
	// FindByName matches the exact name or short name.
	FindByName(ctx context.Context, videoGameID int64, name string) (Team, bool, error)
	Insert(ctx context.Context, item Team) (Team, error)
}
