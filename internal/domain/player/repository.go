package player

import "context"

// Repository describes player persistence needs from use cases.
type Repository interface {
	FindByIGN(ctx context.Context, videoGameID int64, ign string) (Player, bool, error)
	Insert(ctx context.Context, item Player) (Player, error)
}
