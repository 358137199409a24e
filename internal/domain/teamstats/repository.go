package teamstats

import "context"

type Repository interface {
	// Upsert overwrites counters and points on (match_id, team_id) conflict.
	Upsert(ctx context.Context, item Record) error
	ListByMatch(ctx context.Context, matchID int64) ([]Record, error)
}
