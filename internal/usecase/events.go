package usecase

import (
	"context"
	"time"
)

// MatchIngestedEvent is published after a match's stats are persisted.
type MatchIngestedEvent struct {
	MatchID          int64     `json:"match_id"`
	ExternalID       string    `json:"external_id"`
	Region           string    `json:"region"`
	Winner           string    `json:"winner"`
	PlayersProcessed int       `json:"players_processed"`
	TeamsProcessed   int       `json:"teams_processed"`
	IngestedAt       time.Time `json:"ingested_at"`
}

type EventPublisher interface {
	PublishMatchIngested(ctx context.Context, event MatchIngestedEvent) error
}

type NoopEventPublisher struct{}

func (NoopEventPublisher) PublishMatchIngested(context.Context, MatchIngestedEvent) error {
	return nil
}
