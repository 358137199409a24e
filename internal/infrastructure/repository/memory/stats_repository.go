package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/riskibarqy/esports-fantasy/internal/domain/playerstats"
	"github.com/riskibarqy/esports-fantasy/internal/domain/teamstats"
)

type statKey struct {
	matchID  int64
	entityID int64
}

type PlayerStatsRepository struct {
	mu   sync.RWMutex
	rows map[statKey]playerstats.Record
}

func NewPlayerStatsRepository() *PlayerStatsRepository {
	return &PlayerStatsRepository{rows: make(map[statKey]playerstats.Record)}
}

func (r *PlayerStatsRepository) Upsert(_ context.Context, item playerstats.Record) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[statKey{matchID: item.MatchID, entityID: item.PlayerID}] = item
	return nil
}

func (r *PlayerStatsRepository) ListByMatch(_ context.Context, matchID int64) ([]playerstats.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]playerstats.Record, 0, 10)
	for key, item := range r.rows {
		if key.matchID == matchID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

type TeamStatsRepository struct {
	mu   sync.RWMutex
	rows map[statKey]teamstats.Record
}

func NewTeamStatsRepository() *TeamStatsRepository {
	return &TeamStatsRepository{rows: make(map[statKey]teamstats.Record)}
}

func (r *TeamStatsRepository) Upsert(_ context.Context, item teamstats.Record) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[statKey{matchID: item.MatchID, entityID: item.TeamID}] = item
	return nil
}

func (r *TeamStatsRepository) ListByMatch(_ context.Context, matchID int64) ([]teamstats.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]teamstats.Record, 0, 2)
	for key, item := range r.rows {
		if key.matchID == matchID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out, nil
}
