package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/esports-fantasy/internal/domain/playerstats"
	qb "github.com/riskibarqy/esports-fantasy/internal/platform/querybuilder"
)

type PlayerStatsRepository struct {
	db *sqlx.DB
}

func NewPlayerStatsRepository(db *sqlx.DB) *PlayerStatsRepository {
	return &PlayerStatsRepository{db: db}
}

// Upsert refreshes counters and points but never touches the validated flag of an existing line.
func (r *PlayerStatsRepository) Upsert(ctx context.Context, item playerstats.Record) error {
	query, args, err := qb.InsertModel("player_match_stats", playerMatchStatModel{
		MatchID:       item.MatchID,
		PlayerID:      item.PlayerID,
		Champion:      item.Champion,
		Kills:         item.Kills,
		Deaths:        item.Deaths,
		Assists:       item.Assists,
		CS:            item.CS,
		Gold:          item.Gold,
		Damage:        item.Damage,
		VisionScore:   item.VisionScore,
		FantasyPoints: item.FantasyPoints,
		Source:        item.Source,
		Validated:     item.Validated,
	}, `ON CONFLICT (match_id, player_id)
DO UPDATE SET
    champion = EXCLUDED.champion,
    kills = EXCLUDED.kills,
    deaths = EXCLUDED.deaths,
    assists = EXCLUDED.assists,
    cs = EXCLUDED.cs,
    gold = EXCLUDED.gold,
    damage = EXCLUDED.damage,
    vision_score = EXCLUDED.vision_score,
    fantasy_points = EXCLUDED.fantasy_points,
    source = EXCLUDED.source,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build upsert player match stat query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert player match stat match_id=%d player_id=%d: %w", item.MatchID, item.PlayerID, err)
	}
	return nil
}

func (r *PlayerStatsRepository) ListByMatch(ctx context.Context, matchID int64) ([]playerstats.Record, error) {
	query, args, err := qb.Select(playerMatchStatColumns...).From("player_match_stats").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("player_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list player match stats query: %w", err)
	}

	var rows []playerMatchStatModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list player match stats match_id=%d: %w", matchID, err)
	}

	out := make([]playerstats.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, playerstats.Record{
			MatchID:       row.MatchID,
			PlayerID:      row.PlayerID,
			Champion:      row.Champion,
			Kills:         row.Kills,
			Deaths:        row.Deaths,
			Assists:       row.Assists,
			CS:            row.CS,
			Gold:          row.Gold,
			Damage:        row.Damage,
			VisionScore:   row.VisionScore,
			FantasyPoints: row.FantasyPoints,
			Source:        row.Source,
			Validated:     row.Validated,
		})
	}
	return out, nil
}
