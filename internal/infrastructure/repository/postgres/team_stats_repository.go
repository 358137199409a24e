package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/esports-fantasy/internal/domain/teamstats"
	qb "github.com/riskibarqy/esports-fantasy/internal/platform/querybuilder"
)

type TeamStatsRepository struct {
	db *sqlx.DB
}

func NewTeamStatsRepository(db *sqlx.DB) *TeamStatsRepository {
	return &TeamStatsRepository{db: db}
}

func (r *TeamStatsRepository) Upsert(ctx context.Context, item teamstats.Record) error {
	query, args, err := qb.InsertModel("team_match_stats", teamMatchStatModel{
		MatchID:       item.MatchID,
		TeamID:        item.TeamID,
		Dragons:       item.Dragons,
		RiftHeralds:   item.RiftHeralds,
		Barons:        item.Barons,
		VoidGrubs:     item.VoidGrubs,
		Atakhan:       item.Atakhan,
		Turrets:       item.Turrets,
		Inhibitors:    item.Inhibitors,
		TotalKills:    item.TotalKills,
		Won:           item.Won,
		FantasyPoints: item.FantasyPoints,
		Source:        item.Source,
		Validated:     item.Validated,
	}, `ON CONFLICT (match_id, team_id)
DO UPDATE SET
    dragons = EXCLUDED.dragons,
    rift_heralds = EXCLUDED.rift_heralds,
    barons = EXCLUDED.barons,
    void_grubs = EXCLUDED.void_grubs,
    atakhan = EXCLUDED.atakhan,
    turrets = EXCLUDED.turrets,
    inhibitors = EXCLUDED.inhibitors,
    total_kills = EXCLUDED.total_kills,
    won = EXCLUDED.won,
    fantasy_points = EXCLUDED.fantasy_points,
    source = EXCLUDED.source,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build upsert team match stat query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert team match stat match_id=%d team_id=%d: %w", item.MatchID, item.TeamID, err)
	}
	return nil
}

func (r *TeamStatsRepository) ListByMatch(ctx context.Context, matchID int64) ([]teamstats.Record, error) {
	query, args, err := qb.Select(teamMatchStatColumns...).From("team_match_stats").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("team_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list team match stats query: %w", err)
	}

	var rows []teamMatchStatModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list team match stats match_id=%d: %w", matchID, err)
	}

	out := make([]teamstats.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, teamstats.Record{
			MatchID:       row.MatchID,
			TeamID:        row.TeamID,
			Dragons:       row.Dragons,
			RiftHeralds:   row.RiftHeralds,
			Barons:        row.Barons,
			VoidGrubs:     row.VoidGrubs,
			Atakhan:       row.Atakhan,
			Turrets:       row.Turrets,
			Inhibitors:    row.Inhibitors,
			TotalKills:    row.TotalKills,
			Won:           row.Won,
			FantasyPoints: row.FantasyPoints,
			Source:        row.Source,
			Validated:     row.Validated,
		})
	}
	return out, nil
}
