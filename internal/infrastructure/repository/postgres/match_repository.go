package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/esports-fantasy/internal/domain/match"
	qb "github.com/riskibarqy/esports-fantasy/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) FindByExternalID(ctx context.Context, externalID string) (match.Match, bool, error) {
	query, args, err := qb.Select(matchColumns...).From("matches").
		Where(
			qb.Eq("external_id", strings.TrimSpace(externalID)),
			qb.IsNull("deleted_at"),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build find match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("find match external_id=%s: %w", externalID, err)
	}

	return matchFromRow(row), true, nil
}

func (r *MatchRepository) Upsert(ctx context.Context, item match.Match) (match.Match, error) {
	model := matchInsertModel{
		VideoGameID:     item.VideoGameID,
		ExternalID:      strings.TrimSpace(item.ExternalID),
		Tournament:      item.Tournament,
		Region:          item.Region,
		OverviewPage:    item.OverviewPage,
		OccurredAt:      item.OccurredAt,
		DurationSeconds: item.DurationSeconds,
		Patch:           item.Patch,
		WeekLabel:       item.WeekLabel,
		Team1:           item.Team1,
		Team2:           item.Team2,
		Winner:          item.Winner,
		Status:          string(item.Status),
	}

	query, args, err := qb.InsertModel("matches", model, `ON CONFLICT (external_id) WHERE deleted_at IS NULL
DO UPDATE SET
    tournament = EXCLUDED.tournament,
    region = EXCLUDED.region,
    overview_page = EXCLUDED.overview_page,
    occurred_at = EXCLUDED.occurred_at,
    duration_seconds = EXCLUDED.duration_seconds,
    patch = EXCLUDED.patch,
    week_label = EXCLUDED.week_label,
    team1 = EXCLUDED.team1,
    team2 = EXCLUDED.team2,
    winner = EXCLUDED.winner,
    updated_at = NOW()
RETURNING `+strings.Join(matchColumns, ", "))
	if err != nil {
		return match.Match{}, fmt.Errorf("build upsert match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return match.Match{}, fmt.Errorf("upsert match external_id=%s: %w", item.ExternalID, err)
	}

	return matchFromRow(row), nil
}

func (r *MatchRepository) LatestPendingCreatedAt(ctx context.Context) (*time.Time, error) {
	query, args, err := qb.Select("MAX(created_at)").From("matches").
		Where(
			qb.Eq("status", string(match.StatusPendingValidation)),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build latest pending match query: %w", err)
	}

	var latest sql.NullTime
	if err := r.db.GetContext(ctx, &latest, query, args...); err != nil {
		return nil, fmt.Errorf("latest pending match: %w", err)
	}

	return nullTimeToPtr(latest), nil
}

func matchFromRow(row matchTableModel) match.Match {
	return match.Match{
		ID:              row.ID,
		VideoGameID:     row.VideoGameID,
		ExternalID:      row.ExternalID,
		Tournament:      row.Tournament,
		Region:          row.Region,
		OverviewPage:    row.OverviewPage,
		OccurredAt:      nullTimeToPtr(row.OccurredAt),
		DurationSeconds: row.DurationSeconds,
		Patch:           row.Patch,
		WeekLabel:       nullStringToPtr(row.WeekLabel),
		Team1:           row.Team1,
		Team2:           row.Team2,
		Winner:          row.Winner,
		Status:          match.Status(row.Status),
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
}
