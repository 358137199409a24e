package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/esports-fantasy/internal/domain/player"
	qb "github.com/riskibarqy/esports-fantasy/internal/platform/querybuilder"
)

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) FindByIGN(ctx context.Context, videoGameID int64, ign string) (player.Player, bool, error) {
	ign = strings.TrimSpace(ign)
	query, args, err := qb.Select(playerColumns...).From("players").
		Where(
			qb.Eq("video_game_id", videoGameID),
			qb.Eq("ign", ign),
			qb.IsNull("deleted_at"),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build find player query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("find player ign=%s: %w", ign, err)
	}

	return playerFromRow(row), true, nil
}

func (r *PlayerRepository) Insert(ctx context.Context, item player.Player) (player.Player, error) {
	query, args, err := qb.InsertModel("players", playerInsertModel{
		VideoGameID: item.VideoGameID,
		IGN:         strings.TrimSpace(item.IGN),
		TeamID:      item.TeamID,
		RoleID:      item.RoleID,
		Active:      item.Active,
	}, "RETURNING "+strings.Join(playerColumns, ", "))
	if err != nil {
		return player.Player{}, fmt.Errorf("build insert player query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isUniqueViolation(err) {
			return player.Player{}, fmt.Errorf("%w: ign=%s", player.ErrAlreadyExists, item.IGN)
		}
		return player.Player{}, fmt.Errorf("insert player ign=%s: %w", item.IGN, err)
	}

	return playerFromRow(row), nil
}

func playerFromRow(row playerTableModel) player.Player {
	return player.Player{
		ID:          row.ID,
		VideoGameID: row.VideoGameID,
		IGN:         row.IGN,
		TeamID:      nullInt64ToPtr(row.TeamID),
		RoleID:      row.RoleID,
		Active:      row.Active,
	}
}
