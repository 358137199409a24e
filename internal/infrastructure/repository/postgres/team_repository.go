package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/esports-fantasy/internal/domain/team"
	qb "github.com/riskibarqy/esports-fantasy/internal/platform/querybuilder"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) FindByName(ctx context.Context, videoGameID int64, name string) (team.Team, bool, error) {
	name = strings.TrimSpace(name)
	query, args, err := qb.Select(teamColumns...).From("teams").
		Where(
			qb.Eq("video_game_id", videoGameID),
			qb.Or(qb.Eq("name", name), qb.Eq("short_name", name)),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		Limit(1).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build find team query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("find team name=%s: %w", name, err)
	}

	return teamFromRow(row), true, nil
}

func (r *TeamRepository) Insert(ctx context.Context, item team.Team) (team.Team, error) {
	query, args, err := qb.InsertModel("teams", teamInsertModel{
		VideoGameID: item.VideoGameID,
		Name:        strings.TrimSpace(item.Name),
		ShortName:   strings.TrimSpace(item.ShortName),
		Region:      item.Region,
		Active:      item.Active,
	}, "RETURNING "+strings.Join(teamColumns, ", "))
	if err != nil {
		return team.Team{}, fmt.Errorf("build insert team query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isUniqueViolation(err) {
			return team.Team{}, fmt.Errorf("%w: name=%s", team.ErrAlreadyExists, item.Name)
		}
		return team.Team{}, fmt.Errorf("insert team name=%s: %w", item.Name, err)
	}

	return teamFromRow(row), nil
}

func teamFromRow(row teamTableModel) team.Team {
	return team.Team{
		ID:          row.ID,
		VideoGameID: row.VideoGameID,
		Name:        row.Name,
		ShortName:   row.ShortName,
		Region:      row.Region,
		Active:      row.Active,
	}
}
