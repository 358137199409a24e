package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/esports-fantasy/internal/domain/role"
	qb "github.com/riskibarqy/esports-fantasy/internal/platform/querybuilder"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type RoleRepository struct {
	db *sqlx.DB
}

func NewRoleRepository(db *sqlx.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// FindByLabel tries the short name first, then a partial name match.
func (r *RoleRepository) FindByLabel(ctx context.Context, videoGameID int64, label string) (role.Role, bool, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return role.Role{}, false, nil
	}

	escaped := likeEscaper.Replace(label)
	for _, cond := range []qb.Condition{
		qb.ILike("short_name", escaped),
		qb.ILike("name", "%"+escaped+"%"),
	} {
		item, found, err := r.findOne(ctx, videoGameID, cond)
		if err != nil {
			return role.Role{}, false, fmt.Errorf("find role label=%s: %w", label, err)
		}
		if found {
			return item, true, nil
		}
	}
	return role.Role{}, false, nil
}

func (r *RoleRepository) findOne(ctx context.Context, videoGameID int64, cond qb.Condition) (role.Role, bool, error) {
	query, args, err := qb.Select(roleColumns...).From("roles").
		Where(qb.Eq("video_game_id", videoGameID), cond).
		OrderBy("id").
		Limit(1).
		ToSQL()
	if err != nil {
		return role.Role{}, false, fmt.Errorf("build find role query: %w", err)
	}

	var row roleTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return role.Role{}, false, nil
		}
		return role.Role{}, false, err
	}

	return role.Role{
		ID:          row.ID,
		VideoGameID: row.VideoGameID,
		Name:        row.Name,
		ShortName:   row.ShortName,
	}, true, nil
}
