package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/esports-fantasy/internal/infrastructure/repository/memory"
)

// BootstrapSeed inserts the role catalog when the roles table is empty.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM roles`); err != nil {
		return fmt.Errorf("count roles for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range memory.SeedRoles() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO roles (id, video_game_id, name, short_name)
VALUES (:id, :video_game_id, :name, :short_name)
ON CONFLICT (id) DO NOTHING`, map[string]any{
			"id":            item.ID,
			"video_game_id": item.VideoGameID,
			"name":          item.Name,
			"short_name":    item.ShortName,
		})
		if err != nil {
			return fmt.Errorf("bind seed role %s query: %w", item.Name, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed role %s: %w", item.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}
