package postgres

import (
	"database/sql"
	"time"
)

var matchColumns = []string{
	"id",
	"video_game_id",
	"external_id",
	"tournament",
	"region",
	"overview_page",
	"occurred_at",
	"duration_seconds",
	"patch",
	"week_label",
	"team1",
	"team2",
	"winner",
	"status",
	"created_at",
	"updated_at",
}

type matchTableModel struct {
	ID              int64          `db:"id"`
	VideoGameID     int64          `db:"video_game_id"`
	ExternalID      string         `db:"external_id"`
	Tournament      string         `db:"tournament"`
	Region          string         `db:"region"`
	OverviewPage    string         `db:"overview_page"`
	OccurredAt      sql.NullTime   `db:"occurred_at"`
	DurationSeconds int            `db:"duration_seconds"`
	Patch           string         `db:"patch"`
	WeekLabel       sql.NullString `db:"week_label"`
	Team1           string         `db:"team1"`
	Team2           string         `db:"team2"`
	Winner          string         `db:"winner"`
	Status          string         `db:"status"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

type matchInsertModel struct {
	VideoGameID     int64      `db:"video_game_id"`
	ExternalID      string     `db:"external_id"`
	Tournament      string     `db:"tournament"`
	Region          string     `db:"region"`
	OverviewPage    string     `db:"overview_page"`
	OccurredAt      *time.Time `db:"occurred_at"`
	DurationSeconds int        `db:"duration_seconds"`
	Patch           string     `db:"patch"`
	WeekLabel       *string    `db:"week_label"`
	Team1           string     `db:"team1"`
	Team2           string     `db:"team2"`
	Winner          string     `db:"winner"`
	Status          string     `db:"status"`
}
