package postgres

import "database/sql"

var teamColumns = []string{"id", "video_game_id", "name", "short_name", "region", "active"}

type teamTableModel struct {
	ID          int64  `db:"id"`
	VideoGameID int64  `db:"video_game_id"`
	Name        string `db:"name"`
	ShortName   string `db:"short_name"`
	Region      string `db:"region"`
	Active      bool   `db:"active"`
}

type teamInsertModel struct {
	VideoGameID int64  `db:"video_game_id"`
	Name        string `db:"name"`
	ShortName   string `db:"short_name"`
	Region      string `db:"region"`
	Active      bool   `db:"active"`
}

var playerColumns = []string{"id", "video_game_id", "ign", "team_id", "role_id", "active"}

type playerTableModel struct {
	ID          int64         `db:"id"`
	VideoGameID int64         `db:"video_game_id"`
	IGN         string        `db:"ign"`
	TeamID      sql.NullInt64 `db:"team_id"`
	RoleID      int64         `db:"role_id"`
	Active      bool          `db:"active"`
}

type playerInsertModel struct {
	VideoGameID int64  `db:"video_game_id"`
	IGN         string `db:"ign"`
	TeamID      *int64 `db:"team_id"`
	RoleID      int64  `db:"role_id"`
	Active      bool   `db:"active"`
}

var roleColumns = []string{"id", "video_game_id", "name", "short_name"}

type roleTableModel struct {
	ID          int64  `db:"id"`
	VideoGameID int64  `db:"video_game_id"`
	Name        string `db:"name"`
	ShortName   string `db:"short_name"`
}
