package postgres

var playerMatchStatColumns = []string{
	"match_id",
	"player_id",
	"champion",
	"kills",
	"deaths",
	"assists",
	"cs",
	"gold",
	"damage",
	"vision_score",
	"fantasy_points",
	"source",
	"validated",
}

type playerMatchStatModel struct {
	MatchID       int64   `db:"match_id"`
	PlayerID      int64   `db:"player_id"`
	Champion      string  `db:"champion"`
	Kills         int     `db:"kills"`
	Deaths        int     `db:"deaths"`
	Assists       int     `db:"assists"`
	CS            int     `db:"cs"`
	Gold          int     `db:"gold"`
	Damage        int     `db:"damage"`
	VisionScore   int     `db:"vision_score"`
	FantasyPoints float64 `db:"fantasy_points"`
	Source        string  `db:"source"`
	Validated     bool    `db:"validated"`
}

var teamMatchStatColumns = []string{
	"match_id",
	"team_id",
	"dragons",
	"rift_heralds",
	"barons",
	"void_grubs",
	"atakhan",
	"turrets",
	"inhibitors",
	"total_kills",
	"won",
	"fantasy_points",
	"source",
	"validated",
}

type teamMatchStatModel struct {
	MatchID       int64   `db:"match_id"`
	TeamID        int64   `db:"team_id"`
	Dragons       int     `db:"dragons"`
	RiftHeralds   int     `db:"rift_heralds"`
	Barons        int     `db:"barons"`
	VoidGrubs     int     `db:"void_grubs"`
	Atakhan       int     `db:"atakhan"`
	Turrets       int     `db:"turrets"`
	Inhibitors    int     `db:"inhibitors"`
	TotalKills    int     `db:"total_kills"`
	Won           bool    `db:"won"`
	FantasyPoints float64 `db:"fantasy_points"`
	Source        string  `db:"source"`
	Validated     bool    `db:"validated"`
}
