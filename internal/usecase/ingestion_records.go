package usecase

import (
	"context"
	"time"
)

// RawMatch is one ScoreboardGames row as returned by the provider.
type RawMatch struct {
	GameID       string `json:"game_id"`
	Tournament   string `json:"tournament"`
	DateTimeUTC  string `json:"datetime_utc"`
	Team1        string `json:"team1"`
	Team2        string `json:"team2"`
	Winner       string `json:"winner"`
	Gamelength   string `json:"gamelength"`
	OverviewPage string `json:"overview_page"`
	Team1Score   string `json:"team1_score"`
	Team2Score   string `json:"team2_score"`
	Patch        string `json:"patch"`
}

// RawPlayerStat is one ScoreboardPlayers row. Counters are unparsed provider text.
type RawPlayerStat struct {
	GameID            string `json:"game_id"`
	Link              string `json:"link"`
	Team              string `json:"team"`
	Role              string `json:"role"`
	Champion          string `json:"champion"`
	Kills             string `json:"kills"`
	Deaths            string `json:"deaths"`
	Assists           string `json:"assists"`
	Gold              string `json:"gold"`
	CS                string `json:"cs"`
	DamageToChampions string `json:"damage_to_champions"`
	VisionScore       string `json:"vision_score"`
}

// RawTeamStat is one ScoreboardTeams row.
type RawTeamStat struct {
	GameID      string `json:"game_id"`
	Team        string `json:"team"`
	Dragons     string `json:"dragons"`
	RiftHeralds string `json:"rift_heralds"`
	Barons      string `json:"barons"`
	VoidGrubs   string `json:"void_grubs"`
	Atakhan     string `json:"atakhan"`
	Towers      string `json:"towers"`
	Inhibitors  string `json:"inhibitors"`
	Kills       string `json:"kills"`
}

// MatchLister lists completed matches. Provider failures yield an empty slice.
type MatchLister interface {
	FetchCompletedMatches(ctx context.Context, region string, since *time.Time) []RawMatch
}

type MatchStatsFetcher interface {
	FetchMatch(ctx context.Context, externalID string) (RawMatch, bool, error)
	FetchPlayerStats(ctx context.Context, externalID string) ([]RawPlayerStat, error)
	FetchTeamStats(ctx context.Context, externalID string) ([]RawTeamStat, error)
}

// MatchCatalog is the full provider surface used by ingestion.
type MatchCatalog interface {
	MatchLister
	MatchStatsFetcher
}
