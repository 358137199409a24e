package leaguepedia

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/esports-fantasy/internal/platform/logging"
	"github.com/riskibarqy/esports-fantasy/internal/usecase"
)

const (
	tableGames   = "ScoreboardGames"
	tablePlayers = "ScoreboardPlayers"
	tableTeams   = "ScoreboardTeams"

	matchPageSize    = 100
	playersPerMatch  = 10
	teamsPerMatch    = 2
	cargoTimeLayout  = "2006-01-02 15:04:05"
	gameOrderNewest  = "DateTime_UTC DESC"
	fieldGameID      = "GameId"
	fieldOverview    = "OverviewPage"
	fieldOccurredUTC = "DateTime_UTC"
)

var (
	gameFields   = []string{"GameId", "Tournament", "DateTime_UTC", "Team1", "Team2", "Winner", "Gamelength", "OverviewPage", "Team1Score", "Team2Score", "Patch"}
	playerFields = []string{"GameId", "Link", "Team", "Role", "Champion", "Kills", "Deaths", "Assists", "Gold", "CS", "DamageToChampions", "VisionScore"}
	teamFields   = []string{"GameId", "Team", "Dragons", "Barons", "Towers", "Kills", "RiftHeralds", "Inhibitors"}
)

type querier interface {
	Query(ctx context.Context, spec TableSpec) ([]Row, error)
}

// Fetcher lists games and per-game scoreboards through a rate limited Client.
type Fetcher struct {
	client querier
	pages  SeasonPages
	logger *logging.Logger
}

func NewFetcher(client querier, pages SeasonPages, logger *logging.Logger) *Fetcher {
	if logger == nil {
		logger = logging.Default()
	}
	if pages == nil {
		pages = DefaultSeasonPages()
	}
	return &Fetcher{client: client, pages: pages, logger: logger}
}

var _ usecase.MatchCatalog = (*Fetcher)(nil)

// FetchCompletedMatches never fails. Provider errors are logged and yield no matches.
func (f *Fetcher) FetchCompletedMatches(ctx context.Context, region string, since *time.Time) []usecase.RawMatch {
	page := f.pages.PageFor(region)
	filters := []Filter{Eq(fieldOverview, page)}
	if since != nil {
		filters = append(filters, Gte(fieldOccurredUTC, since.UTC().Format(cargoTimeLayout)))
	}

	rows, err := f.client.Query(ctx, TableSpec{
		Tables:  tableGames,
		Fields:  gameFields,
		Where:   And(filters...),
		OrderBy: gameOrderNewest,
		Limit:   matchPageSize,
	})
	if err != nil {
		f.logger.ErrorContext(ctx, "fetch completed matches failed", "region", region, "overview_page", page, "error", err)
		return []usecase.RawMatch{}
	}

	out := make([]usecase.RawMatch, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToMatch(row))
	}
	f.logger.InfoContext(ctx, "fetched completed matches", "region", region, "overview_page", page, "count", len(out))
	return out
}

func (f *Fetcher) FetchMatch(ctx context.Context, externalID string) (usecase.RawMatch, bool, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return usecase.RawMatch{}, false, fmt.Errorf("%w: game id is required", usecase.ErrInvalidInput)
	}

	rows, err := f.client.Query(ctx, TableSpec{
		Tables: tableGames,
		Fields: gameFields,
		Where:  Eq(fieldGameID, externalID),
		Limit:  1,
	})
	if err != nil {
		return usecase.RawMatch{}, false, fmt.Errorf("fetch match game_id=%s: %w", externalID, err)
	}
	if len(rows) == 0 {
		return usecase.RawMatch{}, false, nil
	}
	return rowToMatch(rows[0]), true, nil
}

func (f *Fetcher) FetchPlayerStats(ctx context.Context, externalID string) ([]usecase.RawPlayerStat, error) {
	rows, err := f.client.Query(ctx, TableSpec{
		Tables: tablePlayers,
		Fields: playerFields,
		Where:  Eq(fieldGameID, externalID),
		Limit:  playersPerMatch,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch player stats game_id=%s: %w", externalID, err)
	}

	out := make([]usecase.RawPlayerStat, 0, len(rows))
	for _, row := range rows {
		out = append(out, usecase.RawPlayerStat{
			GameID:            row.get("GameId"),
			Link:              row.get("Link"),
			Team:              row.get("Team"),
			Role:              row.get("Role"),
			Champion:          row.get("Champion"),
			Kills:             row.get("Kills"),
			Deaths:            row.get("Deaths"),
			Assists:           row.get("Assists"),
			Gold:              row.get("Gold"),
			CS:                row.get("CS"),
			DamageToChampions: row.get("DamageToChampions"),
			VisionScore:       row.get("VisionScore"),
		})
	}
	return out, nil
}

func (f *Fetcher) FetchTeamStats(ctx context.Context, externalID string) ([]usecase.RawTeamStat, error) {
	rows, err := f.client.Query(ctx, TableSpec{
		Tables: tableTeams,
		Fields: teamFields,
		Where:  Eq(fieldGameID, externalID),
		Limit:  teamsPerMatch,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch team stats game_id=%s: %w", externalID, err)
	}

	out := make([]usecase.RawTeamStat, 0, len(rows))
	for _, row := range rows {
		out = append(out, usecase.RawTeamStat{
			GameID:      row.get("GameId"),
			Team:        row.get("Team"),
			Dragons:     row.get("Dragons"),
			RiftHeralds: row.get("RiftHeralds"),
			Barons:      row.get("Barons"),
			VoidGrubs:   row.get("VoidGrubs"),
			Atakhan:     row.get("Atakhans"),
			Towers:      row.get("Towers"),
			Inhibitors:  row.get("Inhibitors"),
			Kills:       row.get("Kills"),
		})
	}
	return out, nil
}

// TestConnection reports whether a one-row query succeeds and returns data.
func (f *Fetcher) TestConnection(ctx context.Context) bool {
	rows, err := f.client.Query(ctx, TableSpec{
		Tables: tableGames,
		Fields: []string{fieldGameID},
		Limit:  1,
	})
	if err != nil {
		f.logger.ErrorContext(ctx, "leaguepedia connection test failed", "error", err)
		return false
	}
	ok := len(rows) > 0
	f.logger.InfoContext(ctx, "leaguepedia connection test", "success", ok)
	return ok
}

func rowToMatch(row Row) usecase.RawMatch {
	return usecase.RawMatch{
		GameID:       row.get("GameId"),
		Tournament:   row.get("Tournament"),
		DateTimeUTC:  row.get("DateTime_UTC"),
		Team1:        row.get("Team1"),
		Team2:        row.get("Team2"),
		Winner:       row.get("Winner"),
		Gamelength:   row.get("Gamelength"),
		OverviewPage: row.get("OverviewPage"),
		Team1Score:   row.get("Team1Score"),
		Team2Score:   row.get("Team2Score"),
		Patch:        row.get("Patch"),
	}
}

// get reads a field; cargo reports underscored names with spaces.
func (r Row) get(field string) string {
	if value, ok := r[field]; ok {
		return value
	}
	return r[strings.ReplaceAll(field, "_", " ")]
}
