package usecase

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/esports-fantasy/internal/domain/match"
	"github.com/riskibarqy/esports-fantasy/internal/domain/scoring"
	"github.com/samber/lo"
)

var (
	gameLengthRegex = regexp.MustCompile(`^(\d+):([0-5]?\d)$`)
	weekLabelRegex  = regexp.MustCompile(`_Week (\d+)_`)
)

var zonedTimestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 Z07:00",
	"2006-01-02 15:04:05 MST",
}

var naiveTimestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// NormalizedPlayerStat is a typed ScoreboardPlayers row, not yet resolved to ids.
type NormalizedPlayerStat struct {
	GameID      string
	PlayerName  string
	TeamName    string
	Role        string
	Champion    string
	Kills       int
	Deaths      int
	Assists     int
	Gold        int
	CS          int
	Damage      int
	VisionScore int
}

func (s NormalizedPlayerStat) ScoringInput() scoring.PlayerInput {
	return scoring.PlayerInput{
		Kills:       s.Kills,
		Deaths:      s.Deaths,
		Assists:     s.Assists,
		CS:          s.CS,
		VisionScore: s.VisionScore,
	}
}

type NormalizedTeamStat struct {
	GameID      string
	TeamName    string
	Dragons     int
	RiftHeralds int
	Barons      int
	VoidGrubs   int
	Atakhan     int
	Turrets     int
	Inhibitors  int
	TotalKills  int
}

func (s NormalizedTeamStat) ScoringInput(won bool) scoring.TeamInput {
	return scoring.TeamInput{
		Dragons:     s.Dragons,
		RiftHeralds: s.RiftHeralds,
		Barons:      s.Barons,
		VoidGrubs:   s.VoidGrubs,
		Atakhan:     s.Atakhan,
		Turrets:     s.Turrets,
		Inhibitors:  s.Inhibitors,
		TotalKills:  s.TotalKills,
		Won:         won,
	}
}

// ParseDuration converts "MM:SS" to seconds. Anything else yields 0.
func ParseDuration(value string) int {
	parts := gameLengthRegex.FindStringSubmatch(strings.TrimSpace(value))
	if len(parts) != 3 {
		return 0
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	seconds, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0
	}
	return minutes*60 + seconds
}

// ParseTimestamp keeps an explicit zone and assumes UTC otherwise.
func ParseTimestamp(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range zonedTimestampLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return &parsed
		}
	}
	for _, layout := range naiveTimestampLayouts {
		if parsed, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return &parsed
		}
	}
	return nil
}

// ExtractWeekLabel reads "Week <n>" out of game ids like "LPL/2026 Season/Split 1_Week 3_10_3".
func ExtractWeekLabel(gameID string) *string {
	parts := weekLabelRegex.FindStringSubmatch(gameID)
	if len(parts) != 2 {
		return nil
	}
	label := "Week " + parts[1]
	return &label
}

func RegionFromOverviewPage(page string) string {
	page = strings.TrimSpace(page)
	if idx := strings.Index(page, "/"); idx >= 0 {
		return strings.TrimSpace(page[:idx])
	}
	return page
}

// ResolveWinner maps the provider's "1"/"2" winner flag to a team name.
func ResolveWinner(winner, team1, team2 string) string {
	switch winner = strings.TrimSpace(winner); winner {
	case "1":
		return strings.TrimSpace(team1)
	case "2":
		return strings.TrimSpace(team2)
	default:
		return winner
	}
}

// NormalizeMatch returns nil when the row has no game id.
func NormalizeMatch(raw RawMatch) *match.Match {
	gameID := strings.TrimSpace(raw.GameID)
	if gameID == "" {
		return nil
	}

	team1 := strings.TrimSpace(raw.Team1)
	team2 := strings.TrimSpace(raw.Team2)
	return &match.Match{
		ExternalID:      gameID,
		Tournament:      strings.TrimSpace(raw.Tournament),
		Region:          RegionFromOverviewPage(raw.OverviewPage),
		OverviewPage:    strings.TrimSpace(raw.OverviewPage),
		OccurredAt:      ParseTimestamp(raw.DateTimeUTC),
		DurationSeconds: ParseDuration(raw.Gamelength),
		Patch:           strings.TrimSpace(raw.Patch),
		WeekLabel:       ExtractWeekLabel(gameID),
		Team1:           team1,
		Team2:           team2,
		Winner:          ResolveWinner(raw.Winner, team1, team2),
		Status:          match.StatusPendingValidation,
	}
}

// NormalizePlayerStat returns nil for rows without a player or team, or with non-numeric counters.
func NormalizePlayerStat(raw RawPlayerStat) *NormalizedPlayerStat {
	out := NormalizedPlayerStat{
		GameID:     strings.TrimSpace(raw.GameID),
		PlayerName: strings.TrimSpace(raw.Link),
		TeamName:   strings.TrimSpace(raw.Team),
		Role:       strings.TrimSpace(raw.Role),
		Champion:   strings.TrimSpace(raw.Champion),
	}
	if out.PlayerName == "" || out.TeamName == "" {
		return nil
	}

	p := counterParser{}
	out.Kills = p.parse(raw.Kills)
	out.Deaths = p.parse(raw.Deaths)
	out.Assists = p.parse(raw.Assists)
	out.Gold = p.parse(raw.Gold)
	out.CS = p.parse(raw.CS)
	out.Damage = p.parse(raw.DamageToChampions)
	out.VisionScore = p.parse(raw.VisionScore)
	if p.failed {
		return nil
	}
	return &out
}

func NormalizeTeamStat(raw RawTeamStat) *NormalizedTeamStat {
	out := NormalizedTeamStat{
		GameID:   strings.TrimSpace(raw.GameID),
		TeamName: strings.TrimSpace(raw.Team),
	}
	if out.TeamName == "" {
		return nil
	}

	p := counterParser{}
	out.Dragons = p.parse(raw.Dragons)
	out.RiftHeralds = p.parse(raw.RiftHeralds)
	out.Barons = p.parse(raw.Barons)
	out.VoidGrubs = p.parse(raw.VoidGrubs)
	out.Atakhan = p.parse(raw.Atakhan)
	out.Turrets = p.parse(raw.Towers)
	out.Inhibitors = p.parse(raw.Inhibitors)
	out.TotalKills = p.parse(raw.Kills)
	if p.failed {
		return nil
	}
	return &out
}

func NormalizePlayerStats(raws []RawPlayerStat) []NormalizedPlayerStat {
	return lo.FilterMap(raws, func(raw RawPlayerStat, _ int) (NormalizedPlayerStat, bool) {
		normalized := NormalizePlayerStat(raw)
		if normalized == nil {
			return NormalizedPlayerStat{}, false
		}
		return *normalized, true
	})
}

func NormalizeTeamStats(raws []RawTeamStat) []NormalizedTeamStat {
	return lo.FilterMap(raws, func(raw RawTeamStat, _ int) (NormalizedTeamStat, bool) {
		normalized := NormalizeTeamStat(raw)
		if normalized == nil {
			return NormalizedTeamStat{}, false
		}
		return *normalized, true
	})
}

// counterParser reads provider counters. Empty means zero; anything non-numeric marks the row malformed.
type counterParser struct {
	failed bool
}

func (p *counterParser) parse(value string) int {
	value = strings.TrimSpace(strings.ReplaceAll(value, ",", ""))
	if value == "" {
		return 0
	}
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	if parsed, err := strconv.ParseFloat(value, 64); err == nil && !math.IsNaN(parsed) && !math.IsInf(parsed, 0) {
		return int(parsed)
	}
	p.failed = true
	return 0
}
