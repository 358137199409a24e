package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/esports-fantasy/internal/domain/match"
	"github.com/riskibarqy/esports-fantasy/internal/domain/playerstats"
	"github.com/riskibarqy/esports-fantasy/internal/domain/rawdata"
	"github.com/riskibarqy/esports-fantasy/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/esports-fantasy/internal/platform/logging"
)

const fixtureGameID = "LCK/2026 Season/Split 1_Week 1_1_1"

type catalogStub struct {
	mu sync.Mutex

	matches     map[string][]RawMatch
	players     map[string][]RawPlayerStat
	teams       map[string][]RawTeamStat
	playerErr   error
	teamErr     error
	panicOn     string
	listCalls   int
	playerCalls int
	teamCalls   int
	sinceSeen   []*time.Time
}

func (s *catalogStub) FetchCompletedMatches(_ context.Context, region string, since *time.Time) []RawMatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	s.sinceSeen = append(s.sinceSeen, since)
	return append([]RawMatch(nil), s.matches[region]...)
}

func (s *catalogStub) FetchMatch(_ context.Context, externalID string) (RawMatch, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rows := range s.matches {
		for _, row := range rows {
			if row.GameID == externalID {
				return row, true, nil
			}
		}
	}
	return RawMatch{}, false, nil
}

func (s *catalogStub) FetchPlayerStats(_ context.Context, externalID string) ([]RawPlayerStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playerCalls++
	if s.panicOn == externalID {
		panic("scoreboard decoder exploded")
	}
	if s.playerErr != nil {
		return nil, s.playerErr
	}
	return append([]RawPlayerStat(nil), s.players[externalID]...), nil
}

func (s *catalogStub) FetchTeamStats(_ context.Context, externalID string) ([]RawTeamStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teamCalls++
	if s.teamErr != nil {
		return nil, s.teamErr
	}
	return append([]RawTeamStat(nil), s.teams[externalID]...), nil
}

type publisherStub struct {
	mu     sync.Mutex
	events []MatchIngestedEvent
	err    error
}

func (p *publisherStub) PublishMatchIngested(_ context.Context, event MatchIngestedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type pipelineFixture struct {
	catalog     *catalogStub
	matches     *memory.MatchRepository
	teams       *memory.TeamRepository
	players     *memory.PlayerRepository
	playerStats *memory.PlayerStatsRepository
	teamStats   *memory.TeamStatsRepository
	rawData     *memory.RawDataRepository
	publisher   *publisherStub
	pipeline    *IngestionPipeline
	sleeps      []time.Duration
}

func fixtureMatch(gameID string) RawMatch {
	return RawMatch{
		GameID:       gameID,
		Tournament:   "LCK 2026 Split 1",
		DateTimeUTC:  "2026-01-14 08:00:00",
		Team1:        "Alpha",
		Team2:        "Beta",
		Winner:       "1",
		Gamelength:   "30:00",
		OverviewPage: "LCK/2026 Season/Split 1",
	}
}

func fixturePlayers(gameID string) []RawPlayerStat {
	return []RawPlayerStat{
		{GameID: gameID, Link: "A1", Team: "Alpha", Role: "Mid", Kills: "3", Deaths: "0", Assists: "2", CS: "100", VisionScore: "10"},
		{GameID: gameID, Link: "A2", Team: "Alpha", Role: "Bot", Kills: "2", Deaths: "1", Assists: "3", CS: "200", VisionScore: "20"},
		{GameID: gameID, Link: "B1", Team: "Beta", Role: "Top", Kills: "1", Deaths: "2", Assists: "0", CS: "150", VisionScore: "15"},
	}
}

func fixtureTeams(gameID string) []RawTeamStat {
	return []RawTeamStat{
		{GameID: gameID, Team: "Alpha", Dragons: "3", Barons: "1", Towers: "8", Inhibitors: "2", Kills: ""},
		{GameID: gameID, Team: "Beta", Dragons: "1", Towers: "2", Kills: "1"},
	}
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	f := &pipelineFixture{
		catalog: &catalogStub{
			matches: map[string][]RawMatch{"LCK": {fixtureMatch(fixtureGameID)}},
			players: map[string][]RawPlayerStat{fixtureGameID: fixturePlayers(fixtureGameID)},
			teams:   map[string][]RawTeamStat{fixtureGameID: fixtureTeams(fixtureGameID)},
		},
		matches:     memory.NewMatchRepository(),
		teams:       memory.NewTeamRepository(nil),
		players:     memory.NewPlayerRepository(nil),
		playerStats: memory.NewPlayerStatsRepository(),
		teamStats:   memory.NewTeamStatsRepository(),
		rawData:     memory.NewRawDataRepository(),
		publisher:   &publisherStub{},
	}

	resolver := NewEntityResolver(
		f.teams,
		f.players,
		memory.NewRoleRepository(memory.SeedRoles()),
		EntityResolverConfig{VideoGameID: memory.VideoGameLeagueOfLegends},
		logging.NewNop(),
	)
	f.pipeline = NewIngestionPipeline(IngestionPipelineDeps{
		Stats:           f.catalog,
		Resolver:        resolver,
		MatchRepo:       f.matches,
		PlayerStatsRepo: f.playerStats,
		TeamStatsRepo:   f.teamStats,
		RawDataRepo:     f.rawData,
		Publisher:       f.publisher,
		Logger:          logging.NewNop(),
	}, IngestionPipelineConfig{StatFetchDelay: 2 * time.Second})
	f.pipeline.sleep = func(ctx context.Context, d time.Duration) error {
		f.sleeps = append(f.sleeps, d)
		return ctx.Err()
	}
	return f
}

func TestIngestionPipeline_ProcessMatch_PersistsScoredStats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newPipelineFixture(t)

	result := f.pipeline.ProcessMatch(ctx, fixtureMatch(fixtureGameID))
	if !result.Success {
		t.Fatalf("expected success, got reason=%s message=%s", result.Reason, result.Message)
	}
	if result.PlayersProcessed != 3 || result.TeamsProcessed != 2 {
		t.Fatalf("unexpected counts: players=%d teams=%d", result.PlayersProcessed, result.TeamsProcessed)
	}

	stored, found, err := f.matches.FindByExternalID(ctx, fixtureGameID)
	if err != nil || !found {
		t.Fatalf("expected stored match, found=%v err=%v", found, err)
	}
	if stored.Status != match.StatusPendingValidation || stored.Winner != "Alpha" || stored.Region != "LCK" {
		t.Fatalf("unexpected stored match: %+v", stored)
	}

	lines, err := f.playerStats.ListByMatch(ctx, stored.ID)
	if err != nil {
		t.Fatalf("list player stats: %v", err)
	}
	wantPoints := map[string]float64{"A1": 48.24, "A2": 40.9, "B1": 30.3}
	if len(lines) != len(wantPoints) {
		t.Fatalf("unexpected player stat count: got=%d want=%d", len(lines), len(wantPoints))
	}
	byID := make(map[int64]string)
	for _, item := range f.players.List() {
		byID[item.ID] = item.IGN
	}
	for _, line := range lines {
		ign := byID[line.PlayerID]
		if line.FantasyPoints != wantPoints[ign] {
			t.Fatalf("unexpected points for %s: got=%v want=%v", ign, line.FantasyPoints, wantPoints[ign])
		}
		if line.Validated {
			t.Fatalf("expected %s to be unvalidated", ign)
		}
	}

	teamLines, err := f.teamStats.ListByMatch(ctx, stored.ID)
	if err != nil {
		t.Fatalf("list team stats: %v", err)
	}
	if len(teamLines) != 2 {
		t.Fatalf("unexpected team stat count: got=%d want=2", len(teamLines))
	}
	for _, line := range teamLines {
		switch {
		case line.Won:
			if line.TotalKills != 5 || line.FantasyPoints != 60 {
				t.Fatalf("unexpected winning team line: %+v", line)
			}
		default:
			if line.TotalKills != 1 || line.FantasyPoints != -8 {
				t.Fatalf("unexpected losing team line: %+v", line)
			}
		}
	}

	if got := f.rawData.Len(); got != 3 {
		t.Fatalf("unexpected archived payloads: got=%d want=3", got)
	}
	archived, ok := f.rawData.Get(playerstats.SourceLeaguepedia, rawdata.EntityPlayers, fixtureGameID)
	if !ok || len(archived.Hash) != 64 || len(archived.Body) == 0 {
		t.Fatalf("unexpected archived player payload: %+v", archived)
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0].ExternalID != fixtureGameID {
		t.Fatalf("unexpected published events: %+v", f.publisher.events)
	}
	if len(f.sleeps) != 1 || f.sleeps[0] != 2*time.Second {
		t.Fatalf("unexpected stat fetch delays: %v", f.sleeps)
	}
}

func TestIngestionPipeline_ProcessMatch_IsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newPipelineFixture(t)

	first := f.pipeline.ProcessMatch(ctx, fixtureMatch(fixtureGameID))
	second := f.pipeline.ProcessMatch(ctx, fixtureMatch(fixtureGameID))
	if !first.Success || !second.Success {
		t.Fatalf("expected both runs to succeed: first=%+v second=%+v", first, second)
	}
	if first.MatchID != second.MatchID {
		t.Fatalf("unexpected match id change: first=%d second=%d", first.MatchID, second.MatchID)
	}
	if got := f.matches.Count(); got != 1 {
		t.Fatalf("unexpected match count: got=%d want=1", got)
	}
	if got := len(f.teams.List()); got != 2 {
		t.Fatalf("unexpected team count: got=%d want=2", got)
	}
	if got := len(f.players.List()); got != 3 {
		t.Fatalf("unexpected player count: got=%d want=3", got)
	}
	lines, _ := f.playerStats.ListByMatch(ctx, first.MatchID)
	if len(lines) != 3 {
		t.Fatalf("unexpected player stat count: got=%d want=3", len(lines))
	}
}

func TestIngestionPipeline_ProcessMatch_ResightingRefreshesMatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newPipelineFixture(t)

	early := fixtureMatch(fixtureGameID)
	early.Winner = ""
	early.Gamelength = "45:00"
	first := f.pipeline.ProcessMatch(ctx, early)
	if !first.Success {
		t.Fatalf("expected first run to succeed, got %+v", first)
	}

	second := f.pipeline.ProcessMatch(ctx, fixtureMatch(fixtureGameID))
	if !second.Success || second.MatchID != first.MatchID {
		t.Fatalf("unexpected second run: first=%+v second=%+v", first, second)
	}

	stored, found, err := f.matches.FindByExternalID(ctx, fixtureGameID)
	if err != nil || !found {
		t.Fatalf("expected stored match, found=%v err=%v", found, err)
	}
	if stored.Winner != "Alpha" || stored.DurationSeconds != 1800 {
		t.Fatalf("expected refreshed match, got %+v", stored)
	}
	if stored.Status != match.StatusPendingValidation || f.matches.Count() != 1 {
		t.Fatalf("unexpected match state: status=%s count=%d", stored.Status, f.matches.Count())
	}

	teamIDs := make(map[string]int64)
	for _, item := range f.teams.List() {
		teamIDs[item.Name] = item.ID
	}
	teamLines, err := f.teamStats.ListByMatch(ctx, stored.ID)
	if err != nil {
		t.Fatalf("list team stats: %v", err)
	}
	for _, line := range teamLines {
		if line.TeamID == teamIDs["Alpha"] && (!line.Won || line.FantasyPoints != 60) {
			t.Fatalf("expected Alpha line rescored as winner, got %+v", line)
		}
		if line.TeamID == teamIDs["Beta"] && line.Won {
			t.Fatalf("expected Beta line to lose, got %+v", line)
		}
	}
}

func TestIngestionPipeline_ProcessMatch_FetchErrorLeavesNoStats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newPipelineFixture(t)
	f.catalog.teamErr = errors.New("provider unavailable")

	result := f.pipeline.ProcessMatch(ctx, fixtureMatch(fixtureGameID))
	if result.Success || result.Reason != ReasonError {
		t.Fatalf("expected error result, got %+v", result)
	}
	lines, _ := f.playerStats.ListByMatch(ctx, result.MatchID)
	if len(lines) != 0 {
		t.Fatalf("expected no player stats, got %d", len(lines))
	}
	if len(f.publisher.events) != 0 {
		t.Fatalf("expected no events, got %d", len(f.publisher.events))
	}
}

type failingResolver struct {
	failOn string
}

func (r failingResolver) ResolveTeam(_ context.Context, name, _ string) (TeamResolution, error) {
	return TeamResolution{TeamID: int64(len(name)), Kind: ResolutionFound}, nil
}

func (r failingResolver) ResolvePlayer(_ context.Context, ign, _, _, _ string) (PlayerResolution, error) {
	if ign == r.failOn {
		return PlayerResolution{}, ErrEntityResolution
	}
	return PlayerResolution{PlayerID: int64(len(ign)) + 100, RoleID: 1, Kind: ResolutionFound}, nil
}

func TestIngestionPipeline_ProcessMatch_ResolutionFailureWritesNothing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newPipelineFixture(t)
	f.pipeline.resolver = failingResolver{failOn: "B1"}

	result := f.pipeline.ProcessMatch(ctx, fixtureMatch(fixtureGameID))
	if result.Success || result.Reason != ReasonError {
		t.Fatalf("expected error result, got %+v", result)
	}
	lines, _ := f.playerStats.ListByMatch(ctx, result.MatchID)
	teamLines, _ := f.teamStats.ListByMatch(ctx, result.MatchID)
	if len(lines) != 0 || len(teamLines) != 0 {
		t.Fatalf("expected no stats written, got players=%d teams=%d", len(lines), len(teamLines))
	}
}

func TestIngestionPipeline_ProcessMatch_RecoversPanic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newPipelineFixture(t)
	f.catalog.panicOn = fixtureGameID

	result := f.pipeline.ProcessMatch(ctx, fixtureMatch(fixtureGameID))
	if result.Success || result.Reason != ReasonError {
		t.Fatalf("expected error result, got %+v", result)
	}
}

func TestIngestionPipeline_ProcessMatch_PublishFailureStillSucceeds(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newPipelineFixture(t)
	f.publisher.err = errors.New("stream unavailable")

	result := f.pipeline.ProcessMatch(ctx, fixtureMatch(fixtureGameID))
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
}

func TestIngestionPipeline_ProcessMatch_Malformed(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t)

	result := f.pipeline.ProcessMatch(context.Background(), RawMatch{Team1: "Alpha"})
	if result.Success || result.Reason != ReasonMalformed {
		t.Fatalf("expected malformed result, got %+v", result)
	}
	if f.catalog.playerCalls != 0 {
		t.Fatalf("expected no provider calls, got %d", f.catalog.playerCalls)
	}
}

func TestIngestionPipeline_ProcessExternalID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newPipelineFixture(t)

	missing := f.pipeline.ProcessExternalID(ctx, "LCK/unknown")
	if missing.Success || missing.Reason != ReasonNotFound {
		t.Fatalf("expected not found result, got %+v", missing)
	}

	found := f.pipeline.ProcessExternalID(ctx, fixtureGameID)
	if !found.Success {
		t.Fatalf("expected success, got %+v", found)
	}
}
