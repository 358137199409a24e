package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/esports-fantasy/internal/domain/match"
	"github.com/riskibarqy/esports-fantasy/internal/domain/playerstats"
	"github.com/riskibarqy/esports-fantasy/internal/domain/rawdata"
	"github.com/riskibarqy/esports-fantasy/internal/domain/scoring"
	"github.com/riskibarqy/esports-fantasy/internal/domain/teamstats"
	"github.com/riskibarqy/esports-fantasy/internal/platform/logging"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/attribute"
)

type ResultReason string

const (
	ReasonError     ResultReason = "error"
	ReasonNotFound  ResultReason = "not_found"
	ReasonMalformed ResultReason = "malformed"
)

// Result reports one match ingestion. Reason is set only when Success is false.
type Result struct {
	Success          bool         `json:"success"`
	ExternalID       string       `json:"external_id"`
	MatchID          int64        `json:"match_id,omitempty"`
	PlayersProcessed int          `json:"players_processed"`
	TeamsProcessed   int          `json:"teams_processed"`
	Reason           ResultReason `json:"reason,omitempty"`
	Message          string       `json:"message,omitempty"`
}

type IngestionPipelineConfig struct {
	VideoGameID int64
	// StatFetchDelay separates the player and team scoreboard calls.
	StatFetchDelay time.Duration
	Source         string
}

type entityResolver interface {
	ResolveTeam(ctx context.Context, name, region string) (TeamResolution, error)
	ResolvePlayer(ctx context.Context, ign, teamName, roleLabel, region string) (PlayerResolution, error)
}

// IngestionPipeline normalizes, resolves, scores and persists one match at a time.
type IngestionPipeline struct {
	stats           MatchStatsFetcher
	resolver        entityResolver
	engine          *scoring.Engine
	matchRepo       match.Repository
	playerStatsRepo playerstats.Repository
	teamStatsRepo   teamstats.Repository
	rawDataRepo     rawdata.Repository
	publisher       EventPublisher
	cfg             IngestionPipelineConfig
	logger          *logging.Logger
	now             func() time.Time
	sleep           sleepFunc
}

type IngestionPipelineDeps struct {
	Stats           MatchStatsFetcher
	Resolver        entityResolver
	Engine          *scoring.Engine
	MatchRepo       match.Repository
	PlayerStatsRepo playerstats.Repository
	TeamStatsRepo   teamstats.Repository
	// RawDataRepo is optional; nil disables the payload archive.
	RawDataRepo rawdata.Repository
	// Publisher is optional; nil publishes nothing.
	Publisher EventPublisher
	Logger    *logging.Logger
}

func NewIngestionPipeline(deps IngestionPipelineDeps, cfg IngestionPipelineConfig) *IngestionPipeline {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	engine := deps.Engine
	if engine == nil {
		engine = scoring.NewDefaultEngine()
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = NoopEventPublisher{}
	}
	if cfg.VideoGameID <= 0 {
		cfg.VideoGameID = 1
	}
	if cfg.StatFetchDelay < 0 {
		cfg.StatFetchDelay = 0
	}
	if strings.TrimSpace(cfg.Source) == "" {
		cfg.Source = playerstats.SourceLeaguepedia
	}

	return &IngestionPipeline{
		stats:           deps.Stats,
		resolver:        deps.Resolver,
		engine:          engine,
		matchRepo:       deps.MatchRepo,
		playerStatsRepo: deps.PlayerStatsRepo,
		teamStatsRepo:   deps.TeamStatsRepo,
		rawDataRepo:     deps.RawDataRepo,
		publisher:       publisher,
		cfg:             cfg,
		logger:          logger,
		now:             time.Now,
		sleep:           sleepContext,
	}
}

// ProcessMatch never returns an error; failures are logged and reported in the Result.
func (p *IngestionPipeline) ProcessMatch(ctx context.Context, raw RawMatch) (result Result) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionPipeline.ProcessMatch", attribute.String("match.external_id", raw.GameID))
	defer func() { endResultSpan(span, result) }()

	externalID := strings.TrimSpace(raw.GameID)
	normalized := NormalizeMatch(raw)
	if normalized == nil {
		p.logger.WarnContext(ctx, "skip malformed match row", "external_id", externalID)
		return Result{ExternalID: externalID, Reason: ReasonMalformed, Message: "match row has no game id"}
	}

	var err error
	if recovered := panics.Try(func() {
		result, err = p.process(ctx, *normalized, raw)
	}); recovered != nil {
		err = recovered.AsError()
	}
	if err != nil {
		p.logger.ErrorContext(ctx, "match ingestion failed",
			"external_id", externalID,
			"reason", ReasonError,
			"error", err,
		)
		return Result{ExternalID: externalID, MatchID: result.MatchID, Reason: ReasonError, Message: err.Error()}
	}

	p.logger.InfoContext(ctx, "match ingested",
		"external_id", externalID,
		"match_id", result.MatchID,
		"players", result.PlayersProcessed,
		"teams", result.TeamsProcessed,
	)
	return result
}

// ProcessExternalID looks the game up at the provider before processing it.
func (p *IngestionPipeline) ProcessExternalID(ctx context.Context, externalID string) (result Result) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionPipeline.ProcessExternalID", attribute.String("match.external_id", externalID))
	defer func() { endResultSpan(span, result) }()

	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return Result{Reason: ReasonMalformed, Message: "game id is required"}
	}

	raw, found, err := p.stats.FetchMatch(ctx, externalID)
	if err != nil {
		p.logger.ErrorContext(ctx, "fetch match failed", "external_id", externalID, "error", err)
		return Result{ExternalID: externalID, Reason: ReasonError, Message: err.Error()}
	}
	if !found {
		p.logger.WarnContext(ctx, "match not found at provider", "external_id", externalID)
		return Result{ExternalID: externalID, Reason: ReasonNotFound, Message: "provider has no game with this id"}
	}
	return p.ProcessMatch(ctx, raw)
}

type resolvedPlayerLine struct {
	stat     NormalizedPlayerStat
	playerID int64
}

type resolvedTeamLine struct {
	stat   NormalizedTeamStat
	teamID int64
}

func (p *IngestionPipeline) process(ctx context.Context, item match.Match, raw RawMatch) (Result, error) {
	stored, err := p.ensureMatch(ctx, item)
	if err != nil {
		return Result{}, err
	}
	result := Result{ExternalID: stored.ExternalID, MatchID: stored.ID}

	rawPlayers, err := p.stats.FetchPlayerStats(ctx, stored.ExternalID)
	if err != nil {
		return result, fmt.Errorf("fetch player stats: %w", err)
	}
	if err := p.sleep(ctx, p.cfg.StatFetchDelay); err != nil {
		return result, fmt.Errorf("wait before team stats: %w", err)
	}
	rawTeams, err := p.stats.FetchTeamStats(ctx, stored.ExternalID)
	if err != nil {
		return result, fmt.Errorf("fetch team stats: %w", err)
	}

	p.archive(ctx, stored.ExternalID, raw, rawPlayers, rawTeams)

	playerLines := NormalizePlayerStats(rawPlayers)
	teamLines := NormalizeTeamStats(rawTeams)
	if dropped := len(rawPlayers) - len(playerLines) + len(rawTeams) - len(teamLines); dropped > 0 {
		p.logger.WarnContext(ctx, "dropped malformed stat rows", "external_id", stored.ExternalID, "dropped", dropped)
	}

	players := make([]resolvedPlayerLine, 0, len(playerLines))
	for _, line := range playerLines {
		resolution, err := p.resolver.ResolvePlayer(ctx, line.PlayerName, line.TeamName, line.Role, stored.Region)
		if err != nil {
			return result, fmt.Errorf("resolve player %s: %w", line.PlayerName, err)
		}
		players = append(players, resolvedPlayerLine{stat: line, playerID: resolution.PlayerID})
	}
	teams := make([]resolvedTeamLine, 0, len(teamLines))
	for _, line := range teamLines {
		resolution, err := p.resolver.ResolveTeam(ctx, line.TeamName, stored.Region)
		if err != nil {
			return result, fmt.Errorf("resolve team %s: %w", line.TeamName, err)
		}
		teams = append(teams, resolvedTeamLine{stat: line, teamID: resolution.TeamID})
	}

	scoringLines := make([]scoring.PlayerLine, 0, len(players))
	for _, line := range players {
		scoringLines = append(scoringLines, scoring.PlayerLine{Team: line.stat.TeamName, Input: line.stat.ScoringInput()})
	}
	teamKills := scoring.TeamKills(scoringLines)
	duration := stored.DurationMinutes()
	playerPoints := p.engine.ScorePlayers(scoringLines, teamKills, duration)

	for i, line := range players {
		record := playerstats.Record{
			MatchID:       stored.ID,
			PlayerID:      line.playerID,
			Champion:      line.stat.Champion,
			Kills:         line.stat.Kills,
			Deaths:        line.stat.Deaths,
			Assists:       line.stat.Assists,
			CS:            line.stat.CS,
			Gold:          line.stat.Gold,
			Damage:        line.stat.Damage,
			VisionScore:   line.stat.VisionScore,
			FantasyPoints: playerPoints[i],
			Source:        p.cfg.Source,
		}
		if err := p.playerStatsRepo.Upsert(ctx, record); err != nil {
			return result, fmt.Errorf("upsert player stat player_id=%d: %w", line.playerID, err)
		}
		result.PlayersProcessed++
	}

	for _, line := range teams {
		stat := line.stat
		if stat.TotalKills == 0 {
			// provider left the team kill column empty
			stat.TotalKills = teamKills[stat.TeamName]
		}
		won := stored.Winner != "" && strings.EqualFold(stored.Winner, stat.TeamName)
		record := teamstats.Record{
			MatchID:       stored.ID,
			TeamID:        line.teamID,
			Dragons:       stat.Dragons,
			RiftHeralds:   stat.RiftHeralds,
			Barons:        stat.Barons,
			VoidGrubs:     stat.VoidGrubs,
			Atakhan:       stat.Atakhan,
			Turrets:       stat.Turrets,
			Inhibitors:    stat.Inhibitors,
			TotalKills:    stat.TotalKills,
			Won:           won,
			FantasyPoints: p.engine.ScoreTeam(stat.ScoringInput(won), duration),
			Source:        p.cfg.Source,
		}
		if err := p.teamStatsRepo.Upsert(ctx, record); err != nil {
			return result, fmt.Errorf("upsert team stat team_id=%d: %w", line.teamID, err)
		}
		result.TeamsProcessed++
	}

	result.Success = true
	if err := p.publisher.PublishMatchIngested(ctx, MatchIngestedEvent{
		MatchID:          stored.ID,
		ExternalID:       stored.ExternalID,
		Region:           stored.Region,
		Winner:           stored.Winner,
		PlayersProcessed: result.PlayersProcessed,
		TeamsProcessed:   result.TeamsProcessed,
		IngestedAt:       p.now().UTC(),
	}); err != nil {
		p.logger.WarnContext(ctx, "publish match ingested event failed", "external_id", stored.ExternalID, "error", err)
	}
	return result, nil
}

// ensureMatch upserts the freshly normalized match. Status and created_at survive a re-sighting.
func (p *IngestionPipeline) ensureMatch(ctx context.Context, item match.Match) (match.Match, error) {
	item.VideoGameID = p.cfg.VideoGameID
	item.Status = match.StatusPendingValidation
	if err := item.Validate(); err != nil {
		return match.Match{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	stored, err := p.matchRepo.Upsert(ctx, item)
	if err != nil {
		return match.Match{}, fmt.Errorf("upsert match external_id=%s: %w", item.ExternalID, err)
	}
	return stored, nil
}

func (p *IngestionPipeline) archive(ctx context.Context, externalID string, raw RawMatch, players []RawPlayerStat, teams []RawTeamStat) {
	if p.rawDataRepo == nil {
		return
	}

	items := make([]rawdata.Payload, 0, 3)
	for _, entry := range []struct {
		entityType string
		value      any
	}{
		{rawdata.EntityGame, raw},
		{rawdata.EntityPlayers, players},
		{rawdata.EntityTeams, teams},
	} {
		body, err := sonic.Marshal(entry.value)
		if err != nil {
			p.logger.WarnContext(ctx, "encode raw payload failed", "external_id", externalID, "entity_type", entry.entityType, "error", err)
			continue
		}
		items = append(items, rawdata.NewPayload(p.cfg.Source, entry.entityType, externalID, body))
	}
	if len(items) == 0 {
		return
	}
	if err := p.rawDataRepo.UpsertMany(ctx, items); err != nil {
		p.logger.WarnContext(ctx, "archive raw payloads failed", "external_id", externalID, "error", err)
	}
}
