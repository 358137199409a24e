package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/esports-fantasy/external/leaguepedia"
	"github.com/riskibarqy/esports-fantasy/internal/config"
	"github.com/riskibarqy/esports-fantasy/internal/domain/match"
	"github.com/riskibarqy/esports-fantasy/internal/domain/player"
	"github.com/riskibarqy/esports-fantasy/internal/domain/playerstats"
	"github.com/riskibarqy/esports-fantasy/internal/domain/pollrun"
	"github.com/riskibarqy/esports-fantasy/internal/domain/rawdata"
	"github.com/riskibarqy/esports-fantasy/internal/domain/role"
	"github.com/riskibarqy/esports-fantasy/internal/domain/scoring"
	"github.com/riskibarqy/esports-fantasy/internal/domain/team"
	"github.com/riskibarqy/esports-fantasy/internal/domain/teamstats"
	"github.com/riskibarqy/esports-fantasy/internal/infrastructure/eventbus"
	cacherepo "github.com/riskibarqy/esports-fantasy/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/esports-fantasy/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/esports-fantasy/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/esports-fantasy/internal/interfaces/httpapi"
	basecache "github.com/riskibarqy/esports-fantasy/internal/platform/cache"
	"github.com/riskibarqy/esports-fantasy/internal/platform/id"
	"github.com/riskibarqy/esports-fantasy/internal/platform/logging"
	"github.com/riskibarqy/esports-fantasy/internal/platform/resilience"
	"github.com/riskibarqy/esports-fantasy/internal/usecase"
	"github.com/sourcegraph/conc"
)

type repositories struct {
	teams       team.Repository
	players     player.Repository
	roles       role.Repository
	matches     match.Repository
	playerStats playerstats.Repository
	teamStats   teamstats.Repository
	rawData     rawdata.Repository
	pollRuns    pollrun.Repository
}

// Container holds the ingestion services built from one Config.
type Container struct {
	Config   config.Config
	Logger   *logging.Logger
	Client   *leaguepedia.Client
	Fetcher  *leaguepedia.Fetcher
	Engine   *scoring.Engine
	Resolver *usecase.EntityResolver
	Pipeline *usecase.IngestionPipeline
	Poller   *usecase.Poller
	Backfill *usecase.BackfillService

	db    *sqlx.DB
	redis *redis.Client

	bgCtx    context.Context
	bgCancel context.CancelFunc
	bg       conc.WaitGroup
}

func Build(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Container, error) {
	if logger == nil {
		logger = logging.Default()
	}

	c := &Container{Config: cfg, Logger: logger}
	c.bgCtx, c.bgCancel = context.WithCancel(context.WithoutCancel(ctx))
	repos, err := c.buildRepositories(ctx)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	engine, err := scoring.NewEngine(cfg.ScoringWeights)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("build scoring engine: %w", err)
	}
	for _, warning := range cfg.ScoringWeights.Warnings() {
		logger.Warn("scoring weights warning", "warning", warning)
	}

	seasonPages, err := leaguepedia.ParseSeasonPages(cfg.LeaguepediaSeasonPages)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("parse LEAGUEPEDIA_SEASON_PAGES: %w", err)
	}

	publisher, err := c.buildPublisher()
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	c.Engine = engine
	c.Client = leaguepedia.NewClient(leaguepedia.ClientConfig{
		BaseURL:        cfg.LeaguepediaBaseURL,
		Username:       cfg.LeaguepediaBotUsername,
		Password:       cfg.LeaguepediaBotPassword,
		MinInterval:    cfg.LeaguepediaMinInterval,
		Timeout:        cfg.LeaguepediaTimeout,
		MaxAttempts:    cfg.LeaguepediaMaxAttempts,
		RetryBaseDelay: cfg.LeaguepediaRetryBaseDelay,
		Logger:         logger.Named("leaguepedia"),
		CircuitBreaker: resilience.BreakerConfig{
			Enabled:          cfg.LeaguepediaCircuitEnabled,
			FailureThreshold: cfg.LeaguepediaCircuitFailureCount,
			OpenTimeout:      cfg.LeaguepediaCircuitOpenTimeout,
			HalfOpenProbes:   cfg.LeaguepediaCircuitHalfOpenMax,
		},
	})
	c.Fetcher = leaguepedia.NewFetcher(c.Client, seasonPages, logger.Named("leaguepedia"))
	c.Resolver = usecase.NewEntityResolver(
		repos.teams,
		repos.players,
		repos.roles,
		usecase.EntityResolverConfig{
			VideoGameID:   cfg.PipelineVideoGameID,
			DefaultRoleID: cfg.PipelineDefaultRoleID,
			RoleCacheTTL:  cfg.CacheTTL,
		},
		logger.Named("resolver"),
	)
	c.Pipeline = usecase.NewIngestionPipeline(usecase.IngestionPipelineDeps{
		Stats:           c.Fetcher,
		Resolver:        c.Resolver,
		Engine:          engine,
		MatchRepo:       repos.matches,
		PlayerStatsRepo: repos.playerStats,
		TeamStatsRepo:   repos.teamStats,
		RawDataRepo:     repos.rawData,
		Publisher:       publisher,
		Logger:          logger.Named("pipeline"),
	}, usecase.IngestionPipelineConfig{
		VideoGameID:    cfg.PipelineVideoGameID,
		StatFetchDelay: cfg.PipelineStatFetchDelay,
	})
	c.Poller = usecase.NewPoller(
		c.Fetcher,
		c.Pipeline,
		repos.matches,
		repos.pollRuns,
		id.NewUUIDGenerator(),
		usecase.PollerConfig{
			Regions:     cfg.PollerRegions,
			Lookback:    cfg.PollerLookback,
			MatchDelay:  cfg.PollerMatchDelay,
			RegionDelay: cfg.PollerRegionDelay,
		},
		logger.Named("poller"),
	)
	c.Backfill = usecase.NewBackfillService(c.Fetcher, c.Pipeline, repos.matches, logger.Named("backfill"))

	return c, nil
}

func (c *Container) buildRepositories(ctx context.Context) (repositories, error) {
	var repos repositories
	switch c.Config.StorageDriver {
	case config.StorageDriverMemory:
		c.Logger.Warn("using in-memory storage, data is lost on restart")
		repos = repositories{
			teams:       memory.NewTeamRepository(nil),
			players:     memory.NewPlayerRepository(nil),
			roles:       memory.NewRoleRepository(memory.SeedRoles()),
			matches:     memory.NewMatchRepository(),
			playerStats: memory.NewPlayerStatsRepository(),
			teamStats:   memory.NewTeamStatsRepository(),
			rawData:     memory.NewRawDataRepository(),
			pollRuns:    memory.NewPollRunRepository(),
		}
	default:
		db, err := openPostgres(ctx, c.Config, c.Logger)
		if err != nil {
			return repositories{}, err
		}
		c.db = db
		if err := postgres.BootstrapSeed(ctx, db); err != nil {
			return repositories{}, err
		}
		repos = repositories{
			teams:       postgres.NewTeamRepository(db),
			players:     postgres.NewPlayerRepository(db),
			roles:       postgres.NewRoleRepository(db),
			matches:     postgres.NewMatchRepository(db),
			playerStats: postgres.NewPlayerStatsRepository(db),
			teamStats:   postgres.NewTeamStatsRepository(db),
			rawData:     postgres.NewRawDataRepository(db),
			pollRuns:    postgres.NewPollRunRepository(db),
		}
	}

	if c.Config.CacheEnabled {
		store := basecache.NewStore(c.Config.CacheTTL)
		repos.teams = cacherepo.NewTeamRepository(repos.teams, store)
		repos.players = cacherepo.NewPlayerRepository(repos.players, store)
	}
	return repos, nil
}

func (c *Container) buildPublisher() (usecase.EventPublisher, error) {
	if !c.Config.EventsEnabled {
		return usecase.NoopEventPublisher{}, nil
	}
	client, err := eventbus.NewRedisClient(c.Config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("build redis client: %w", err)
	}
	c.redis = client
	c.Logger.Info("match events enabled", "stream", c.Config.EventsStream)
	return eventbus.NewRedisStreamPublisher(client, c.Config.EventsStream), nil
}

// NewHTTPServer exposes the operator routes of the container.
func (c *Container) NewHTTPServer() (*http.Server, error) {
	handler := httpapi.NewHandler(httpapi.HandlerDeps{
		Poller:        c.Poller,
		Pipeline:      c.Pipeline,
		Weights:       c.Engine,
		Background:    c.Background,
		StorageDriver: c.Config.StorageDriver,
		Logger:        c.Logger,
	})
	router := httpapi.NewRouter(handler, httpapi.RouterConfig{
		InternalJobToken: c.Config.InternalJobToken,
	}, c.Logger)

	server := &http.Server{
		Addr:              c.Config.HTTPAddr,
		Handler:           router,
		ReadTimeout:       c.Config.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      c.Config.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}

// Background runs fn until it returns or the container closes.
func (c *Container) Background(fn func(ctx context.Context)) {
	c.bg.Go(func() {
		fn(c.bgCtx)
	})
}

// Close cancels background work, waits for it and releases connections.
func (c *Container) Close() error {
	c.bgCancel()
	c.bg.Wait()

	var errs []error
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
