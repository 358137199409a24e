package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/esports-fantasy/internal/domain/match"
	"github.com/riskibarqy/esports-fantasy/internal/domain/pollrun"
	"github.com/riskibarqy/esports-fantasy/internal/platform/id"
	"github.com/riskibarqy/esports-fantasy/internal/platform/logging"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type PollerConfig struct {
	Regions     []string
	Lookback    time.Duration
	MatchDelay  time.Duration
	RegionDelay time.Duration
}

func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Regions:     []string{"LPL", "LCS", "LEC", "LCK"},
		Lookback:    24 * time.Hour,
		MatchDelay:  3 * time.Second,
		RegionDelay: 3 * time.Second,
	}
}

type PollSummary struct {
	RunID      string     `json:"run_id"`
	Found      int        `json:"found"`
	Processed  int        `json:"processed"`
	Failed     int        `json:"failed"`
	Skipped    bool       `json:"skipped"`
	Since      *time.Time `json:"since,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
}

type PollerState struct {
	InFlight    bool         `json:"in_flight"`
	Watermark   *time.Time   `json:"watermark,omitempty"`
	LastSummary *PollSummary `json:"last_summary,omitempty"`
}

type matchProcessor interface {
	ProcessMatch(ctx context.Context, raw RawMatch) Result
}

// Poller runs ingestion cycles over regions. At most one cycle runs at a time.
type Poller struct {
	lister    MatchLister
	pipeline  matchProcessor
	matchRepo match.Repository
	runRepo   pollrun.Repository
	ids       id.Generator
	cfg       PollerConfig
	logger    *logging.Logger
	now       func() time.Time
	sleep     sleepFunc

	inFlight atomic.Bool

	mu          sync.Mutex
	watermark   *time.Time
	lastSummary *PollSummary
}

type regionTally struct {
	found     int
	processed int
	failed    int
}

func NewPoller(
	lister MatchLister,
	pipeline matchProcessor,
	matchRepo match.Repository,
	runRepo pollrun.Repository,
	ids id.Generator,
	cfg PollerConfig,
	logger *logging.Logger,
) *Poller {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	defaults := DefaultPollerConfig()
	if len(cfg.Regions) == 0 {
		cfg.Regions = defaults.Regions
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = defaults.Lookback
	}
	if cfg.MatchDelay < 0 {
		cfg.MatchDelay = 0
	}
	if cfg.RegionDelay < 0 {
		cfg.RegionDelay = 0
	}

	return &Poller{
		lister:    lister,
		pipeline:  pipeline,
		matchRepo: matchRepo,
		runRepo:   runRepo,
		ids:       ids,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// Init loads the watermark from the newest pending match, or now minus the lookback.
func (p *Poller) Init(ctx context.Context) error {
	_, err := p.ensureWatermark(ctx)
	return err
}

// Reset forgets the watermark; the next cycle initializes it again.
func (p *Poller) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.watermark = nil
	p.lastSummary = nil
}

func (p *Poller) Watermark() *time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyTime(p.watermark)
}

func (p *Poller) State() PollerState {
	p.mu.Lock()
	defer p.mu.Unlock()

	state := PollerState{
		InFlight:  p.inFlight.Load(),
		Watermark: copyTime(p.watermark),
	}
	if p.lastSummary != nil {
		summary := *p.lastSummary
		state.LastSummary = &summary
	}
	return state
}

// PollOnce runs one cycle. A call made while another cycle runs returns at once with Skipped set.
// Per-match and per-region failures are counted, not returned.
func (p *Poller) PollOnce(ctx context.Context) (_ PollSummary, err error) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.logger.InfoContext(ctx, "poll already in flight, skipping")
		return PollSummary{Skipped: true}, nil
	}
	defer p.inFlight.Store(false)

	ctx, span := startUsecaseSpan(ctx, "usecase.Poller.PollOnce", attribute.StringSlice("poller.regions", p.cfg.Regions))
	defer func() { endSpan(span, err) }()

	startedAt := p.now().UTC()
	runID, err := p.ids.NewID()
	if err != nil {
		return PollSummary{}, fmt.Errorf("generate poll run id: %w", err)
	}
	summary := PollSummary{RunID: runID, StartedAt: startedAt}

	since, err := p.ensureWatermark(ctx)
	if err != nil {
		p.recordRun(ctx, summary, pollrun.StatusFailed, err)
		return summary, err
	}
	summary.Since = since
	p.recordRun(ctx, summary, pollrun.StatusRunning, nil)

	p.logger.InfoContext(ctx, "poll started", "run_id", runID, "regions", strings.Join(p.cfg.Regions, ","), "since", since)

	var cycleErr error
	for i, region := range p.cfg.Regions {
		tally, err := p.pollRegionSafely(ctx, region, since)
		summary.Found += tally.found
		summary.Processed += tally.processed
		summary.Failed += tally.failed
		if err != nil {
			cycleErr = err
			break
		}

		if i < len(p.cfg.Regions)-1 {
			if err := p.sleep(ctx, p.cfg.RegionDelay); err != nil {
				cycleErr = fmt.Errorf("wait between regions: %w", err)
				break
			}
		}
	}
	summary.FinishedAt = p.now().UTC()

	if cycleErr != nil {
		p.logger.WarnContext(ctx, "poll interrupted, watermark kept",
			"run_id", runID,
			"processed", summary.Processed,
			"found", summary.Found,
			"failed", summary.Failed,
			"error", cycleErr,
		)
		p.finish(summary, nil)
		p.recordRun(ctx, summary, pollrun.StatusFailed, cycleErr)
		return summary, cycleErr
	}

	p.finish(summary, &startedAt)
	p.recordRun(ctx, summary, pollrun.StatusCompleted, nil)
	p.logger.InfoContext(ctx, "poll complete",
		"run_id", runID,
		"processed", summary.Processed,
		"found", summary.Found,
		"failed", summary.Failed,
	)
	return summary, nil
}

// pollRegionSafely isolates a region: a panic is logged and counted, not propagated.
// Only context cancellation is returned.
func (p *Poller) pollRegionSafely(ctx context.Context, region string, since *time.Time) (regionTally, error) {
	var (
		tally regionTally
		err   error
	)
	var catcher panics.Catcher
	catcher.Try(func() {
		tally, err = p.pollRegion(ctx, region, since)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		p.logger.ErrorContext(ctx, "region poll panicked", "region", region, "error", recovered.AsError())
		tally.failed++
	}
	return tally, err
}

func (p *Poller) pollRegion(ctx context.Context, region string, since *time.Time) (regionTally, error) {
	var tally regionTally

	matches := p.lister.FetchCompletedMatches(ctx, region, since)
	tally.found = len(matches)
	p.logger.InfoContext(ctx, "region matches fetched", "region", region, "count", len(matches))

	for i, raw := range matches {
		result := p.pipeline.ProcessMatch(ctx, raw)
		if result.Success {
			tally.processed++
		} else {
			tally.failed++
			p.logger.WarnContext(ctx, "match not ingested",
				"region", region,
				"external_id", result.ExternalID,
				"reason", result.Reason,
				"message", result.Message,
			)
		}

		if i < len(matches)-1 {
			if err := p.sleep(ctx, p.cfg.MatchDelay); err != nil {
				return tally, fmt.Errorf("wait between matches: %w", err)
			}
		}
	}
	return tally, nil
}

func (p *Poller) ensureWatermark(ctx context.Context) (*time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.watermark != nil {
		return copyTime(p.watermark), nil
	}

	latest, err := p.matchRepo.LatestPendingCreatedAt(ctx)
	if err != nil {
		return nil, fmt.Errorf("load poll watermark: %w", err)
	}
	if latest == nil {
		fallback := p.now().UTC().Add(-p.cfg.Lookback)
		latest = &fallback
	}
	value := latest.UTC()
	p.watermark = &value
	p.logger.InfoContext(ctx, "poll watermark initialized", "watermark", value)
	return copyTime(p.watermark), nil
}

// finish stores the summary and, when advance is set, moves the watermark to the cycle start.
func (p *Poller) finish(summary PollSummary, advance *time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastSummary = &summary
	if advance != nil {
		p.watermark = copyTime(advance)
	}
}

func (p *Poller) recordRun(ctx context.Context, summary PollSummary, status pollrun.Status, runErr error) {
	if p.runRepo == nil || summary.RunID == "" {
		return
	}

	run := pollrun.Run{
		RunID:     summary.RunID,
		Status:    status,
		Regions:   append([]string(nil), p.cfg.Regions...),
		Watermark: copyTime(summary.Since),
		Found:     summary.Found,
		Processed: summary.Processed,
		Failed:    summary.Failed,
		StartedAt: summary.StartedAt,
	}
	if status != pollrun.StatusRunning {
		finishedAt := summary.FinishedAt
		if finishedAt.IsZero() {
			finishedAt = p.now().UTC()
		}
		run.FinishedAt = &finishedAt
	}
	if runErr != nil {
		run.ErrorMessage = runErr.Error()
	}
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.HasTraceID() {
		run.TraceID = spanCtx.TraceID().String()
	}

	// audit rows are written even when the cycle was cancelled
	if err := p.runRepo.UpsertRun(context.WithoutCancel(ctx), run); err != nil {
		p.logger.WarnContext(ctx, "record poll run failed", "run_id", summary.RunID, "status", status, "error", err)
	}
}

func copyTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
