package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/esports-fantasy/internal/domain/match"
	"github.com/riskibarqy/esports-fantasy/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const maxBackfillWorkers = 2

type BackfillInput struct {
	Region string
	Since  *time.Time
	// Force reprocesses matches that are already stored.
	Force      bool
	MaxWorkers int
	// Delay is waited by a worker after each processed match.
	Delay time.Duration
}

type BackfillResult struct {
	Region      string   `json:"region"`
	Found       int      `json:"found"`
	Processed   int      `json:"processed"`
	Skipped     int      `json:"skipped"`
	Failed      int      `json:"failed"`
	WorkerCount int      `json:"worker_count"`
	Results     []Result `json:"results"`
}

// BackfillService re-ingests a region's history outside the poll schedule.
type BackfillService struct {
	lister    MatchLister
	pipeline  matchProcessor
	matchRepo match.Repository
	logger    *logging.Logger
	sleep     sleepFunc
}

func NewBackfillService(lister MatchLister, pipeline matchProcessor, matchRepo match.Repository, logger *logging.Logger) *BackfillService {
	if logger == nil {
		logger = logging.Default()
	}
	return &BackfillService{
		lister:    lister,
		pipeline:  pipeline,
		matchRepo: matchRepo,
		logger:    logger,
		sleep:     sleepContext,
	}
}

func (s *BackfillService) Run(ctx context.Context, input BackfillInput) (_ BackfillResult, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BackfillService.Run",
		attribute.String("backfill.region", input.Region),
		attribute.Bool("backfill.force", input.Force),
	)
	defer func() { endSpan(span, err) }()

	region := strings.ToUpper(strings.TrimSpace(input.Region))
	if region == "" {
		return BackfillResult{}, fmt.Errorf("%w: region is required", ErrInvalidInput)
	}

	matches := s.lister.FetchCompletedMatches(ctx, region, input.Since)
	result := BackfillResult{Region: region, Found: len(matches)}

	pending := make([]RawMatch, 0, len(matches))
	for _, raw := range matches {
		if input.Force {
			pending = append(pending, raw)
			continue
		}
		_, found, err := s.matchRepo.FindByExternalID(ctx, strings.TrimSpace(raw.GameID))
		if err != nil {
			return result, fmt.Errorf("check existing match external_id=%s: %w", raw.GameID, err)
		}
		if found {
			result.Skipped++
			continue
		}
		pending = append(pending, raw)
	}
	if len(pending) == 0 {
		s.logger.InfoContext(ctx, "backfill found nothing to process", "region", region, "found", result.Found, "skipped", result.Skipped)
		return result, nil
	}

	result.WorkerCount = normalizeBackfillWorkerCount(input.MaxWorkers, len(pending))
	pool, err := ants.NewPool(result.WorkerCount)
	if err != nil {
		return result, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu      sync.Mutex
		workers sync.WaitGroup
		results = make([]Result, 0, len(pending))
	)
	for _, raw := range pending {
		raw := raw
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			if ctx.Err() != nil {
				return
			}

			row := s.pipeline.ProcessMatch(ctx, raw)
			mu.Lock()
			results = append(results, row)
			mu.Unlock()

			_ = s.sleep(ctx, input.Delay)
		}); err != nil {
			workers.Done()
			return result, fmt.Errorf("submit backfill task: %w", err)
		}
	}
	workers.Wait()

	sort.SliceStable(results, func(i, j int) bool { return results[i].ExternalID < results[j].ExternalID })
	for _, row := range results {
		if row.Success {
			result.Processed++
		} else {
			result.Failed++
		}
	}
	result.Results = results

	s.logger.InfoContext(ctx, "backfill complete",
		"region", region,
		"found", result.Found,
		"processed", result.Processed,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func normalizeBackfillWorkerCount(value int, taskCount int) int {
	if taskCount <= 0 {
		return 1
	}
	if value <= 0 {
		value = 1
	}
	if value > maxBackfillWorkers {
		value = maxBackfillWorkers
	}
	if value > taskCount {
		value = taskCount
	}
	return value
}
