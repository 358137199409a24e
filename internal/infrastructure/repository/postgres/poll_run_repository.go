package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/esports-fantasy/internal/domain/pollrun"
	qb "github.com/riskibarqy/esports-fantasy/internal/platform/querybuilder"
)

type PollRunRepository struct {
	db *sqlx.DB
}

func NewPollRunRepository(db *sqlx.DB) *PollRunRepository {
	return &PollRunRepository{db: db}
}

func (r *PollRunRepository) UpsertRun(ctx context.Context, run pollrun.Run) error {
	runID := strings.TrimSpace(run.RunID)
	if runID == "" {
		return fmt.Errorf("poll run id is required")
	}

	startedAt := run.StartedAt.UTC()
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}

	query, args, err := qb.InsertModel("poll_runs", pollRunInsertModel{
		RunID:        runID,
		Status:       string(run.Status),
		Regions:      pq.StringArray(run.Regions),
		Watermark:    run.Watermark,
		Found:        run.Found,
		Processed:    run.Processed,
		Failed:       run.Failed,
		ErrorMessage: optionalString(run.ErrorMessage),
		StartedAt:    startedAt,
		FinishedAt:   run.FinishedAt,
		TraceID:      optionalString(run.TraceID),
	}, `ON CONFLICT (run_id)
DO UPDATE SET
    status = EXCLUDED.status,
    watermark = COALESCE(EXCLUDED.watermark, poll_runs.watermark),
    found = EXCLUDED.found,
    processed = EXCLUDED.processed,
    failed = EXCLUDED.failed,
    error_message = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.error_message
        ELSE NULL
    END,
    finished_at = EXCLUDED.finished_at,
    trace_id = COALESCE(EXCLUDED.trace_id, poll_runs.trace_id),
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build upsert poll run query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert poll run run_id=%s status=%s: %w", runID, run.Status, err)
	}
	return nil
}

type pollRunInsertModel struct {
	RunID        string         `db:"run_id"`
	Status       string         `db:"status"`
	Regions      pq.StringArray `db:"regions"`
	Watermark    *time.Time     `db:"watermark"`
	Found        int            `db:"found"`
	Processed    int            `db:"processed"`
	Failed       int            `db:"failed"`
	ErrorMessage *string        `db:"error_message"`
	StartedAt    time.Time      `db:"started_at"`
	FinishedAt   *time.Time     `db:"finished_at"`
	TraceID      *string        `db:"trace_id"`
}
