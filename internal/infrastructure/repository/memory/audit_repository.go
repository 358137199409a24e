package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/esports-fantasy/internal/domain/pollrun"
	"github.com/riskibarqy/esports-fantasy/internal/domain/rawdata"
)

type RawDataRepository struct {
	mu    sync.Mutex
	items map[string]rawdata.Payload
}

func NewRawDataRepository() *RawDataRepository {
	return &RawDataRepository{items: make(map[string]rawdata.Payload)}
}

func (r *RawDataRepository) UpsertMany(_ context.Context, items []rawdata.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range rawdata.Dedupe(items) {
		r.items[item.Key()] = item
	}
	return nil
}

// Get returns the stored payload for a match and entity type.
func (r *RawDataRepository) Get(source, entityType, matchExternalID string) (rawdata.Payload, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[rawdata.Payload{Source: source, EntityType: entityType, EntityKey: matchExternalID}.Key()]
	return p, ok
}

func (r *RawDataRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

type PollRunRepository struct {
	mu   sync.Mutex
	runs map[string]pollrun.Run
}

func NewPollRunRepository() *PollRunRepository {
	return &PollRunRepository{runs: make(map[string]pollrun.Run)}
}

func (r *PollRunRepository) UpsertRun(_ context.Context, run pollrun.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.RunID] = run
	return nil
}

func (r *PollRunRepository) Get(runID string) (pollrun.Run, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	return run, ok
}
