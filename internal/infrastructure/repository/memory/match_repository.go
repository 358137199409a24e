package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/esports-fantasy/internal/domain/match"
)

type MatchRepository struct {
	mu         sync.RWMutex
	nextID     int64
	byExternal map[string]match.Match
	now        func() time.Time
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{
		byExternal: make(map[string]match.Match),
		now:        time.Now,
	}
}

func (r *MatchRepository) FindByExternalID(_ context.Context, externalID string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byExternal[strings.TrimSpace(externalID)]
	return item, ok, nil
}

func (r *MatchRepository) Upsert(_ context.Context, item match.Match) (match.Match, error) {
	if err := item.Validate(); err != nil {
		return match.Match{}, fmt.Errorf("validate: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	if existing, ok := r.byExternal[item.ExternalID]; ok {
		item.ID = existing.ID
		item.Status = existing.Status
		item.CreatedAt = existing.CreatedAt
	} else {
		r.nextID++
		item.ID = r.nextID
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	r.byExternal[item.ExternalID] = item
	return item, nil
}

func (r *MatchRepository) LatestPendingCreatedAt(_ context.Context) (*time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *time.Time
	for _, item := range r.byExternal {
		if item.Status != match.StatusPendingValidation {
			continue
		}
		if latest == nil || item.CreatedAt.After(*latest) {
			createdAt := item.CreatedAt
			latest = &createdAt
		}
	}
	return latest, nil
}

func (r *MatchRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byExternal)
}
