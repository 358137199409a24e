package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/riskibarqy/esports-fantasy/internal/domain/team"
)

type TeamRepository struct {
	mu     sync.RWMutex
	nextID int64
	teams  []team.Team
}

func NewTeamRepository(teams []team.Team) *TeamRepository {
	repo := &TeamRepository{}
	for _, item := range teams {
		if item.ID > repo.nextID {
			repo.nextID = item.ID
		}
		repo.teams = append(repo.teams, item)
	}
	return repo
}

func (r *TeamRepository) FindByName(_ context.Context, videoGameID int64, name string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name = strings.TrimSpace(name)
	for _, item := range r.teams {
		if item.VideoGameID != videoGameID {
			continue
		}
		if item.Name == name || item.ShortName == name {
			return item, true, nil
		}
	}
	return team.Team{}, false, nil
}

func (r *TeamRepository) Insert(_ context.Context, item team.Team) (team.Team, error) {
	if err := item.Validate(); err != nil {
		return team.Team{}, fmt.Errorf("validate: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.teams {
		if existing.VideoGameID == item.VideoGameID && existing.Name == item.Name {
			return team.Team{}, fmt.Errorf("%w: name=%s", team.ErrAlreadyExists, item.Name)
		}
	}
	r.nextID++
	item.ID = r.nextID
	r.teams = append(r.teams, item)
	return item, nil
}

// List returns a copy of every stored team.
func (r *TeamRepository) List() []team.Team {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]team.Team(nil), r.teams...)
}
