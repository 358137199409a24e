package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/riskibarqy/esports-fantasy/internal/domain/player"
)

type PlayerRepository struct {
	mu      sync.RWMutex
	nextID  int64
	players []player.Player
}

func NewPlayerRepository(players []player.Player) *PlayerRepository {
	repo := &PlayerRepository{}
	for _, item := range players {
		if item.ID > repo.nextID {
			repo.nextID = item.ID
		}
		repo.players = append(repo.players, item)
	}
	return repo
}

func (r *PlayerRepository) FindByIGN(_ context.Context, videoGameID int64, ign string) (player.Player, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ign = strings.TrimSpace(ign)
	for _, item := range r.players {
		if item.VideoGameID == videoGameID && item.IGN == ign {
			return item, true, nil
		}
	}
	return player.Player{}, false, nil
}

func (r *PlayerRepository) Insert(_ context.Context, item player.Player) (player.Player, error) {
	if err := item.Validate(); err != nil {
		return player.Player{}, fmt.Errorf("validate: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.players {
		if existing.VideoGameID == item.VideoGameID && existing.IGN == item.IGN {
			return player.Player{}, fmt.Errorf("%w: ign=%s", player.ErrAlreadyExists, item.IGN)
		}
	}
	r.nextID++
	item.ID = r.nextID
	r.players = append(r.players, item)
	return item, nil
}

func (r *PlayerRepository) List() []player.Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]player.Player(nil), r.players...)
}
