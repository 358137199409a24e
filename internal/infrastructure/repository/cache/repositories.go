package cache

import (
	"context"
	"strconv"

	"github.com/riskibarqy/esports-fantasy/internal/domain/player"
	"github.com/riskibarqy/esports-fantasy/internal/domain/team"
	basecache "github.com/riskibarqy/esports-fantasy/internal/platform/cache"
)

// TeamRepository caches name lookups of existing teams. Misses are never cached
// so a team created by another writer becomes visible on the next lookup.
type TeamRepository struct {
	next  team.Repository
	cache *basecache.Store
}

func NewTeamRepository(next team.Repository, cache *basecache.Store) *TeamRepository {
	return &TeamRepository{next: next, cache: cache}
}

func (r *TeamRepository) FindByName(ctx context.Context, videoGameID int64, name string) (team.Team, bool, error) {
	v, found, err := r.cache.GetOrLoadFound(ctx, teamNameKey(videoGameID, name), func(ctx context.Context) (any, bool, error) {
		item, exists, err := r.next.FindByName(ctx, videoGameID, name)
		return item, exists, err
	})
	if err != nil || !found {
		return team.Team{}, false, err
	}
	item, _ := v.(team.Team)
	return item, true, nil
}

func (r *TeamRepository) Insert(ctx context.Context, item team.Team) (team.Team, error) {
	created, err := r.next.Insert(ctx, item)
	if err != nil {
		return team.Team{}, err
	}
	r.cache.Set(ctx, teamNameKey(created.VideoGameID, created.Name), created)
	return created, nil
}

// PlayerRepository caches in-game name lookups of existing players.
type PlayerRepository struct {
	next  player.Repository
	cache *basecache.Store
}

func NewPlayerRepository(next player.Repository, cache *basecache.Store) *PlayerRepository {
	return &PlayerRepository{next: next, cache: cache}
}

func (r *PlayerRepository) FindByIGN(ctx context.Context, videoGameID int64, ign string) (player.Player, bool, error) {
	v, found, err := r.cache.GetOrLoadFound(ctx, playerIGNKey(videoGameID, ign), func(ctx context.Context) (any, bool, error) {
		item, exists, err := r.next.FindByIGN(ctx, videoGameID, ign)
		return clonePlayer(item), exists, err
	})
	if err != nil || !found {
		return player.Player{}, false, err
	}
	item, _ := v.(player.Player)
	return clonePlayer(item), true, nil
}

func (r *PlayerRepository) Insert(ctx context.Context, item player.Player) (player.Player, error) {
	created, err := r.next.Insert(ctx, item)
	if err != nil {
		return player.Player{}, err
	}
	r.cache.Set(ctx, playerIGNKey(created.VideoGameID, created.IGN), clonePlayer(created))
	return created, nil
}

func clonePlayer(item player.Player) player.Player {
	if item.TeamID != nil {
		teamID := *item.TeamID
		item.TeamID = &teamID
	}
	return item
}

func teamNameKey(videoGameID int64, name string) string {
	return "team:name:" + strconv.FormatInt(videoGameID, 10) + ":" + name
}

func playerIGNKey(videoGameID int64, ign string) string {
	return "player:ign:" + strconv.FormatInt(videoGameID, 10) + ":" + ign
}
