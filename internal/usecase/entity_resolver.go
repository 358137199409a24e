package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/esports-fantasy/internal/domain/player"
	"github.com/riskibarqy/esports-fantasy/internal/domain/role"
	"github.com/riskibarqy/esports-fantasy/internal/domain/team"
	"github.com/riskibarqy/esports-fantasy/internal/platform/cache"
	"github.com/riskibarqy/esports-fantasy/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

// ResolutionKind tells callers how confident a resolution is.
type ResolutionKind string

const (
	ResolutionFound   ResolutionKind = "found"
	ResolutionCreated ResolutionKind = "created"
	// ResolutionCreatedWithFallback marks a new player whose role label matched nothing.
	ResolutionCreatedWithFallback ResolutionKind = "created_with_fallback"
)

type TeamResolution struct {
	TeamID int64
	Kind   ResolutionKind
}

type PlayerResolution struct {
	PlayerID int64
	TeamID   *int64
	RoleID   int64
	Kind     ResolutionKind
}

type EntityResolverConfig struct {
	VideoGameID   int64
	DefaultRoleID int64
	RoleCacheTTL  time.Duration
}

// EntityResolver finds or creates teams and players by exact name.
type EntityResolver struct {
	teamRepo   team.Repository
	playerRepo player.Repository
	roleRepo   role.Repository
	cfg        EntityResolverConfig
	roleCache  *cache.Store
	logger     *logging.Logger
}

func NewEntityResolver(
	teamRepo team.Repository,
	playerRepo player.Repository,
	roleRepo role.Repository,
	cfg EntityResolverConfig,
	logger *logging.Logger,
) *EntityResolver {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.VideoGameID <= 0 {
		cfg.VideoGameID = 1
	}
	if cfg.DefaultRoleID <= 0 {
		cfg.DefaultRoleID = role.DefaultID
	}
	if cfg.RoleCacheTTL <= 0 {
		cfg.RoleCacheTTL = 10 * time.Minute
	}

	return &EntityResolver{
		teamRepo:   teamRepo,
		playerRepo: playerRepo,
		roleRepo:   roleRepo,
		cfg:        cfg,
		roleCache:  cache.NewStore(cfg.RoleCacheTTL),
		logger:     logger,
	}
}

func (r *EntityResolver) ResolveTeam(ctx context.Context, name, region string) (_ TeamResolution, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EntityResolver.ResolveTeam", attribute.String("team.name", name), attribute.String("region", region))
	defer func() { endSpan(span, err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return TeamResolution{}, fmt.Errorf("%w: %w: team name is required", ErrEntityResolution, ErrInvalidInput)
	}

	existing, found, err := r.teamRepo.FindByName(ctx, r.cfg.VideoGameID, name)
	if err != nil {
		return TeamResolution{}, fmt.Errorf("%w: find team name=%s: %w", ErrEntityResolution, name, err)
	}
	if found {
		return TeamResolution{TeamID: existing.ID, Kind: ResolutionFound}, nil
	}

	region = strings.TrimSpace(region)
	if region == "" {
		region = team.UnknownRegion
	}
	created, err := r.teamRepo.Insert(ctx, team.Team{
		VideoGameID: r.cfg.VideoGameID,
		Name:        name,
		ShortName:   name,
		Region:      region,
		Active:      true,
	})
	if errors.Is(err, team.ErrAlreadyExists) {
		existing, found, err = r.teamRepo.FindByName(ctx, r.cfg.VideoGameID, name)
		if err != nil {
			return TeamResolution{}, fmt.Errorf("%w: re-read team name=%s: %w", ErrEntityResolution, name, err)
		}
		if !found {
			return TeamResolution{}, fmt.Errorf("%w: team name=%s conflicted but cannot be read back", ErrEntityResolution, name)
		}
		return TeamResolution{TeamID: existing.ID, Kind: ResolutionFound}, nil
	}
	if err != nil {
		return TeamResolution{}, fmt.Errorf("%w: insert team name=%s: %w", ErrEntityResolution, name, err)
	}

	r.logger.InfoContext(ctx, "created team from match stats", "team_id", created.ID, "name", name, "region", region)
	return TeamResolution{TeamID: created.ID, Kind: ResolutionCreated}, nil
}

// ResolvePlayer returns the player by in-game name, creating it with its team and role when unknown.
func (r *EntityResolver) ResolvePlayer(ctx context.Context, ign, teamName, roleLabel, region string) (_ PlayerResolution, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EntityResolver.ResolvePlayer", attribute.String("player.ign", ign), attribute.String("team.name", teamName))
	defer func() { endSpan(span, err) }()

	ign = strings.TrimSpace(ign)
	if ign == "" {
		return PlayerResolution{}, fmt.Errorf("%w: %w: player name is required", ErrEntityResolution, ErrInvalidInput)
	}

	existing, found, err := r.playerRepo.FindByIGN(ctx, r.cfg.VideoGameID, ign)
	if err != nil {
		return PlayerResolution{}, fmt.Errorf("%w: find player ign=%s: %w", ErrEntityResolution, ign, err)
	}
	if found {
		return playerFound(existing), nil
	}

	var teamID *int64
	if strings.TrimSpace(teamName) != "" {
		resolvedTeam, err := r.ResolveTeam(ctx, teamName, region)
		if err != nil {
			return PlayerResolution{}, err
		}
		teamID = &resolvedTeam.TeamID
	}

	roleID, matched, err := r.resolveRole(ctx, roleLabel)
	if err != nil {
		return PlayerResolution{}, fmt.Errorf("%w: resolve role label=%s: %w", ErrEntityResolution, roleLabel, err)
	}

	created, err := r.playerRepo.Insert(ctx, player.Player{
		VideoGameID: r.cfg.VideoGameID,
		IGN:         ign,
		TeamID:      teamID,
		RoleID:      roleID,
		Active:      true,
	})
	if errors.Is(err, player.ErrAlreadyExists) {
		existing, found, err = r.playerRepo.FindByIGN(ctx, r.cfg.VideoGameID, ign)
		if err != nil {
			return PlayerResolution{}, fmt.Errorf("%w: re-read player ign=%s: %w", ErrEntityResolution, ign, err)
		}
		if !found {
			return PlayerResolution{}, fmt.Errorf("%w: player ign=%s conflicted but cannot be read back", ErrEntityResolution, ign)
		}
		return playerFound(existing), nil
	}
	if err != nil {
		return PlayerResolution{}, fmt.Errorf("%w: insert player ign=%s: %w", ErrEntityResolution, ign, err)
	}

	kind := ResolutionCreated
	if !matched {
		kind = ResolutionCreatedWithFallback
		r.logger.WarnContext(ctx, "unknown role label, assigned default role",
			"ign", ign,
			"role_label", roleLabel,
			"role_id", roleID,
		)
	}
	r.logger.InfoContext(ctx, "created player from match stats", "player_id", created.ID, "ign", ign, "team", teamName)
	return PlayerResolution{PlayerID: created.ID, TeamID: teamID, RoleID: roleID, Kind: kind}, nil
}

func (r *EntityResolver) resolveRole(ctx context.Context, label string) (int64, bool, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return r.cfg.DefaultRoleID, false, nil
	}

	key := fmt.Sprintf("role:%d:%s", r.cfg.VideoGameID, strings.ToLower(label))
	value, found, err := r.roleCache.GetOrLoadFound(ctx, key, func(ctx context.Context) (any, bool, error) {
		item, found, err := r.roleRepo.FindByLabel(ctx, r.cfg.VideoGameID, label)
		if err != nil || !found {
			return nil, false, err
		}
		return item.ID, true, nil
	})
	if err != nil {
		return 0, false, err
	}

	id, ok := value.(int64)
	if !found || !ok || id <= 0 {
		return r.cfg.DefaultRoleID, false, nil
	}
	return id, true, nil
}

func playerFound(item player.Player) PlayerResolution {
	return PlayerResolution{
		PlayerID: item.ID,
		TeamID:   item.TeamID,
		RoleID:   item.RoleID,
		Kind:     ResolutionFound,
	}
}
