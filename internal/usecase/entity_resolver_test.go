package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/riskibarqy/esports-fantasy/internal/domain/player"
	"github.com/riskibarqy/esports-fantasy/internal/domain/role"
	"github.com/riskibarqy/esports-fantasy/internal/domain/team"
	"github.com/riskibarqy/esports-fantasy/internal/platform/logging"
	playermock "github.com/riskibarqy/esports-fantasy/internal/mocks/domain/player"
	rolemock "github.com/riskibarqy/esports-fantasy/internal/mocks/domain/role"
	teammock "github.com/riskibarqy/esports-fantasy/internal/mocks/domain/team"
	"github.com/stretchr/testify/mock"
)

func newTestResolver(t *testing.T) (*EntityResolver, *teammock.Repository, *playermock.Repository, *rolemock.Repository) {
	t.Helper()

	teamRepo := teammock.NewRepository(t)
	playerRepo := playermock.NewRepository(t)
	roleRepo := rolemock.NewRepository(t)
	resolver := NewEntityResolver(teamRepo, playerRepo, roleRepo, EntityResolverConfig{VideoGameID: 1}, logging.NewNop())
	return resolver, teamRepo, playerRepo, roleRepo
}

func TestEntityResolver_ResolveTeam_FoundDoesNotInsert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	resolver, teamRepo, _, _ := newTestResolver(t)

	teamRepo.
		On("FindByName", mock.Anything, int64(1), "T1").
		Return(team.Team{ID: 7, Name: "T1"}, true, nil).
		Once()

	got, err := resolver.ResolveTeam(ctx, " T1 ", "LCK")
	if err != nil {
		t.Fatalf("resolve team: %v", err)
	}
	if got.TeamID != 7 || got.Kind != ResolutionFound {
		t.Fatalf("unexpected resolution: got=%+v", got)
	}
}

func TestEntityResolver_ResolveTeam_CreatesWithUnknownRegion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	resolver, teamRepo, _, _ := newTestResolver(t)

	teamRepo.
		On("FindByName", mock.Anything, int64(1), "Hanwha Life Esports").
		Return(team.Team{}, false, nil).
		Once()
	teamRepo.
		On("Insert", mock.Anything, mock.MatchedBy(func(item team.Team) bool {
			return item.Name == "Hanwha Life Esports" &&
				item.ShortName == "Hanwha Life Esports" &&
				item.Region == team.UnknownRegion &&
				item.Active
		})).
		Return(team.Team{ID: 11}, nil).
		Once()

	got, err := resolver.ResolveTeam(ctx, "Hanwha Life Esports", "")
	if err != nil {
		t.Fatalf("resolve team: %v", err)
	}
	if got.TeamID != 11 || got.Kind != ResolutionCreated {
		t.Fatalf("unexpected resolution: got=%+v", got)
	}
}

func TestEntityResolver_ResolveTeam_ConcurrentInsertReadsBack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	resolver, teamRepo, _, _ := newTestResolver(t)

	teamRepo.
		On("FindByName", mock.Anything, int64(1), "Gen.G").
		Return(team.Team{}, false, nil).
		Once()
	teamRepo.
		On("Insert", mock.Anything, mock.Anything).
		Return(team.Team{}, fmt.Errorf("%w: name=Gen.G", team.ErrAlreadyExists)).
		Once()
	teamRepo.
		On("FindByName", mock.Anything, int64(1), "Gen.G").
		Return(team.Team{ID: 3, Name: "Gen.G"}, true, nil).
		Once()

	got, err := resolver.ResolveTeam(ctx, "Gen.G", "LCK")
	if err != nil {
		t.Fatalf("resolve team: %v", err)
	}
	if got.TeamID != 3 || got.Kind != ResolutionFound {
		t.Fatalf("unexpected resolution: got=%+v", got)
	}
}

func TestEntityResolver_ResolveTeam_RepositoryErrorIsWrapped(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	resolver, teamRepo, _, _ := newTestResolver(t)

	teamRepo.
		On("FindByName", mock.Anything, int64(1), "T1").
		Return(team.Team{}, false, errors.New("connection reset")).
		Once()

	_, err := resolver.ResolveTeam(ctx, "T1", "LCK")
	if !errors.Is(err, ErrEntityResolution) {
		t.Fatalf("expected ErrEntityResolution, got %v", err)
	}

	if _, err := resolver.ResolveTeam(ctx, "  ", "LCK"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank name, got %v", err)
	}
}

func TestEntityResolver_ResolvePlayer_FoundSkipsTeamAndRole(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	resolver, _, playerRepo, _ := newTestResolver(t)
	teamID := int64(7)

	playerRepo.
		On("FindByIGN", mock.Anything, int64(1), "Faker").
		Return(player.Player{ID: 42, IGN: "Faker", TeamID: &teamID, RoleID: 3}, true, nil).
		Once()

	got, err := resolver.ResolvePlayer(ctx, "Faker", "T1", "Mid", "LCK")
	if err != nil {
		t.Fatalf("resolve player: %v", err)
	}
	if got.PlayerID != 42 || got.RoleID != 3 || got.Kind != ResolutionFound {
		t.Fatalf("unexpected resolution: got=%+v", got)
	}
	if got.TeamID == nil || *got.TeamID != teamID {
		t.Fatalf("unexpected team id: got=%v want=%d", got.TeamID, teamID)
	}
}

func TestEntityResolver_ResolvePlayer_CreatesWithTeamAndRole(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	resolver, teamRepo, playerRepo, roleRepo := newTestResolver(t)

	playerRepo.
		On("FindByIGN", mock.Anything, int64(1), "Oner").
		Return(player.Player{}, false, nil).
		Once()
	teamRepo.
		On("FindByName", mock.Anything, int64(1), "T1").
		Return(team.Team{ID: 7}, true, nil).
		Once()
	roleRepo.
		On("FindByLabel", mock.Anything, int64(1), "Jungle").
		Return(role.Role{ID: 2, Name: "Jungle"}, true, nil).
		Once()
	playerRepo.
		On("Insert", mock.Anything, mock.MatchedBy(func(item player.Player) bool {
			return item.IGN == "Oner" && item.RoleID == 2 && item.TeamID != nil && *item.TeamID == 7
		})).
		Return(player.Player{ID: 50}, nil).
		Once()

	got, err := resolver.ResolvePlayer(ctx, "Oner", "T1", "Jungle", "LCK")
	if err != nil {
		t.Fatalf("resolve player: %v", err)
	}
	if got.PlayerID != 50 || got.RoleID != 2 || got.Kind != ResolutionCreated {
		t.Fatalf("unexpected resolution: got=%+v", got)
	}
}

func TestEntityResolver_ResolvePlayer_UnknownRoleFallsBack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	resolver, _, playerRepo, roleRepo := newTestResolver(t)

	playerRepo.
		On("FindByIGN", mock.Anything, int64(1), "Sub1").
		Return(player.Player{}, false, nil).
		Once()
	roleRepo.
		On("FindByLabel", mock.Anything, int64(1), "Coach").
		Return(role.Role{}, false, nil).
		Once()
	playerRepo.
		On("Insert", mock.Anything, mock.MatchedBy(func(item player.Player) bool {
			return item.IGN == "Sub1" && item.RoleID == role.DefaultID && item.TeamID == nil
		})).
		Return(player.Player{ID: 60}, nil).
		Once()

	got, err := resolver.ResolvePlayer(ctx, "Sub1", "", "Coach", "")
	if err != nil {
		t.Fatalf("resolve player: %v", err)
	}
	if got.Kind != ResolutionCreatedWithFallback || got.RoleID != role.DefaultID {
		t.Fatalf("unexpected resolution: got=%+v", got)
	}
}

func TestEntityResolver_ResolvePlayer_RoleMissIsNotCached(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	resolver, _, playerRepo, roleRepo := newTestResolver(t)

	for _, ign := range []string{"Sub1", "Sub2", "Sub3"} {
		playerRepo.
			On("FindByIGN", mock.Anything, int64(1), ign).
			Return(player.Player{}, false, nil).
			Once()
	}
	roleRepo.
		On("FindByLabel", mock.Anything, int64(1), "Coach").
		Return(role.Role{}, false, nil).
		Once()
	// added after the miss; cached once found
	roleRepo.
		On("FindByLabel", mock.Anything, int64(1), "Coach").
		Return(role.Role{ID: 6, Name: "Coach"}, true, nil).
		Once()
	playerRepo.
		On("Insert", mock.Anything, mock.MatchedBy(func(item player.Player) bool {
			return item.IGN == "Sub1" && item.RoleID == role.DefaultID
		})).
		Return(player.Player{ID: 60}, nil).
		Once()
	playerRepo.
		On("Insert", mock.Anything, mock.MatchedBy(func(item player.Player) bool {
			return item.IGN != "Sub1" && item.RoleID == 6
		})).
		Return(player.Player{ID: 61}, nil).
		Twice()

	want := map[string]ResolutionKind{
		"Sub1": ResolutionCreatedWithFallback,
		"Sub2": ResolutionCreated,
		"Sub3": ResolutionCreated,
	}
	for _, ign := range []string{"Sub1", "Sub2", "Sub3"} {
		got, err := resolver.ResolvePlayer(ctx, ign, "", "Coach", "")
		if err != nil {
			t.Fatalf("resolve player %s: %v", ign, err)
		}
		if got.Kind != want[ign] {
			t.Fatalf("unexpected resolution for %s: got=%+v", ign, got)
		}
	}
}

func TestEntityResolver_ResolvePlayer_InsertFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	resolver, _, playerRepo, roleRepo := newTestResolver(t)

	playerRepo.
		On("FindByIGN", mock.Anything, int64(1), "Keria").
		Return(player.Player{}, false, nil).
		Once()
	roleRepo.
		On("FindByLabel", mock.Anything, int64(1), "Support").
		Return(role.Role{ID: 5}, true, nil).
		Once()
	playerRepo.
		On("Insert", mock.Anything, mock.Anything).
		Return(player.Player{}, errors.New("disk full")).
		Once()

	_, err := resolver.ResolvePlayer(ctx, "Keria", "", "Support", "LCK")
	if !errors.Is(err, ErrEntityResolution) {
		t.Fatalf("expected ErrEntityResolution, got %v", err)
	}
}
