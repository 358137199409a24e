package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/riskibarqy/esports-fantasy/internal/domain/role"
)

type RoleRepository struct {
	mu    sync.RWMutex
	roles []role.Role
}

func NewRoleRepository(roles []role.Role) *RoleRepository {
	return &RoleRepository{roles: append([]role.Role(nil), roles...)}
}

// FindByLabel prefers an exact short name over a partial name match.
func (r *RoleRepository) FindByLabel(_ context.Context, videoGameID int64, label string) (role.Role, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return role.Role{}, false, nil
	}
	for _, item := range r.roles {
		if item.VideoGameID == videoGameID && strings.ToLower(item.ShortName) == label {
			return item, true, nil
		}
	}
	for _, item := range r.roles {
		if item.VideoGameID == videoGameID && strings.Contains(strings.ToLower(item.Name), label) {
			return item, true, nil
		}
	}
	return role.Role{}, false, nil
}
