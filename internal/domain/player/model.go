package player

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAlreadyExists is returned by Insert when the ign is taken for the video game.
var ErrAlreadyExists = errors.New("player already exists")

// Player is a professional identified by in-game name.
type Player struct {
	ID          int64
	VideoGameID int64
	IGN         string
	TeamID      *int64
	RoleID      int64
	Active      bool
}

func (p Player) Validate() error {
	if strings.TrimSpace(p.IGN) == "" {
		return fmt.Errorf("player ign is required")
	}
	if p.VideoGameID <= 0 {
		return fmt.Errorf("player video game id must be greater than zero")
	}
	if p.RoleID <= 0 {
		return fmt.Errorf("player role id must be greater than zero")
	}

	return nil
}
