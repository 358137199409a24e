package team

import (
	"errors"
	"fmt"
	"strings"
)

const UnknownRegion = "Unknown"

// ErrAlreadyExists is returned by Insert when the name is taken for the video game.
var ErrAlreadyExists = errors.New("team already exists")

// Team is a professional roster referenced by match statistics.
type Team struct {
	ID          int64
	VideoGameID int64
	Name        string
	ShortName   string
	Region      string
	Active      bool
}

func (t Team) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("team name is required")
	}
	if t.VideoGameID <= 0 {
		return fmt.Errorf("team video game id must be greater than zero")
	}

	return nil
}
