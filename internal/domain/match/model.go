package match

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPendingValidation Status = "pending_validation"
	StatusValidated         Status = "validated"
)

// Match is one completed game reported by the stats provider.
type Match struct {
	ID              int64
	VideoGameID     int64
	ExternalID      string
	Tournament      string
	Region          string
	OverviewPage    string
	OccurredAt      *time.Time
	DurationSeconds int
	Patch           string
	WeekLabel       *string
	Team1           string
	Team2           string
	Winner          string
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (m Match) Validate() error {
	if strings.TrimSpace(m.ExternalID) == "" {
		return fmt.Errorf("match external id is required")
	}
	if m.VideoGameID <= 0 {
		return fmt.Errorf("match video game id must be greater than zero")
	}
	if m.DurationSeconds < 0 {
		return fmt.Errorf("match duration cannot be negative")
	}
	switch m.Status {
	case StatusPendingValidation, StatusValidated:
	default:
		return fmt.Errorf("invalid match status: %s", m.Status)
	}

	return nil
}

// DurationMinutes returns nil when the provider did not report a game length.
func (m Match) DurationMinutes() *float64 {
	if m.DurationSeconds <= 0 {
		return nil
	}
	minutes := float64(m.DurationSeconds) / 60
	return &minutes
}
