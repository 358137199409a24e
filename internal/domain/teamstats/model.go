package teamstats

import "fmt"

const SourceLeaguepedia = "leaguepedia"

// Record is one team's objective line for a match. Unique on (MatchID, TeamID).
type Record struct {
	MatchID       int64
	TeamID        int64
	Dragons       int
	RiftHeralds   int
	Barons        int
	VoidGrubs     int
	Atakhan       int
	Turrets       int
	Inhibitors    int
	TotalKills    int
	Won           bool
	FantasyPoints float64
	Source        string
	Validated     bool
}

func (r Record) Validate() error {
	if r.MatchID <= 0 {
		return fmt.Errorf("team stat match id is required")
	}
	if r.TeamID <= 0 {
		return fmt.Errorf("team stat team id is required")
	}

	return nil
}
