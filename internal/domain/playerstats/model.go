package playerstats

import "fmt"

const SourceLeaguepedia = "leaguepedia"

// Record is one player's statistic line for a match. Unique on (MatchID, PlayerID).
type Record struct {
	MatchID       int64
	PlayerID      int64
	Champion      string
	Kills         int
	Deaths        int
	Assists       int
	CS            int
	Gold          int
	Damage        int
	VisionScore   int
	FantasyPoints float64
	Source        string
	Validated     bool
}

func (r Record) Validate() error {
	if r.MatchID <= 0 {
		return fmt.Errorf("player stat match id is required")
	}
	if r.PlayerID <= 0 {
		return fmt.Errorf("player stat player id is required")
	}

	return nil
}
