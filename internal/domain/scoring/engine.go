package scoring

import "math"

type PlayerInput struct {
	Kills       int
	Deaths      int
	Assists     int
	CS          int
	VisionScore int
}

func (in PlayerInput) hasNegative() bool {
	return in.Kills < 0 || in.Deaths < 0 || in.Assists < 0 || in.CS < 0 || in.VisionScore < 0
}

type TeamInput struct {
	Dragons     int
	RiftHeralds int
	Barons      int
	VoidGrubs   int
	Atakhan     int
	Turrets     int
	Inhibitors  int
	TotalKills  int
	Won         bool
}

func (in TeamInput) hasNegative() bool {
	return in.Dragons < 0 || in.RiftHeralds < 0 || in.Barons < 0 || in.VoidGrubs < 0 ||
		in.Atakhan < 0 || in.Turrets < 0 || in.Inhibitors < 0 || in.TotalKills < 0
}

// PlayerLine ties a player input to the team it played for.
type PlayerLine struct {
	Team  string
	Input PlayerInput
}

// Engine computes fantasy points. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	weights Weights
}

func NewEngine(weights Weights) (*Engine, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Engine{weights: weights}, nil
}

// NewDefaultEngine returns an engine with the stock weights.
func NewDefaultEngine() *Engine {
	return &Engine{weights: DefaultWeights()}
}

func (e *Engine) Weights() Weights {
	return e.weights
}

// ScorePlayer returns the player's points rounded to two decimals.
// A nil duration skips the game length multiplier.
func (e *Engine) ScorePlayer(in PlayerInput, teamTotalKills int, durationMinutes *float64) float64 {
	if in.hasNegative() {
		return 0
	}

	w := e.weights.Player
	points := float64(in.Kills)*w.Kills +
		float64(in.Deaths)*w.Deaths +
		float64(in.Assists)*w.Assists +
		float64(in.CS)*w.CS +
		float64(in.VisionScore)*w.VisionScore

	contributions := in.Kills + in.Assists
	switch {
	case teamTotalKills > 0:
		participation := float64(contributions) / float64(teamTotalKills) * 100
		points += participation * w.KillParticipation
	case contributions > 0:
		// team kills missing while the player has contributions: full participation credit
		points += 100 * w.KillParticipation
	}

	if in.Deaths == 0 && points > 0 {
		points *= w.FlawlessBonus
	}

	return e.applyDuration(round2(points), durationMinutes)
}

// ScoreTeam returns the team's points rounded to two decimals.
func (e *Engine) ScoreTeam(in TeamInput, durationMinutes *float64) float64 {
	if in.hasNegative() {
		return 0
	}

	w := e.weights.Team
	points := float64(in.Dragons)*w.Dragons +
		float64(in.RiftHeralds)*w.RiftHeralds +
		float64(in.Barons)*w.Barons +
		float64(in.VoidGrubs)*w.VoidGrubs +
		float64(in.Atakhan)*w.Atakhan +
		float64(in.Turrets)*w.Turrets +
		float64(in.Inhibitors)*w.Inhibitors +
		float64(in.TotalKills)*w.TotalKills
	if in.Won {
		points += w.Win
	} else {
		points += w.Loss
	}

	return e.applyDuration(round2(points), durationMinutes)
}

// DurationMultiplier returns 1 when the duration is unknown.
func (e *Engine) DurationMultiplier(durationMinutes *float64) float64 {
	d := e.weights.Duration
	if durationMinutes == nil || *durationMinutes <= 0 {
		return d.Normal
	}
	switch minutes := *durationMinutes; {
	case minutes < d.ShortGameMinutes:
		return d.ShortGame
	case minutes > d.LongGameMinutes:
		return d.LongGame
	default:
		return d.Normal
	}
}

// TeamKills sums player kills per team name.
func TeamKills(lines []PlayerLine) map[string]int {
	out := make(map[string]int, 2)
	for _, line := range lines {
		out[line.Team] += line.Input.Kills
	}
	return out
}

// ScorePlayers scores each line against its team's kill total. Output order follows input order.
func (e *Engine) ScorePlayers(lines []PlayerLine, teamKills map[string]int, durationMinutes *float64) []float64 {
	out := make([]float64, len(lines))
	for i, line := range lines {
		out[i] = e.ScorePlayer(line.Input, teamKills[line.Team], durationMinutes)
	}
	return out
}

func (e *Engine) ScoreTeams(inputs []TeamInput, durationMinutes *float64) []float64 {
	out := make([]float64, len(inputs))
	for i, in := range inputs {
		out[i] = e.ScoreTeam(in, durationMinutes)
	}
	return out
}

func (e *Engine) applyDuration(points float64, durationMinutes *float64) float64 {
	if durationMinutes == nil || *durationMinutes <= 0 {
		return points
	}
	return round2(points * e.DurationMultiplier(durationMinutes))
}

// round2 rounds half up to two decimals.
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
