package scoring

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type PlayerWeights struct {
	Kills             float64 `json:"kills"`
	Deaths            float64 `json:"deaths"`
	Assists           float64 `json:"assists"`
	CS                float64 `json:"cs"`
	VisionScore       float64 `json:"vision_score"`
	KillParticipation float64 `json:"kill_participation" validate:"gte=0"`
	FlawlessBonus     float64 `json:"flawless_bonus" validate:"gt=0"`
}

type TeamWeights struct {
	Dragons     float64 `json:"dragons"`
	RiftHeralds float64 `json:"rift_heralds"`
	Barons      float64 `json:"barons"`
	VoidGrubs   float64 `json:"void_grubs"`
	Atakhan     float64 `json:"atakhan"`
	Turrets     float64 `json:"turrets"`
	Inhibitors  float64 `json:"inhibitors"`
	TotalKills  float64 `json:"total_kills"`
	Win         float64 `json:"win"`
	Loss        float64 `json:"loss"`
}

// DurationWeights scales points for short and long games.
type DurationWeights struct {
	ShortGameMinutes float64 `json:"short_game_minutes" validate:"gt=0"`
	LongGameMinutes  float64 `json:"long_game_minutes" validate:"gtfield=ShortGameMinutes"`
	ShortGame        float64 `json:"short_game" validate:"gt=0"`
	Normal           float64 `json:"normal" validate:"gt=0"`
	LongGame         float64 `json:"long_game" validate:"gt=0"`
}

type Weights struct {
	Player   PlayerWeights   `json:"player"`
	Team     TeamWeights     `json:"team"`
	Duration DurationWeights `json:"duration"`
}

func DefaultWeights() Weights {
	return Weights{
		Player: PlayerWeights{
			Kills:             3,
			Deaths:            -0.5,
			Assists:           2,
			CS:                0.02,
			VisionScore:       0.02,
			KillParticipation: 0.25,
			FlawlessBonus:     1.2,
		},
		Team: TeamWeights{
			Dragons:     2,
			RiftHeralds: 4,
			Barons:      10,
			VoidGrubs:   1.5,
			Atakhan:     7,
			Turrets:     2,
			Inhibitors:  4,
			TotalKills:  1,
			Win:         15,
			Loss:        -15,
		},
		Duration: DurationWeights{
			ShortGameMinutes: 20,
			LongGameMinutes:  40,
			ShortGame:        1.05,
			Normal:           1.0,
			LongGame:         0.95,
		},
	}
}

var weightsValidator = validator.New()

func (w Weights) Validate() error {
	if err := weightsValidator.Struct(w); err != nil {
		return fmt.Errorf("invalid scoring weights: %w", err)
	}
	return nil
}

// Warnings lists legal but suspicious settings.
func (w Weights) Warnings() []string {
	var out []string
	if w.Player.FlawlessBonus < 1 {
		out = append(out, "player flawless bonus is below 1 and penalizes deathless games")
	}
	if w.Player.Deaths > 0 {
		out = append(out, "player death weight is positive and rewards dying")
	}
	if w.Team.Loss > 0 {
		out = append(out, "team loss weight is positive")
	}
	return out
}
