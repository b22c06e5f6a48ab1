// Package relationship derives relationship stages from accumulated
// interaction scores and applies cooling decay to stale relationships.
package relationship

import (
	"hash/fnv"
	"math"

	"github.com/soulmesh/soulmem-go/pkg/core"
)

// Threshold is the entry requirement for one stage.
type Threshold struct {
	// Stage is the stage this threshold guards.
	Stage core.Stage

	// MinScore is the minimum accumulated score.
	MinScore float64

	// MinDays is the minimum number of distinct active days.
	MinDays int
}

// DefaultThresholds returns the default stage ladder, ordered lowest first.
func DefaultThresholds() []Threshold {
	return []Threshold{
		{Stage: core.StageStranger, MinScore: 0, MinDays: 0},
		{Stage: core.StageAcquaintance, MinScore: 30, MinDays: 7},
		{Stage: core.StageFamiliar, MinScore: 80, MinDays: 14},
		{Stage: core.StageClose, MinScore: 150, MinDays: 30},
		{Stage: core.StageSoulmate, MinScore: 500, MinDays: 90},
	}
}

// Hysteresis band around each non-stranger threshold, as fractions of the
// stage's MinScore. Tunable policy, not a derived formula.
const (
	bandLower = 0.8
	bandUpper = 1.2
)

// StageCalculator maps (score, days, user) to a stage.
//
// The calculator is stateless and deterministic: the same inputs always yield
// the same stage. Near a stage boundary it applies a per-user tie-break
// derived from hashing (user_id, stage), which staggers promotions across
// users without any mutable RNG state.
type StageCalculator struct {
	// thresholds is the stage ladder, ordered lowest first.
	thresholds []Threshold
}

// NewStageCalculator creates a calculator with the default ladder.
func NewStageCalculator() *StageCalculator {
	return &StageCalculator{thresholds: DefaultThresholds()}
}

// NewStageCalculatorWithThresholds creates a calculator with a custom ladder.
// Thresholds must be ordered lowest stage first; nil falls back to defaults.
func NewStageCalculatorWithThresholds(thresholds []Threshold) *StageCalculator {
	if len(thresholds) == 0 {
		thresholds = DefaultThresholds()
	}
	return &StageCalculator{thresholds: thresholds}
}

// Calculate returns the stage for the given accumulated score and active-days
// count. userID feeds only the deterministic boundary tie-break.
//
// Stages are scanned from highest to lowest. A stage qualifies when both
// score and days meet its threshold. When the score falls inside the
// hysteresis band around a non-stranger threshold, the stage is accepted only
// if the user's hash value is at or below the band position p, otherwise the
// scan falls through to the next lower stage.
func (c *StageCalculator) Calculate(score float64, days int, userID string) core.Stage {
	for i := len(c.thresholds) - 1; i >= 1; i-- {
		th := c.thresholds[i]
		if score < th.MinScore || days < th.MinDays {
			continue
		}

		lower := th.MinScore * bandLower
		upper := th.MinScore * bandUpper
		if score < upper {
			// Inside the boundary band: soft, per-user acceptance.
			p := (score - lower) / (upper - lower)
			if hashUnit(userID, th.Stage) > p {
				continue
			}
		}
		return th.Stage
	}
	return core.StageStranger
}

// hashUnit maps (userID, stage) to a deterministic value in [0,1).
func hashUnit(userID string, stage core.Stage) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(userID))
	_, _ = h.Write([]byte("|"))
	_, _ = h.Write([]byte(stage))
	return float64(h.Sum64()) / math.MaxUint64
}

// Thresholds returns the calculator's ladder, lowest stage first.
func (c *StageCalculator) Thresholds() []Threshold {
	return c.thresholds
}

// defaultStageHints are the deterministic behavior hints used when no LLM
// provider is configured for stage behavior text.
var defaultStageHints = map[core.Stage]string{
	core.StageStranger:     "You are still strangers. Keep a polite distance, ask light questions, and never imply prior knowledge of the user.",
	core.StageAcquaintance: "You are acquaintances. Be warm but not presumptuous; small callbacks to earlier talk are welcome.",
	core.StageFamiliar:     "You know each other. Speak casually, reference shared history naturally, and check in on things they mentioned.",
	core.StageClose:        "You are close. Be direct and caring, follow up on their ongoing stories, and allow gentle teasing.",
	core.StageSoulmate:     "You are deeply bonded. Speak with full familiarity, anticipate their needs, and reference your shared history freely.",
}

// StageHint returns the deterministic behavior hint for a stage.
func StageHint(stage core.Stage) string {
	if hint, ok := defaultStageHints[stage]; ok {
		return hint
	}
	return defaultStageHints[core.StageStranger]
}
