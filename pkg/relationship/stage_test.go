package relationship_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soulmesh/soulmem-go/pkg/core"
	"github.com/soulmesh/soulmem-go/pkg/relationship"
)

func TestStageBelowThresholdsIsStranger(t *testing.T) {
	calc := relationship.NewStageCalculator()

	for score := 0.0; score < 30; score += 5 {
		for days := 0; days < 7; days++ {
			stage := calc.Calculate(score, days, "alice")
			assert.Equal(t, core.StageStranger, stage,
				"score=%.0f days=%d must stay stranger", score, days)
		}
	}
}

func TestStageDeterminism(t *testing.T) {
	calc := relationship.NewStageCalculator()

	inputs := []struct {
		score float64
		days  int
	}{
		{25, 10}, {31, 8}, {85, 20}, {160, 35}, {450, 95}, {600, 120},
	}
	for _, in := range inputs {
		for _, user := range []string{"alice", "bob", "u-9f3"} {
			first := calc.Calculate(in.score, in.days, user)
			for i := 0; i < 50; i++ {
				assert.Equal(t, first, calc.Calculate(in.score, in.days, user),
					"stage must be stable for score=%.0f days=%d user=%s", in.score, in.days, user)
			}
		}
	}
}

func TestStageOutsideBandIgnoresUser(t *testing.T) {
	calc := relationship.NewStageCalculator()

	// 450 misses the soulmate threshold (500) and sits far above close's band
	// (120..180), so every user lands on close regardless of their hash.
	for i := 0; i < 100; i++ {
		user := fmt.Sprintf("user-%d", i)
		assert.Equal(t, core.StageClose, calc.Calculate(450, 95, user))
	}

	// Far above every band the user hash is irrelevant.
	for i := 0; i < 100; i++ {
		user := fmt.Sprintf("user-%d", i)
		assert.Equal(t, core.StageSoulmate, calc.Calculate(700, 120, user))
	}
}

func TestStageDaysGateIndependentOfScore(t *testing.T) {
	calc := relationship.NewStageCalculator()

	// Plenty of score but only 5 active days: nothing beyond stranger opens.
	assert.Equal(t, core.StageStranger, calc.Calculate(1000, 5, "alice"))
}

func TestStageHintAlwaysPresent(t *testing.T) {
	for _, stage := range []core.Stage{
		core.StageStranger, core.StageAcquaintance, core.StageFamiliar,
		core.StageClose, core.StageSoulmate, core.Stage("bogus"),
	} {
		assert.NotEmpty(t, relationship.StageHint(stage))
	}
}

func TestApplyCoolingOneShot(t *testing.T) {
	now := time.Now()
	doc := &core.UserRelationship{
		UserID:           "alice",
		AccumulatedScore: 100,
		LastInteraction:  now.Add(-20 * 24 * time.Hour),
	}

	require.True(t, relationship.ApplyCooling(doc, now))
	assert.InDelta(t, 90.0, doc.AccumulatedScore, 0.001)
	assert.True(t, doc.CoolingWarned)

	// Second recall during the same idle period must not stack the decay.
	require.False(t, relationship.ApplyCooling(doc, now))
	assert.InDelta(t, 90.0, doc.AccumulatedScore, 0.001)
}

func TestApplyCoolingRequiresIdle(t *testing.T) {
	now := time.Now()
	doc := &core.UserRelationship{
		UserID:           "alice",
		AccumulatedScore: 100,
		LastInteraction:  now.Add(-2 * 24 * time.Hour),
	}
	assert.False(t, relationship.ApplyCooling(doc, now))
	assert.InDelta(t, 100.0, doc.AccumulatedScore, 0.001)
}

func TestTouchResetsCoolingAndCountsDays(t *testing.T) {
	now := time.Now()
	doc := &core.UserRelationship{
		UserID:              "alice",
		CoolingWarned:       true,
		TotalDaysActive:     3,
		LastInteractionDate: now.AddDate(0, 0, -1).Format("2006-01-02"),
	}

	relationship.Touch(doc, now)
	assert.False(t, doc.CoolingWarned)
	assert.Equal(t, 1, doc.TotalConversations)
	assert.Equal(t, 4, doc.TotalDaysActive, "new calendar day increments the day count")

	relationship.Touch(doc, now.Add(time.Minute))
	assert.Equal(t, 2, doc.TotalConversations)
	assert.Equal(t, 4, doc.TotalDaysActive, "same-day exchange must not add a day")
}
