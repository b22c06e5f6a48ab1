package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageOrdering(t *testing.T) {
	ladder := []Stage{StageStranger, StageAcquaintance, StageFamiliar, StageClose, StageSoulmate}
	for i := 1; i < len(ladder); i++ {
		assert.Greater(t, ladder[i].Rank(), ladder[i-1].Rank())
	}
	assert.Equal(t, 0, Stage("bogus").Rank(), "unknown stages rank as stranger")
	assert.Equal(t, 0, Stage("").Rank())
}

func TestStageAtLeast(t *testing.T) {
	assert.True(t, StageClose.AtLeast(StageFamiliar))
	assert.True(t, StageFamiliar.AtLeast(StageFamiliar))
	assert.False(t, StageAcquaintance.AtLeast(StageFamiliar))
	assert.True(t, Stage("").AtLeast(StageStranger))
}

func TestWeightedScore(t *testing.T) {
	s := &ImportanceScore{Emotional: 1, Novelty: 1, Personal: 1, Actionable: 1, Recency: 1}
	assert.InDelta(t, 1.0, s.WeightedScore(), 0.0001, "weights sum to one")

	s = &ImportanceScore{Emotional: 0.5}
	assert.InDelta(t, 0.5*WeightEmotional, s.WeightedScore(), 0.0001)

	s = &ImportanceScore{}
	assert.Zero(t, s.WeightedScore())
}

func TestUserRelationshipClone(t *testing.T) {
	orig := &UserRelationship{
		UserID:           "alice",
		AccumulatedScore: 10,
		SignalHistory:    []RelationshipSignal{{Signal: "casual_chat", Delta: 1}},
		Breakthroughs:    []BreakthroughEvent{{Description: "first confession"}},
	}

	clone := orig.Clone()
	clone.AccumulatedScore = 99
	clone.SignalHistory = append(clone.SignalHistory, RelationshipSignal{Signal: "seeking_advice"})
	clone.Breakthroughs[0].Description = "changed"

	assert.Equal(t, 10.0, orig.AccumulatedScore)
	assert.Len(t, orig.SignalHistory, 1)
	assert.Equal(t, "first confession", orig.Breakthroughs[0].Description)

	var nilDoc *UserRelationship
	assert.Nil(t, nilDoc.Clone())
}

func TestSoulContextIsEmpty(t *testing.T) {
	var nilCtx *SoulContext
	assert.True(t, nilCtx.IsEmpty())
	assert.True(t, (&SoulContext{}).IsEmpty())

	withStats := &SoulContext{
		StageHint: "treat them politely",
		Stats:     RecallStats{SourceCounts: map[string]int{"vector": 0}},
	}
	assert.True(t, withStats.IsEmpty(), "stats and a default hint are not content")

	assert.False(t, (&SoulContext{Memories: []string{"m"}}).IsEmpty())
	assert.False(t, (&SoulContext{Stage: StageStranger}).IsEmpty())
	assert.False(t, (&SoulContext{EmotionShiftHint: "They just brightened."}).IsEmpty())
	assert.False(t, (&SoulContext{Profile: &UserProfile{}}).IsEmpty())
}
