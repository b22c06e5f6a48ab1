package relationship_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/soulmesh/soulmem-go/pkg/core"
	"github.com/soulmesh/soulmem-go/pkg/relationship"
)

func TestDeltaFor(t *testing.T) {
	assert.Equal(t, 5.0, relationship.DeltaFor("user_shared_vulnerability", 1.0))
	assert.Equal(t, -1.0, relationship.DeltaFor("user_frustrated", 1.0))
	assert.Equal(t, 1.5, relationship.DeltaFor("never_heard_of_it", 1.5))
}

func TestApplySignalCapsDelta(t *testing.T) {
	doc := &core.UserRelationship{UserID: "alice"}

	relationship.ApplySignal(doc, core.RelationshipSignal{Signal: "custom", Delta: 99})
	assert.Equal(t, relationship.MaxSignalDelta, doc.AccumulatedScore)

	relationship.ApplySignal(doc, core.RelationshipSignal{Signal: "custom", Delta: -99})
	assert.Equal(t, 0.0, doc.AccumulatedScore, "score floors at zero")
}

func TestApplySignalBoundsHistory(t *testing.T) {
	doc := &core.UserRelationship{UserID: "alice"}
	for i := 0; i < relationship.MaxSignalHistory+20; i++ {
		relationship.ApplySignal(doc, core.RelationshipSignal{Signal: "casual_chat", Delta: 1})
	}
	assert.Len(t, doc.SignalHistory, relationship.MaxSignalHistory)
}

func TestBreakthroughHintWindow(t *testing.T) {
	now := time.Now()
	doc := &core.UserRelationship{UserID: "alice"}

	assert.Empty(t, relationship.BreakthroughHint(doc, now), "no events, no hint")

	relationship.RecordBreakthrough(doc, "first personal confession", now.Add(-40*24*time.Hour))
	assert.Empty(t, relationship.BreakthroughHint(doc, now), "stale events stay silent")

	relationship.RecordBreakthrough(doc, "opened up about family", now.Add(-2*24*time.Hour))
	hint := relationship.BreakthroughHint(doc, now)
	assert.Contains(t, hint, "opened up about family")
	assert.Contains(t, hint, "2 days ago")
}
