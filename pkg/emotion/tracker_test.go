package emotion_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soulmesh/soulmem-go/pkg/emotion"
)

func TestTrackFirstMessageNoHint(t *testing.T) {
	tracker := emotion.NewTracker()
	assert.Empty(t, tracker.Track("alice", "今天好开心"))
}

func TestTrackHappyToLowShift(t *testing.T) {
	tracker := emotion.NewTracker()

	assert.Empty(t, tracker.Track("alice", "今天好开心，拿到offer了"))
	hint := tracker.Track("alice", "唉，没劲")
	assert.NotEmpty(t, hint, "happy -> low must produce a downshift hint")
	assert.Contains(t, hint, "energy")
}

func TestTrackNegativeToSeekingEscalation(t *testing.T) {
	tracker := emotion.NewTracker()

	tracker.Track("alice", "最近压力好大，睡不着")
	hint := tracker.Track("alice", "我该怎么办")
	assert.Contains(t, hint, "concrete")
}

func TestTrackReliefShift(t *testing.T) {
	tracker := emotion.NewTracker()

	tracker.Track("alice", "难过，想哭")
	hint := tracker.Track("alice", "太好了，问题解决了！")
	assert.Contains(t, hint, "lifted")
}

func TestTrackNeutralDoesNotMaskShift(t *testing.T) {
	tracker := emotion.NewTracker()

	tracker.Track("alice", "今天好开心")
	assert.Empty(t, tracker.Track("alice", "今天吃了碗面"))
	hint := tracker.Track("alice", "好烦啊")
	assert.NotEmpty(t, hint, "neutral filler must not hide the happy -> angry shift")
}

func TestTrackWindowBounded(t *testing.T) {
	tracker := emotion.NewTracker()

	for i := 0; i < emotion.MaxWindow+5; i++ {
		tracker.Track("alice", "今天好开心")
	}
	assert.Len(t, tracker.History("alice"), emotion.MaxWindow)
}

func TestTrackUsersIsolated(t *testing.T) {
	tracker := emotion.NewTracker()

	tracker.Track("alice", "今天好开心")
	hint := tracker.Track("bob", "唉，没劲")
	assert.Empty(t, hint, "bob's first message must not see alice's history")
}

func TestReset(t *testing.T) {
	tracker := emotion.NewTracker()
	tracker.Track("alice", "今天好开心")
	tracker.Reset()
	assert.Empty(t, tracker.History("alice"))
}
