package contextpack

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soulmesh/soulmem-go/pkg/core"
)

func populatedContext() *core.SoulContext {
	return &core.SoulContext{
		Memories:         []string{"They adopted a cat named Mochi last spring."},
		LongTermMemories: []string{"They are studying for a counseling certificate."},
		Stage:            core.StageFamiliar,
		StageHint:        "You know each other.",
	}
}

func TestBuildEmptyContext(t *testing.T) {
	b := NewBuilder()
	assert.Empty(t, b.Build("alice", "hi", &core.SoulContext{}))
	assert.Empty(t, b.Build("alice", "hi", nil))
}

func TestBuildWarmupSkipsMemories(t *testing.T) {
	b := NewBuilder()
	sc := populatedContext()

	for turn := 1; turn <= 3; turn++ {
		out := b.Build("alice", "hello", sc)
		assert.Contains(t, out, "You know each other.", "turn %d keeps the stage hint", turn)
		assert.NotContains(t, out, "Mochi", "turn %d must not inject memories", turn)
	}

	out := b.Build("alice", "hello", sc)
	assert.Contains(t, out, "Mochi", "turn 4 may inject memories")
}

func TestBuildTriggerPhraseOverridesWarmup(t *testing.T) {
	b := NewBuilder()
	sc := populatedContext()

	out := b.Build("alice", "do you remember my cat?", sc)
	assert.Contains(t, out, "Mochi", "explicit recall request beats the warmup gate")
}

func TestBuildWarmupTriggerBudgetClamped(t *testing.T) {
	b := NewBuilder()
	sc := populatedContext()
	sc.Memories = []string{"m1.", "m2.", "m3.", "m4."}
	sc.LongTermMemories = nil

	out := b.Build("alice", "上次我们聊到哪了", sc)
	assert.Equal(t, 2, strings.Count(out, "- m"), "warmup trigger injections are clamped")
}

func TestBuildInjectionGap(t *testing.T) {
	b := NewBuilder()
	sc := populatedContext()

	// Burn the warmup turns.
	for turn := 1; turn <= 3; turn++ {
		b.Build("alice", "hello", sc)
	}

	first := b.Build("alice", "hello", sc)
	require.Contains(t, first, "Mochi")

	gap := b.Build("alice", "hello", sc)
	assert.NotContains(t, gap, "Mochi", "turn right after an injection stays memory-free")

	next := b.Build("alice", "hello", sc)
	assert.Contains(t, next, "Mochi", "gap satisfied, memories return")
}

func TestBuildDedupKeepsLonger(t *testing.T) {
	b := NewBuilder()
	sc := populatedContext()
	sc.Memories = []string{
		"They adopted a cat named Mochi last spring",
		"They adopted a cat named Mochi last spring!!",
	}
	sc.LongTermMemories = nil

	out := b.Build("alice", "remember my cat?", sc)
	assert.Equal(t, 1, strings.Count(out, "Mochi"), "near-duplicates collapse to one entry")
	assert.Contains(t, out, "spring!!", "the longer variant survives")
}

func TestBuildCompressesLongItems(t *testing.T) {
	b := NewBuilder()
	sc := populatedContext()
	long := strings.Repeat("word ", 40) + "ends here. Second sentence. Third sentence."
	sc.Memories = []string{long}
	sc.LongTermMemories = nil

	out := b.Build("alice", "remember this?", sc)
	assert.NotContains(t, out, "Third sentence", "overlong items are compressed")
}

func TestBuildSectionsFollowPriorityOrder(t *testing.T) {
	b := NewBuilder()
	sc := &core.SoulContext{
		Memories:         []string{"plays piano on weekends."},
		LongTermMemories: []string{"moved cities for a fresh start."},
		GraphInsights:    []string{"mochi is her cat"},
		Resonance:        []string{"cried after the rejection call"},
		Foresight:        []string{"second interview on friday"},
		Profile:          &core.UserProfile{Summary: "night owl"},
		Threads:          []core.StoryThread{{Title: "job hunt"}},
		Stage:            core.StageFamiliar,
		StageHint:        "You know each other.",
	}

	// Burn the warmup turns, then ask with a trigger so the budget covers
	// every section.
	for turn := 1; turn <= 3; turn++ {
		b.Build("alice", "hello", sc)
	}
	out := b.Build("alice", "remember all of it", sc)

	order := []string{
		"[Relationship]",
		"[Relevant memories]",
		"[About them]",
		"[What you know about them]",
		"[Connections]",
		"[Shared emotional history]",
		"[Their ongoing stories]",
		"[Worth anticipating]",
	}
	last := -1
	for _, title := range order {
		idx := strings.Index(out, title)
		require.GreaterOrEqual(t, idx, 0, "missing section %s", title)
		assert.Greater(t, idx, last, "%s out of order", title)
		last = idx
	}
}

func TestBuildTightBudgetKeepsHighPriority(t *testing.T) {
	b := NewBuilder()
	sc := &core.SoulContext{
		Memories: []string{
			"plays piano on weekends.",
			"fears thunderstorms.",
			"loves mountain hiking.",
			"hates cilantro with a passion.",
			"studies law at night.",
		},
		Foresight: []string{"second interview on friday"},
		Profile:   &core.UserProfile{Summary: "night owl"},
		Threads:   []core.StoryThread{{Title: "job hunt"}},
		Stage:     core.StageFamiliar,
		StageHint: "You know each other.",
	}

	for turn := 1; turn <= 3; turn++ {
		b.Build("alice", "hello", sc)
	}
	out := b.Build("alice", "hello", sc)

	assert.Contains(t, out, "[Relevant memories]")
	assert.Equal(t, 5, strings.Count(out, "\n- "), "base budget spent entirely on memories")
	assert.NotContains(t, out, "[About them]", "lower priority sections wait for a roomier turn")
	assert.NotContains(t, out, "[Their ongoing stories]")
	assert.NotContains(t, out, "[Worth anticipating]")
}

func TestBuildDedupAcrossSources(t *testing.T) {
	b := NewBuilder()
	sc := &core.SoulContext{
		Memories:         []string{"They adopted a cat named Mochi last spring"},
		LongTermMemories: []string{"They adopted a cat named Mochi last spring!!"},
		Stage:            core.StageFamiliar,
		StageHint:        "You know each other.",
	}

	out := b.Build("alice", "remember my cat?", sc)
	assert.Equal(t, 1, strings.Count(out, "Mochi"), "one memory from two sources injects once")
	assert.Contains(t, out, "spring!!", "the longer variant survives, in the higher-priority slot")
	assert.Contains(t, out, "[Relevant memories]")
	assert.NotContains(t, out, "[What you know about them]")
}

func TestBuildClosingInstruction(t *testing.T) {
	b := NewBuilder()
	sc := populatedContext()
	out := b.Build("alice", "hello", sc)
	assert.Contains(t, out, "Never mention memory systems")

	deep := NewBuilder()
	sc.Stage = core.StageSoulmate
	out = deep.Build("alice", "hello", sc)
	assert.Contains(t, out, "old friend")
}

func TestHasTriggerPhrase(t *testing.T) {
	assert.True(t, hasTriggerPhrase("Do you REMEMBER that?"))
	assert.True(t, hasTriggerPhrase("以前说过的那件事"))
	assert.False(t, hasTriggerPhrase("what's for dinner"))
}
