package consolidation

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soulmesh/soulmem-go/pkg/core"
	"github.com/soulmesh/soulmem-go/pkg/stores/sqlite"
)

func newDocs(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(&sqlite.Config{DBPath: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func lockPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "consolidate.lock")
}

func TestRunSkipsWhenLocked(t *testing.T) {
	docs := newDocs(t)
	path := lockPath(t)

	other := flock.New(path)
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer other.Unlock()

	job := NewJob(docs, WithLockPath(path))
	err = job.Run(context.Background())
	assert.ErrorIs(t, err, core.ErrJobLocked)
}

func TestRunReleasesLock(t *testing.T) {
	docs := newDocs(t)
	path := lockPath(t)

	job := NewJob(docs, WithLockPath(path))
	require.NoError(t, job.Run(context.Background()))
	require.NoError(t, job.Run(context.Background()), "lock must be released between runs")
}

func TestRunPromotesHighImportance(t *testing.T) {
	docs := newDocs(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, docs.PutRelationship(ctx, &core.UserRelationship{
		UserID: "alice", AccumulatedScore: 40, LastInteraction: now,
	}))
	require.NoError(t, docs.InsertImportance(ctx, &core.ImportanceScore{
		UserID: "alice", Score: 0.9, Summary: "failed the certification exam", CreatedAt: now,
	}))
	require.NoError(t, docs.InsertImportance(ctx, &core.ImportanceScore{
		UserID: "alice", Score: 0.2, Summary: "ate noodles", CreatedAt: now,
	}))

	job := NewJob(docs, WithLockPath(lockPath(t)), WithLongTermStore(docs))
	require.NoError(t, job.Run(ctx))

	hits, err := docs.Search(ctx, "certification exam", "alice", false, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1, "only scores above the promote threshold move")
	assert.Equal(t, "failed the certification exam", hits[0].Content)

	low, err := docs.Search(ctx, "ate noodles", "alice", false, 10)
	require.NoError(t, err)
	assert.Empty(t, low)
}

func TestRunCoolsIdleRelationships(t *testing.T) {
	docs := newDocs(t)
	ctx := context.Background()

	require.NoError(t, docs.PutRelationship(ctx, &core.UserRelationship{
		UserID:           "alice",
		AccumulatedScore: 100,
		LastInteraction:  time.Now().Add(-20 * 24 * time.Hour),
	}))

	job := NewJob(docs, WithLockPath(lockPath(t)))
	require.NoError(t, job.Run(ctx))

	doc, err := docs.GetRelationship(ctx, "alice")
	require.NoError(t, err)
	assert.InDelta(t, 90.0, doc.AccumulatedScore, 0.001)
	assert.True(t, doc.CoolingWarned, "decay fires once per idle stretch")

	// A second run must not decay again.
	require.NoError(t, job.Run(ctx))
	doc, err = docs.GetRelationship(ctx, "alice")
	require.NoError(t, err)
	assert.InDelta(t, 90.0, doc.AccumulatedScore, 0.001)
}

func TestRunRegeneratesProfileDeterministically(t *testing.T) {
	docs := newDocs(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, docs.PutRelationship(ctx, &core.UserRelationship{
		UserID: "alice", AccumulatedScore: 40, LastInteraction: now,
	}))
	for i := 0; i < 3; i++ {
		require.NoError(t, docs.InsertAnnotation(ctx, &core.EmotionAnnotation{
			ID: int64(i + 1), UserID: "alice", UserEmotion: "anxiety",
			Intensity: 0.6, CreatedAt: now.Add(-time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, docs.InsertImportance(ctx, &core.ImportanceScore{
		UserID: "alice", Score: 0.8, Actionable: 0.7,
		Summary: "has a second interview on friday", CreatedAt: now,
	}))

	job := NewJob(docs, WithLockPath(lockPath(t)))
	require.NoError(t, job.Run(ctx))

	profile, err := docs.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Contains(t, profile.Summary, "Recently: has a second interview on friday")
	assert.Contains(t, profile.Traits, "often anxiety lately")
	assert.Contains(t, profile.OpenLoops, "has a second interview on friday")
	assert.False(t, profile.UpdatedAt.IsZero())
}

func TestRunLeavesQuietProfilesAlone(t *testing.T) {
	docs := newDocs(t)
	ctx := context.Background()

	require.NoError(t, docs.PutRelationship(ctx, &core.UserRelationship{
		UserID: "alice", AccumulatedScore: 40, LastInteraction: time.Now(),
	}))
	require.NoError(t, docs.PutProfile(ctx, &core.UserProfile{
		UserID: "alice", Summary: "night owl, job hunting",
	}))

	job := NewJob(docs, WithLockPath(lockPath(t)))
	require.NoError(t, job.Run(ctx))

	profile, err := docs.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "night owl, job hunting", profile.Summary, "no recent signals, no rewrite")
}

func TestMergeProfileBounds(t *testing.T) {
	old := &core.UserProfile{
		Summary: "stale summary",
		Traits:  []string{"night owl"},
	}
	var scores []core.ImportanceScore
	for i := 0; i < 6; i++ {
		scores = append(scores, core.ImportanceScore{
			Score: 0.9, Actionable: 0.8,
			Summary: string(rune('a'+i)) + " loop",
		})
	}

	profile := mergeProfile(old, nil, scores)
	assert.Contains(t, profile.Summary, "Recently: ")
	assert.Len(t, profile.OpenLoops, maxOpenLoops)
	assert.Contains(t, profile.Traits, "night owl", "old traits survive the merge")
}

func TestAppendUnique(t *testing.T) {
	list := []string{"a", "b"}
	assert.Equal(t, []string{"a", "b"}, appendUnique(list, "a", 5))
	assert.Equal(t, []string{"a", "b", "c"}, appendUnique(list, "c", 5))
	assert.Equal(t, []string{"a", "b"}, appendUnique(list, "c", 2))
}
