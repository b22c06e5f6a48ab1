package soul_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soulmesh/soulmem-go/pkg/core"
	"github.com/soulmesh/soulmem-go/pkg/relationship"
	"github.com/soulmesh/soulmem-go/pkg/soul"
	"github.com/soulmesh/soulmem-go/pkg/stores"
	"github.com/soulmesh/soulmem-go/pkg/stores/sqlite"
)

func newClient(t *testing.T) (*soul.Soul, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "soul.db")
	s, err := soul.New(&soul.Config{
		Database: soul.DatabaseConfig{Provider: "sqlite", Path: path},
	})
	require.NoError(t, err)
	return s, path
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := soul.New(&soul.Config{
		Database: soul.DatabaseConfig{Provider: "mongodb"},
	})
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestProcessExchangePersists(t *testing.T) {
	s, path := newClient(t)

	s.ProcessExchange("alice", "其实我从来没跟别人说过这件事", "我在听")
	require.NoError(t, s.Close(), "close drains background work and the write queues")

	db, err := sqlite.New(&sqlite.Config{DBPath: path})
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	rel, err := db.GetRelationship(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, rel.TotalConversations)
	assert.Equal(t, 1, rel.TotalDaysActive)
	assert.Equal(t, 5.0, rel.AccumulatedScore, "shared vulnerability carries its full delta")
	require.Len(t, rel.SignalHistory, 1)
	assert.Equal(t, "user_shared_vulnerability", rel.SignalHistory[0].Signal)

	anns, err := db.ListAnnotations(ctx, "alice", time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, anns, 1)
	assert.NotZero(t, anns[0].ID)
}

func TestConcurrentExchangesAndRecalls(t *testing.T) {
	s, path := newClient(t)

	const exchanges = 8
	var wg sync.WaitGroup
	for i := 0; i < exchanges; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ProcessExchange("alice", "其实我从来没跟别人说过这件事", "我在听")
			s.Recall(context.Background(), "alice", "hello")
		}()
	}
	wg.Wait()
	require.NoError(t, s.Close())

	db, err := sqlite.New(&sqlite.Config{DBPath: path})
	require.NoError(t, err)
	defer db.Close()

	rel, err := db.GetRelationship(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, exchanges, rel.TotalConversations, "no exchange update may be lost")
	assert.InDelta(t, float64(exchanges)*5.0, rel.AccumulatedScore, 0.001)
	assert.Len(t, rel.SignalHistory, exchanges)
}

func TestRecallContextInjectsSeededMemory(t *testing.T) {
	s, _ := newClient(t)
	defer s.Close()
	ctx := context.Background()

	st := s.Stores()
	require.NoError(t, st.Docs.PutRelationship(ctx, &core.UserRelationship{
		UserID:           "alice",
		AccumulatedScore: 120,
		TotalDaysActive:  20,
		LastInteraction:  time.Now(),
	}))
	require.NoError(t, st.LongTerm.Insert(ctx, "alice", false, stores.MemoryItem{
		Content:   "They adopted a cat named Mochi last spring.",
		CreatedAt: time.Now(),
	}))

	out := s.RecallContext(ctx, "alice", "remember my cat named mochi?")
	assert.Contains(t, out, "[Relationship]")
	assert.Contains(t, out, "Mochi", "explicit recall request surfaces the seeded memory")
}

func TestRecallUnknownUserDefaultsToStranger(t *testing.T) {
	s, _ := newClient(t)
	defer s.Close()

	sc := s.Recall(context.Background(), "nobody", "hello")
	assert.Empty(t, string(sc.Stage))
	assert.NotEmpty(t, sc.StageHint, "even an unknown user gets a usable stage hint")
}

func TestStageBehaviorWithoutProviderIsDeterministic(t *testing.T) {
	s, _ := newClient(t)
	defer s.Close()

	hint := s.StageBehavior(context.Background(), core.StageFamiliar)
	assert.Equal(t, relationship.StageHint(core.StageFamiliar), hint)
	assert.NotEmpty(t, hint)
}

func TestPutProfileRoundTrip(t *testing.T) {
	s, path := newClient(t)

	s.PutProfile(&core.UserProfile{UserID: "alice", Summary: "night owl"})

	profile, err := s.Profile(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "night owl", profile.Summary, "readable through the cache before the durable write lands")

	require.NoError(t, s.Close())

	db, err := sqlite.New(&sqlite.Config{DBPath: path})
	require.NoError(t, err)
	defer db.Close()
	stored, err := db.GetProfile(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "night owl", stored.Summary)
}
