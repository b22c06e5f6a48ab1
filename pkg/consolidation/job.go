// Package consolidation implements the periodic offline job that recomputes
// long-horizon structures (profile summaries, decayed relationship scores,
// long-term memory promotion) from accumulated per-exchange signals.
//
// The job is designed to run as its own process under a file lock, so at most
// one instance consolidates at a time regardless of how it is scheduled.
package consolidation

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/soulmesh/soulmem-go/pkg/core"
	"github.com/soulmesh/soulmem-go/pkg/llm"
	"github.com/soulmesh/soulmem-go/pkg/relationship"
	"github.com/soulmesh/soulmem-go/pkg/stores"
)

// Defaults for the consolidation pipeline.
const (
	// DefaultLookback is how far back per-exchange signals are read.
	DefaultLookback = 7 * 24 * time.Hour

	// DefaultLockPath is the default single-instance lock file.
	DefaultLockPath = "/tmp/soulmem-consolidate.lock"

	// promoteThreshold is the minimum importance score for promoting an
	// exchange into the long-term store.
	promoteThreshold = 0.6

	// maxSignalsPerUser bounds the per-user signal read.
	maxSignalsPerUser = 200
)

// Job is one consolidation run configuration. Docs is required; everything
// else is optional and degrades gracefully when absent.
type Job struct {
	docs     stores.DocumentStore
	longTerm stores.LongTermStore
	provider llm.Provider
	sink     stores.NotificationSink

	lockPath string
	lookback time.Duration
}

// Option configures a Job.
type Option func(*Job)

// WithLongTermStore enables promotion of high-importance exchanges into the
// long-term store.
func WithLongTermStore(s stores.LongTermStore) Option {
	return func(j *Job) { j.longTerm = s }
}

// WithProvider enables LLM-backed profile regeneration. Without it profiles
// are merged deterministically.
func WithProvider(p llm.Provider) Option {
	return func(j *Job) { j.provider = p }
}

// WithSink sets the completion/failure notification sink.
func WithSink(s stores.NotificationSink) Option {
	return func(j *Job) { j.sink = s }
}

// WithLockPath overrides the single-instance lock file.
func WithLockPath(path string) Option {
	return func(j *Job) { j.lockPath = path }
}

// WithLookback overrides how far back signals are read.
func WithLookback(d time.Duration) Option {
	return func(j *Job) { j.lookback = d }
}

// NewJob creates a consolidation job over the given document store.
func NewJob(docs stores.DocumentStore, opts ...Option) *Job {
	j := &Job{
		docs:     docs,
		lockPath: DefaultLockPath,
		lookback: DefaultLookback,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Run executes one consolidation pass over every known user.
//
// It returns core.ErrJobLocked (wrapped) when another instance holds the
// lock; callers should treat that as a clean skip. Per-user failures are
// logged and counted, never fatal: one broken document must not starve every
// other user of consolidation. The caller's context bounds the whole run.
func (j *Job) Run(ctx context.Context) error {
	runID := uuid.NewString()

	fl := flock.New(j.lockPath)
	locked, err := fl.TryLock()
	if err != nil {
		return core.NewSoulError("Consolidate", fmt.Errorf("acquire lock %s: %w", j.lockPath, err))
	}
	if !locked {
		log.Printf("[CONSOLIDATE] run %s skipped: %v", runID, core.ErrJobLocked)
		return core.NewSoulError("Consolidate", core.ErrJobLocked)
	}
	defer func() {
		if err := fl.Unlock(); err != nil {
			log.Printf("[CONSOLIDATE] run %s: release lock: %v", runID, err)
		}
	}()

	start := time.Now()
	log.Printf("[CONSOLIDATE] run %s starting, lookback %s", runID, j.lookback)

	userIDs, err := j.docs.ListUserIDs(ctx)
	if err != nil {
		err = core.NewSoulError("Consolidate", err)
		j.notify(ctx, "consolidation failed",
			fmt.Sprintf("run %s: listing users failed: %v", runID, err))
		return err
	}

	processed, failed := 0, 0
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			log.Printf("[CONSOLIDATE] run %s stopping early after %d users: %v",
				runID, processed, ctx.Err())
			break
		}
		if err := j.consolidateUser(ctx, userID); err != nil {
			failed++
			log.Printf("[CONSOLIDATE] run %s: user %s failed: %v", runID, userID, err)
			continue
		}
		processed++
	}

	elapsed := time.Since(start)
	log.Printf("[CONSOLIDATE] run %s done: %d users, %d failed, %s",
		runID, processed, failed, elapsed)
	j.notify(ctx, "consolidation complete",
		fmt.Sprintf("run %s: %d users consolidated, %d failed, took %s",
			runID, processed, failed, elapsed.Round(time.Millisecond)))
	return nil
}

// consolidateUser runs the per-user pipeline: relationship decay, long-term
// promotion, and profile regeneration.
func (j *Job) consolidateUser(ctx context.Context, userID string) error {
	now := time.Now()
	since := now.Add(-j.lookback)

	annotations, err := j.docs.ListAnnotations(ctx, userID, since, maxSignalsPerUser)
	if err != nil {
		return fmt.Errorf("list annotations: %w", err)
	}
	scores, err := j.docs.ListImportance(ctx, userID, since, maxSignalsPerUser)
	if err != nil {
		return fmt.Errorf("list importance: %w", err)
	}

	if err := j.decayRelationship(ctx, userID, now); err != nil {
		return err
	}
	j.promoteMemories(ctx, userID, scores)

	return j.regenerateProfile(ctx, userID, annotations, scores, now)
}

// decayRelationship applies cooling decay offline so long-idle users cool
// even if they never trigger a recall.
func (j *Job) decayRelationship(ctx context.Context, userID string, now time.Time) error {
	doc, err := j.docs.GetRelationship(ctx, userID)
	if err != nil {
		if core.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("get relationship: %w", err)
	}
	if !relationship.ApplyCooling(doc, now) {
		return nil
	}
	log.Printf("[CONSOLIDATE] cooling applied for %s, score now %.1f",
		userID, doc.AccumulatedScore)
	if err := j.docs.PutRelationship(ctx, doc); err != nil {
		return fmt.Errorf("put relationship: %w", err)
	}
	return nil
}

// promoteMemories copies high-importance exchange summaries into the
// long-term store. Best-effort: promotion failures are logged, not fatal.
func (j *Job) promoteMemories(ctx context.Context, userID string, scores []core.ImportanceScore) {
	if j.longTerm == nil {
		return
	}
	for _, s := range scores {
		if s.Score < promoteThreshold || s.Summary == "" {
			continue
		}
		item := stores.MemoryItem{
			Content:   s.Summary,
			CreatedAt: s.CreatedAt,
		}
		if err := j.longTerm.Insert(ctx, userID, false, item); err != nil {
			log.Printf("[CONSOLIDATE] promote memory for %s: %v", userID, err)
		}
	}
}

// notify posts a fire-and-forget run notification. Failures are logged,
// never retried.
func (j *Job) notify(ctx context.Context, subject, body string) {
	if j.sink == nil {
		return
	}
	if err := j.sink.Notify(ctx, subject, body); err != nil {
		log.Printf("[CONSOLIDATE] notify failed: %v", err)
	}
}
