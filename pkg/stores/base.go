// Package stores defines the contracts the recall engine requires from its
// backing stores. The engine treats every store as a black box behind these
// interfaces; implementations live in subpackages.
package stores

import (
	"context"
	"time"

	"github.com/soulmesh/soulmem-go/pkg/core"
)

// VectorHit is one vector-memory search result.
type VectorHit struct {
	// ID is the memory identifier within the vector store.
	ID string

	// Text is the memory content.
	Text string

	// Score is the similarity score, higher is better.
	Score float32
}

// MemoryItem is one long-term or foresight memory.
type MemoryItem struct {
	// Content is the memory text.
	Content string

	// Emotion is the emotion label recorded with the memory, if any.
	Emotion string

	// Keywords are retrieval keywords recorded with the memory.
	Keywords []string

	// CreatedAt is when the memory was stored.
	CreatedAt time.Time
}

// VectorStore is the contract for the vector memory source.
// Expected search latency budget: 400ms.
type VectorStore interface {
	// Search returns the topK most similar memories for the user.
	Search(ctx context.Context, query, userID string, topK int) ([]VectorHit, error)

	// Add stores one memory for the user.
	Add(ctx context.Context, userID, id, text string) error

	// Close releases store resources.
	Close() error
}

// LongTermStore is the contract for the long-term memory source.
// Expected search latency budget: 800ms.
//
// Memories are partitioned by a group key derived from isOwner: owner
// memories live in one shared partition, per-user memories in a partition
// keyed by the user ID. Cross-partition reads are impossible by construction
// because the partition key is derived inside the store, never passed in.
type LongTermStore interface {
	// Search returns up to topK matching memories from the caller's partition.
	Search(ctx context.Context, query, userID string, isOwner bool, topK int) ([]MemoryItem, error)

	// Insert stores one memory into the caller's partition.
	Insert(ctx context.Context, userID string, isOwner bool, item MemoryItem) error

	// Close releases store resources.
	Close() error
}

// ForesightStore is the contract for the predictive memory source.
// Expected search latency budget: 500ms.
type ForesightStore interface {
	// Search returns up to topK predictive memories.
	Search(ctx context.Context, query string, topK int) ([]MemoryItem, error)

	// Close releases store resources.
	Close() error
}

// GraphStore is the contract for the knowledge-graph source. Each trace is
// independently timeout-bounded; the recall layer caps the aggregate at
// 300ms.
type GraphStore interface {
	// FindMatchingLabels returns up to limit graph labels matching the query
	// for the user.
	FindMatchingLabels(ctx context.Context, userID, query string, limit int) ([]string, error)

	// Trace walks the graph from label and returns up to limit insights.
	Trace(ctx context.Context, userID, label string, maxDepth, limit int) ([]string, error)

	// Close releases store resources.
	Close() error
}

// DocumentStore is the contract for the durable relationship/emotion document
// store. All reads and writes are keyed by user ID; writes are upserts.
//
// Get methods return core.ErrNotFound (possibly wrapped) when no document
// exists for the key.
type DocumentStore interface {
	// GetRelationship returns the relationship document for the user.
	GetRelationship(ctx context.Context, userID string) (*core.UserRelationship, error)

	// PutRelationship upserts the relationship document.
	PutRelationship(ctx context.Context, doc *core.UserRelationship) error

	// GetProfile returns the consolidated profile for the user.
	GetProfile(ctx context.Context, userID string) (*core.UserProfile, error)

	// PutProfile upserts the profile.
	PutProfile(ctx context.Context, profile *core.UserProfile) error

	// ListActiveThreads returns the user's non-resolved story threads,
	// most recently updated first.
	ListActiveThreads(ctx context.Context, userID string, limit int) ([]core.StoryThread, error)

	// GetThread returns one story thread by ID.
	GetThread(ctx context.Context, threadID int64) (*core.StoryThread, error)

	// UpsertThread inserts or updates a story thread.
	UpsertThread(ctx context.Context, thread *core.StoryThread) error

	// InsertAnnotation stores one immutable emotion annotation.
	InsertAnnotation(ctx context.Context, a *core.EmotionAnnotation) error

	// ListAnnotations returns the user's annotations created at or after
	// since, newest first.
	ListAnnotations(ctx context.Context, userID string, since time.Time, limit int) ([]core.EmotionAnnotation, error)

	// ListAnnotationsByEmotion returns the user's annotations carrying the
	// given emotion label, newest first. Used by resonance lookups.
	ListAnnotationsByEmotion(ctx context.Context, userID, emotion string, limit int) ([]core.EmotionAnnotation, error)

	// InsertImportance stores one importance score.
	InsertImportance(ctx context.Context, s *core.ImportanceScore) error

	// ListImportance returns the user's importance scores created at or after
	// since, newest first.
	ListImportance(ctx context.Context, userID string, since time.Time, limit int) ([]core.ImportanceScore, error)

	// ListUserIDs returns every user ID with a relationship document.
	// Used by the consolidation job.
	ListUserIDs(ctx context.Context) ([]string, error)

	// Close releases store resources.
	Close() error
}

// NotificationSink receives fire-and-forget job notifications. Failures are
// logged by callers, never retried.
type NotificationSink interface {
	// Notify sends one outbound message.
	Notify(ctx context.Context, subject, body string) error
}

// GroupKey derives the long-term partition key from the caller identity.
func GroupKey(userID string, isOwner bool) string {
	if isOwner {
		return "owner"
	}
	return "user:" + userID
}
