// Package core provides the shared data model and error types for the
// memory-recall and relationship-modeling engine.
package core

import "time"

// Stage is a discrete relationship level summarizing cumulative interaction
// depth with one user.
//
// Stages are ordered from StageStranger (lowest) to StageSoulmate (highest).
// A stage is always derived from the accumulated score and active-days count
// of a UserRelationship document; it is never stored as the source of truth.
type Stage string

const (
	// StageStranger is the initial stage for every user.
	StageStranger Stage = "stranger"

	// StageAcquaintance is reached after a handful of return visits.
	StageAcquaintance Stage = "acquaintance"

	// StageFamiliar unlocks emotion-resonance recall. Surfacing past emotional
	// vulnerability to a stranger is invasive, so resonance is gated here.
	StageFamiliar Stage = "familiar"

	// StageClose indicates a sustained, trusted relationship.
	StageClose Stage = "close"

	// StageSoulmate is the highest stage.
	StageSoulmate Stage = "soulmate"
)

// Rank returns the ordinal position of the stage, 0 for stranger.
// Unknown stages rank as stranger.
func (s Stage) Rank() int {
	switch s {
	case StageAcquaintance:
		return 1
	case StageFamiliar:
		return 2
	case StageClose:
		return 3
	case StageSoulmate:
		return 4
	default:
		return 0
	}
}

// AtLeast reports whether the stage is equal to or deeper than other.
func (s Stage) AtLeast(other Stage) bool {
	return s.Rank() >= other.Rank()
}

// EmotionAnnotation is the per-exchange emotional record produced by the
// merged extractor. It is immutable after creation and read back later by
// emotion-resonance lookups.
type EmotionAnnotation struct {
	// ID is the unique identifier of the annotation.
	ID int64 `json:"id"`

	// UserID identifies the user this annotation belongs to.
	UserID string `json:"user_id"`

	// UserEmotion is one of: joy, sadness, anxiety, excitement, anger, neutral.
	UserEmotion string `json:"user_emotion"`

	// Intensity is the emotion intensity in [0,1].
	Intensity float64 `json:"intensity"`

	// Trajectory is one of: rising, falling, stable.
	Trajectory string `json:"trajectory"`

	// RecommendedTone is the suggested response tone for the agent.
	RecommendedTone string `json:"recommended_tone"`

	// TriggerKeywords are the words that triggered the classification.
	TriggerKeywords []string `json:"trigger_keywords,omitempty"`

	// IsEmotionalPeak marks an exchange of unusually high emotional load.
	IsEmotionalPeak bool `json:"is_emotional_peak"`

	// PeakDescription describes the peak when IsEmotionalPeak is set.
	PeakDescription string `json:"peak_description,omitempty"`

	// CreatedAt is when the annotation was created.
	CreatedAt time.Time `json:"created_at"`
}

// ImportanceScore grades one exchange for retention worthiness.
//
// Score is the weighted sum of the five criteria:
//
//	score = emotional*0.40 + novelty*0.15 + personal*0.25 + actionable*0.10 + recency*0.10
type ImportanceScore struct {
	// UserID identifies the user this score belongs to.
	UserID string `json:"user_id"`

	// Score is the weighted total in [0,1].
	Score float64 `json:"score"`

	// Emotional grades emotional significance in [0,1].
	Emotional float64 `json:"emotional"`

	// Novelty grades new-information content in [0,1].
	Novelty float64 `json:"novelty"`

	// Personal grades personal disclosure in [0,1].
	Personal float64 `json:"personal"`

	// Actionable grades follow-up potential in [0,1].
	Actionable float64 `json:"actionable"`

	// Recency grades time sensitivity in [0,1].
	Recency float64 `json:"recency"`

	// Summary is a one-line description of what made the exchange matter.
	Summary string `json:"summary"`

	// CreatedAt is when the score was recorded.
	CreatedAt time.Time `json:"created_at"`
}

// Importance criterion weights. Emotional weight dominates because the engine
// serves a companion agent, not a task assistant.
const (
	WeightEmotional  = 0.40
	WeightNovelty    = 0.15
	WeightPersonal   = 0.25
	WeightActionable = 0.10
	WeightRecency    = 0.10
)

// WeightedScore computes the weighted total from the five criteria.
func (s *ImportanceScore) WeightedScore() float64 {
	return s.Emotional*WeightEmotional +
		s.Novelty*WeightNovelty +
		s.Personal*WeightPersonal +
		s.Actionable*WeightActionable +
		s.Recency*WeightRecency
}

// RelationshipSignal is one entry of a relationship's signal history.
type RelationshipSignal struct {
	// Signal is the signal kind, e.g. "user_shared_vulnerability".
	Signal string `json:"signal"`

	// Delta is the score contribution of the signal.
	Delta float64 `json:"delta"`

	// Note is an optional human-readable reason.
	Note string `json:"note,omitempty"`

	// CreatedAt is when the signal was observed.
	CreatedAt time.Time `json:"created_at"`
}

// BreakthroughEvent records a moment where the relationship visibly deepened,
// such as the first personal confession. Recent events feed a one-line
// behavioral hint during recall.
type BreakthroughEvent struct {
	// Description is a short description of the event.
	Description string `json:"description"`

	// OccurredAt is when the event happened.
	OccurredAt time.Time `json:"occurred_at"`
}

// UserRelationship is the singleton relationship document for one user.
//
// The document stores the inputs of stage derivation (AccumulatedScore,
// TotalDaysActive) rather than the stage itself, so the stage can always be
// recomputed from scratch.
type UserRelationship struct {
	// UserID identifies the user.
	UserID string `json:"user_id"`

	// StageEnteredAt is when the currently derived stage was first observed.
	StageEnteredAt time.Time `json:"stage_entered_at"`

	// TotalConversations counts completed exchanges.
	TotalConversations int `json:"total_conversations"`

	// TotalDaysActive counts distinct calendar days with at least one exchange.
	TotalDaysActive int `json:"total_days_active"`

	// AccumulatedScore is the decaying sum of relationship-signal deltas.
	AccumulatedScore float64 `json:"accumulated_score"`

	// SignalHistory holds recent signals, newest last (bounded, see
	// relationship.MaxSignalHistory).
	SignalHistory []RelationshipSignal `json:"signal_history,omitempty"`

	// Breakthroughs holds breakthrough events, newest last.
	Breakthroughs []BreakthroughEvent `json:"breakthroughs,omitempty"`

	// LastInteraction is the time of the most recent exchange.
	LastInteraction time.Time `json:"last_interaction"`

	// LastInteractionDate is the calendar date (YYYY-MM-DD) of the most recent
	// exchange, used for day counting.
	LastInteractionDate string `json:"last_interaction_date"`

	// CoolingWarned marks that the one-shot cooling decay has been applied for
	// the current idle period.
	CoolingWarned bool `json:"cooling_warned"`

	// UpdatedAt is when the document was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the document. Cached documents are shared
// between concurrent readers; any path that mutates one must clone it first
// and publish the copy.
func (r *UserRelationship) Clone() *UserRelationship {
	if r == nil {
		return nil
	}
	clone := *r
	clone.SignalHistory = append([]RelationshipSignal(nil), r.SignalHistory...)
	clone.Breakthroughs = append([]BreakthroughEvent(nil), r.Breakthroughs...)
	return &clone
}

// StoryThreadStatus is the lifecycle state of a story thread.
type StoryThreadStatus string

const (
	// ThreadActive marks a thread the user is still talking about.
	ThreadActive StoryThreadStatus = "active"

	// ThreadDormant marks a thread with no recent updates.
	ThreadDormant StoryThreadStatus = "dormant"

	// ThreadResolved marks a concluded thread.
	ThreadResolved StoryThreadStatus = "resolved"
)

// StoryThread tracks an ongoing topic in a user's life across conversations,
// such as a job search or a difficult relationship.
type StoryThread struct {
	// ThreadID is the unique identifier of the thread.
	ThreadID int64 `json:"thread_id"`

	// UserID identifies the owner of the thread.
	UserID string `json:"user_id"`

	// Title is a short title for the thread.
	Title string `json:"title"`

	// Status is the lifecycle state of the thread.
	Status StoryThreadStatus `json:"status"`

	// ArcPosition describes where the story currently stands, e.g.
	// "waiting for the second interview".
	ArcPosition string `json:"arc_position,omitempty"`

	// EpisodeIDs references the annotations that advanced the thread.
	EpisodeIDs []int64 `json:"episode_ids,omitempty"`

	// KeyMoments are short descriptions of pivotal episodes.
	KeyMoments []string `json:"key_moments,omitempty"`

	// ExpectedNext is an optional guess at the next development.
	ExpectedNext string `json:"expected_next,omitempty"`

	// StartedAt is when the thread was first detected.
	StartedAt time.Time `json:"started_at"`

	// LastUpdated is when the thread last advanced.
	LastUpdated time.Time `json:"last_updated"`
}

// UserProfile is the consolidated long-horizon summary of one user,
// regenerated by the consolidation job and cached on the request path.
type UserProfile struct {
	// UserID identifies the user.
	UserID string `json:"user_id"`

	// Summary is a compact natural-language profile.
	Summary string `json:"summary"`

	// Traits are stable observed traits, e.g. "night owl".
	Traits []string `json:"traits,omitempty"`

	// OpenLoops are unresolved topics worth following up on.
	OpenLoops []string `json:"open_loops,omitempty"`

	// UpdatedAt is when the profile was last consolidated.
	UpdatedAt time.Time `json:"updated_at"`
}

// RecallStats records observability data for one recall call.
type RecallStats struct {
	// Elapsed is the total wall-clock duration of the fan-out.
	Elapsed time.Duration `json:"elapsed"`

	// SourceCounts maps source name to number of items it contributed.
	SourceCounts map[string]int `json:"source_counts"`

	// TimedOut reports whether the outer recall deadline expired.
	TimedOut bool `json:"timed_out"`
}

// SoulContext is the ephemeral per-request aggregate assembled by recall.
// It is built fresh for every call and never persisted.
type SoulContext struct {
	// Memories are relevant raw memory strings from the vector store.
	Memories []string

	// LongTermMemories are hits from the long-term memory store.
	LongTermMemories []string

	// Foresight are predictive-memory hits.
	Foresight []string

	// Profile is the cached user profile, nil when unknown.
	Profile *UserProfile

	// Threads are the user's active story threads.
	Threads []StoryThread

	// Stage is the derived relationship stage.
	Stage Stage

	// StageHint is a behavior hint matching the stage.
	StageHint string

	// BreakthroughHint is a one-line hint about a recent breakthrough event,
	// empty when none occurred within the lookback window.
	BreakthroughHint string

	// EmotionShiftHint is the in-conversation shift hint, empty when the
	// tracker detected no shift.
	EmotionShiftHint string

	// Resonance are past emotional memories matching the user's current
	// emotion. Only populated at stage familiar or deeper.
	Resonance []string

	// GraphInsights are knowledge-graph trace results.
	GraphInsights []string

	// Stats carries observability data for the recall call.
	Stats RecallStats
}

// IsEmpty reports whether the context carries no substantive content.
// Stats and the default stage hint do not count as content.
func (c *SoulContext) IsEmpty() bool {
	if c == nil {
		return true
	}
	return len(c.Memories) == 0 &&
		len(c.LongTermMemories) == 0 &&
		len(c.Foresight) == 0 &&
		c.Profile == nil &&
		len(c.Threads) == 0 &&
		c.Stage == "" &&
		c.BreakthroughHint == "" &&
		c.EmotionShiftHint == "" &&
		len(c.Resonance) == 0 &&
		len(c.GraphInsights) == 0
}

// StoryUpdate is an optional story-thread change detected by the extractor.
type StoryUpdate struct {
	// ThreadID references an existing thread, 0 for a new one.
	ThreadID int64 `json:"thread_id,omitempty"`

	// Title is the thread title (required for new threads).
	Title string `json:"title,omitempty"`

	// ArcPosition is the updated arc position.
	ArcPosition string `json:"arc_position,omitempty"`

	// KeyMoment is an optional new key moment.
	KeyMoment string `json:"key_moment,omitempty"`

	// ExpectedNext is an optional updated expectation.
	ExpectedNext string `json:"expected_next,omitempty"`

	// Resolved marks the thread as concluded.
	Resolved bool `json:"resolved,omitempty"`
}

// ExtractionSource identifies which path produced an ExtractionResult.
type ExtractionSource string

const (
	// SourceLLM marks a result parsed from a validated LLM response.
	SourceLLM ExtractionSource = "llm"

	// SourceRules marks a result from the deterministic rule fallback.
	SourceRules ExtractionSource = "rules"
)

// ExtractionResult is the typed outcome of the merged extractor. Untyped LLM
// JSON never crosses the extraction boundary; it is validated into this
// structure or replaced by the rule-based variant.
type ExtractionResult struct {
	// Emotion is the per-exchange emotion annotation.
	Emotion EmotionAnnotation `json:"emotion"`

	// Importance grades the exchange.
	Importance ImportanceScore `json:"importance"`

	// Signals are relationship signals detected in the exchange.
	Signals []RelationshipSignal `json:"signals,omitempty"`

	// Story is an optional story-thread update.
	Story *StoryUpdate `json:"story,omitempty"`

	// Source identifies the producing path.
	Source ExtractionSource `json:"source"`
}
