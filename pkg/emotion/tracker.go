package emotion

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Tracker bounds.
const (
	// MaxWindow is the per-user rolling history length.
	MaxWindow = 10

	// MaxUsers bounds the number of distinct users tracked at once.
	MaxUsers = 500

	// IdleTTL evicts a user's history after this much inactivity.
	IdleTTL = time.Hour
)

// window is one user's rolling history of non-neutral emotion labels.
type window struct {
	labels []string
}

// Tracker detects emotional shifts within a single conversation.
//
// It keeps a bounded rolling window of classified labels per user in a
// size-capped, idle-TTL map. Classification and shift detection are pure
// keyword work; no network or disk I/O happens on this path.
//
// A Tracker is safe for concurrent use. Construct one per engine instance
// with NewTracker; there is no package-level shared state.
type Tracker struct {
	mu      sync.Mutex
	windows *expirable.LRU[string, *window]
}

// NewTracker creates an empty tracker with default bounds.
func NewTracker() *Tracker {
	return &Tracker{
		windows: expirable.NewLRU[string, *window](MaxUsers, nil, IdleTTL),
	}
}

// Track classifies the message, appends the label to the user's rolling
// window, and returns a shift hint when the two most recent labels form a
// recognized emotional transition. It returns "" when there is no shift or
// not enough history.
//
// Neutral classifications do not enter the window, so a neutral filler
// message between two emotional ones does not mask the shift.
func (t *Tracker) Track(userID, message string) string {
	label := Classify(message)
	if label == LabelNeutral {
		return ""
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.windows.Get(userID)
	if !ok {
		w = &window{}
	}

	var prev string
	if n := len(w.labels); n > 0 {
		prev = w.labels[n-1]
	}

	w.labels = append(w.labels, label)
	if len(w.labels) > MaxWindow {
		w.labels = w.labels[len(w.labels)-MaxWindow:]
	}
	// Re-adding refreshes the entry's TTL, giving idle-based expiry.
	t.windows.Add(userID, w)

	return shiftHint(prev, label)
}

// History returns a copy of the user's current label window, newest last.
func (t *Tracker) History(userID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.windows.Get(userID)
	if !ok {
		return nil
	}
	out := make([]string, len(w.labels))
	copy(out, w.labels)
	return out
}

// Reset drops all tracked state. Intended for test isolation.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.windows.Purge()
}

// shiftHint maps a (previous, current) label pair to a behavioral hint, or ""
// when the pair is not a recognized transition.
func shiftHint(prev, cur string) string {
	if prev == "" || prev == cur {
		return ""
	}

	switch {
	case prev == LabelHappy && IsNegative(cur):
		return downshiftHints[cur]
	case IsNegative(prev) && cur == LabelSeeking:
		return "The user moved from venting to asking for help. Stop mirroring the mood and offer one concrete, gentle suggestion."
	case (IsNegative(prev) || prev == LabelSeeking) && cur == LabelHappy:
		return "The user's mood just lifted. Acknowledge the relief lightly and let the heavier topic rest unless they return to it."
	default:
		return ""
	}
}

// downshiftHints carry distinct wording per negative landing emotion.
var downshiftHints = map[string]string{
	LabelSad:     "The user's mood just dropped into sadness. Slow down, soften your tone, and make room for what happened.",
	LabelAnxious: "The user swung from upbeat to anxious. Steady them first; avoid piling on suggestions until they feel heard.",
	LabelAngry:   "The user flipped from cheerful to angry. Do not match the heat; name the frustration and stay on their side.",
	LabelLow:     "The user's energy just drained away. Keep replies short and warm, and don't demand enthusiasm.",
}
