package relationship

import (
	"fmt"
	"time"

	"github.com/soulmesh/soulmem-go/pkg/core"
)

// Signal bookkeeping bounds.
const (
	// MaxSignalHistory bounds the per-document signal history.
	MaxSignalHistory = 50

	// MaxSignalDelta caps a single signal's score contribution.
	MaxSignalDelta = 10.0

	// BreakthroughLookback is the window for surfacing breakthrough hints.
	BreakthroughLookback = 30 * 24 * time.Hour
)

// Known relationship signal kinds and their default score deltas.
// Unknown signal kinds are accepted with whatever delta they carry, capped.
var defaultSignalDeltas = map[string]float64{
	"user_shared_vulnerability": 5.0,
	"user_shared_personal":      3.0,
	"seeking_advice":            2.0,
	"expressed_gratitude":       2.0,
	"casual_chat":               1.0,
	"user_returned":             1.0,
	"user_frustrated":           -1.0,
}

// DeltaFor returns the default score delta for a signal kind, or fallback
// when the kind is unknown.
func DeltaFor(signal string, fallback float64) float64 {
	if d, ok := defaultSignalDeltas[signal]; ok {
		return d
	}
	return fallback
}

// ApplySignal accumulates one relationship signal into the document: the
// delta (capped to ±MaxSignalDelta) is added to the score and the signal is
// appended to the bounded history.
func ApplySignal(doc *core.UserRelationship, sig core.RelationshipSignal) {
	if doc == nil {
		return
	}
	if sig.Delta > MaxSignalDelta {
		sig.Delta = MaxSignalDelta
	} else if sig.Delta < -MaxSignalDelta {
		sig.Delta = -MaxSignalDelta
	}
	if sig.CreatedAt.IsZero() {
		sig.CreatedAt = time.Now()
	}

	doc.AccumulatedScore += sig.Delta
	if doc.AccumulatedScore < 0 {
		doc.AccumulatedScore = 0
	}

	doc.SignalHistory = append(doc.SignalHistory, sig)
	if len(doc.SignalHistory) > MaxSignalHistory {
		doc.SignalHistory = doc.SignalHistory[len(doc.SignalHistory)-MaxSignalHistory:]
	}
	doc.UpdatedAt = sig.CreatedAt
}

// RecordBreakthrough appends a breakthrough event to the document.
func RecordBreakthrough(doc *core.UserRelationship, description string, now time.Time) {
	if doc == nil || description == "" {
		return
	}
	doc.Breakthroughs = append(doc.Breakthroughs, core.BreakthroughEvent{
		Description: description,
		OccurredAt:  now,
	})
	doc.UpdatedAt = now
}

// BreakthroughHint synthesizes a one-line behavioral hint from the most
// recent breakthrough event within the lookback window. It returns "" when
// no recent event exists. The hint describes behavior, not a label, so the
// prompt layer can use it verbatim.
func BreakthroughHint(doc *core.UserRelationship, now time.Time) string {
	if doc == nil || len(doc.Breakthroughs) == 0 {
		return ""
	}

	latest := doc.Breakthroughs[len(doc.Breakthroughs)-1]
	for i := len(doc.Breakthroughs) - 2; i >= 0; i-- {
		if doc.Breakthroughs[i].OccurredAt.After(latest.OccurredAt) {
			latest = doc.Breakthroughs[i]
		}
	}
	if now.Sub(latest.OccurredAt) > BreakthroughLookback {
		return ""
	}

	days := int(now.Sub(latest.OccurredAt).Hours() / 24)
	when := "recently"
	switch {
	case days <= 0:
		when = "today"
	case days == 1:
		when = "yesterday"
	case days < 7:
		when = fmt.Sprintf("%d days ago", days)
	}
	return fmt.Sprintf("Something shifted between you %s (%s); carry that warmth forward without naming it.", when, latest.Description)
}
