package relationship

import (
	"time"

	"github.com/soulmesh/soulmem-go/pkg/core"
)

// Cooling policy for stale relationships.
const (
	// CoolingIdle is the idle period after which a relationship cools.
	CoolingIdle = 14 * 24 * time.Hour

	// CoolingFactor is the one-shot score multiplier applied on cooling.
	CoolingFactor = 0.9
)

// ApplyCooling applies the one-shot cooling decay to a relationship document
// when the user has been idle past the cooling threshold.
//
// It returns true when the document was modified. The decay is recorded via
// CoolingWarned so repeated recalls during the same idle period do not stack
// the penalty; the flag clears on the next interaction (see Touch).
func ApplyCooling(doc *core.UserRelationship, now time.Time) bool {
	if doc == nil || doc.LastInteraction.IsZero() {
		return false
	}
	if doc.CoolingWarned {
		return false
	}
	if now.Sub(doc.LastInteraction) <= CoolingIdle {
		return false
	}

	doc.AccumulatedScore *= CoolingFactor
	doc.CoolingWarned = true
	doc.UpdatedAt = now
	return true
}

// Touch updates interaction bookkeeping for one completed exchange:
// conversation count, distinct-day count, last-interaction markers, and the
// cooling flag reset.
func Touch(doc *core.UserRelationship, now time.Time) {
	if doc == nil {
		return
	}
	doc.TotalConversations++

	date := now.Format("2006-01-02")
	if doc.LastInteractionDate != date {
		doc.TotalDaysActive++
		doc.LastInteractionDate = date
	}

	doc.LastInteraction = now
	doc.CoolingWarned = false
	doc.UpdatedAt = now
}
