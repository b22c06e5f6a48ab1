package emotion

import "strings"

// QueryHint is the cheap polarity hint computed from the raw query before the
// recall fan-out. It only biases downstream search parameters; it is not the
// per-exchange emotion annotation.
type QueryHint string

const (
	// HintNegative suggests the user is struggling.
	HintNegative QueryHint = "negative"

	// HintPositive suggests the user is in a good place.
	HintPositive QueryHint = "positive"

	// HintNone means no usable polarity was detected.
	HintNone QueryHint = ""
)

// HintFromQuery derives a polarity hint from keywords and punctuation.
// Pure string scanning, safe to run on every request.
func HintFromQuery(query string) QueryHint {
	label := Classify(query)
	switch {
	case IsNegative(label) || label == LabelSeeking:
		return HintNegative
	case label == LabelHappy:
		return HintPositive
	}

	// Punctuation heuristics for messages with no keyword hits: trailing
	// ellipses read as deflated, stacked exclamation marks as upbeat.
	trimmed := strings.TrimSpace(query)
	if strings.HasSuffix(trimmed, "……") || strings.HasSuffix(trimmed, "...") {
		return HintNegative
	}
	if strings.HasSuffix(trimmed, "!!") || strings.HasSuffix(trimmed, "！！") {
		return HintPositive
	}
	return HintNone
}

// BiasSearchTerms appends hint-specific terms to a long-term-memory query so
// emotionally loaded turns retrieve support-relevant memories.
func BiasSearchTerms(query string, hint QueryHint) string {
	switch hint {
	case HintNegative:
		return query + " stress, help"
	case HintPositive:
		return query + " happy, share"
	default:
		return query
	}
}

// ResonanceEmotion maps a query hint to the annotation emotion used for the
// resonance lookup, or "" when resonance should not run.
func ResonanceEmotion(hint QueryHint) string {
	switch hint {
	case HintNegative:
		return "sadness"
	case HintPositive:
		return "joy"
	default:
		return ""
	}
}
