package extractor

import (
	"strings"
	"time"

	"github.com/soulmesh/soulmem-go/pkg/core"
	"github.com/soulmesh/soulmem-go/pkg/emotion"
	"github.com/soulmesh/soulmem-go/pkg/relationship"
)

// labelToEmotion maps tracker labels to annotation emotions.
var labelToEmotion = map[string]string{
	emotion.LabelHappy:   "joy",
	emotion.LabelSad:     "sadness",
	emotion.LabelAnxious: "anxiety",
	emotion.LabelAngry:   "anger",
	emotion.LabelLow:     "sadness",
	emotion.LabelSeeking: "anxiety",
	emotion.LabelNeutral: "neutral",
}

// emotionToTone maps annotation emotions to a recommended response tone.
var emotionToTone = map[string]string{
	"joy":        "share the enthusiasm",
	"sadness":    "gentle and unhurried",
	"anxiety":    "calm and steadying",
	"excitement": "match the energy",
	"anger":      "even and validating",
	"neutral":    "relaxed",
}

// vulnerability markers for the single relationship-signal guess.
var vulnerabilityMarkers = []string{
	"其实我", "没跟别人说过", "第一次说", "说实话",
	"to be honest", "never told anyone", "i've never said", "honestly",
}

// advice markers for the seeking_advice guess.
var adviceMarkers = []string{
	"怎么办", "该怎么", "建议", "你觉得我",
	"what should i", "any advice", "do you think i should",
}

// importanceKeywords raise the heuristic importance of a message.
var importanceKeywords = []string{
	"重要", "记住", "第一次", "终于", "决定",
	"important", "remember", "first time", "finally", "decided",
}

// ruleFallback is the deterministic extraction path. It always produces a
// structurally valid result; it is the correctness backstop, not best-effort.
func (e *Extractor) ruleFallback(userID, userMessage string) *core.ExtractionResult {
	now := time.Now()
	label := emotion.Classify(userMessage)
	userEmotion := labelToEmotion[label]

	intensity := 0.2
	if userEmotion != "neutral" {
		intensity = 0.6
	}

	imp := heuristicImportance(userID, userMessage, userEmotion, now)

	signal := guessSignal(userMessage, userEmotion)
	return &core.ExtractionResult{
		Emotion: core.EmotionAnnotation{
			UserID:          userID,
			UserEmotion:     userEmotion,
			Intensity:       intensity,
			Trajectory:      "stable",
			RecommendedTone: emotionToTone[userEmotion],
			CreatedAt:       now,
		},
		Importance: imp,
		Signals: []core.RelationshipSignal{{
			Signal:    signal,
			Delta:     relationship.DeltaFor(signal, 1.0),
			Note:      "rule-based guess",
			CreatedAt: now,
		}},
		Source: core.SourceRules,
	}
}

// heuristicImportance grades a message from surface features: length,
// question marks, and importance keywords.
func heuristicImportance(userID, message, userEmotion string, now time.Time) core.ImportanceScore {
	imp := core.ImportanceScore{
		UserID:    userID,
		Summary:   "heuristic grading (llm unavailable)",
		CreatedAt: now,
		Recency:   0.5,
	}

	if userEmotion != "neutral" {
		imp.Emotional = 0.6
	} else {
		imp.Emotional = 0.1
	}

	length := len([]rune(message))
	switch {
	case length > 100:
		imp.Personal = 0.5
		imp.Novelty = 0.4
	case length > 40:
		imp.Personal = 0.3
		imp.Novelty = 0.2
	default:
		imp.Personal = 0.1
		imp.Novelty = 0.1
	}

	if strings.Contains(message, "?") || strings.Contains(message, "？") {
		imp.Actionable = 0.4
	}

	lower := strings.ToLower(message)
	for _, kw := range importanceKeywords {
		if strings.Contains(lower, kw) {
			imp.Novelty = clamp01(imp.Novelty + 0.2)
			break
		}
	}

	imp.Score = imp.WeightedScore()
	return imp
}

// guessSignal picks the single most plausible relationship signal.
func guessSignal(message, userEmotion string) string {
	lower := strings.ToLower(message)
	for _, m := range vulnerabilityMarkers {
		if strings.Contains(lower, m) {
			return "user_shared_vulnerability"
		}
	}
	if userEmotion == "sadness" || userEmotion == "anxiety" {
		return "user_shared_vulnerability"
	}
	for _, m := range adviceMarkers {
		if strings.Contains(lower, m) {
			return "seeking_advice"
		}
	}
	return "casual_chat"
}
