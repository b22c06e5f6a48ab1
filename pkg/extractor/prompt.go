package extractor

import "fmt"

// extractionSystemPrompt returns the fixed system prompt for the merged
// extraction call. The worked numeric anchors keep importance scores
// comparable across model versions.
func extractionSystemPrompt() string {
	return `You analyze one exchange between a user and a companion agent and return a single JSON object, nothing else.

Schema:
{
  "emotion": {
    "user_emotion": "joy|sadness|anxiety|excitement|anger|neutral",
    "intensity": 0.0-1.0,
    "trajectory": "rising|falling|stable",
    "recommended_tone": "short phrase",
    "trigger_keywords": ["up to 5 words from the user message"],
    "is_emotional_peak": true|false,
    "peak_description": "only when is_emotional_peak"
  },
  "importance": {
    "emotional": 0.0-1.0,
    "novelty": 0.0-1.0,
    "personal": 0.0-1.0,
    "actionable": 0.0-1.0,
    "recency": 0.0-1.0,
    "summary": "one line on why this exchange matters"
  },
  "signals": [
    {"signal": "user_shared_vulnerability|user_shared_personal|seeking_advice|expressed_gratitude|casual_chat", "note": "short reason"}
  ],
  "story": {
    "thread_id": 0,
    "title": "only for a new ongoing topic",
    "arc_position": "where the story stands",
    "key_moment": "optional pivotal detail",
    "expected_next": "optional expected development",
    "resolved": false
  }
}

Importance anchors: asking about the weather scores about 0.1 overall; sharing a hobby about 0.3; a work conflict about 0.6; a major life event (diagnosis, breakup, job loss) about 0.9.

Omit "story" entirely unless the user referenced an ongoing multi-conversation topic. Emit at most two signals. Use "neutral" and low scores for small talk.`
}

// extractionUserPrompt renders one exchange for analysis.
func extractionUserPrompt(userMessage, assistantMessage string) string {
	return fmt.Sprintf("User: %s\n\nAgent: %s\n\nReturn the JSON analysis of this exchange.", userMessage, assistantMessage)
}
