package extractor

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/soulmesh/soulmem-go/pkg/core"
	"github.com/soulmesh/soulmem-go/pkg/relationship"
)

// wire shapes for the LLM response. These stay private to the package;
// validated core types are the only thing that crosses the boundary.

type wireResponse struct {
	Emotion    *wireEmotion    `json:"emotion"`
	Importance *wireImportance `json:"importance"`
	Signals    []wireSignal    `json:"signals"`
	Story      *wireStory      `json:"story"`
}

type wireEmotion struct {
	UserEmotion     string   `json:"user_emotion"`
	Intensity       float64  `json:"intensity"`
	Trajectory      string   `json:"trajectory"`
	RecommendedTone string   `json:"recommended_tone"`
	TriggerKeywords []string `json:"trigger_keywords"`
	IsEmotionalPeak bool     `json:"is_emotional_peak"`
	PeakDescription string   `json:"peak_description"`
}

type wireImportance struct {
	Emotional  float64 `json:"emotional"`
	Novelty    float64 `json:"novelty"`
	Personal   float64 `json:"personal"`
	Actionable float64 `json:"actionable"`
	Recency    float64 `json:"recency"`
	Summary    string  `json:"summary"`
}

type wireSignal struct {
	Signal string `json:"signal"`
	Note   string `json:"note"`
}

type wireStory struct {
	ThreadID     int64  `json:"thread_id"`
	Title        string `json:"title"`
	ArcPosition  string `json:"arc_position"`
	KeyMoment    string `json:"key_moment"`
	ExpectedNext string `json:"expected_next"`
	Resolved     bool   `json:"resolved"`
}

var validEmotions = map[string]bool{
	"joy": true, "sadness": true, "anxiety": true,
	"excitement": true, "anger": true, "neutral": true,
}

var validTrajectories = map[string]bool{
	"rising": true, "falling": true, "stable": true,
}

// parseExtractionResponse validates an LLM response into a typed result.
// Any structural violation is an error; the caller falls back to rules.
func parseExtractionResponse(userID, response string) (*core.ExtractionResult, error) {
	response = stripCodeBlocks(response)

	var wire wireResponse
	if err := json.Unmarshal([]byte(response), &wire); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if wire.Emotion == nil {
		return nil, fmt.Errorf("missing emotion block")
	}
	if wire.Importance == nil {
		return nil, fmt.Errorf("missing importance block")
	}
	if !validEmotions[wire.Emotion.UserEmotion] {
		return nil, fmt.Errorf("unknown user_emotion %q", wire.Emotion.UserEmotion)
	}

	trajectory := wire.Emotion.Trajectory
	if !validTrajectories[trajectory] {
		trajectory = "stable"
	}

	now := time.Now()
	keywords := wire.Emotion.TriggerKeywords
	if len(keywords) > 5 {
		keywords = keywords[:5]
	}

	result := &core.ExtractionResult{
		Emotion: core.EmotionAnnotation{
			UserID:          userID,
			UserEmotion:     wire.Emotion.UserEmotion,
			Intensity:       clamp01(wire.Emotion.Intensity),
			Trajectory:      trajectory,
			RecommendedTone: wire.Emotion.RecommendedTone,
			TriggerKeywords: keywords,
			IsEmotionalPeak: wire.Emotion.IsEmotionalPeak,
			PeakDescription: wire.Emotion.PeakDescription,
			CreatedAt:       now,
		},
		Importance: core.ImportanceScore{
			UserID:     userID,
			Emotional:  clamp01(wire.Importance.Emotional),
			Novelty:    clamp01(wire.Importance.Novelty),
			Personal:   clamp01(wire.Importance.Personal),
			Actionable: clamp01(wire.Importance.Actionable),
			Recency:    clamp01(wire.Importance.Recency),
			Summary:    wire.Importance.Summary,
			CreatedAt:  now,
		},
		Source: core.SourceLLM,
	}
	result.Importance.Score = result.Importance.WeightedScore()

	for i, sig := range wire.Signals {
		if i >= 2 || sig.Signal == "" {
			break
		}
		result.Signals = append(result.Signals, core.RelationshipSignal{
			Signal:    sig.Signal,
			Delta:     relationship.DeltaFor(sig.Signal, 1.0),
			Note:      sig.Note,
			CreatedAt: now,
		})
	}

	if wire.Story != nil && (wire.Story.Title != "" || wire.Story.ThreadID != 0) {
		result.Story = &core.StoryUpdate{
			ThreadID:     wire.Story.ThreadID,
			Title:        wire.Story.Title,
			ArcPosition:  wire.Story.ArcPosition,
			KeyMoment:    wire.Story.KeyMoment,
			ExpectedNext: wire.Story.ExpectedNext,
			Resolved:     wire.Story.Resolved,
		}
	}

	return result, nil
}

// stripCodeBlocks removes markdown code fences some models wrap JSON in.
func stripCodeBlocks(response string) string {
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```", "")
	return strings.TrimSpace(response)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
