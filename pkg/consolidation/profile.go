package consolidation

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/soulmesh/soulmem-go/pkg/core"
	"github.com/soulmesh/soulmem-go/pkg/llm"
)

// Profile regeneration bounds.
const (
	maxTraits       = 8
	maxOpenLoops    = 5
	maxSummaryParts = 3

	// traitEmotionCount is how many recent annotations of one emotion it
	// takes to register a mood trait.
	traitEmotionCount = 3
)

// regenerateProfile rebuilds the user's consolidated profile from the recent
// signal window. With an LLM provider the profile is synthesized; otherwise a
// deterministic merge keeps the profile useful without any model at all. An
// empty signal window leaves the stored profile untouched.
func (j *Job) regenerateProfile(ctx context.Context, userID string,
	annotations []core.EmotionAnnotation, scores []core.ImportanceScore, now time.Time) error {

	if len(annotations) == 0 && len(scores) == 0 {
		return nil
	}

	old, err := j.docs.GetProfile(ctx, userID)
	if err != nil && !core.IsNotFound(err) {
		return fmt.Errorf("get profile: %w", err)
	}
	if old == nil {
		old = &core.UserProfile{UserID: userID}
	}

	var profile *core.UserProfile
	if j.provider != nil {
		profile = j.llmProfile(ctx, userID, old, annotations, scores)
	}
	if profile == nil {
		profile = mergeProfile(old, annotations, scores)
	}
	profile.UserID = userID
	profile.UpdatedAt = now

	if err := j.docs.PutProfile(ctx, profile); err != nil {
		return fmt.Errorf("put profile: %w", err)
	}
	return nil
}

// mergeProfile is the deterministic regeneration path: summary from the
// highest-importance exchanges, mood traits from repeated emotions, merged
// with what the old profile already knew.
func mergeProfile(old *core.UserProfile, annotations []core.EmotionAnnotation, scores []core.ImportanceScore) *core.UserProfile {
	profile := &core.UserProfile{
		Summary:   old.Summary,
		Traits:    append([]string(nil), old.Traits...),
		OpenLoops: append([]string(nil), old.OpenLoops...),
	}

	sorted := append([]core.ImportanceScore(nil), scores...)
	sort.Slice(sorted, func(i, k int) bool { return sorted[i].Score > sorted[k].Score })

	var parts []string
	for _, s := range sorted {
		if s.Summary == "" || s.Score < promoteThreshold {
			continue
		}
		parts = append(parts, s.Summary)
		if len(parts) == maxSummaryParts {
			break
		}
	}
	if len(parts) > 0 {
		profile.Summary = "Recently: " + strings.Join(parts, "; ")
	}

	counts := make(map[string]int)
	for _, a := range annotations {
		if a.UserEmotion != "" && a.UserEmotion != "neutral" {
			counts[a.UserEmotion]++
		}
	}
	for emo, n := range counts {
		if n >= traitEmotionCount {
			profile.Traits = appendUnique(profile.Traits, "often "+emo+" lately", maxTraits)
		}
	}

	// Unresolved high-importance actionable exchanges read as open loops.
	for _, s := range sorted {
		if s.Actionable >= 0.5 && s.Summary != "" {
			profile.OpenLoops = appendUnique(profile.OpenLoops, s.Summary, maxOpenLoops)
		}
	}
	return profile
}

// llmProfile asks the provider for a synthesized profile. Any failure returns
// nil so the caller falls back to the deterministic merge.
func (j *Job) llmProfile(ctx context.Context, userID string, old *core.UserProfile,
	annotations []core.EmotionAnnotation, scores []core.ImportanceScore) *core.UserProfile {

	response, err := j.provider.Complete(ctx, profileSystemPrompt,
		profileUserPrompt(old, annotations, scores),
		llm.WithMaxTokens(400), llm.WithTemperature(0.3), llm.WithJSONOnly())
	if err != nil {
		log.Printf("[CONSOLIDATE] profile llm call failed for %s, merging deterministically: %v", userID, err)
		return nil
	}

	var wire struct {
		Summary   string   `json:"summary"`
		Traits    []string `json:"traits"`
		OpenLoops []string `json:"open_loops"`
	}
	if err := json.Unmarshal([]byte(stripCodeBlocks(response)), &wire); err != nil || wire.Summary == "" {
		log.Printf("[CONSOLIDATE] invalid profile response for %s, merging deterministically: %v", userID, err)
		return nil
	}

	if len(wire.Traits) > maxTraits {
		wire.Traits = wire.Traits[:maxTraits]
	}
	if len(wire.OpenLoops) > maxOpenLoops {
		wire.OpenLoops = wire.OpenLoops[:maxOpenLoops]
	}
	return &core.UserProfile{
		Summary:   wire.Summary,
		Traits:    wire.Traits,
		OpenLoops: wire.OpenLoops,
	}
}

const profileSystemPrompt = `You maintain a compact profile of one user of a companion agent. Given the old profile and recent exchange signals, return only a JSON object:
{"summary": "2-3 sentence profile", "traits": ["stable traits"], "open_loops": ["unresolved topics worth following up"]}
Keep what the old profile got right, fold in what changed, drop what resolved.`

func profileUserPrompt(old *core.UserProfile, annotations []core.EmotionAnnotation, scores []core.ImportanceScore) string {
	var sb strings.Builder
	sb.WriteString("Old profile: ")
	if old.Summary == "" {
		sb.WriteString("(none)")
	} else {
		sb.WriteString(old.Summary)
	}
	if len(old.Traits) > 0 {
		sb.WriteString("\nOld traits: " + strings.Join(old.Traits, ", "))
	}

	sb.WriteString("\n\nRecent emotions:")
	for _, a := range annotations {
		fmt.Fprintf(&sb, "\n- %s (%.1f, %s)", a.UserEmotion, a.Intensity, a.Trajectory)
	}
	sb.WriteString("\n\nRecent notable exchanges:")
	for _, s := range scores {
		if s.Summary != "" {
			fmt.Fprintf(&sb, "\n- [%.2f] %s", s.Score, s.Summary)
		}
	}
	sb.WriteString("\n\nReturn the updated profile JSON.")
	return sb.String()
}

func stripCodeBlocks(response string) string {
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```", "")
	return strings.TrimSpace(response)
}

func appendUnique(list []string, item string, max int) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	if len(list) >= max {
		return list
	}
	return append(list, item)
}
