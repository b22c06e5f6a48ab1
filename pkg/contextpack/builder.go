// Package contextpack assembles the recalled SoulContext into a single
// system-prompt block: hints first, then rhythm-gated memory sections, then a
// closing instruction matched to the relationship stage.
package contextpack

import (
	"fmt"
	"strings"

	"github.com/soulmesh/soulmem-go/pkg/core"
	"github.com/soulmesh/soulmem-go/pkg/reconstruct"
)

// maxItemChars is the length cap per injected memory string; longer items are
// compressed to their first sentences.
const maxItemChars = 150

// Builder turns recall output into prompt text. It holds per-user injection
// rhythm state, so use one Builder per engine instance.
type Builder struct {
	rhythm *rhythm
}

// NewBuilder creates a builder with fresh rhythm state.
func NewBuilder() *Builder {
	return &Builder{rhythm: newRhythm()}
}

// Build renders the context block for one turn. It returns "" when the
// context carries nothing worth injecting, so callers can skip the system
// prompt section entirely.
//
// Behavioral hints (stage, emotion shift, breakthrough) are injected every
// turn. Memory sections follow the per-user injection rhythm: none during the
// opening turns, then at most one injection every few turns, with a bounded
// item budget that grows when the user explicitly asks about the past.
func (b *Builder) Build(userID, query string, sc *core.SoulContext) string {
	if sc.IsEmpty() {
		// Consume the turn so the rhythm still counts silent openings.
		b.rhythm.next(userID, query)
		return ""
	}

	dec := b.rhythm.next(userID, query)

	var sections []string

	if sc.StageHint != "" {
		sections = append(sections, "[Relationship]\n"+sc.StageHint)
	}
	if sc.EmotionShiftHint != "" {
		sections = append(sections, "[Right now]\n"+sc.EmotionShiftHint)
	}

	injected := false
	if dec.allowMemories {
		budget := dec.budget

		// Memory candidates are deduplicated across all sources before any
		// budget is spent, then rendered highest priority first so a tight
		// budget drops the low-priority tail, never the head.
		groups := dedupGroups([]memoryGroup{
			{title: "[Relevant memories]", items: sc.Memories},
			{title: "[What you know about them]", items: sc.LongTermMemories},
			{title: "[Connections]", items: sc.GraphInsights},
			{title: "[Shared emotional history]", items: sc.Resonance},
			{title: "[Worth anticipating]", items: sc.Foresight},
		})

		add := func(section string) {
			sections = append(sections, section)
			injected = true
		}

		if part := renderGroup(groups[0], &budget); part != "" {
			add(part)
		}
		if sc.Profile != nil && budget > 0 {
			add(profileSection(sc.Profile))
			budget--
		}
		if part := renderGroup(groups[1], &budget); part != "" {
			add(part)
		}
		if part := renderGroup(groups[2], &budget); part != "" {
			add(part)
		}
		if part := renderGroup(groups[3], &budget); part != "" {
			add(part)
		}
		if len(sc.Threads) > 0 && budget > 0 {
			part, used := threadSection(sc.Threads, budget)
			add(part)
			budget -= used
		}
		if part := renderGroup(groups[4], &budget); part != "" {
			add(part)
		}
	}

	if sc.BreakthroughHint != "" {
		sections = append(sections, "[A recent moment]\n"+sc.BreakthroughHint)
	}

	if len(sections) == 0 {
		return ""
	}
	if injected {
		b.rhythm.markInjected(userID)
	}

	sections = append(sections, closingInstruction(sc.Stage))
	return strings.Join(sections, "\n\n")
}

// ResetUser clears the user's injection rhythm, treating their next message
// as the start of a new conversation.
func (b *Builder) ResetUser(userID string) {
	b.rhythm.reset(userID)
}

// renderGroup renders one deduplicated group as a titled bullet list,
// consuming from the shared item budget. Items are length-capped; an
// exhausted budget yields "".
func renderGroup(g memoryGroup, budget *int) string {
	if *budget <= 0 || len(g.items) == 0 {
		return ""
	}

	var lines []string
	for _, item := range g.items {
		if *budget <= 0 {
			break
		}
		if len([]rune(item)) > maxItemChars {
			item = reconstruct.Compress(item)
		}
		lines = append(lines, "- "+item)
		*budget--
	}
	if len(lines) == 0 {
		return ""
	}
	return g.title + "\n" + strings.Join(lines, "\n")
}

func profileSection(p *core.UserProfile) string {
	var sb strings.Builder
	sb.WriteString("[About them]\n")
	sb.WriteString(p.Summary)
	if len(p.Traits) > 0 {
		sb.WriteString("\nTraits: " + strings.Join(p.Traits, ", "))
	}
	if len(p.OpenLoops) > 0 {
		sb.WriteString("\nOpen loops: " + strings.Join(p.OpenLoops, "; "))
	}
	return sb.String()
}

// threadSection renders up to budget thread lines and reports how many it
// used.
func threadSection(threads []core.StoryThread, budget int) (string, int) {
	var lines []string
	for _, t := range threads {
		if len(lines) == budget {
			break
		}
		line := "- " + t.Title
		if t.ArcPosition != "" {
			line += fmt.Sprintf(" (%s)", t.ArcPosition)
		}
		lines = append(lines, line)
	}
	return "[Their ongoing stories]\n" + strings.Join(lines, "\n"), len(lines)
}

// closingInstruction keeps the agent from narrating its own memory. Deeper
// stages are allowed to lean on shared history more openly.
func closingInstruction(stage core.Stage) string {
	if stage.AtLeast(core.StageClose) {
		return "Use what you know naturally, the way an old friend would. Never mention memory systems or relationship stages."
	}
	return "Only bring up past details if they fit naturally. Never mention memory systems or relationship stages, and never imply you know more than they have told you."
}
