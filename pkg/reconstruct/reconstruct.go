// Package reconstruct rewrites stored memory strings into shorter,
// temporally-appropriate forms based on their age and emotional metadata.
//
// Reconstruction only operates on in-memory copies produced at read time;
// it never mutates the underlying stored record.
package reconstruct

import (
	"fmt"
	"strings"
)

// Age bands, in days, that select the reconstruction strategy.
const (
	// FreshDays is the upper bound of the no-op band.
	FreshDays = 30

	// RecentDays is the upper bound of the two-sentence band. Older memories
	// are re-synthesized from emotion and keywords.
	RecentDays = 90
)

// Reconstruct rewrites a memory according to its age.
//
//   - daysAgo < 30: returned unchanged, byte for byte.
//   - 30 <= daysAgo <= 90: truncated to its first two sentences.
//   - daysAgo > 90: re-synthesized from the emotion label, up to three
//     keywords, and the first clause of the original text, so the compressed
//     form still reads naturally rather than ending mid-sentence.
//
// The result of the oldest band is never longer than the two-sentence form
// of the same memory.
func Reconstruct(memory string, daysAgo int, emotion string, keywords []string) string {
	if daysAgo < FreshDays {
		return memory
	}

	memory = strings.TrimSpace(memory)
	if memory == "" {
		return ""
	}
	if daysAgo <= RecentDays {
		return FirstSentences(memory, 2)
	}
	return resynthesize(memory, emotion, keywords)
}

// Compress shortens a memory to its first two sentences regardless of age.
// The context builder uses it for any candidate string over its length cap.
func Compress(memory string) string {
	return FirstSentences(memory, 2)
}

// resynthesize rebuilds a distant memory from its metadata plus the first
// clause of the original text.
func resynthesize(memory, emotion string, keywords []string) string {
	clause := firstClause(memory)

	if len(keywords) > 3 {
		keywords = keywords[:3]
	}

	var parts []string
	if emotion != "" && emotion != "neutral" {
		parts = append(parts, fmt.Sprintf("(%s)", emotion))
	}
	if len(keywords) > 0 {
		parts = append(parts, strings.Join(keywords, ", ")+":")
	}
	parts = append(parts, clause)

	out := strings.Join(parts, " ")
	// The distant form must not exceed the recent form of the same memory.
	if two := FirstSentences(memory, 2); len(out) > len(two) {
		return two
	}
	return out
}

// sentence terminators, covering both ASCII and CJK punctuation.
var sentenceEnders = []rune{'.', '!', '?', '。', '！', '？'}

// clause separators used to find the first clause of a memory.
var clauseEnders = []rune{',', ';', '，', '；', '、', '.', '!', '?', '。', '！', '？'}

// FirstSentences returns the first n sentences of text. Text with fewer than
// n terminators is returned unchanged.
func FirstSentences(text string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i, r := range text {
		if isOneOf(r, sentenceEnders) {
			count++
			if count == n {
				return strings.TrimSpace(text[:i+len(string(r))])
			}
		}
	}
	return strings.TrimSpace(text)
}

// firstClause returns text up to (not including) the first clause separator.
func firstClause(text string) string {
	for i, r := range text {
		if isOneOf(r, clauseEnders) {
			return strings.TrimSpace(text[:i])
		}
	}
	return strings.TrimSpace(text)
}

func isOneOf(r rune, set []rune) bool {
	for _, s := range set {
		if r == s {
			return true
		}
	}
	return false
}
