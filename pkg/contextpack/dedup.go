package contextpack

import (
	"github.com/agnivade/levenshtein"
)

// dedupThreshold is the similarity above which two memory strings count as
// the same memory said twice.
const dedupThreshold = 0.8

// memoryGroup is one titled memory section's candidate items, in priority
// order relative to its siblings.
type memoryGroup struct {
	title string
	items []string
}

// dedupGroups collapses near-duplicates across all groups, so the same memory
// surfacing from two sources (say the vector and long-term stores) is only
// injected once. The survivor keeps the slot where the memory first appeared,
// upgraded to the longer variant when a later duplicate is longer.
func dedupGroups(groups []memoryGroup) []memoryGroup {
	type ref struct{ group, index int }
	var kept []ref

	out := make([]memoryGroup, len(groups))
	for gi, g := range groups {
		out[gi].title = g.title
		for _, item := range g.items {
			if item == "" {
				continue
			}
			dup := false
			for _, r := range kept {
				existing := out[r.group].items[r.index]
				if similarity(item, existing) < dedupThreshold {
					continue
				}
				if len(item) > len(existing) {
					out[r.group].items[r.index] = item
				}
				dup = true
				break
			}
			if !dup {
				out[gi].items = append(out[gi].items, item)
				kept = append(kept, ref{group: gi, index: len(out[gi].items) - 1})
			}
		}
	}
	return out
}

// similarity maps edit distance to [0,1], 1 meaning identical.
func similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
