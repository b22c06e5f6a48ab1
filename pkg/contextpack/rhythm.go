package contextpack

import (
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Injection rhythm bounds. Early turns stay memory-free so the agent does not
// greet a user with a wall of recalled history; later turns space memory
// injections out instead of repeating them every reply.
const (
	// warmupTurns is the number of opening turns with no memory injection.
	warmupTurns = 3

	// injectionGap is the minimum number of turns between memory injections.
	injectionGap = 2

	// baseBudget is the default cap on injected memory items per turn.
	baseBudget = 5

	// triggerBonus raises the budget when the user explicitly asks about
	// the past.
	triggerBonus = 2

	// warmupBudget caps trigger-forced injection during the warmup turns.
	warmupBudget = 2

	// maxRhythmUsers bounds the rhythm state map.
	maxRhythmUsers = 1000

	// rhythmTTL drops a user's rhythm state after this much inactivity,
	// resetting them to a fresh conversation.
	rhythmTTL = 2 * time.Hour
)

// triggerPhrases force memory injection regardless of rhythm: the user is
// explicitly reaching for shared history.
var triggerPhrases = []string{
	"remember", "last time", "以前", "上次",
}

// rhythmState is one user's conversation position.
type rhythmState struct {
	turn         int
	lastInjected int
}

// rhythm decides when memory content may be injected for a user.
type rhythm struct {
	mu    sync.Mutex
	users *expirable.LRU[string, *rhythmState]
}

func newRhythm() *rhythm {
	return &rhythm{
		users: expirable.NewLRU[string, *rhythmState](maxRhythmUsers, nil, rhythmTTL),
	}
}

// decision is the rhythm outcome for one turn.
type decision struct {
	// allowMemories reports whether memory sections may be injected.
	allowMemories bool

	// budget caps the number of memory items when allowMemories is set.
	budget int
}

// next advances the user's turn counter and decides whether this turn may
// carry memory content. Calling next consumes a turn even when the decision
// is negative.
func (r *rhythm) next(userID, query string) decision {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.users.Get(userID)
	if !ok {
		st = &rhythmState{lastInjected: -injectionGap}
	}
	st.turn++
	r.users.Add(userID, st)

	triggered := hasTriggerPhrase(query)
	inWarmup := st.turn <= warmupTurns

	switch {
	case inWarmup && triggered:
		return decision{allowMemories: true, budget: warmupBudget}
	case inWarmup:
		return decision{allowMemories: false}
	case triggered:
		return decision{allowMemories: true, budget: baseBudget + triggerBonus}
	case st.turn-st.lastInjected >= injectionGap:
		return decision{allowMemories: true, budget: baseBudget}
	default:
		return decision{allowMemories: false}
	}
}

// markInjected records that memory content went out this turn, restarting the
// injection gap.
func (r *rhythm) markInjected(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.users.Get(userID); ok {
		st.lastInjected = st.turn
		r.users.Add(userID, st)
	}
}

// reset drops the user's rhythm state. Intended for conversation boundaries
// and tests.
func (r *rhythm) reset(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users.Remove(userID)
}

func hasTriggerPhrase(query string) bool {
	lower := strings.ToLower(query)
	for _, p := range triggerPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
