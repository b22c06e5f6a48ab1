// Package recall implements the parallel memory fan-out: eight bounded
// fetches against independent sources, merged into one SoulContext. Recall
// never returns an error; a missing source degrades the context, it does not
// fail the request.
package recall

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/soulmesh/soulmem-go/pkg/core"
	"github.com/soulmesh/soulmem-go/pkg/emotion"
	"github.com/soulmesh/soulmem-go/pkg/relationship"
	"github.com/soulmesh/soulmem-go/pkg/stores"
)

// Per-source latency budgets. Each source gets its own deadline inside the
// outer recall deadline; a slow source only loses its own slot.
const (
	budgetVector       = 400 * time.Millisecond
	budgetLongTerm     = 800 * time.Millisecond
	budgetForesight    = 500 * time.Millisecond
	budgetProfile      = 200 * time.Millisecond
	budgetThreads      = 200 * time.Millisecond
	budgetRelationship = 200 * time.Millisecond
	budgetResonance    = 300 * time.Millisecond
	budgetGraph        = 300 * time.Millisecond
)

// DefaultTimeout is the outer recall deadline when the caller sets none.
const DefaultTimeout = 500 * time.Millisecond

// Default fetch limits.
const (
	defaultTopK      = 5
	maxGraphLabels   = 2
	graphTraceDepth  = 2
	graphTraceLimit  = 3
	maxActiveThreads = 3
	resonanceLimit   = 3
)

// Engine runs the recall fan-out. Every store is optional: a nil store simply
// contributes nothing, so a deployment can start with the document store alone
// and add sources over time.
type Engine struct {
	vector    stores.VectorStore
	longTerm  stores.LongTermStore
	foresight stores.ForesightStore
	graph     stores.GraphStore
	docs      stores.DocumentStore

	calc    *relationship.StageCalculator
	tracker *emotion.Tracker

	// onCooled receives relationship documents modified by cooling decay so
	// the owner can persist them off the recall path. May be nil.
	onCooled func(doc *core.UserRelationship)
}

// Config wires an Engine. Only Docs is required in practice; everything else
// is optional.
type Config struct {
	Vector    stores.VectorStore
	LongTerm  stores.LongTermStore
	Foresight stores.ForesightStore
	Graph     stores.GraphStore
	Docs      stores.DocumentStore

	// Calculator overrides the default stage ladder when set.
	Calculator *relationship.StageCalculator

	// Tracker overrides the in-conversation emotion tracker when set.
	Tracker *emotion.Tracker

	// OnCooled is called with relationship documents modified by cooling
	// decay, off the critical path concern of the caller.
	OnCooled func(doc *core.UserRelationship)
}

// NewEngine creates a recall engine.
func NewEngine(cfg Config) *Engine {
	calc := cfg.Calculator
	if calc == nil {
		calc = relationship.NewStageCalculator()
	}
	tracker := cfg.Tracker
	if tracker == nil {
		tracker = emotion.NewTracker()
	}
	return &Engine{
		vector:    cfg.Vector,
		longTerm:  cfg.LongTerm,
		foresight: cfg.Foresight,
		graph:     cfg.Graph,
		docs:      cfg.Docs,
		calc:      calc,
		tracker:   tracker,
		onCooled:  cfg.OnCooled,
	}
}

// Options tune one recall call.
type Options struct {
	// TopK bounds each memory source's result count. Defaults to 5.
	TopK int

	// IsOwner selects the owner partition for long-term memories.
	IsOwner bool

	// Timeout overrides the outer recall deadline. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// Recall runs the fan-out for one user message and returns the merged
// context. It never returns an error: sources that fail, panic, or overrun
// their budget are logged and skipped. When the outer deadline expires the
// partial context collected so far is returned with Stats.TimedOut set.
func (e *Engine) Recall(ctx context.Context, userID, query string, opts Options) *core.SoulContext {
	start := time.Now()
	if opts.TopK <= 0 {
		opts.TopK = defaultTopK
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	outer, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	hint := emotion.HintFromQuery(query)
	shift := e.tracker.Track(userID, query)

	sc := &core.SoulContext{
		EmotionShiftHint: shift,
		Stats:            core.RecallStats{SourceCounts: make(map[string]int)},
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

	// stageCh carries the derived stage to the resonance fetch, which is
	// gated on relationship depth. Buffered so the relationship fetch never
	// blocks on a resonance fetch that already gave up.
	stageCh := make(chan core.Stage, 1)

	run := func(name string, budget time.Duration, fn func(ctx context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[RECALL] source %s panicked for %s: %v", name, userID, r)
				}
			}()
			srcCtx, srcCancel := context.WithTimeout(outer, budget)
			defer srcCancel()
			fn(srcCtx)
		}()
	}

	if e.vector != nil {
		run("vector", budgetVector, func(ctx context.Context) {
			hits, err := e.vector.Search(ctx, query, userID, opts.TopK)
			if err != nil {
				log.Printf("[RECALL] vector search failed for %s: %v", userID, err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			for _, h := range hits {
				sc.Memories = append(sc.Memories, h.Text)
			}
			sc.Stats.SourceCounts["vector"] = len(hits)
		})
	}

	if e.longTerm != nil {
		run("longterm", budgetLongTerm, func(ctx context.Context) {
			biased := emotion.BiasSearchTerms(query, hint)
			items, err := e.longTerm.Search(ctx, biased, userID, opts.IsOwner, opts.TopK)
			if err != nil {
				log.Printf("[RECALL] long-term search failed for %s: %v", userID, err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			for _, it := range items {
				sc.LongTermMemories = append(sc.LongTermMemories, it.Content)
			}
			sc.Stats.SourceCounts["longterm"] = len(items)
		})
	}

	if e.foresight != nil {
		run("foresight", budgetForesight, func(ctx context.Context) {
			items, err := e.foresight.Search(ctx, query, opts.TopK)
			if err != nil {
				log.Printf("[RECALL] foresight search failed for %s: %v", userID, err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			for _, it := range items {
				sc.Foresight = append(sc.Foresight, it.Content)
			}
			sc.Stats.SourceCounts["foresight"] = len(items)
		})
	}

	if e.docs != nil {
		run("profile", budgetProfile, func(ctx context.Context) {
			profile, err := e.docs.GetProfile(ctx, userID)
			if err != nil {
				if !core.IsNotFound(err) {
					log.Printf("[RECALL] profile fetch failed for %s: %v", userID, err)
				}
				return
			}
			mu.Lock()
			defer mu.Unlock()
			sc.Profile = profile
			sc.Stats.SourceCounts["profile"] = 1
		})

		run("threads", budgetThreads, func(ctx context.Context) {
			threads, err := e.docs.ListActiveThreads(ctx, userID, maxActiveThreads)
			if err != nil {
				log.Printf("[RECALL] thread fetch failed for %s: %v", userID, err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			sc.Threads = threads
			sc.Stats.SourceCounts["threads"] = len(threads)
		})

		run("relationship", budgetRelationship, func(ctx context.Context) {
			stage := e.fetchRelationship(ctx, userID, sc, &mu)
			stageCh <- stage
		})

		run("resonance", budgetResonance, func(ctx context.Context) {
			res := emotion.ResonanceEmotion(hint)
			if res == "" {
				return
			}
			var stage core.Stage
			select {
			case stage = <-stageCh:
			case <-ctx.Done():
				return
			}
			if !stage.AtLeast(core.StageFamiliar) {
				return
			}
			anns, err := e.docs.ListAnnotationsByEmotion(ctx, userID, res, resonanceLimit)
			if err != nil {
				log.Printf("[RECALL] resonance lookup failed for %s: %v", userID, err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			for _, a := range anns {
				if a.PeakDescription != "" {
					sc.Resonance = append(sc.Resonance, a.PeakDescription)
				}
			}
			sc.Stats.SourceCounts["resonance"] = len(sc.Resonance)
		})
	}

	if e.graph != nil {
		run("graph", budgetGraph, func(ctx context.Context) {
			e.fetchGraph(ctx, userID, query, sc, &mu)
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-outer.Done():
	}
	timedOut := outer.Err() == context.DeadlineExceeded

	// Snapshot under the mutex: stragglers past the deadline may still write
	// to the shared aggregate after we return.
	mu.Lock()
	out := *sc
	counts := make(map[string]int, len(sc.Stats.SourceCounts))
	for name, n := range sc.Stats.SourceCounts {
		counts[name] = n
	}
	mu.Unlock()

	out.Stats.SourceCounts = counts
	out.Stats.TimedOut = timedOut
	out.Stats.Elapsed = time.Since(start)
	if out.StageHint == "" {
		out.StageHint = relationship.StageHint(core.StageStranger)
	}
	log.Printf("[RECALL] %s: %d sources in %s, timed_out=%v",
		userID, len(counts), out.Stats.Elapsed.Round(time.Millisecond), timedOut)
	return &out
}

// fetchRelationship loads the relationship document, applies cooling, derives
// the stage, and fills the stage and breakthrough hints. It returns the
// derived stage (stranger when the document is missing or the fetch failed).
func (e *Engine) fetchRelationship(ctx context.Context, userID string, sc *core.SoulContext, mu *sync.Mutex) core.Stage {
	doc, err := e.docs.GetRelationship(ctx, userID)
	if err != nil {
		if !core.IsNotFound(err) {
			log.Printf("[RECALL] relationship fetch failed for %s: %v", userID, err)
		}
		return core.StageStranger
	}
	// The document may be a cached copy shared with concurrent writers;
	// cooling mutates, so work on a clone and publish that via OnCooled.
	doc = doc.Clone()

	now := time.Now()
	if relationship.ApplyCooling(doc, now) {
		log.Printf("[RECALL] cooling applied for %s, score now %.1f", userID, doc.AccumulatedScore)
		if e.onCooled != nil {
			e.onCooled(doc)
		}
	}

	stage := e.calc.Calculate(doc.AccumulatedScore, doc.TotalDaysActive, userID)

	mu.Lock()
	defer mu.Unlock()
	sc.Stage = stage
	sc.StageHint = relationship.StageHint(stage)
	sc.BreakthroughHint = relationship.BreakthroughHint(doc, now)
	sc.Stats.SourceCounts["relationship"] = 1
	return stage
}

// fetchGraph resolves up to two matching labels and traces them in parallel
// under the shared graph budget.
func (e *Engine) fetchGraph(ctx context.Context, userID, query string, sc *core.SoulContext, mu *sync.Mutex) {
	labels, err := e.graph.FindMatchingLabels(ctx, userID, query, maxGraphLabels)
	if err != nil {
		log.Printf("[RECALL] graph label lookup failed for %s: %v", userID, err)
		return
	}
	if len(labels) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, label := range labels {
		label := label
		wg.Add(1)
		go func() {
			defer wg.Done()
			insights, err := e.graph.Trace(ctx, userID, label, graphTraceDepth, graphTraceLimit)
			if err != nil {
				log.Printf("[RECALL] graph trace failed for %s label %q: %v", userID, label, err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			sc.GraphInsights = append(sc.GraphInsights, insights...)
			sc.Stats.SourceCounts["graph"] = len(sc.GraphInsights)
		}()
	}
	wg.Wait()
}
