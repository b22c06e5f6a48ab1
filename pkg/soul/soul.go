// Package soul provides the top-level client of the memory-recall and
// relationship-modeling engine: recall fan-out, context building, and
// post-exchange persistence behind write-behind caches.
package soul

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/soulmesh/soulmem-go/pkg/contextpack"
	"github.com/soulmesh/soulmem-go/pkg/core"
	"github.com/soulmesh/soulmem-go/pkg/embedder"
	embopenai "github.com/soulmesh/soulmem-go/pkg/embedder/openai"
	"github.com/soulmesh/soulmem-go/pkg/extractor"
	"github.com/soulmesh/soulmem-go/pkg/llm"
	llmopenai "github.com/soulmesh/soulmem-go/pkg/llm/openai"
	"github.com/soulmesh/soulmem-go/pkg/llm/qwen"
	"github.com/soulmesh/soulmem-go/pkg/recall"
	"github.com/soulmesh/soulmem-go/pkg/relationship"
	"github.com/soulmesh/soulmem-go/pkg/stores"
	"github.com/soulmesh/soulmem-go/pkg/stores/chromem"
	"github.com/soulmesh/soulmem-go/pkg/stores/mysql"
	"github.com/soulmesh/soulmem-go/pkg/stores/postgres"
	"github.com/soulmesh/soulmem-go/pkg/stores/sqlite"
	"github.com/soulmesh/soulmem-go/pkg/writebehind"
)

// Cache sizing for the read side of the write-behind pattern.
const (
	relationshipCacheSize = 10000
	relationshipCacheTTL  = 5 * time.Minute

	profileCacheSize = 1000
	profileCacheTTL  = time.Hour

	cacheLoadTimeout = 300 * time.Millisecond

	// memoryThreshold is the minimum importance score for writing an
	// exchange into the vector store.
	memoryThreshold = 0.3

	// processTimeout bounds one post-exchange persistence pass.
	processTimeout = 30 * time.Second
)

// Soul is the engine client. It is safe for concurrent use; construct one per
// process with New and release it with Close.
type Soul struct {
	cfg  *Config
	node *snowflake.Node

	provider llm.Provider
	emb      embedder.Provider
	stores   *Stores

	relCache  *writebehind.ReadCache[*core.UserRelationship]
	profCache *writebehind.ReadCache[*core.UserProfile]

	// relMu serializes relationship read-modify-write cycles so concurrent
	// exchanges never lose each other's updates.
	relMu sync.Mutex

	relQueue  *writebehind.Queue[relationshipJob]
	relWorker *writebehind.Worker[relationshipJob]

	profQueue  *writebehind.Queue[profileJob]
	profWorker *writebehind.Worker[profileJob]

	engine  *recall.Engine
	builder *contextpack.Builder
	extract *extractor.Extractor

	bg        sync.WaitGroup
	closeOnce sync.Once
}

// Stores bundles the opened store implementations for one configuration.
type Stores struct {
	Docs      stores.DocumentStore
	LongTerm  stores.LongTermStore
	Foresight stores.ForesightStore
	Graph     stores.GraphStore
	Vector    stores.VectorStore
}

// New creates a Soul client from the configuration.
func New(cfg *Config) (*Soul, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	node, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		return nil, core.NewSoulError("New", fmt.Errorf("snowflake node %d: %w", cfg.NodeID, err))
	}

	provider, err := NewLLMProvider(cfg.LLM)
	if err != nil {
		return nil, core.NewSoulError("New", err)
	}
	emb, err := NewEmbedderProvider(cfg.Embedder)
	if err != nil {
		return nil, core.NewSoulError("New", err)
	}

	st, err := OpenStores(cfg, emb)
	if err != nil {
		return nil, err
	}

	s := &Soul{
		cfg:      cfg,
		node:     node,
		provider: provider,
		emb:      emb,
		stores:   st,
		builder:  contextpack.NewBuilder(),
		extract:  extractor.New(provider),
	}

	s.relCache = writebehind.NewReadCache("affinity", relationshipCacheSize,
		relationshipCacheTTL, cacheLoadTimeout,
		func(ctx context.Context, userID string) (*core.UserRelationship, error) {
			return st.Docs.GetRelationship(ctx, userID)
		})
	s.profCache = writebehind.NewReadCache("profile", profileCacheSize,
		profileCacheTTL, cacheLoadTimeout,
		func(ctx context.Context, userID string) (*core.UserProfile, error) {
			return st.Docs.GetProfile(ctx, userID)
		})

	s.relQueue, s.relWorker = newRelationshipWorker(st.Docs)
	s.profQueue, s.profWorker = newProfileWorker(st.Docs)
	s.relWorker.Start()
	s.profWorker.Start()

	s.engine = recall.NewEngine(recall.Config{
		Vector:    st.Vector,
		LongTerm:  st.LongTerm,
		Foresight: st.Foresight,
		Graph:     st.Graph,
		Docs:      &cachedDocuments{DocumentStore: st.Docs, soul: s},
		OnCooled: func(doc *core.UserRelationship) {
			s.relMu.Lock()
			defer s.relMu.Unlock()
			s.relCache.Set(doc.UserID, doc)
			s.relQueue.Enqueue(relationshipJob{userID: doc.UserID, doc: doc})
		},
	})
	return s, nil
}

// NewLLMProvider builds an llm.Provider from config. An empty provider name
// returns (nil, nil): the engine runs rules-only.
func NewLLMProvider(cfg LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "openai":
		return llmopenai.NewClient(&llmopenai.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "qwen":
		return qwen.NewClient(&qwen.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	default:
		return nil, core.ErrInvalidConfig
	}
}

// NewEmbedderProvider builds an embedder.Provider from config. An empty
// provider name returns (nil, nil): vector recall is disabled.
func NewEmbedderProvider(cfg EmbedderConfig) (embedder.Provider, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "openai":
		return embopenai.NewClient(&embopenai.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
		})
	default:
		return nil, core.ErrInvalidConfig
	}
}

// OpenStores opens the store implementations selected by the configuration.
// SQLite backs every contract; postgres and mysql provide the document store
// only. The vector store opens only when an embedder is available.
func OpenStores(cfg *Config, emb embedder.Provider) (*Stores, error) {
	st := &Stores{}

	switch cfg.Database.Provider {
	case "sqlite":
		db, err := sqlite.New(&sqlite.Config{DBPath: cfg.Database.Path})
		if err != nil {
			return nil, core.NewSoulError("OpenStores", err)
		}
		st.Docs = db
		st.LongTerm = db
		st.Foresight = sqlite.Foresight{Store: db}
		st.Graph = db
	case "postgres":
		db, err := postgres.New(&postgres.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			return nil, core.NewSoulError("OpenStores", err)
		}
		st.Docs = db
	case "mysql":
		db, err := mysql.New(&mysql.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
		})
		if err != nil {
			return nil, core.NewSoulError("OpenStores", err)
		}
		st.Docs = db
	default:
		return nil, core.NewSoulError("OpenStores", core.ErrInvalidConfig)
	}

	if emb != nil {
		vec, err := chromem.New(&chromem.Config{
			Path:     cfg.Vector.Path,
			Compress: cfg.Vector.Compress,
		}, emb)
		if err != nil {
			return nil, core.NewSoulError("OpenStores", err)
		}
		st.Vector = vec
	}
	return st, nil
}

// Recall runs the memory fan-out for one user message. It never returns an
// error; see recall.Engine.Recall.
func (s *Soul) Recall(ctx context.Context, userID, query string, opts ...RecallOption) *core.SoulContext {
	return s.engine.Recall(ctx, userID, query, applyRecallOptions(opts))
}

// BuildContext renders a recalled context into the injectable prompt block.
// An empty string means nothing is worth injecting this turn.
func (s *Soul) BuildContext(userID, query string, sc *core.SoulContext) string {
	return s.builder.Build(userID, query, sc)
}

// RecallContext is the common path: recall then build, one call.
func (s *Soul) RecallContext(ctx context.Context, userID, query string, opts ...RecallOption) string {
	return s.BuildContext(userID, query, s.Recall(ctx, userID, query, opts...))
}

// ProcessExchange persists one completed exchange: extraction, annotation and
// importance records, relationship bookkeeping, story threads, and memory
// writes. The work runs in a background goroutine so the conversational reply
// is never blocked on it; Close waits for in-flight work.
func (s *Soul) ProcessExchange(userID, userMessage, assistantMessage string) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[SOUL] process exchange panicked for %s: %v", userID, r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()
		s.processExchange(ctx, userID, userMessage, assistantMessage)
	}()
}

// processExchange is the synchronous persistence pass.
func (s *Soul) processExchange(ctx context.Context, userID, userMessage, assistantMessage string) {
	result := s.extract.Extract(ctx, userID, userMessage, assistantMessage)
	now := time.Now()

	result.Emotion.ID = s.node.Generate().Int64()
	if err := s.stores.Docs.InsertAnnotation(ctx, &result.Emotion); err != nil {
		log.Printf("[SOUL] insert annotation for %s: %v", userID, err)
	}
	if err := s.stores.Docs.InsertImportance(ctx, &result.Importance); err != nil {
		log.Printf("[SOUL] insert importance for %s: %v", userID, err)
	}

	s.updateRelationship(ctx, userID, result, now)

	if result.Story != nil {
		s.applyStoryUpdate(ctx, userID, result, now)
	}

	if s.stores.Vector != nil && result.Importance.Score >= memoryThreshold {
		content := result.Importance.Summary
		if content == "" {
			content = userMessage
		}
		id := s.node.Generate().String()
		if err := s.stores.Vector.Add(ctx, userID, id, content); err != nil {
			log.Printf("[SOUL] vector add for %s: %v", userID, err)
		}
	}
}

// updateRelationship folds the exchange into the relationship document via
// the write-behind cache. The cached document is shared with concurrent
// recalls, so all mutation happens on a private clone published through Set.
func (s *Soul) updateRelationship(ctx context.Context, userID string, result *core.ExtractionResult, now time.Time) {
	s.relMu.Lock()
	defer s.relMu.Unlock()

	doc, err := s.relCache.Get(ctx, userID)
	if err != nil {
		if !core.IsNotFound(err) {
			log.Printf("[SOUL] relationship load for %s: %v", userID, err)
		}
		doc = &core.UserRelationship{UserID: userID, StageEnteredAt: now}
	} else {
		doc = doc.Clone()
	}

	relationship.Touch(doc, now)
	for _, sig := range result.Signals {
		relationship.ApplySignal(doc, sig)
	}
	if result.Emotion.IsEmotionalPeak && result.Emotion.PeakDescription != "" {
		relationship.RecordBreakthrough(doc, result.Emotion.PeakDescription, now)
	}

	s.relCache.Set(userID, doc)
	s.relQueue.Enqueue(relationshipJob{userID: userID, doc: doc})
}

// applyStoryUpdate advances or creates the story thread named by the
// extraction result.
func (s *Soul) applyStoryUpdate(ctx context.Context, userID string, result *core.ExtractionResult, now time.Time) {
	update := result.Story

	var thread *core.StoryThread
	if update.ThreadID != 0 {
		existing, err := s.stores.Docs.GetThread(ctx, update.ThreadID)
		if err != nil {
			if !core.IsNotFound(err) {
				log.Printf("[SOUL] thread load %d for %s: %v", update.ThreadID, userID, err)
				return
			}
		} else if existing.UserID == userID {
			thread = existing
		}
	}
	if thread == nil {
		if update.Title == "" {
			return
		}
		thread = &core.StoryThread{
			ThreadID:  s.node.Generate().Int64(),
			UserID:    userID,
			Title:     update.Title,
			StartedAt: now,
		}
	}

	thread.Status = core.ThreadActive
	if update.Resolved {
		thread.Status = core.ThreadResolved
	}
	if update.ArcPosition != "" {
		thread.ArcPosition = update.ArcPosition
	}
	if update.ExpectedNext != "" {
		thread.ExpectedNext = update.ExpectedNext
	}
	if update.KeyMoment != "" {
		thread.KeyMoments = append(thread.KeyMoments, update.KeyMoment)
	}
	thread.EpisodeIDs = append(thread.EpisodeIDs, result.Emotion.ID)
	thread.LastUpdated = now

	if err := s.stores.Docs.UpsertThread(ctx, thread); err != nil {
		log.Printf("[SOUL] upsert thread for %s: %v", userID, err)
	}
}

// StageBehavior returns a behavior instruction for the given stage. With an
// LLM provider the wording is generated; without one, or on any failure, the
// deterministic per-stage hint is returned instead.
func (s *Soul) StageBehavior(ctx context.Context, stage core.Stage) string {
	fallback := relationship.StageHint(stage)
	if s.provider == nil {
		return fallback
	}
	prompt := fmt.Sprintf("Relationship stage with this user: %s. Write one short instruction (under 25 words) for how a companion agent should behave at this depth. Plain text only.", stage)
	text, err := s.provider.Complete(ctx, "You tune the tone of a companion agent.", prompt,
		llm.WithMaxTokens(60), llm.WithTemperature(0.4))
	if err != nil || strings.TrimSpace(text) == "" {
		log.Printf("[SOUL] stage behavior generation failed, using default: %v", err)
		return fallback
	}
	return strings.TrimSpace(text)
}

// Profile returns the user's consolidated profile through the profile cache.
func (s *Soul) Profile(ctx context.Context, userID string) (*core.UserProfile, error) {
	return s.profCache.Get(ctx, userID)
}

// PutProfile installs a profile locally and enqueues its durable write.
func (s *Soul) PutProfile(profile *core.UserProfile) {
	s.profCache.Set(profile.UserID, profile)
	s.profQueue.Enqueue(profileJob{userID: profile.UserID, profile: profile})
}

// Stores exposes the opened store implementations, mainly for wiring the
// consolidation job and examples.
func (s *Soul) Stores() *Stores {
	return s.stores
}

// Provider exposes the configured LLM provider (nil when rules-only).
func (s *Soul) Provider() llm.Provider {
	return s.provider
}

// Close drains in-flight exchange processing and the write-behind queues,
// then releases stores and providers.
func (s *Soul) Close() error {
	var firstErr error
	s.closeOnce.Do(func() {
		s.bg.Wait()
		s.relWorker.Stop()
		s.profWorker.Stop()

		closers := []func() error{s.stores.Docs.Close}
		if s.stores.Vector != nil {
			closers = append(closers, s.stores.Vector.Close)
		}
		if s.provider != nil {
			closers = append(closers, s.provider.Close)
		}
		for _, close := range closers {
			if err := close(); err != nil && firstErr == nil {
				firstErr = core.NewSoulError("Close", err)
			}
		}
	})
	return firstErr
}

// cachedDocuments routes relationship and profile reads through the
// write-behind read caches so recall stays off the durable store on the hot
// path. Everything else passes through.
type cachedDocuments struct {
	stores.DocumentStore
	soul *Soul
}

func (c *cachedDocuments) GetRelationship(ctx context.Context, userID string) (*core.UserRelationship, error) {
	return c.soul.relCache.Get(ctx, userID)
}

func (c *cachedDocuments) GetProfile(ctx context.Context, userID string) (*core.UserProfile, error) {
	return c.soul.profCache.Get(ctx, userID)
}
