// Package chromem implements stores.VectorStore over chromem-go, a pure Go
// embedded vector database. Each user gets their own collection, so
// cross-user reads are impossible by construction.
package chromem

import (
	"context"
	"fmt"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/soulmesh/soulmem-go/pkg/embedder"
	"github.com/soulmesh/soulmem-go/pkg/stores"
)

// Store wraps a chromem database plus an embedder.
type Store struct {
	db       *chromem.DB
	embedder embedder.Provider

	mu          sync.RWMutex
	collections map[string]*chromem.Collection
}

// Config contains configuration for the chromem store.
type Config struct {
	// Path enables on-disk persistence when non-empty; empty keeps the
	// database in memory.
	Path string

	// Compress gzips persisted segments (only with Path set).
	Compress bool
}

// New creates a chromem-backed vector store.
func New(cfg *Config, emb embedder.Provider) (*Store, error) {
	var db *chromem.DB
	var err error
	if cfg != nil && cfg.Path != "" {
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("chromem: open persistent db: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	return &Store{
		db:          db,
		embedder:    emb,
		collections: make(map[string]*chromem.Collection),
	}, nil
}

// collection returns the per-user collection, creating it on first use.
func (s *Store) collection(userID string) (*chromem.Collection, error) {
	s.mu.RLock()
	col, ok := s.collections[userID]
	s.mu.RUnlock()
	if ok {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if col, ok := s.collections[userID]; ok {
		return col, nil
	}

	name := "user_" + userID
	col, err := s.db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem: create collection %s: %w", name, err)
	}
	s.collections[userID] = col
	return col, nil
}

// Add stores one memory for the user.
func (s *Store) Add(ctx context.Context, userID, id, text string) error {
	col, err := s.collection(userID)
	if err != nil {
		return err
	}

	emb, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("chromem: embed: %w", err)
	}

	doc := chromem.Document{
		ID:        id,
		Content:   text,
		Embedding: emb,
		Metadata:  map[string]string{"user_id": userID},
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("chromem: add document: %w", err)
	}
	return nil
}

// Search returns the topK most similar memories for the user.
func (s *Store) Search(ctx context.Context, query, userID string, topK int) ([]stores.VectorHit, error) {
	col, err := s.collection(userID)
	if err != nil {
		return nil, err
	}

	// chromem rejects nResults larger than the collection size.
	if n := col.Count(); topK > n {
		topK = n
	}
	if topK <= 0 {
		return nil, nil
	}

	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("chromem: embed query: %w", err)
	}

	results, err := col.QueryEmbedding(ctx, emb, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem: query: %w", err)
	}

	hits := make([]stores.VectorHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, stores.VectorHit{
			ID:    r.ID,
			Text:  r.Content,
			Score: r.Similarity,
		})
	}
	return hits, nil
}

// Close releases the embedder; chromem itself holds no open handles for
// in-memory databases.
func (s *Store) Close() error {
	return s.embedder.Close()
}
