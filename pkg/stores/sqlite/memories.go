package sqlite

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/soulmesh/soulmem-go/pkg/stores"
)

// candidatePool bounds how many recent rows are scored in memory per search.
// SQLite has no native text ranking worth relying on here, so ranking
// follows the same load-then-score approach the vector path uses.
const candidatePool = 200

// Search returns up to topK long-term memories from the caller's partition,
// ranked by token overlap with the query and recency.
func (s *Store) Search(ctx context.Context, query, userID string, isOwner bool, topK int) ([]stores.MemoryItem, error) {
	group := stores.GroupKey(userID, isOwner)

	rows, err := s.db.QueryContext(ctx, `
		SELECT content, emotion, keywords, created_at FROM longterm_memories
		WHERE group_key = ?
		ORDER BY created_at DESC LIMIT ?`,
		group, candidatePool)
	if err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}
	defer rows.Close()

	type scored struct {
		item  stores.MemoryItem
		score float64
	}

	var candidates []scored
	for rows.Next() {
		var item stores.MemoryItem
		var emotion, keywords string
		if err := rows.Scan(&item.Content, &emotion, &keywords, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("Search: scan: %w", err)
		}
		item.Emotion = emotion
		if keywords != "" {
			item.Keywords = strings.Split(keywords, ",")
		}
		if sc := overlapScore(query, item.Content, item.Keywords); sc > 0 {
			candidates = append(candidates, scored{item: item, score: sc})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	items := make([]stores.MemoryItem, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, c.item)
	}
	return items, nil
}

// Insert stores one memory into the caller's partition.
func (s *Store) Insert(ctx context.Context, userID string, isOwner bool, item stores.MemoryItem) error {
	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO longterm_memories (group_key, content, emotion, keywords, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		stores.GroupKey(userID, isOwner), item.Content, item.Emotion,
		strings.Join(item.Keywords, ","), createdAt)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}
	return nil
}

// ForesightSearch returns up to topK predictive memories ranked the same way
// as long-term search. It backs the stores.ForesightStore contract via the
// Foresight wrapper.
func (s *Store) ForesightSearch(ctx context.Context, query string, topK int) ([]stores.MemoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT content, created_at FROM foresight_memories
		ORDER BY created_at DESC LIMIT ?`, candidatePool)
	if err != nil {
		return nil, fmt.Errorf("ForesightSearch: %w", err)
	}
	defer rows.Close()

	type scored struct {
		item  stores.MemoryItem
		score float64
	}
	var candidates []scored
	for rows.Next() {
		var item stores.MemoryItem
		if err := rows.Scan(&item.Content, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("ForesightSearch: scan: %w", err)
		}
		if sc := overlapScore(query, item.Content, nil); sc > 0 {
			candidates = append(candidates, scored{item: item, score: sc})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ForesightSearch: %w", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	items := make([]stores.MemoryItem, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, c.item)
	}
	return items, nil
}

// InsertForesight stores one predictive memory.
func (s *Store) InsertForesight(ctx context.Context, content string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO foresight_memories (content, created_at) VALUES (?, ?)`,
		content, time.Now())
	if err != nil {
		return fmt.Errorf("InsertForesight: %w", err)
	}
	return nil
}

// Foresight adapts the store to the stores.ForesightStore interface, whose
// Search signature differs from the long-term one.
type Foresight struct {
	*Store
}

// Search implements stores.ForesightStore.
func (f Foresight) Search(ctx context.Context, query string, topK int) ([]stores.MemoryItem, error) {
	return f.ForesightSearch(ctx, query, topK)
}

// overlapScore ranks a memory by query-token overlap against its content and
// keywords. Returns 0 when nothing overlaps.
func overlapScore(query, content string, keywords []string) float64 {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return 0
	}

	contentLower := strings.ToLower(content)
	matches := 0
	for _, term := range terms {
		if strings.Contains(contentLower, term) {
			matches++
			continue
		}
		for _, kw := range keywords {
			if strings.EqualFold(strings.TrimSpace(kw), term) {
				matches++
				break
			}
		}
	}
	return float64(matches) / float64(len(terms))
}
