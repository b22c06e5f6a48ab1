package sqlite

import (
	"context"
	"fmt"
	"strings"
)

// graph traversal bounds, independent of the caller-supplied limits.
const maxTraceVisits = 64

// edge is one stored graph edge.
type edge struct {
	from     string
	relation string
	to       string
}

// FindMatchingLabels returns up to limit graph labels for the user whose
// label text appears in the query.
func (s *Store) FindMatchingLabels(ctx context.Context, userID, query string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT from_label FROM graph_edges WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("FindMatchingLabels: %w", err)
	}
	defer rows.Close()

	queryLower := strings.ToLower(query)
	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("FindMatchingLabels: scan: %w", err)
		}
		if label != "" && strings.Contains(queryLower, strings.ToLower(label)) {
			labels = append(labels, label)
			if len(labels) >= limit {
				break
			}
		}
	}
	return labels, rows.Err()
}

// Trace walks the user's graph breadth-first from label, up to maxDepth hops,
// and renders each discovered edge as one insight line.
func (s *Store) Trace(ctx context.Context, userID, label string, maxDepth, limit int) ([]string, error) {
	if maxDepth <= 0 || limit <= 0 {
		return nil, nil
	}

	var insights []string
	visited := map[string]bool{label: true}
	frontier := []string{label}

	for depth := 0; depth < maxDepth && len(frontier) > 0 && len(insights) < limit; depth++ {
		var next []string
		for _, from := range frontier {
			edges, err := s.edgesFrom(ctx, userID, from)
			if err != nil {
				return nil, err
			}
			for _, e := range edges {
				insights = append(insights, fmt.Sprintf("%s %s %s", e.from, e.relation, e.to))
				if len(insights) >= limit {
					return insights, nil
				}
				if !visited[e.to] && len(visited) < maxTraceVisits {
					visited[e.to] = true
					next = append(next, e.to)
				}
			}
		}
		frontier = next
	}
	return insights, nil
}

// edgesFrom loads the outgoing edges of one label, strongest first.
func (s *Store) edgesFrom(ctx context.Context, userID, from string) ([]edge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT from_label, relation, to_label FROM graph_edges
		WHERE user_id = ? AND from_label = ?
		ORDER BY weight DESC LIMIT 10`,
		userID, from)
	if err != nil {
		return nil, fmt.Errorf("edgesFrom: %w", err)
	}
	defer rows.Close()

	var edges []edge
	for rows.Next() {
		var e edge
		if err := rows.Scan(&e.from, &e.relation, &e.to); err != nil {
			return nil, fmt.Errorf("edgesFrom: scan: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// AddEdge stores one graph edge for the user.
func (s *Store) AddEdge(ctx context.Context, userID, from, relation, to string, weight float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO graph_edges (user_id, from_label, relation, to_label, weight)
		VALUES (?, ?, ?, ?, ?)`,
		userID, from, relation, to, weight)
	if err != nil {
		return fmt.Errorf("AddEdge: %w", err)
	}
	return nil
}
