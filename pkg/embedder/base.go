// Package embedder defines the text-embedding contract used by the vector
// memory store.
package embedder

import "context"

// Provider generates vector embeddings for text.
type Provider interface {
	// Embed returns the embedding vector for one text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding dimensionality.
	Dimensions() int

	// Close releases provider resources.
	Close() error
}
