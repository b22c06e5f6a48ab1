// Package openai provides the OpenAI implementation of embedder.Provider.
package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Client generates embeddings via the OpenAI embeddings API.
type Client struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

// Config is the configuration for the OpenAI embedder.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// Model is the embedding model name, defaults to "text-embedding-ada-002".
	// It must name a model the SDK knows.
	Model string

	// BaseURL overrides the API base URL (optional).
	BaseURL string

	// Dimensions is the embedding dimensionality (default 1536, the ada-002
	// output size).
	Dimensions int
}

// NewClient creates a new OpenAI embedder.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model, err := resolveModel(cfg.Model)
	if err != nil {
		return nil, err
	}

	dims := cfg.Dimensions
	if dims == 0 {
		dims = 1536
	}

	return &Client{
		client:     openai.NewClientWithConfig(config),
		model:      model,
		dimensions: dims,
	}, nil
}

// resolveModel maps a configured model name onto the SDK's embedding-model
// enum. An empty name selects ada-002.
func resolveModel(name string) (openai.EmbeddingModel, error) {
	if name == "" {
		return openai.AdaEmbeddingV2, nil
	}
	var model openai.EmbeddingModel
	if err := model.UnmarshalText([]byte(name)); err != nil || model == openai.Unknown {
		return openai.Unknown, fmt.Errorf("unsupported embedding model %q", name)
	}
	return model, nil
}

// Embed returns the embedding vector for one text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: c.model,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embedding failed: empty response")
	}
	return resp.Data[0].Embedding, nil
}

// Dimensions returns the embedding dimensionality.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Close is retained for interface compatibility.
func (c *Client) Close() error {
	return nil
}
