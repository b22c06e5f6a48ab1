package openai

import (
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveModel(t *testing.T) {
	model, err := resolveModel("")
	require.NoError(t, err)
	assert.Equal(t, openai.AdaEmbeddingV2, model)

	model, err = resolveModel("text-embedding-ada-002")
	require.NoError(t, err)
	assert.Equal(t, openai.AdaEmbeddingV2, model)

	_, err = resolveModel("not-a-model")
	assert.Error(t, err)
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(&Config{})
	assert.Error(t, err, "API key is required")

	_, err = NewClient(&Config{APIKey: "sk-test", Model: "not-a-model"})
	assert.Error(t, err)

	c, err := NewClient(&Config{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, 1536, c.Dimensions())
}
