package soul

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soulmesh/soulmem-go/pkg/core"
)

func TestLoadConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("DATABASE_PROVIDER", "")
	t.Setenv("SQLITE_PATH", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("EMBEDDING_PROVIDER", "")
	t.Setenv("EMBEDDING_DIMS", "")
	t.Setenv("SOUL_NODE_ID", "")
	t.Setenv("NOTIFY_WEBHOOK_URL", "")

	config, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", config.Database.Provider)
	assert.Equal(t, "./soulmem.db", config.Database.Path)
	assert.Empty(t, config.LLM.Provider)
	assert.Equal(t, 1536, config.Embedder.Dimensions)
	assert.Equal(t, int64(1), config.NodeID)
}

func TestLoadConfigFromEnvPostgres(t *testing.T) {
	t.Setenv("DATABASE_PROVIDER", "postgres")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_PORT", "5433")
	t.Setenv("POSTGRES_USER", "soul")
	t.Setenv("POSTGRES_PASSWORD", "hunter2")
	t.Setenv("POSTGRES_DATABASE", "souls")
	t.Setenv("POSTGRES_SSLMODE", "")

	config, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "postgres", config.Database.Provider)
	assert.Equal(t, "db.internal", config.Database.Host)
	assert.Equal(t, 5433, config.Database.Port)
	assert.Equal(t, "souls", config.Database.DBName)
	assert.Equal(t, "disable", config.Database.SSLMode)
}

func TestLoadConfigFromEnvLLMAndVector(t *testing.T) {
	t.Setenv("DATABASE_PROVIDER", "sqlite")
	t.Setenv("LLM_PROVIDER", "qwen")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("EMBEDDING_PROVIDER", "openai")
	t.Setenv("EMBEDDING_DIMS", "512")
	t.Setenv("VECTOR_PATH", "/tmp/vectors")
	t.Setenv("VECTOR_COMPRESS", "true")
	t.Setenv("SOUL_NODE_ID", "7")

	config, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "qwen", config.LLM.Provider)
	assert.Equal(t, "sk-test", config.LLM.APIKey)
	assert.Equal(t, 512, config.Embedder.Dimensions)
	assert.Equal(t, "/tmp/vectors", config.Vector.Path)
	assert.True(t, config.Vector.Compress)
	assert.Equal(t, int64(7), config.NodeID)
}

func TestValidate(t *testing.T) {
	valid := []Config{
		{Database: DatabaseConfig{Provider: "sqlite"}},
		{Database: DatabaseConfig{Provider: "postgres"}},
		{Database: DatabaseConfig{Provider: "mysql"},
			LLM: LLMConfig{Provider: "qwen"}},
		{Database: DatabaseConfig{Provider: "sqlite"},
			LLM:      LLMConfig{Provider: "openai"},
			Embedder: EmbedderConfig{Provider: "openai"}},
	}
	for i, c := range valid {
		assert.NoError(t, c.Validate(), "case %d", i)
	}

	invalid := []Config{
		{},
		{Database: DatabaseConfig{Provider: "mongodb"}},
		{Database: DatabaseConfig{Provider: "sqlite"},
			LLM: LLMConfig{Provider: "claude"}},
		{Database: DatabaseConfig{Provider: "sqlite"},
			Embedder: EmbedderConfig{Provider: "qwen"}},
	}
	for i, c := range invalid {
		err := c.Validate()
		assert.ErrorIs(t, err, core.ErrInvalidConfig, "case %d", i)
	}
}
