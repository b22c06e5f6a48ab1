package soul

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/soulmesh/soulmem-go/pkg/core"
)

// Config contains the complete configuration for a Soul client.
//
// It includes settings for:
//   - LLM provider (for extraction and profile synthesis; optional)
//   - Embedding provider (for vector recall; optional)
//   - Document database (relationships, profiles, threads, annotations)
//   - Vector store persistence
//   - Consolidation notifications
//
// Example:
//
//	config := &soul.Config{
//	    LLM: soul.LLMConfig{
//	        Provider: "openai",
//	        APIKey:   "sk-...",
//	    },
//	    Database: soul.DatabaseConfig{
//	        Provider: "sqlite",
//	        Path:     "./soulmem.db",
//	    },
//	}
type Config struct {
	// LLM contains LLM provider configuration. An empty provider runs the
	// engine rules-only.
	LLM LLMConfig `json:"llm"`

	// Embedder contains embedding provider configuration. An empty provider
	// disables vector recall.
	Embedder EmbedderConfig `json:"embedder"`

	// Database contains the document database configuration.
	Database DatabaseConfig `json:"database"`

	// Vector contains vector store configuration.
	Vector VectorConfig `json:"vector"`

	// WebhookURL is the consolidation notification endpoint ("" disables).
	WebhookURL string `json:"webhook_url,omitempty"`

	// NodeID is the snowflake worker ID for generated record IDs (0-1023).
	NodeID int64 `json:"node_id,omitempty"`
}

// LLMConfig contains configuration for the LLM provider.
//
// Supported providers: openai, qwen. Empty means no LLM: extraction and
// profile regeneration use their deterministic paths.
type LLMConfig struct {
	// Provider is the LLM provider name (openai, qwen).
	Provider string `json:"provider"`

	// APIKey is the API key for the LLM provider.
	APIKey string `json:"api_key"`

	// Model is the model name to use (provider default if empty).
	Model string `json:"model,omitempty"`

	// BaseURL is the base URL for the API (provider default if empty).
	BaseURL string `json:"base_url,omitempty"`
}

// EmbedderConfig contains configuration for the embedding provider.
//
// Supported providers: openai. Empty disables the vector memory source.
type EmbedderConfig struct {
	// Provider is the embedding provider name (openai).
	Provider string `json:"provider"`

	// APIKey is the API key for the embedding provider.
	APIKey string `json:"api_key"`

	// Model is the embedding model name (provider default if empty).
	Model string `json:"model,omitempty"`

	// BaseURL is the base URL for the API (provider default if empty).
	BaseURL string `json:"base_url,omitempty"`

	// Dimensions is the embedding dimensionality (default 1536).
	Dimensions int `json:"dimensions,omitempty"`
}

// DatabaseConfig contains the document database configuration.
//
// Supported providers: sqlite, postgres, mysql. SQLite additionally backs the
// long-term, foresight and graph sources; the server databases provide the
// document store only.
type DatabaseConfig struct {
	// Provider is the database provider name (sqlite, postgres, mysql).
	Provider string `json:"provider"`

	// Path is the database file path (sqlite only).
	Path string `json:"path,omitempty"`

	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
	DBName   string `json:"db_name,omitempty"`

	// SSLMode is the connection SSL mode (postgres only, default "disable").
	SSLMode string `json:"ssl_mode,omitempty"`
}

// VectorConfig contains vector store configuration.
type VectorConfig struct {
	// Path enables on-disk persistence when non-empty.
	Path string `json:"path,omitempty"`

	// Compress gzips persisted segments.
	Compress bool `json:"compress,omitempty"`
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function:
//  1. Searches for .env or .env.example files (up to 5 directory levels up)
//  2. Loads environment variables from the found file
//  3. Parses environment variables into a Config struct
//
// Supported environment variables:
//   - DATABASE_PROVIDER (sqlite, postgres, mysql)
//   - SQLITE_PATH
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER, POSTGRES_PASSWORD,
//     POSTGRES_DATABASE, POSTGRES_SSLMODE
//   - MYSQL_HOST, MYSQL_PORT, MYSQL_USER, MYSQL_PASSWORD, MYSQL_DATABASE
//   - LLM_PROVIDER, LLM_API_KEY, LLM_MODEL, LLM_BASE_URL
//   - EMBEDDING_PROVIDER, EMBEDDING_API_KEY, EMBEDDING_MODEL,
//     EMBEDDING_BASE_URL, EMBEDDING_DIMS
//   - VECTOR_PATH, VECTOR_COMPRESS
//   - NOTIFY_WEBHOOK_URL
//   - SOUL_NODE_ID
func LoadConfigFromEnv() (*Config, error) {
	if envPath, found := FindEnvFile(); found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	db := DatabaseConfig{Provider: getEnvOrDefault("DATABASE_PROVIDER", "sqlite")}
	switch db.Provider {
	case "postgres":
		db.Port, _ = strconv.Atoi(getEnvOrDefault("POSTGRES_PORT", "5432"))
		db.Host = getEnvOrDefault("POSTGRES_HOST", "localhost")
		db.User = getEnvOrDefault("POSTGRES_USER", "postgres")
		db.Password = os.Getenv("POSTGRES_PASSWORD")
		db.DBName = getEnvOrDefault("POSTGRES_DATABASE", "soulmem")
		db.SSLMode = getEnvOrDefault("POSTGRES_SSLMODE", "disable")
	case "mysql":
		db.Port, _ = strconv.Atoi(getEnvOrDefault("MYSQL_PORT", "3306"))
		db.Host = getEnvOrDefault("MYSQL_HOST", "127.0.0.1")
		db.User = getEnvOrDefault("MYSQL_USER", "root")
		db.Password = os.Getenv("MYSQL_PASSWORD")
		db.DBName = getEnvOrDefault("MYSQL_DATABASE", "soulmem")
	default:
		db.Path = getEnvOrDefault("SQLITE_PATH", "./soulmem.db")
	}

	dims, _ := strconv.Atoi(getEnvOrDefault("EMBEDDING_DIMS", "1536"))
	nodeID, _ := strconv.ParseInt(getEnvOrDefault("SOUL_NODE_ID", "1"), 10, 64)

	return &Config{
		LLM: LLMConfig{
			Provider: os.Getenv("LLM_PROVIDER"),
			APIKey:   os.Getenv("LLM_API_KEY"),
			Model:    os.Getenv("LLM_MODEL"),
			BaseURL:  os.Getenv("LLM_BASE_URL"),
		},
		Embedder: EmbedderConfig{
			Provider:   os.Getenv("EMBEDDING_PROVIDER"),
			APIKey:     os.Getenv("EMBEDDING_API_KEY"),
			Model:      os.Getenv("EMBEDDING_MODEL"),
			BaseURL:    os.Getenv("EMBEDDING_BASE_URL"),
			Dimensions: dims,
		},
		Database: db,
		Vector: VectorConfig{
			Path:     os.Getenv("VECTOR_PATH"),
			Compress: os.Getenv("VECTOR_COMPRESS") == "true",
		},
		WebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),
		NodeID:     nodeID,
	}, nil
}

// LoadConfigFromEnvFile loads configuration from a specific .env file.
func LoadConfigFromEnvFile(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		return nil, core.NewSoulError("LoadConfigFromEnvFile", err)
	}
	return LoadConfigFromEnv()
}

// Validate validates the configuration.
//
// The database provider is the only hard requirement; LLM and embedder are
// optional degraded-mode choices, not errors.
func (c *Config) Validate() error {
	switch c.Database.Provider {
	case "sqlite", "postgres", "mysql":
	default:
		return core.NewSoulError("Validate", core.ErrInvalidConfig)
	}
	switch c.LLM.Provider {
	case "", "openai", "qwen":
	default:
		return core.NewSoulError("Validate", core.ErrInvalidConfig)
	}
	switch c.Embedder.Provider {
	case "", "openai":
	default:
		return core.NewSoulError("Validate", core.ErrInvalidConfig)
	}
	return nil
}

// getEnvOrDefault gets an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FindEnvFile searches for .env or .env.example files.
//
// The search:
//  1. Checks the current directory
//  2. Searches up to 5 directory levels up
//  3. Returns the first .env or .env.example file found
func FindEnvFile() (string, bool) {
	if _, err := os.Stat(".env"); err == nil {
		return ".env", true
	}
	if _, err := os.Stat(".env.example"); err == nil {
		return ".env.example", true
	}

	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		envExamplePath := filepath.Join(dir, ".env.example")

		if _, err := os.Stat(envPath); err == nil {
			return envPath, true
		}
		if _, err := os.Stat(envExamplePath); err == nil {
			return envExamplePath, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}
