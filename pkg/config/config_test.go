package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "PINECONE_HOST", "OPENAI_BASE_URL", "PORT", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig(t *testing.T) {
	clearEnv(t)

	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
server:
  addr: ":9090"

llm:
  model: "gpt-4"
  max_tokens: 512
  temperature: 0.2

index:
  backend: "pinecone"
  name: "leases-test"
  host: "https://leases-test.svc.pinecone.io"
  top_k: 6

database:
  driver: "sqlite"
  url: "file:leases.db"

processor:
  chunk_size: 500
  chunk_overlap: 100

extraction:
  concurrency: 4
  rate_limit: 2.5
  query_timeout: 15s

logging:
  level: "debug"
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, ":9090", config.Server.Addr)
	assert.Equal(t, "gpt-4", config.LLM.Model)
	assert.Equal(t, 512, config.LLM.MaxTokens)
	assert.Equal(t, 0.2, config.LLM.Temperature)
	assert.Equal(t, "leases-test", config.Index.Name)
	assert.Equal(t, 6, config.Index.TopK)
	assert.Equal(t, "sqlite", config.Database.Driver)
	assert.Equal(t, 500, config.Processor.ChunkSize)
	assert.Equal(t, 100, config.Processor.ChunkOverlap)
	assert.Equal(t, 4, config.Extraction.Concurrency)
	assert.Equal(t, 2.5, config.Extraction.RateLimit)
	assert.Equal(t, 15*time.Second, config.Extraction.QueryTimeout)
	assert.Equal(t, "debug", config.Logging.Level)

	// Unset values fall back to defaults
	assert.Equal(t, "text-embedding-ada-002", config.LLM.EmbeddingModel)
	assert.Equal(t, "boundary", config.Processor.Strategy)
	assert.Equal(t, "leases", config.Database.TableName)
	assert.Empty(t, config.Validate())
}

func TestDefaults(t *testing.T) {
	config := newConfig()
	applyDefaults(config)

	assert.Equal(t, 2400, config.Processor.ChunkSize)
	assert.Equal(t, 200, config.Processor.ChunkOverlap)
	assert.Equal(t, 1, config.Extraction.Concurrency)
	assert.Equal(t, "brikmate", config.Index.Name)
	assert.Equal(t, "pinecone", config.Index.Backend)
	assert.Equal(t, 4, config.Index.TopK)
	assert.Equal(t, int64(10_000_000), config.Server.MaxUploadBytes)
	assert.Equal(t, 0.0, config.LLM.Temperature)
}

func TestChunkOverlap(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name      string
		processor string
		want      int
	}{
		{"explicit zero is kept", "processor:\n  chunk_size: 100\n  chunk_overlap: 0\n", 0},
		{"absent key takes the default", "processor:\n  chunk_size: 1000\n", 200},
		{"explicit value is kept", "processor:\n  chunk_size: 100\n  chunk_overlap: 20\n", 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			data := "index:\n  host: \"https://brikmate.svc.pinecone.io\"\n" +
				"database:\n  driver: \"sqlite\"\n  url: \"file:leases.db\"\n" + tt.processor
			require.NoError(t, os.WriteFile(configPath, []byte(data), 0644))

			config, err := LoadConfig(configPath)
			require.NoError(t, err)

			assert.Equal(t, tt.want, config.Processor.ChunkOverlap)
			assert.Empty(t, config.Validate())
		})
	}
}

func validConfig() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080", MaxUploadBytes: 1000},
		LLM: LLMConfig{
			MaxTokens:          256,
			EmbeddingBatchSize: 256,
		},
		Index: IndexConfig{
			Backend:   "pinecone",
			Host:      "https://brikmate.svc.pinecone.io",
			TopK:      4,
			VectorDim: 1536,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			URL:    "file:test.db",
		},
		Processor: ProcessorConfig{
			Strategy:     "boundary",
			ChunkSize:    2400,
			ChunkOverlap: 200,
		},
		Extraction: ExtractionConfig{
			Concurrency:  1,
			QueryTimeout: time.Minute,
		},
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(c *Config)
		expectedErrs  int
		errorMessages []string
	}{
		{
			name:         "valid config",
			mutate:       func(c *Config) {},
			expectedErrs: 0,
		},
		{
			name: "invalid config",
			mutate: func(c *Config) {
				c.LLM.BaseURL = "invalid-url"
				c.LLM.MaxTokens = 5000
				c.LLM.Temperature = 3.0
				c.Index.Backend = "weaviate"
				c.Processor.ChunkOverlap = 2400
			},
			expectedErrs: 5,
			errorMessages: []string{
				"llm.base_url: invalid OpenAI base URL",
				"llm.max_tokens: max_tokens must be between 1 and 4096",
				"llm.temperature: temperature must be between 0 and 2",
				"index.backend: unknown index backend: weaviate",
				"processor.chunk_overlap: chunk_overlap must be non-negative and less than chunk_size",
			},
		},
		{
			name: "pgvector needs postgres",
			mutate: func(c *Config) {
				c.Index.Backend = "pgvector"
			},
			expectedErrs:  1,
			errorMessages: []string{"index.backend: pgvector backend requires a postgres database"},
		},
		{
			name: "pinecone needs host",
			mutate: func(c *Config) {
				c.Index.Host = ""
			},
			expectedErrs:  1,
			errorMessages: []string{"index.host: pinecone index host is required"},
		},
		{
			name: "extraction limits",
			mutate: func(c *Config) {
				c.Extraction.Concurrency = 0
				c.Extraction.RateLimit = -1
				c.Extraction.QueryTimeout = 0
			},
			expectedErrs: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(&config)

			errors := config.Validate()
			assert.Len(t, errors, tt.expectedErrs)

			for i, msg := range tt.errorMessages {
				require.Greater(t, len(errors), i)
				assert.Contains(t, errors[i].Error(), msg)
			}
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env-db:5432/test")
	t.Setenv("PINECONE_HOST", "https://env-index.svc.pinecone.io")
	t.Setenv("OPENAI_BASE_URL", "http://env-openai:8000/v1")
	t.Setenv("PORT", "7000")
	t.Setenv("LOG_LEVEL", "warn")

	config := &Config{}
	mergeWithEnv(config)

	assert.Equal(t, "postgres://env-db:5432/test", config.Database.URL)
	assert.Equal(t, "https://env-index.svc.pinecone.io", config.Index.Host)
	assert.Equal(t, "http://env-openai:8000/v1", config.LLM.BaseURL)
	assert.Equal(t, ":7000", config.Server.Addr)
	assert.Equal(t, "warn", config.Logging.Level)
}
