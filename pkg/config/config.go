package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultChunkOverlap = 200

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	LLM        LLMConfig        `yaml:"llm"`
	Index      IndexConfig      `yaml:"index"`
	Database   DatabaseConfig   `yaml:"database"`
	Processor  ProcessorConfig  `yaml:"processor"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Addr           string `yaml:"addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

type LLMConfig struct {
	BaseURL            string  `yaml:"base_url"`
	Model              string  `yaml:"model"`
	EmbeddingModel     string  `yaml:"embedding_model"`
	EmbeddingBatchSize int     `yaml:"embedding_batch_size"`
	MaxTokens          int     `yaml:"max_tokens"`
	Temperature        float64 `yaml:"temperature"`
}

type IndexConfig struct {
	Backend   string `yaml:"backend"` // pinecone or pgvector
	Name      string `yaml:"name"`
	Host      string `yaml:"host"`
	TopK      int    `yaml:"top_k"`
	VectorDim int    `yaml:"vector_dim"`
	TableName string `yaml:"table_name"`
}

type DatabaseConfig struct {
	Driver    string `yaml:"driver"` // postgres or sqlite
	URL       string `yaml:"url"`
	TableName string `yaml:"table_name"`
}

type ProcessorConfig struct {
	Strategy     string `yaml:"strategy"` // boundary or langchain
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
}

type ExtractionConfig struct {
	Concurrency  int           `yaml:"concurrency"`
	RateLimit    float64       `yaml:"rate_limit"` // queries per second, 0 = unlimited
	QueryTimeout time.Duration `yaml:"query_timeout"`
	AnswerStyle  string        `yaml:"answer_style"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/brikmate/config.yaml"),
			"/etc/brikmate/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	config := newConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	mergeWithEnv(config)
	applyDefaults(config)

	return config, nil
}

// newConfig presets the values for which zero is a valid setting, so they
// only take their default when the key is absent from the file.
func newConfig() *Config {
	return &Config{
		Processor: ProcessorConfig{ChunkOverlap: defaultChunkOverlap},
	}
}

func getDefaultConfig() (*Config, error) {
	config := newConfig()
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
	if config.Server.MaxUploadBytes == 0 {
		config.Server.MaxUploadBytes = 10_000_000
	}

	if config.LLM.Model == "" {
		config.LLM.Model = "gpt-3.5-turbo"
	}
	if config.LLM.EmbeddingModel == "" {
		config.LLM.EmbeddingModel = "text-embedding-ada-002"
	}
	if config.LLM.EmbeddingBatchSize == 0 {
		config.LLM.EmbeddingBatchSize = 256
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 256
	}

	if config.Index.Backend == "" {
		config.Index.Backend = "pinecone"
	}
	if config.Index.Name == "" {
		config.Index.Name = "brikmate"
	}
	if config.Index.TopK == 0 {
		config.Index.TopK = 4
	}
	if config.Index.VectorDim == 0 {
		config.Index.VectorDim = 1536
	}
	if config.Index.TableName == "" {
		config.Index.TableName = "lease_chunks"
	}

	if config.Database.Driver == "" {
		config.Database.Driver = "postgres"
	}
	if config.Database.TableName == "" {
		config.Database.TableName = "leases"
	}

	if config.Processor.Strategy == "" {
		config.Processor.Strategy = "boundary"
	}
	if config.Processor.ChunkSize == 0 {
		config.Processor.ChunkSize = 2400
	}

	if config.Extraction.Concurrency == 0 {
		config.Extraction.Concurrency = 1
	}
	if config.Extraction.QueryTimeout == 0 {
		config.Extraction.QueryTimeout = 60 * time.Second
	}
	if config.Extraction.AnswerStyle == "" {
		config.Extraction.AnswerStyle = "Provide the answer or value only as a concise response."
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
}

func mergeWithEnv(config *Config) {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if host := os.Getenv("PINECONE_HOST"); host != "" {
		config.Index.Host = host
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Addr = ":" + port
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}
