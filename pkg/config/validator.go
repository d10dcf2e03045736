package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.Server.MaxUploadBytes < 1 {
		errors = append(errors, ValidationError{
			Field:   "server.max_upload_bytes",
			Message: "max_upload_bytes must be positive",
		})
	}

	// Validate LLM config
	if c.LLM.BaseURL != "" {
		if u, err := url.Parse(c.LLM.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, ValidationError{
				Field:   "llm.base_url",
				Message: "invalid OpenAI base URL",
			})
		}
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 4096 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 4096",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if c.LLM.EmbeddingBatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.embedding_batch_size",
			Message: "embedding_batch_size must be positive",
		})
	}

	// Validate Index config
	switch c.Index.Backend {
	case "pinecone":
		if c.Index.Host == "" {
			errors = append(errors, ValidationError{
				Field:   "index.host",
				Message: "pinecone index host is required",
			})
		}
	case "pgvector":
		if c.Database.URL == "" || c.Database.Driver != "postgres" {
			errors = append(errors, ValidationError{
				Field:   "index.backend",
				Message: "pgvector backend requires a postgres database",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "index.backend",
			Message: fmt.Sprintf("unknown index backend: %s", c.Index.Backend),
		})
	}

	if c.Index.TopK < 1 {
		errors = append(errors, ValidationError{
			Field:   "index.top_k",
			Message: "top_k must be positive",
		})
	}

	if c.Index.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "index.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	// Validate Database config
	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "database URL is required",
			})
		} else if _, err := url.Parse(c.Database.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	case "sqlite":
		if c.Database.URL == "" {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "sqlite database path is required",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "database.driver",
			Message: fmt.Sprintf("unknown database driver: %s", c.Database.Driver),
		})
	}

	// Validate Processor config
	if c.Processor.Strategy != "boundary" && c.Processor.Strategy != "langchain" {
		errors = append(errors, ValidationError{
			Field:   "processor.strategy",
			Message: fmt.Sprintf("unknown chunking strategy: %s", c.Processor.Strategy),
		})
	}

	if c.Processor.ChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "processor.chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	if c.Processor.ChunkOverlap < 0 || c.Processor.ChunkOverlap >= c.Processor.ChunkSize {
		errors = append(errors, ValidationError{
			Field:   "processor.chunk_overlap",
			Message: "chunk_overlap must be non-negative and less than chunk_size",
		})
	}

	// Validate Extraction config
	if c.Extraction.Concurrency < 1 {
		errors = append(errors, ValidationError{
			Field:   "extraction.concurrency",
			Message: "concurrency must be positive",
		})
	}

	if c.Extraction.RateLimit < 0 {
		errors = append(errors, ValidationError{
			Field:   "extraction.rate_limit",
			Message: "rate_limit must not be negative",
		})
	}

	if c.Extraction.QueryTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "extraction.query_timeout",
			Message: "query_timeout must be positive",
		})
	}

	return errors
}
