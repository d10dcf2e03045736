package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// ChatConfig represents the configuration for a chat engine.
type ChatConfig struct {
	APIKey      string
	Model       string
	BaseURL     string // empty means api.openai.com
	Temperature float64
	MaxTokens   int
	HTTPClient  *http.Client
}

// ChatEngine answers questions over retrieved lease chunks.
type ChatEngine struct {
	config ChatConfig
	llm    llms.Model
}

func applyChatDefaults(config *ChatConfig) error {
	if config.Model == "" {
		config.Model = "gpt-3.5-turbo"
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if config.MaxTokens < 0 {
		return fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 256
	}
	return nil
}

// NewWithConfig creates a ChatEngine backed by the OpenAI chat API.
func NewWithConfig(config ChatConfig) (*ChatEngine, error) {
	if err := applyChatDefaults(&config); err != nil {
		return nil, err
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	opts := []openai.Option{
		openai.WithToken(config.APIKey),
		openai.WithModel(config.Model),
	}
	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}
	if config.HTTPClient != nil {
		opts = append(opts, openai.WithHTTPClient(config.HTTPClient))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &ChatEngine{
		config: config,
		llm:    llm,
	}, nil
}

// NewWithModel wraps an already constructed model.
func NewWithModel(config ChatConfig, model llms.Model) (*ChatEngine, error) {
	if err := applyChatDefaults(&config); err != nil {
		return nil, err
	}
	return &ChatEngine{config: config, llm: model}, nil
}

// Answer runs a retrieval QA chain: the retriever supplies the context
// documents, the model answers the question from them alone.
func (ce *ChatEngine) Answer(ctx context.Context, question string, retriever schema.Retriever) (string, error) {
	chain := chains.NewRetrievalQAFromLLM(ce.llm, retriever)

	answer, err := chains.Run(ctx, chain, question,
		chains.WithTemperature(ce.config.Temperature),
		chains.WithMaxTokens(ce.config.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("chat error: %w", err)
	}

	return strings.TrimSpace(answer), nil
}
