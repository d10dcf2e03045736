package llm_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
	"github.com/xhad/brikmate/pkg/llm"
)

// recordingModel answers every prompt with a fixed reply and keeps the
// prompts and call options it received.
type recordingModel struct {
	reply   string
	err     error
	prompts []string
	options llms.CallOptions
}

func (m *recordingModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, opt := range options {
		opt(&m.options)
	}
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.prompts = append(m.prompts, text.Text)
			}
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.reply}},
	}, nil
}

func (m *recordingModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

type staticRetriever []schema.Document

func (r staticRetriever) GetRelevantDocuments(context.Context, string) ([]schema.Document, error) {
	return r, nil
}

func TestNewWithConfig(t *testing.T) {
	engine, err := llm.NewWithConfig(llm.ChatConfig{
		APIKey:  "sk-test",
		BaseURL: "http://localhost:1234/v1",
	})
	assert.NoError(t, err)
	assert.NotNil(t, engine)

	_, err = llm.NewWithConfig(llm.ChatConfig{})
	assert.Error(t, err, "api key is required")

	_, err = llm.NewWithConfig(llm.ChatConfig{APIKey: "sk-test", Temperature: 3})
	assert.Error(t, err)

	_, err = llm.NewWithConfig(llm.ChatConfig{APIKey: "sk-test", MaxTokens: -1})
	assert.Error(t, err)
}

func TestAnswer(t *testing.T) {
	model := &recordingModel{reply: "  Jane Doe\n"}
	engine, err := llm.NewWithModel(llm.ChatConfig{Temperature: 0, MaxTokens: 64}, model)
	require.NoError(t, err)

	retriever := staticRetriever{
		{PageContent: "Tenant: Jane Doe, 555-1234."},
		{PageContent: "Landlord: Acme Corp, acme@example.com."},
	}

	answer, err := engine.Answer(context.Background(), "What is the tenant's name?", retriever)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", answer)

	require.Len(t, model.prompts, 1)
	prompt := model.prompts[0]
	assert.Contains(t, prompt, "What is the tenant's name?")
	assert.Contains(t, prompt, "Tenant: Jane Doe, 555-1234.")
	assert.Contains(t, prompt, "Landlord: Acme Corp")
	assert.Less(t, strings.Index(prompt, "Tenant:"), strings.Index(prompt, "Landlord:"))

	assert.Equal(t, 0.0, model.options.Temperature)
	assert.Equal(t, 64, model.options.MaxTokens)
}

func TestAnswerError(t *testing.T) {
	model := &recordingModel{err: errors.New("API returned unexpected status code: 401: Incorrect API key provided")}
	engine, err := llm.NewWithModel(llm.ChatConfig{}, model)
	require.NoError(t, err)

	_, err = engine.Answer(context.Background(), "question", staticRetriever{{PageContent: "text"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.ErrorIs(t, err, model.err)
}
