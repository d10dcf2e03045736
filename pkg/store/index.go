package store

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
	"github.com/xhad/brikmate/internal/errs"
	"github.com/xhad/brikmate/internal/models"
	"github.com/xhad/brikmate/internal/types"
	"github.com/xhad/brikmate/pkg/llm"
)

const (
	BackendPinecone = "pinecone"
	BackendPgvector = "pgvector"
)

// Answerer answers a question from the documents a retriever returns.
type Answerer interface {
	Answer(ctx context.Context, question string, retriever schema.Retriever) (string, error)
}

// RetrievalIndex stores chunks in a vector store and answers questions
// with a retrieval QA chain restricted to one collection.
type RetrievalIndex struct {
	store    vectorstores.VectorStore
	answerer Answerer
	embedder embeddings.Embedder
	topK     int
}

var _ types.Index = (*RetrievalIndex)(nil)

func NewRetrievalIndex(store vectorstores.VectorStore, answerer Answerer, embedder embeddings.Embedder, topK int) *RetrievalIndex {
	if topK <= 0 {
		topK = 4
	}
	return &RetrievalIndex{
		store:    store,
		answerer: answerer,
		embedder: embedder,
		topK:     topK,
	}
}

func (ri *RetrievalIndex) options(collection string) []vectorstores.Option {
	opts := []vectorstores.Option{vectorstores.WithNameSpace(collection)}
	if ri.embedder != nil {
		opts = append(opts, vectorstores.WithEmbedder(ri.embedder))
	}
	return opts
}

// Index embeds chunks and stores them under collection.
func (ri *RetrievalIndex) Index(ctx context.Context, chunks []models.Chunk, collection string) error {
	const op = "store.Index"

	if len(chunks) == 0 {
		return errs.Ef(errs.InvalidInput, op, "no chunks to index")
	}

	docs := make([]schema.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = schema.Document{
			PageContent: c.Content,
			Metadata: map[string]any{
				"source": c.Source,
				"chunk":  c.Index,
			},
		}
	}

	if _, err := ri.store.AddDocuments(ctx, docs, ri.options(collection)...); err != nil {
		return errs.E(errs.Classify(err, errs.IndexUnavailable), op, err)
	}
	return nil
}

// Query retrieves the topK chunks of collection closest to question and
// returns the model's answer.
func (ri *RetrievalIndex) Query(ctx context.Context, question, collection string) (string, error) {
	const op = "store.Query"

	retriever := vectorstores.ToRetriever(ri.store, ri.topK, ri.options(collection)...)
	answer, err := ri.answerer.Answer(ctx, question, retriever)
	if err != nil {
		return "", errs.E(errs.Classify(err, errs.ServiceUnavailable), op, err)
	}
	return answer, nil
}

type FactoryConfig struct {
	Backend  string
	Host     string // pinecone index host
	TopK     int
	Chat     llm.ChatConfig
	Embedder llm.EmbedderConfig
}

// Factory opens a RetrievalIndex per request using the caller's keys.
type Factory struct {
	config FactoryConfig
	pg     vectorstores.VectorStore
}

var _ types.IndexFactory = (*Factory)(nil)

// NewFactory returns a factory for config.Backend. pg is the shared pgvector
// store and is only used by the pgvector backend.
func NewFactory(config FactoryConfig, pg vectorstores.VectorStore) (*Factory, error) {
	switch config.Backend {
	case "", BackendPinecone:
		config.Backend = BackendPinecone
		if config.Host == "" {
			return nil, fmt.Errorf("pinecone host is required")
		}
	case BackendPgvector:
		if pg == nil {
			return nil, fmt.Errorf("pgvector backend requires a vector store")
		}
	default:
		return nil, fmt.Errorf("unknown index backend %q", config.Backend)
	}
	return &Factory{config: config, pg: pg}, nil
}

func (f *Factory) Backend() string {
	return f.config.Backend
}

// CheckCredentials reports MissingCredentials when a key the backend needs
// is blank.
func (f *Factory) CheckCredentials(creds models.Credentials) error {
	const op = "store.CheckCredentials"

	if creds.OpenAIAPIKey == "" {
		return errs.E(errs.MissingCredentials, op, fmt.Errorf("openai api key: %w", errs.ErrMissingCredentials))
	}
	if f.config.Backend == BackendPinecone && creds.PineconeAPIKey == "" {
		return errs.E(errs.MissingCredentials, op, fmt.Errorf("pinecone api key: %w", errs.ErrMissingCredentials))
	}
	return nil
}

func (f *Factory) Open(ctx context.Context, creds models.Credentials) (types.Index, error) {
	const op = "store.Open"

	if err := f.CheckCredentials(creds); err != nil {
		return nil, err
	}

	chatConfig := f.config.Chat
	chatConfig.APIKey = creds.OpenAIAPIKey
	chat, err := llm.NewWithConfig(chatConfig)
	if err != nil {
		return nil, errs.E(errs.ServiceUnavailable, op, err)
	}

	embedderConfig := f.config.Embedder
	embedderConfig.APIKey = creds.OpenAIAPIKey
	embedder, err := llm.NewEmbedderWithConfig(embedderConfig)
	if err != nil {
		return nil, errs.E(errs.ServiceUnavailable, op, err)
	}

	vs := f.pg
	if f.config.Backend == BackendPinecone {
		vs, err = NewPinecone(PineconeConfig{APIKey: creds.PineconeAPIKey, Host: f.config.Host}, embedder)
		if err != nil {
			return nil, errs.E(errs.Classify(err, errs.IndexUnavailable), op, err)
		}
	}

	return NewRetrievalIndex(vs, chat, embedder, f.config.TopK), nil
}
