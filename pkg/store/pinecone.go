package store

import (
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/vectorstores"
	"github.com/tmc/langchaingo/vectorstores/pinecone"
)

type PineconeConfig struct {
	APIKey string
	Host   string // index host, e.g. brikmate-abc123.svc.us-east1-gcp.pinecone.io
}

// NewPinecone opens the remote index at config.Host. Namespaces are chosen
// per call with vectorstores.WithNameSpace.
func NewPinecone(config PineconeConfig, embedder embeddings.Embedder) (vectorstores.VectorStore, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("pinecone api key is required")
	}
	if config.Host == "" {
		return nil, fmt.Errorf("pinecone host is required")
	}
	if embedder == nil {
		return nil, ErrMissingEmbedder
	}

	store, err := pinecone.New(
		pinecone.WithHost(config.Host),
		pinecone.WithAPIKey(config.APIKey),
		pinecone.WithEmbedder(embedder),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to pinecone: %w", err)
	}
	return store, nil
}
