package types

import (
	"context"

	"github.com/xhad/brikmate/internal/models"
)

// Core interfaces
type Extractor interface {
	Extract(ctx context.Context, data []byte, mediaType string) (string, error)
}

type Chunker interface {
	Process(doc models.Document) ([]models.Chunk, error)
}

// Index is the boundary to the hosted embedding, vector and LLM services.
// A collection is the namespace one document's chunks are stored under.
type Index interface {
	Index(ctx context.Context, chunks []models.Chunk, collection string) error
	Query(ctx context.Context, question, collection string) (string, error)
}

// IndexFactory opens an Index bound to the caller's credentials.
type IndexFactory interface {
	CheckCredentials(creds models.Credentials) error
	Open(ctx context.Context, creds models.Credentials) (Index, error)
}

// QueryFunc answers a single question against a collection.
type QueryFunc func(ctx context.Context, question, collection string) (string, error)

type LeaseStore interface {
	Create(ctx context.Context, lease *models.Lease) error
	Get(ctx context.Context, id string) (*models.Lease, error)
	List(ctx context.Context) ([]models.Lease, error)
	Count(ctx context.Context) (int, error)
	Close()
}
