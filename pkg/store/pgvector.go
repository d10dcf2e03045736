package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

var (
	ErrMissingEmbedder  = errors.New("no embedder configured")
	ErrMissingNamespace = errors.New("namespace is required")
	ErrEmbeddingCount   = errors.New("number of vectors does not match number of documents")
)

type VectorStoreConfig struct {
	TableName   string
	VectorDim   int
	SearchLimit int
}

// VectorStore keeps chunk embeddings in a pgvector table. Every row belongs
// to a namespace and searches never cross namespaces.
type VectorStore struct {
	config   VectorStoreConfig
	pool     *pgxpool.Pool
	embedder embeddings.Embedder
}

var _ vectorstores.VectorStore = (*VectorStore)(nil)

func applyVectorStoreDefaults(config *VectorStoreConfig) {
	if config.TableName == "" {
		config.TableName = "lease_chunks"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 1536 // text-embedding-ada-002
	}
	if config.SearchLimit == 0 {
		config.SearchLimit = 4
	}
}

// NewWithConfig creates the table and indexes on pool if they do not exist.
// The embedder may be nil when every call supplies one through
// vectorstores.WithEmbedder.
func NewWithConfig(ctx context.Context, pool *pgxpool.Pool, embedder embeddings.Embedder, config VectorStoreConfig) (*VectorStore, error) {
	applyVectorStoreDefaults(&config)

	vs := &VectorStore{
		config:   config,
		pool:     pool,
		embedder: embedder,
	}

	if err := vs.initialize(ctx); err != nil {
		return nil, err
	}

	return vs, nil
}

func (vs *VectorStore) initialize(ctx context.Context) error {
	for _, stmt := range vs.schema() {
		if _, err := vs.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize vector table: %v", err)
		}
	}
	return nil
}

func (vs *VectorStore) schema() []string {
	table := vs.config.TableName
	return []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			namespace TEXT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d),
			metadata JSONB
		)`, table, vs.config.VectorDim),
		// Searches stay exact within a namespace. An ANN index on embedding
		// would be scanned before the namespace filter and lose rows.
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_namespace_idx ON %s (namespace)", table, table),
	}
}

func (vs *VectorStore) options(options []vectorstores.Option) (vectorstores.Options, embeddings.Embedder, error) {
	opts := vectorstores.Options{}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.NameSpace == "" {
		return opts, nil, ErrMissingNamespace
	}
	embedder := opts.Embedder
	if embedder == nil {
		embedder = vs.embedder
	}
	if embedder == nil {
		return opts, nil, ErrMissingEmbedder
	}
	return opts, embedder, nil
}

// AddDocuments embeds docs and inserts them into the namespace given by
// vectorstores.WithNameSpace in a single transaction.
func (vs *VectorStore) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	opts, embedder, err := vs.options(options)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}

	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, ErrEmbeddingCount
	}

	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, namespace, content, embedding, metadata)
		VALUES ($1, $2, $3, $4, $5)`,
		vs.config.TableName)

	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = uuid.NewString()
		_, err = tx.Exec(ctx, stmt,
			ids[i],
			opts.NameSpace,
			doc.PageContent,
			pgvector.NewVector(vectors[i]),
			doc.Metadata,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert chunk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return ids, nil
}

// SimilaritySearch returns the numDocuments chunks closest to query by
// cosine distance within the namespace.
func (vs *VectorStore) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	opts, embedder, err := vs.options(options)
	if err != nil {
		return nil, err
	}
	if numDocuments <= 0 {
		numDocuments = vs.config.SearchLimit
	}

	vector, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	stmt := fmt.Sprintf(`
		SELECT content, metadata, 1 - (embedding <=> $1) AS score
		FROM %s
		WHERE namespace = $2
		ORDER BY embedding <=> $1
		LIMIT $3`,
		vs.config.TableName)

	rows, err := vs.pool.Query(ctx, stmt, pgvector.NewVector(vector), opts.NameSpace, numDocuments)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var docs []schema.Document
	for rows.Next() {
		var (
			doc   schema.Document
			score float64
		)
		if err := rows.Scan(&doc.PageContent, &doc.Metadata, &score); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		doc.Score = float32(score)
		if opts.ScoreThreshold > 0 && doc.Score < opts.ScoreThreshold {
			continue
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}
