package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tmc/langchaingo/vectorstores"
	"github.com/xhad/brikmate/internal/types"
	"github.com/xhad/brikmate/pkg/config"
	"github.com/xhad/brikmate/pkg/extractor"
	"github.com/xhad/brikmate/pkg/ingest"
	"github.com/xhad/brikmate/pkg/leasedb"
	"github.com/xhad/brikmate/pkg/llm"
	"github.com/xhad/brikmate/pkg/processor"
	"github.com/xhad/brikmate/pkg/store"
	"go.uber.org/zap"
)

// App holds the components shared by the server and the CLI.
type App struct {
	Service *ingest.Service
	Leases  types.LeaseStore
	Indexes *store.Factory
}

// Build connects the lease store (and the pgvector table when that backend
// is selected) and assembles the ingestion pipeline from cfg.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	var (
		pool   *pgxpool.Pool
		leases types.LeaseStore
		err    error
	)

	switch cfg.Database.Driver {
	case leasedb.DriverPostgres:
		pool, err = leasedb.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		leases, err = leasedb.NewPostgres(ctx, pool, cfg.Database.TableName)
		if err != nil {
			pool.Close()
			return nil, err
		}
	case leasedb.DriverSQLite:
		leases, err = leasedb.NewSQLite(ctx, cfg.Database.URL, cfg.Database.TableName)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	var pg vectorstores.VectorStore
	if cfg.Index.Backend == store.BackendPgvector {
		if pool == nil {
			leases.Close()
			return nil, fmt.Errorf("pgvector backend requires a postgres database")
		}
		vs, err := store.NewWithConfig(ctx, pool, nil, store.VectorStoreConfig{
			TableName:   cfg.Index.TableName,
			VectorDim:   cfg.Index.VectorDim,
			SearchLimit: cfg.Index.TopK,
		})
		if err != nil {
			leases.Close()
			return nil, err
		}
		pg = vs
	}

	indexes, err := store.NewFactory(store.FactoryConfig{
		Backend: cfg.Index.Backend,
		Host:    cfg.Index.Host,
		TopK:    cfg.Index.TopK,
		Chat: llm.ChatConfig{
			Model:       cfg.LLM.Model,
			BaseURL:     cfg.LLM.BaseURL,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		},
		Embedder: llm.EmbedderConfig{
			Model:     cfg.LLM.EmbeddingModel,
			BaseURL:   cfg.LLM.BaseURL,
			BatchSize: cfg.LLM.EmbeddingBatchSize,
		},
	}, pg)
	if err != nil {
		leases.Close()
		return nil, err
	}

	chunker := processor.NewWithConfig(processor.ProcessorConfig{
		Strategy:     cfg.Processor.Strategy,
		ChunkSize:    cfg.Processor.ChunkSize,
		ChunkOverlap: cfg.Processor.ChunkOverlap,
	})

	orchestrator := ingest.NewOrchestrator(ingest.OrchestratorConfig{
		Concurrency:  cfg.Extraction.Concurrency,
		RateLimit:    cfg.Extraction.RateLimit,
		QueryTimeout: cfg.Extraction.QueryTimeout,
		AnswerStyle:  cfg.Extraction.AnswerStyle,
	}, logger)

	service := ingest.NewService(
		ingest.WithExtractor(extractor.New()),
		ingest.WithChunker(&chunker),
		ingest.WithIndexFactory(indexes),
		ingest.WithLeaseStore(leases),
		ingest.WithOrchestrator(orchestrator),
		ingest.WithLogger(logger),
	)

	logger.Info("pipeline ready",
		zap.String("database", cfg.Database.Driver),
		zap.String("index_backend", indexes.Backend()),
		zap.String("index", cfg.Index.Name),
		zap.String("model", cfg.LLM.Model),
		zap.Int("chunk_size", cfg.Processor.ChunkSize),
		zap.Int("chunk_overlap", cfg.Processor.ChunkOverlap))

	return &App{
		Service: service,
		Leases:  leases,
		Indexes: indexes,
	}, nil
}

func (a *App) Close() {
	a.Leases.Close()
}
