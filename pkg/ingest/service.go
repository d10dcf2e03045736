package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/xhad/brikmate/internal/errs"
	"github.com/xhad/brikmate/internal/models"
	"github.com/xhad/brikmate/internal/types"
	"go.uber.org/zap"
)

// Stages reported through Request.OnProgress.
const (
	StageExtracting = "extracting"
	StageChunking   = "chunking"
	StageIndexing   = "indexing"
	StageQuerying   = "querying"
	StageSaving     = "saving"
	StageDone       = "done"
)

// Event is a progress notification for one ingestion.
type Event struct {
	Stage   string      `json:"stage"`
	Message string      `json:"message"`
	Field   *FieldEvent `json:"field,omitempty"`
}

type Request struct {
	Filename    string
	MediaType   string
	Data        []byte
	Credentials models.Credentials
	OnProgress  func(Event)
}

type Result struct {
	Lease    *models.Lease
	Warnings []FieldWarning
}

// Service runs the whole pipeline for one uploaded document.
type Service struct {
	extractor    types.Extractor
	chunker      types.Chunker
	indexes      types.IndexFactory
	leases       types.LeaseStore
	orchestrator *Orchestrator
	logger       *zap.Logger
	now          func() time.Time
	newID        func() string
}

type Option func(*Service)

func WithExtractor(e types.Extractor) Option {
	return func(s *Service) { s.extractor = e }
}

func WithChunker(c types.Chunker) Option {
	return func(s *Service) { s.chunker = c }
}

func WithIndexFactory(f types.IndexFactory) Option {
	return func(s *Service) { s.indexes = f }
}

func WithLeaseStore(l types.LeaseStore) Option {
	return func(s *Service) { s.leases = l }
}

func WithOrchestrator(o *Orchestrator) Option {
	return func(s *Service) { s.orchestrator = o }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

func NewService(opts ...Option) *Service {
	s := &Service{
		logger: zap.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.orchestrator == nil {
		s.orchestrator = NewOrchestrator(OrchestratorConfig{}, s.logger)
	}
	return s
}

// Ingest extracts, indexes and interrogates one document and stores the
// resulting lease. Format and credential problems are reported before any
// external service is called. Nothing is stored when the run fails.
func (s *Service) Ingest(ctx context.Context, req Request) (*Result, error) {
	const op = "ingest.Ingest"

	progress := func(stage, msg string, field *FieldEvent) {
		if req.OnProgress != nil {
			req.OnProgress(Event{Stage: stage, Message: msg, Field: field})
		}
	}

	logger := s.logger.With(zap.String("filename", req.Filename))
	start := s.now()

	progress(StageExtracting, "extracting text", nil)
	text, err := s.extractor.Extract(ctx, req.Data, req.MediaType)
	if err != nil {
		logger.Info("extraction failed", zap.Error(err))
		return nil, err
	}

	if err := s.indexes.CheckCredentials(req.Credentials); err != nil {
		return nil, err
	}

	id := s.newID()
	logger = logger.With(zap.String("lease_id", id))

	progress(StageChunking, "splitting text", nil)
	chunks, err := s.chunker.Process(models.Document{
		ID:        id,
		Filename:  req.Filename,
		MediaType: req.MediaType,
		Content:   text,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("document chunked", zap.Int("characters", len([]rune(text))), zap.Int("chunks", len(chunks)))

	index, err := s.indexes.Open(ctx, req.Credentials)
	if err != nil {
		logger.Error("failed to open index", zap.Error(err))
		return nil, errs.E(errs.Classify(err, errs.IndexUnavailable), op, err)
	}

	progress(StageIndexing, "embedding and indexing chunks", nil)
	if err := index.Index(ctx, chunks, id); err != nil {
		logger.Error("failed to index chunks", zap.Error(err))
		return nil, errs.E(errs.Classify(err, errs.IndexUnavailable), op, err)
	}

	progress(StageQuerying, "asking questions", nil)
	ext, err := s.orchestrator.Run(ctx, index.Query, id, func(e FieldEvent) {
		progress(StageQuerying, e.Label, &e)
	})
	if err != nil {
		logger.Error("extraction aborted", zap.Error(err))
		return nil, err
	}

	lease, warnings := BuildLease(ext, id, req.Filename, s.now().UTC())

	progress(StageSaving, "saving lease", nil)
	if err := s.leases.Create(ctx, lease); err != nil {
		logger.Error("failed to save lease", zap.Error(err))
		return nil, errs.E(errs.PersistenceFailed, op, err)
	}

	logger.Info("lease ingested",
		zap.Int("answered", len(ext.Answers)),
		zap.Int("failed", len(warnings)),
		zap.Duration("elapsed", s.now().Sub(start)))
	progress(StageDone, "lease saved", nil)

	return &Result{Lease: lease, Warnings: warnings}, nil
}
