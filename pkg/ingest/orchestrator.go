package ingest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/xhad/brikmate/internal/errs"
	"github.com/xhad/brikmate/internal/models"
	"github.com/xhad/brikmate/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const DefaultAnswerStyle = "Provide the answer or value only as a concise response."

type OrchestratorConfig struct {
	Concurrency  int           // questions in flight at once
	RateLimit    float64       // questions per second, 0 means unlimited
	QueryTimeout time.Duration // per question
	AnswerStyle  string        // appended to every question
	Fields       []models.Field
}

// Orchestrator asks every question of the field table against one
// collection and gathers the answers.
type Orchestrator struct {
	config  OrchestratorConfig
	limiter *rate.Limiter
	logger  *zap.Logger
}

// FieldEvent reports the outcome of one question.
type FieldEvent struct {
	Field    string `json:"field"`
	Label    string `json:"label"`
	Position int    `json:"position"` // 1-based count of finished questions
	Total    int    `json:"total"`
	Answer   string `json:"answer,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Extraction holds the answers keyed by field name. A field that failed has
// an entry in Failures and none in Answers.
type Extraction struct {
	Answers  map[string]string
	Failures map[string]error
}

func NewOrchestrator(config OrchestratorConfig, logger *zap.Logger) *Orchestrator {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if config.QueryTimeout <= 0 {
		config.QueryTimeout = 60 * time.Second
	}
	if config.AnswerStyle == "" {
		config.AnswerStyle = DefaultAnswerStyle
	}
	if config.Fields == nil {
		config.Fields = models.Fields
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}

	return &Orchestrator{
		config:  config,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// Prompt is the text sent for field f.
func (o *Orchestrator) Prompt(f models.Field) string {
	return f.Question + " " + o.config.AnswerStyle
}

// Run asks every question. A question that fails on its own leaves its
// field empty; authentication failures and cancellation stop the run and
// no further questions are sent. If every question fails the run fails with
// ServiceUnavailable.
func (o *Orchestrator) Run(ctx context.Context, query types.QueryFunc, collection string, onEvent func(FieldEvent)) (*Extraction, error) {
	const op = "ingest.Run"

	fields := o.config.Fields
	ext := &Extraction{
		Answers:  make(map[string]string, len(fields)),
		Failures: make(map[string]error),
	}
	if len(fields) == 0 {
		return ext, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.config.Concurrency)

	var (
		mu       sync.Mutex
		finished int
	)

	for _, f := range fields {
		if gctx.Err() != nil {
			break
		}
		f := f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := o.limiter.Wait(gctx); err != nil {
				return err
			}

			start := time.Now()
			answer, err := o.ask(gctx, query, f, collection)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if errs.Systemic(err) {
					return err
				}
			}

			mu.Lock()
			defer mu.Unlock()
			finished++
			event := FieldEvent{
				Field:    f.Name,
				Label:    f.Label,
				Position: finished,
				Total:    len(fields),
			}
			if err != nil {
				ext.Failures[f.Name] = err
				event.Error = err.Error()
				o.logger.Warn("question failed",
					zap.String("field", f.Name),
					zap.Duration("elapsed", time.Since(start)),
					zap.Error(err))
			} else {
				ext.Answers[f.Name] = answer
				event.Answer = answer
				o.logger.Debug("question answered",
					zap.String("field", f.Name),
					zap.Duration("elapsed", time.Since(start)))
			}
			if onEvent != nil {
				onEvent(event)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		kind := errs.Classify(err, errs.ServiceUnavailable)
		if kind != errs.AuthenticationFailed && kind != errs.Canceled {
			kind = errs.Canceled
		}
		return nil, errs.E(kind, op, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.E(errs.Canceled, op, err)
	}

	if len(ext.Answers) == 0 {
		for _, f := range fields {
			if err, ok := ext.Failures[f.Name]; ok {
				return nil, errs.E(errs.ServiceUnavailable, op, err)
			}
		}
	}

	return ext, nil
}

func (o *Orchestrator) ask(ctx context.Context, query types.QueryFunc, f models.Field, collection string) (string, error) {
	qctx, cancel := context.WithTimeout(ctx, o.config.QueryTimeout)
	defer cancel()

	answer, err := query(qctx, o.Prompt(f), collection)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}
