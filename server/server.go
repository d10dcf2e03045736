package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xhad/brikmate/internal/types"
	"github.com/xhad/brikmate/pkg/ingest"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

type Config struct {
	Addr           string
	MaxUploadBytes int64
}

// Ingester runs one upload through the pipeline.
type Ingester interface {
	Ingest(ctx context.Context, req ingest.Request) (*ingest.Result, error)
}

type Server struct {
	config   Config
	ingester Ingester
	leases   types.LeaseStore
	hub      *Hub
	logger   *zap.Logger
	engine   *gin.Engine
}

func New(config Config, ingester Ingester, leases types.LeaseStore, logger *zap.Logger) (*Server, error) {
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = 10_000_000
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"formatTime": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:   config,
		ingester: ingester,
		leases:   leases,
		hub:      NewHub(logger),
		logger:   logger,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())
	engine.SetHTMLTemplate(tmpl)

	engine.GET("/", s.handleIndex)
	engine.GET("/leases", s.handleLeasesPage)
	engine.GET("/health", s.handleHealth)
	engine.GET("/ws", s.hub.handleWebSocket)

	api := engine.Group("/api")
	{
		api.POST("/ingest", s.handleIngest)
		api.GET("/leases", s.handleListLeases)
		api.GET("/leases/:id", s.handleGetLease)
		api.GET("/questions", s.handleQuestions)
	}

	s.engine = engine
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Hub() *Hub {
	return s.hub
}

// Run serves until ctx is done, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.config.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.logger.Info("server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}
