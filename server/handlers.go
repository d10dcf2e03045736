package server

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xhad/brikmate/internal/errs"
	"github.com/xhad/brikmate/internal/models"
	"github.com/xhad/brikmate/pkg/ingest"
	"go.uber.org/zap"
)

// StatusClientClosedRequest is reported when the caller went away mid-run.
const StatusClientClosedRequest = 499

func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.UnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case errs.InvalidInput, errs.MissingCredentials:
		return http.StatusBadRequest
	case errs.ExtractionFailed:
		return http.StatusUnprocessableEntity
	case errs.AuthenticationFailed:
		return http.StatusUnauthorized
	case errs.IndexUnavailable:
		return http.StatusBadGateway
	case errs.ServiceUnavailable:
		return http.StatusServiceUnavailable
	case errs.NotFound:
		return http.StatusNotFound
	case errs.Canceled:
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(code, message string) gin.H {
	return gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	kind := errs.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("kind", string(kind)), zap.Error(err))
	}
	c.JSON(status, errorBody(string(kind), err.Error()))
}

type ingestResponse struct {
	*models.Lease
	Warnings []ingest.FieldWarning `json:"warnings"`
}

// handleIngest serves POST /api/ingest.
func (s *Server) handleIngest(c *gin.Context) {
	const op = "server.Ingest"

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			c.JSON(http.StatusRequestEntityTooLarge,
				errorBody(string(errs.InvalidInput), "file exceeds the upload limit"))
			return
		}
		s.fail(c, errs.Ef(errs.InvalidInput, op, "file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		s.fail(c, errs.E(errs.InvalidInput, op, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(c, errs.E(errs.InvalidInput, op, err))
		return
	}

	session := c.PostForm("session")
	result, err := s.ingester.Ingest(c.Request.Context(), ingest.Request{
		Filename:  fileHeader.Filename,
		MediaType: fileHeader.Header.Get("Content-Type"),
		Data:      data,
		Credentials: models.Credentials{
			OpenAIAPIKey:   strings.TrimSpace(c.PostForm("openai-api-key")),
			PineconeAPIKey: strings.TrimSpace(c.PostForm("pinecone-api-key")),
		},
		OnProgress: s.hub.Reporter(session),
	})
	if err != nil {
		s.hub.Publish(session, Message{Type: "error", Content: err.Error(), Data: gin.H{"code": errs.KindOf(err)}})
		s.fail(c, err)
		return
	}

	warnings := result.Warnings
	if warnings == nil {
		warnings = []ingest.FieldWarning{}
	}
	c.JSON(http.StatusOK, ingestResponse{Lease: result.Lease, Warnings: warnings})
}

func (s *Server) handleListLeases(c *gin.Context) {
	leases, err := s.leases.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, leases)
}

func (s *Server) handleGetLease(c *gin.Context) {
	lease, err := s.leases.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lease)
}

type question struct {
	Field    string `json:"field"`
	Label    string `json:"label"`
	Question string `json:"question"`
}

func (s *Server) handleQuestions(c *gin.Context) {
	questions := make([]question, len(models.Fields))
	for i, f := range models.Fields {
		questions[i] = question{Field: f.Name, Label: f.Label, Question: f.Question}
	}
	c.JSON(http.StatusOK, gin.H{
		"version":   models.QuestionSetVersion,
		"questions": questions,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleIndex(c *gin.Context) {
	count, err := s.leases.Count(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Count":     count,
		"Questions": len(models.Fields),
		"MaxMB":     s.config.MaxUploadBytes / 1_000_000,
	})
}

type leaseRow struct {
	ID        string
	CreatedAt time.Time
	Cells     []string
}

func (s *Server) handleLeasesPage(c *gin.Context) {
	leases, err := s.leases.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	headers := make([]string, 0, len(models.TableColumns))
	for _, name := range models.TableColumns {
		f, _ := models.FieldByName(name)
		headers = append(headers, f.Label)
	}

	rows := make([]leaseRow, 0, len(leases))
	for i := range leases {
		row := leaseRow{ID: leases[i].ID, CreatedAt: leases[i].CreatedAt}
		for _, name := range models.TableColumns {
			row.Cells = append(row.Cells, leases[i].Get(name))
		}
		rows = append(rows, row)
	}

	c.HTML(http.StatusOK, "leases.html", gin.H{
		"Headers": headers,
		"Rows":    rows,
	})
}
