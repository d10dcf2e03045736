package ingest

import (
	"time"

	"github.com/xhad/brikmate/internal/errs"
	"github.com/xhad/brikmate/internal/models"
)

// FieldWarning describes a field left empty because its question failed.
type FieldWarning struct {
	Field   string    `json:"field"`
	Label   string    `json:"label"`
	Kind    errs.Kind `json:"kind"`
	Message string    `json:"message"`
}

// BuildLease maps answers onto a Lease in field table order. Fields without
// an answer stay empty and get a warning.
func BuildLease(ext *Extraction, id, filename string, createdAt time.Time) (*models.Lease, []FieldWarning) {
	lease := &models.Lease{
		ID:                 id,
		CreatedAt:          createdAt,
		QuestionSetVersion: models.QuestionSetVersion,
		SourceFilename:     filename,
	}

	var warnings []FieldWarning
	for _, f := range models.Fields {
		if answer, ok := ext.Answers[f.Name]; ok {
			*f.Value(lease) = answer
			continue
		}

		w := FieldWarning{Field: f.Name, Label: f.Label, Kind: errs.ServiceUnavailable, Message: "no answer"}
		if err, ok := ext.Failures[f.Name]; ok {
			w.Kind = errs.Classify(err, errs.ServiceUnavailable)
			w.Message = err.Error()
		}
		warnings = append(warnings, w)
	}

	return lease, warnings
}
