package extractor

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
	"github.com/xhad/brikmate/internal/errs"
)

const (
	MediaTypeText   = "text/plain"
	MediaTypePDF    = "application/pdf"
	MediaTypeBinary = "application/octet-stream"
)

type ExtractorConfig struct {
	PDFPassword   string
	PageSeparator string
}

// Extractor turns an uploaded file into plain text.
type Extractor struct {
	config ExtractorConfig
}

func NewWithConfig(config ExtractorConfig) *Extractor {
	if config.PageSeparator == "" {
		config.PageSeparator = "\n"
	}
	return &Extractor{config: config}
}

func New() *Extractor {
	return NewWithConfig(ExtractorConfig{})
}

// Supported reports whether mediaType can be extracted.
func Supported(mediaType string) bool {
	switch normalize(mediaType) {
	case MediaTypeText, MediaTypeBinary, "", MediaTypePDF:
		return true
	}
	return false
}

// Extract returns the text content of data. Plain text and untyped binaries
// are decoded verbatim; PDFs yield the text of every page in page order.
func (e *Extractor) Extract(ctx context.Context, data []byte, mediaType string) (string, error) {
	const op = "extractor.Extract"

	if !Supported(mediaType) {
		return "", errs.Ef(errs.UnsupportedFormat, op, "unsupported file type %q", mediaType)
	}
	if len(data) == 0 {
		return "", errs.E(errs.InvalidInput, op, errs.ErrEmptyDocument)
	}

	var (
		docs []schema.Document
		err  error
	)
	if normalize(mediaType) == MediaTypePDF {
		docs, err = e.loadPDF(ctx, data)
	} else {
		docs, err = documentloaders.NewText(bytes.NewReader(data)).Load(ctx)
	}
	if err != nil {
		return "", errs.E(errs.ExtractionFailed, op, err)
	}

	pages := make([]string, 0, len(docs))
	for _, doc := range docs {
		pages = append(pages, sanitizeUTF8(doc.PageContent))
	}
	text := strings.Join(pages, e.config.PageSeparator)

	if strings.TrimSpace(text) == "" {
		return "", errs.E(errs.ExtractionFailed, op, errs.ErrNoText)
	}
	return text, nil
}

func (e *Extractor) loadPDF(ctx context.Context, data []byte) (docs []schema.Document, err error) {
	// the pdf reader panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			docs, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	var opts []documentloaders.PDFOptions
	if e.config.PDFPassword != "" {
		opts = append(opts, documentloaders.WithPassword(e.config.PDFPassword))
	}

	loader := documentloaders.NewPDF(bytes.NewReader(data), int64(len(data)), opts...)
	docs, err = loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}
	return docs, nil
}

func normalize(mediaType string) string {
	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" {
		return ""
	}
	parsed, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return strings.ToLower(mediaType)
	}
	return parsed
}

func sanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}
