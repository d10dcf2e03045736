package processor

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
	"github.com/xhad/brikmate/internal/errs"
	"github.com/xhad/brikmate/internal/models"
)

const (
	StrategyBoundary  = "boundary"
	StrategyLangchain = "langchain"

	DefaultChunkSize    = 2400
	DefaultChunkOverlap = 200
)

// DefaultSeparators are tried in order: paragraph, line, sentence, clause,
// word. A hard cut is the last resort.
var DefaultSeparators = []string{"\n\n", "\n", ". ", "! ", "? ", "; ", ", ", " "}

type ProcessorConfig struct {
	Strategy     string
	ChunkSize    int // in characters
	ChunkOverlap int // in characters
	Separators   []string
}

type Processor struct {
	config     ProcessorConfig
	separators [][]rune
}

// NewWithConfig fills unset values with the defaults. A zero ChunkOverlap is
// kept as is.
func NewWithConfig(config ProcessorConfig) Processor {
	if config.Strategy == "" {
		config.Strategy = StrategyBoundary
	}
	if config.ChunkSize == 0 {
		config.ChunkSize = DefaultChunkSize
	}
	if config.ChunkOverlap < 0 {
		config.ChunkOverlap = 0
	}
	if len(config.Separators) == 0 {
		config.Separators = DefaultSeparators
	}

	separators := make([][]rune, 0, len(config.Separators))
	for _, sep := range config.Separators {
		if sep != "" {
			separators = append(separators, []rune(sep))
		}
	}

	return Processor{
		config:     config,
		separators: separators,
	}
}

func New() Processor {
	return NewWithConfig(ProcessorConfig{ChunkOverlap: DefaultChunkOverlap})
}

func (p *Processor) Config() ProcessorConfig {
	return p.config
}

// Process splits a document into ordered chunks tagged with the document ID.
func (p *Processor) Process(doc models.Document) ([]models.Chunk, error) {
	parts, err := p.Split(doc.Content)
	if err != nil {
		return nil, err
	}

	chunks := make([]models.Chunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, models.Chunk{
			Source:  doc.ID,
			Index:   i,
			Content: part,
		})
	}
	return chunks, nil
}

// Split returns a non-empty, ordered list of chunks for text.
func (p *Processor) Split(text string) ([]string, error) {
	const op = "processor.Split"

	if p.config.ChunkSize < 1 {
		return nil, errs.Ef(errs.InvalidInput, op, "chunk size must be positive, got %d", p.config.ChunkSize)
	}
	if p.config.ChunkOverlap >= p.config.ChunkSize {
		return nil, errs.Ef(errs.InvalidInput, op, "chunk overlap %d must be less than chunk size %d",
			p.config.ChunkOverlap, p.config.ChunkSize)
	}
	if text == "" {
		return nil, errs.E(errs.InvalidInput, op, errs.ErrEmptyDocument)
	}

	switch p.config.Strategy {
	case StrategyBoundary:
		return p.splitIntoChunks([]rune(text)), nil
	case StrategyLangchain:
		chunks, err := p.splitWithLangchain(text)
		if err != nil {
			return nil, errs.E(errs.ExtractionFailed, op, err)
		}
		return chunks, nil
	default:
		return nil, errs.Ef(errs.InvalidInput, op, "unknown chunking strategy %q", p.config.Strategy)
	}
}

// splitIntoChunks cuts text so that every chunk ends on the best boundary
// available and the next chunk starts exactly ChunkOverlap characters before
// that cut. Dropping the first ChunkOverlap characters of every chunk after
// the first and concatenating reproduces text.
func (p *Processor) splitIntoChunks(text []rune) []string {
	var chunks []string

	start := 0
	for {
		if len(text)-start <= p.config.ChunkSize {
			chunks = append(chunks, string(text[start:]))
			return chunks
		}

		end := p.findBoundary(text, start, start+p.config.ChunkSize)
		chunks = append(chunks, string(text[start:end]))
		start = end - p.config.ChunkOverlap
	}
}

// findBoundary returns the cut position in (start, limit]. The cut must leave
// the chunk longer than the overlap so the next chunk makes progress, and a
// separator is only accepted in the second half of the window so chunks stay
// close to the configured size.
func (p *Processor) findBoundary(text []rune, start, limit int) int {
	minEnd := start + p.config.ChunkOverlap + 1
	if half := start + p.config.ChunkSize/2; half > minEnd {
		minEnd = half
	}

	for _, sep := range p.separators {
		for cut := limit; cut >= minEnd; cut-- {
			at := cut - len(sep)
			if at < start {
				break
			}
			if hasPrefixAt(text, at, sep) {
				return cut
			}
		}
	}

	return limit
}

func hasPrefixAt(text []rune, at int, sep []rune) bool {
	if at+len(sep) > len(text) {
		return false
	}
	for i, r := range sep {
		if text[at+i] != r {
			return false
		}
	}
	return true
}

func (p *Processor) splitWithLangchain(text string) ([]string, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(p.config.ChunkSize),
		textsplitter.WithChunkOverlap(p.config.ChunkOverlap),
		textsplitter.WithSeparators(append(append([]string{}, p.config.Separators...), "")),
	)

	parts, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}

	chunks := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			chunks = append(chunks, part)
		}
	}
	if len(chunks) == 0 {
		return nil, errs.ErrNoText
	}
	return chunks, nil
}
