package errs

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind is the machine-readable category of a failure. It is what the HTTP
// boundary reports back to the caller.
type Kind string

const (
	Unknown              Kind = "Unknown"
	UnsupportedFormat    Kind = "UnsupportedFormat"
	InvalidInput         Kind = "InvalidInput"
	MissingCredentials   Kind = "MissingCredentials"
	ExtractionFailed     Kind = "ExtractionFailed"
	AuthenticationFailed Kind = "AuthenticationFailed"
	IndexUnavailable     Kind = "IndexUnavailable"
	ServiceUnavailable   Kind = "ServiceUnavailable"
	PersistenceFailed    Kind = "PersistenceFailed"
	NotFound             Kind = "NotFound"
	Canceled             Kind = "Canceled"
)

var (
	ErrEmptyDocument      = errors.New("document is empty")
	ErrNoText             = errors.New("document contains no extractable text")
	ErrMissingCredentials = errors.New("missing api credentials")
	ErrNotFound           = errors.New("not found")
)

// Error attaches a Kind and the failing operation to an underlying error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds an *Error. A nil err is allowed for failures that have no cause.
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Ef is E with a formatted cause.
func Ef(kind Kind, op, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the outermost Kind found in err's chain, or Unknown.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

var authMarkers = []string{
	"status code: 401",
	"status code: 403",
	"401 unauthorized",
	"403 forbidden",
	"invalid_api_key",
	"incorrect api key",
	"invalid api key",
	"unauthorized",
	"authentication",
}

// Classify maps an error returned by an external client (LLM, embeddings,
// vector index) to a Kind. Errors that already carry a Kind keep it.
// fallback is used for transport-level and otherwise unrecognised failures.
func Classify(err error, fallback Kind) Kind {
	if err == nil {
		return ""
	}
	if k := KindOf(err); k != Unknown {
		return k
	}
	if errors.Is(err, context.Canceled) {
		return Canceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fallback
	}
	msg := strings.ToLower(err.Error())
	for _, m := range authMarkers {
		if strings.Contains(msg, m) {
			return AuthenticationFailed
		}
	}
	return fallback
}

// Systemic reports whether a failure affects every remaining external call
// rather than a single one.
func Systemic(err error) bool {
	switch Classify(err, Unknown) {
	case AuthenticationFailed, Canceled:
		return true
	}
	return false
}
