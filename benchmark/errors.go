package benchmark

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies harness failures so callers can branch without parsing messages.
type Kind int

const (
	// KindFatal is any failure outside the taxonomy, e.g. a report that cannot be written.
	KindFatal Kind = iota
	// KindDiscoveryAbsent means a configured directory does not exist.
	KindDiscoveryAbsent
	// KindModelLoad means the detector adapter could not instantiate a model.
	KindModelLoad
	// KindInference means the detector adapter failed on one image.
	KindInference
	// KindEmptyInput means there were no models or no images to benchmark.
	KindEmptyInput
)

func (k Kind) String() string {
	switch k {
	case KindDiscoveryAbsent:
		return "discovery absent"
	case KindModelLoad:
		return "model load failure"
	case KindInference:
		return "inference failure"
	case KindEmptyInput:
		return "empty input set"
	default:
		return "fatal"
	}
}

// Error is a tagged harness error.
type Error struct {
	Kind Kind
	// Op is the operation that failed, e.g. "discover", "load", "infer", "save".
	Op string
	// Path is the artifact or directory involved, if any.
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err carries a harness Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}

func newError(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}
