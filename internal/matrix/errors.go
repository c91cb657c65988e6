package matrix

import (
	"errors"
	"fmt"

	"github.com/roach88/spectra/internal/graph"
)

// ErrCodeConstruction categorizes malformed graph input.
const ErrCodeConstruction = "MATRIX_CONSTRUCTION"

// ConstructionError reports that a graph could not be turned into an
// operator matrix. It is isolated to one graph and never aborts a batch.
type ConstructionError struct {
	Kind     Kind
	Encoding string
	Message  string
	Err      error
}

func (e *ConstructionError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	switch {
	case e.Kind == 0:
		// Raised before any kind was chosen.
		return fmt.Sprintf("%s: %s (graph=%s)", ErrCodeConstruction, msg, e.Encoding)
	case e.Encoding != "":
		return fmt.Sprintf("%s: %s (graph=%s, kind=%s)", ErrCodeConstruction, msg, e.Encoding, e.Kind)
	}
	return fmt.Sprintf("%s: %s (kind=%s)", ErrCodeConstruction, msg, e.Kind)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// Code returns the error category.
func (e *ConstructionError) Code() string { return ErrCodeConstruction }

// NewConstructionError wraps a graph decoding failure for encoding. The
// error applies to every kind, so Kind is left zero.
func NewConstructionError(encoding string, err error) *ConstructionError {
	return &ConstructionError{Encoding: encoding, Message: "invalid graph input", Err: err}
}

// IsConstructionError reports whether err is a ConstructionError or a
// graph.MalformedError, both of which mean the input graph is unusable.
func IsConstructionError(err error) bool {
	var ce *ConstructionError
	if errors.As(err, &ce) {
		return true
	}
	return graph.IsMalformed(err)
}
