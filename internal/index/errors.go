package index

import (
	"errors"
	"fmt"

	"github.com/roach88/spectra/internal/fingerprint"
	"github.com/roach88/spectra/internal/matrix"
)

// ErrCodeInconsistency categorizes fingerprint groups whose members do not
// share a rounded spectrum.
const ErrCodeInconsistency = "INDEX_INCONSISTENCY"

// IndexInconsistency reports two graphs with equal fingerprints but
// different stored spectra: a digest collision or corrupted row. The
// granule that produced it is rolled back; other granules are unaffected.
type IndexInconsistency struct {
	N       int
	Kind    matrix.Kind
	Digest  fingerprint.Digest
	GraphA  int64
	GraphB  int64
	Message string
}

func (e *IndexInconsistency) Error() string {
	return fmt.Sprintf("%s: %s (n=%d, kind=%s, digest=%s, graphs=%d,%d)",
		ErrCodeInconsistency, e.Message, e.N, e.Kind, e.Digest, e.GraphA, e.GraphB)
}

// Code returns the error category.
func (e *IndexInconsistency) Code() string { return ErrCodeInconsistency }

// IsIndexInconsistency reports whether err wraps an IndexInconsistency.
func IsIndexInconsistency(err error) bool {
	var ie *IndexInconsistency
	return errors.As(err, &ie)
}
