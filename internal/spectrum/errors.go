package spectrum

import (
	"errors"
	"fmt"

	"github.com/roach88/spectra/internal/matrix"
)

// ErrCodeEigensolver categorizes solver failures.
const ErrCodeEigensolver = "EIGENSOLVER_FAILURE"

// EigensolverFailure reports that no spectrum could be computed for a
// matrix. The graph's fingerprint for that kind stays absent and the
// surrounding batch continues.
type EigensolverFailure struct {
	Kind    matrix.Kind
	Dim     int
	Timeout bool
	Message string
	Err     error
}

func (e *EigensolverFailure) Error() string {
	return fmt.Sprintf("%s: %s (kind=%s, dim=%d)", ErrCodeEigensolver, e.Message, e.Kind, e.Dim)
}

func (e *EigensolverFailure) Unwrap() error { return e.Err }

// Code returns the error category.
func (e *EigensolverFailure) Code() string { return ErrCodeEigensolver }

// IsEigensolverFailure reports whether err wraps an EigensolverFailure.
func IsEigensolverFailure(err error) bool {
	var ef *EigensolverFailure
	return errors.As(err, &ef)
}

// IsTimeout reports whether err is an EigensolverFailure caused by the
// per-call deadline or context cancellation.
func IsTimeout(err error) bool {
	var ef *EigensolverFailure
	if errors.As(err, &ef) {
		return ef.Timeout
	}
	return false
}
