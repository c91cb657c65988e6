// Package spectrum computes the rounded, canonically ordered eigenvalue
// multiset of an operator matrix.
//
// A Spectrum is either real (symmetric kinds, ascending) or complex
// (non-backtracking kinds, sorted by real then imaginary part). Complex
// spectra keep the full sequence, both members of every conjugate pair.
// Rounding to a fixed number of decimals is the only tolerance applied
// anywhere: two spectra are equal iff their rounded sequences are
// bit-identical.
package spectrum

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// DefaultPrecision is the number of decimals eigenvalues are rounded to.
const DefaultPrecision = 8

// MaxPrecision is the largest precision a float64 eigenvalue can honour.
const MaxPrecision = 15

// CheckPrecision reports an error unless p is in [1, MaxPrecision].
func CheckPrecision(p int) error {
	if p < 1 || p > MaxPrecision {
		return fmt.Errorf("precision %d out of range [1,%d]", p, MaxPrecision)
	}
	return nil
}

// Spectrum is a rounded eigenvalue sequence. The zero value is an empty
// real spectrum.
type Spectrum struct {
	real    []float64
	complex []complex128
	isCmplx bool

	// Ambiguous counts adjacent eigenvalues that were closer than the
	// rounding unit but farther apart than solver noise when extracted.
	// Informational only.
	Ambiguous int
}

// Real builds a real spectrum from already rounded, ascending values.
func Real(values []float64) Spectrum {
	return Spectrum{real: values}
}

// Complex builds a complex spectrum from already rounded values sorted by
// (re, im).
func Complex(values []complex128) Spectrum {
	return Spectrum{complex: values, isCmplx: true}
}

// IsComplex reports whether s came from a non-symmetric operator.
func (s Spectrum) IsComplex() bool { return s.isCmplx }

// Len returns the number of eigenvalues (with multiplicity).
func (s Spectrum) Len() int {
	if s.isCmplx {
		return len(s.complex)
	}
	return len(s.real)
}

// Empty reports whether the spectrum has no eigenvalues.
func (s Spectrum) Empty() bool { return s.Len() == 0 }

// Reals returns the real values, or nil for complex spectra.
func (s Spectrum) Reals() []float64 { return s.real }

// Complexes returns the complex values, or nil for real spectra.
func (s Spectrum) Complexes() []complex128 { return s.complex }

// Half returns the eigenvalues with non-negative imaginary part: every real
// eigenvalue plus one representative per conjugate pair. Used for hashing.
func (s Spectrum) Half() []complex128 {
	if !s.isCmplx {
		return nil
	}
	out := make([]complex128, 0, (len(s.complex)+1)/2)
	for _, z := range s.complex {
		if imag(z) >= 0 {
			out = append(out, z)
		}
	}
	return out
}

// Equal reports bit-identical rounded sequences of the same tag.
func (s Spectrum) Equal(o Spectrum) bool {
	if s.isCmplx != o.isCmplx || s.Len() != o.Len() {
		return false
	}
	if s.isCmplx {
		for i := range s.complex {
			if s.complex[i] != o.complex[i] {
				return false
			}
		}
		return true
	}
	for i := range s.real {
		if s.real[i] != o.real[i] {
			return false
		}
	}
	return true
}

// ConjugateClosed reports whether every non-real eigenvalue's conjugate
// occurs with the same multiplicity.
func (s Spectrum) ConjugateClosed() bool {
	if !s.isCmplx {
		return true
	}
	counts := make(map[complex128]int, len(s.complex))
	for _, z := range s.complex {
		counts[z]++
	}
	for z, c := range counts {
		if imag(z) != 0 && counts[complex(real(z), -imag(z))] != c {
			return false
		}
	}
	return true
}

// Format renders the full sequence with the given number of decimals:
// "v1,v2,..." for real spectra and "(re,im),(re,im),..." for complex ones.
func (s Spectrum) Format(precision int) string {
	if s.isCmplx {
		return FormatComplex(s.complex, precision)
	}
	return FormatReal(s.real, precision)
}

// FormatReal joins values with "," using fixed-point notation.
func FormatReal(values []float64, precision int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', precision, 64)
	}
	return strings.Join(parts, ",")
}

// FormatComplex joins values as "(re,im)" pairs with ",".
func FormatComplex(values []complex128, precision int) string {
	parts := make([]string, len(values))
	for i, z := range values {
		parts[i] = "(" + strconv.FormatFloat(real(z), 'f', precision, 64) +
			"," + strconv.FormatFloat(imag(z), 'f', precision, 64) + ")"
	}
	return strings.Join(parts, ",")
}

// Round rounds x to the given number of decimals. Results that round to
// zero are returned as +0.
func Round(x float64, precision int) float64 {
	scale := math.Pow10(precision)
	r := math.Round(x*scale) / scale
	if r == 0 {
		return 0
	}
	return r
}

// RoundComplex rounds the real and imaginary parts independently.
func RoundComplex(z complex128, precision int) complex128 {
	return complex(Round(real(z), precision), Round(imag(z), precision))
}

// SortComplex orders values by real part, then imaginary part.
func SortComplex(values []complex128) {
	sort.Slice(values, func(i, j int) bool {
		return lessComplex(values[i], values[j])
	})
}

func lessComplex(a, b complex128) bool {
	if real(a) != real(b) {
		return real(a) < real(b)
	}
	return imag(a) < imag(b)
}
