// Package fingerprint hashes rounded spectra into short fixed-length keys.
//
// The canonical text of a real spectrum is its values in fixed-point
// notation joined with ","; a complex spectrum contributes only its
// non-negative-imaginary half, each value as "(re,im)". The digest is the
// lowercase hex SHA-256 of that text truncated to Length characters.
//
// Equal rounded spectra always produce equal digests. The reverse holds
// only up to hash collisions, which is why the indexer can re-verify.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/spectra/internal/spectrum"
)

const (
	// DefaultLength is the digest length in hex characters (64 bits).
	DefaultLength = 16

	// emptyText is hashed in place of the canonical text of an empty
	// spectrum, so "computed, no eigenvalues" has a stable non-blank key.
	emptyText = "empty"
)

// Digest is a truncated hex fingerprint.
type Digest string

// String returns the digest text.
func (d Digest) String() string { return string(d) }

// Options configures a Hasher.
type Options struct {
	// Precision must match the precision the spectra were rounded to.
	// Zero means spectrum.DefaultPrecision.
	Precision int
	// Length is the number of hex characters kept, 1..64.
	Length int
}

// Hasher computes fingerprints. The zero value is not usable; call New.
type Hasher struct {
	precision int
	length    int
}

// New returns a Hasher with defaults applied to opts.
func New(opts Options) (*Hasher, error) {
	if opts.Precision == 0 {
		opts.Precision = spectrum.DefaultPrecision
	}
	if err := spectrum.CheckPrecision(opts.Precision); err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}
	if opts.Length == 0 {
		opts.Length = DefaultLength
	}
	if opts.Length < 1 || opts.Length > sha256.Size*2 {
		return nil, fmt.Errorf("fingerprint: digest length %d out of range [1,%d]", opts.Length, sha256.Size*2)
	}
	return &Hasher{precision: opts.Precision, length: opts.Length}, nil
}

// Precision returns the decimals used in canonical text.
func (h *Hasher) Precision() int { return h.precision }

// Length returns the digest length in hex characters.
func (h *Hasher) Length() int { return h.length }

// Canonical returns the text that is hashed for s.
func (h *Hasher) Canonical(s spectrum.Spectrum) string {
	if s.Empty() {
		return emptyText
	}
	if s.IsComplex() {
		return spectrum.FormatComplex(s.Half(), h.precision)
	}
	return spectrum.FormatReal(s.Reals(), h.precision)
}

// Digest returns the truncated fingerprint of s.
func (h *Hasher) Digest(s spectrum.Spectrum) Digest {
	return Digest(h.Full(s)[:h.length])
}

// Full returns the untruncated 64-character digest of s.
func (h *Hasher) Full(s spectrum.Spectrum) string {
	sum := sha256.Sum256([]byte(h.Canonical(s)))
	return hex.EncodeToString(sum[:])
}

// Empty returns the sentinel digest shared by every empty spectrum.
func (h *Hasher) Empty() Digest {
	return h.Digest(spectrum.Real(nil))
}
