package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spectra/internal/spectrum"
)

func newHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := New(Options{})
	require.NoError(t, err)
	return h
}

func TestNew_Defaults(t *testing.T) {
	h := newHasher(t)
	assert.Equal(t, spectrum.DefaultPrecision, h.Precision())
	assert.Equal(t, DefaultLength, h.Length())
}

func TestNew_RejectsLength(t *testing.T) {
	_, err := New(Options{Length: 65})
	assert.Error(t, err)
	_, err = New(Options{Length: -1})
	assert.Error(t, err)

	h, err := New(Options{Length: 64})
	require.NoError(t, err)
	assert.Len(t, h.Digest(spectrum.Real([]float64{1})), 64)
}

func TestNew_Precision(t *testing.T) {
	for _, p := range []int{-1, -8, spectrum.MaxPrecision + 1} {
		_, err := New(Options{Precision: p})
		assert.Error(t, err, "precision %d", p)
	}
	h, err := New(Options{Precision: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, h.Precision())
}

func TestDigest_KnownValues(t *testing.T) {
	h := newHasher(t)

	// sha256("0.00000000,1.00000000,2.00000000")
	p3 := spectrum.Real([]float64{0, 1, 2})
	assert.Equal(t, "0.00000000,1.00000000,2.00000000", h.Canonical(p3))
	assert.Equal(t, Digest("8ae32f7c2962a5ca"), h.Digest(p3))
	assert.Equal(t, "8ae32f7c2962a5caad5aa71355d66a7a9556cecbdd76e97c11372507d20ad368", h.Full(p3))

	// sha256("-2.00000000,0.00000000,0.00000000,0.00000000,2.00000000")
	saltire := spectrum.Real([]float64{-2, 0, 0, 0, 2})
	assert.Equal(t, Digest("901a10d302b8b3de"), h.Digest(saltire))
}

func TestDigest_EmptySentinel(t *testing.T) {
	h := newHasher(t)

	// sha256("empty")
	want := Digest("2e1cfa82b035c26c")
	assert.Equal(t, want, h.Empty())
	assert.Equal(t, want, h.Digest(spectrum.Complex([]complex128{})))
	assert.Equal(t, want, h.Digest(spectrum.Real([]float64{})))
	assert.NotEqual(t, Digest(""), h.Empty())
}

func TestDigest_ComplexUsesHalfSpectrum(t *testing.T) {
	h := newHasher(t)
	s := spectrum.Complex([]complex128{
		complex(-0.5, -0.8660254),
		complex(-0.5, 0.8660254),
		complex(1, 0),
	})
	assert.Equal(t, "(-0.50000000,0.86602540),(1.00000000,0.00000000)", h.Canonical(s))

	// Same half, different lower half: same canonical text.
	other := spectrum.Complex([]complex128{complex(-0.5, 0.8660254), complex(1, 0)})
	assert.Equal(t, h.Digest(s), h.Digest(other))
}

func TestDigest_RealAndComplexDiffer(t *testing.T) {
	h := newHasher(t)
	r := spectrum.Real([]float64{1})
	c := spectrum.Complex([]complex128{1})
	assert.NotEqual(t, h.Digest(r), h.Digest(c))
}

func TestDigest_PrecisionSensitive(t *testing.T) {
	h := newHasher(t)
	a := spectrum.Real([]float64{0.12345678})
	b := spectrum.Real([]float64{0.12345679})
	assert.NotEqual(t, h.Digest(a), h.Digest(b))
}

func TestDigest_DistinctSpectraDistinctDigests(t *testing.T) {
	h := newHasher(t)
	seen := make(map[Digest]string, 20000)
	for i := 0; i < 10000; i++ {
		for _, s := range []spectrum.Spectrum{
			spectrum.Real([]float64{float64(i) * 1e-8, 1}),
			spectrum.Real([]float64{-1, float64(i) / 7}),
		} {
			text := h.Canonical(s)
			d := h.Digest(s)
			if prev, ok := seen[d]; ok {
				require.Equal(t, prev, text, "collision on %s", d)
				continue
			}
			seen[d] = text
		}
	}
	assert.GreaterOrEqual(t, len(seen), 10000)
}
