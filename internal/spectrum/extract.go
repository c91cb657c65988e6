package spectrum

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/cmplx"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/roach88/spectra/internal/matrix"
)

// noiseFloor is the relative gap below which adjacent raw eigenvalues are
// treated as numerically identical rather than ambiguous.
const noiseFloor = 1e-12

// Options configures an Extractor.
type Options struct {
	// Precision is the number of decimals kept. Zero means DefaultPrecision;
	// negative values are rejected.
	Precision int
	// Timeout bounds a single solver call. Zero disables the bound.
	Timeout time.Duration
	// Logger receives ambiguity warnings. Nil means slog.Default().
	Logger *slog.Logger
}

// Extractor computes spectra. It is safe for concurrent use.
type Extractor struct {
	precision int
	timeout   time.Duration
	logger    *slog.Logger
}

// NewExtractor returns an Extractor with defaults applied to opts.
func NewExtractor(opts Options) (*Extractor, error) {
	if opts.Precision == 0 {
		opts.Precision = DefaultPrecision
	}
	if err := CheckPrecision(opts.Precision); err != nil {
		return nil, fmt.Errorf("spectrum: %w", err)
	}
	if opts.Timeout < 0 {
		return nil, fmt.Errorf("spectrum: negative timeout %s", opts.Timeout)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Extractor{
		precision: opts.Precision,
		timeout:   opts.Timeout,
		logger:    opts.Logger,
	}, nil
}

// Precision returns the rounding precision in decimals.
func (x *Extractor) Precision() int { return x.precision }

// solution is what the solver goroutine hands back.
type solution struct {
	real    []float64
	complex []complex128
	ok      bool
	panic   any
}

// Extract computes the rounded spectrum of m.
//
// A 0×0 matrix yields an empty spectrum of the matching tag without calling
// the solver. Solver non-convergence, solver panics, timeouts and context
// cancellation are all reported as *EigensolverFailure.
func (x *Extractor) Extract(ctx context.Context, m matrix.Matrix) (Spectrum, error) {
	if m.Empty() {
		if m.Symmetric() {
			return Real([]float64{}), nil
		}
		return Complex([]complex128{}), nil
	}
	if err := ctx.Err(); err != nil {
		return Spectrum{}, &EigensolverFailure{Kind: m.Kind(), Dim: m.Dim(), Timeout: true, Message: "cancelled before solve", Err: err}
	}

	sol, err := x.solve(ctx, m)
	if err != nil {
		return Spectrum{}, err
	}

	if m.Symmetric() {
		raw := sol.real
		sort.Float64s(raw)
		ambiguous := x.countAmbiguousReal(raw)
		out := make([]float64, len(raw))
		for i, v := range raw {
			out[i] = Round(v, x.precision)
		}
		// Rounding is monotone, so ascending order survives.
		s := Real(out)
		s.Ambiguous = ambiguous
		x.reportAmbiguity(m, ambiguous)
		return s, nil
	}

	raw := sol.complex
	SortComplex(raw)
	ambiguous := x.countAmbiguousComplex(raw)
	out := make([]complex128, len(raw))
	for i, z := range raw {
		out[i] = RoundComplex(z, x.precision)
	}
	SortComplex(out)
	s := Complex(out)
	s.Ambiguous = ambiguous
	x.reportAmbiguity(m, ambiguous)
	return s, nil
}

func (x *Extractor) solve(ctx context.Context, m matrix.Matrix) (solution, error) {
	done := make(chan solution, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- solution{panic: r}
			}
		}()
		done <- factorize(m)
	}()

	var deadline <-chan time.Time
	if x.timeout > 0 {
		timer := time.NewTimer(x.timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case sol := <-done:
		if err := checkSolution(m, sol); err != nil {
			return solution{}, err
		}
		return sol, nil
	case <-deadline:
		// The solver goroutine is abandoned; its buffered send never blocks.
		return solution{}, &EigensolverFailure{
			Kind:    m.Kind(),
			Dim:     m.Dim(),
			Timeout: true,
			Message: fmt.Sprintf("solver exceeded %s", x.timeout),
		}
	case <-ctx.Done():
		return solution{}, &EigensolverFailure{
			Kind:    m.Kind(),
			Dim:     m.Dim(),
			Timeout: true,
			Message: "cancelled during solve",
			Err:     ctx.Err(),
		}
	}
}

// checkSolution rejects solver output that cannot be rounded and stored:
// a recovered panic, non-convergence, or a NaN or infinite eigenvalue.
func checkSolution(m matrix.Matrix, sol solution) error {
	fail := func(msg string) error {
		return &EigensolverFailure{Kind: m.Kind(), Dim: m.Dim(), Message: msg}
	}
	switch {
	case sol.panic != nil:
		return fail(fmt.Sprintf("solver panic: %v", sol.panic))
	case !sol.ok:
		return fail("factorization did not converge")
	}
	for _, v := range sol.real {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fail(fmt.Sprintf("non-finite eigenvalue %v", v))
		}
	}
	for _, z := range sol.complex {
		if cmplx.IsNaN(z) || cmplx.IsInf(z) {
			return fail(fmt.Sprintf("non-finite eigenvalue %v", z))
		}
	}
	return nil
}

func factorize(m matrix.Matrix) solution {
	if sym := m.Sym(); sym != nil {
		var es mat.EigenSym
		if ok := es.Factorize(sym, false); !ok {
			return solution{}
		}
		return solution{real: es.Values(nil), ok: true}
	}
	var eg mat.Eigen
	if ok := eg.Factorize(m.Dense(), mat.EigenNone); !ok {
		return solution{}
	}
	return solution{complex: eg.Values(nil), ok: true}
}

func (x *Extractor) unit() float64 { return math.Pow10(-x.precision) }

func (x *Extractor) countAmbiguousReal(raw []float64) int {
	scale := 1.0
	for _, v := range raw {
		scale = math.Max(scale, math.Abs(v))
	}
	floor, unit := noiseFloor*scale, x.unit()
	n := 0
	for i := 1; i < len(raw); i++ {
		if d := raw[i] - raw[i-1]; d > floor && d < unit {
			n++
		}
	}
	return n
}

func (x *Extractor) countAmbiguousComplex(raw []complex128) int {
	scale := 1.0
	for _, z := range raw {
		scale = math.Max(scale, math.Hypot(real(z), imag(z)))
	}
	floor, unit := noiseFloor*scale, x.unit()
	n := 0
	for i := 1; i < len(raw); i++ {
		d := raw[i] - raw[i-1]
		if gap := math.Hypot(real(d), imag(d)); gap > floor && gap < unit {
			n++
		}
	}
	return n
}

func (x *Extractor) reportAmbiguity(m matrix.Matrix, count int) {
	if count == 0 {
		return
	}
	x.logger.Warn("eigenvalues closer than rounding unit",
		"kind", m.Kind().String(),
		"dim", m.Dim(),
		"pairs", count,
		"precision", x.precision)
}
