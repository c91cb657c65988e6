package matrix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/roach88/spectra/internal/graph"
	"github.com/roach88/spectra/internal/testutil"
)

func dense(m Matrix) [][]float64 {
	out := make([][]float64, m.Dim())
	for i := range out {
		out[i] = make([]float64, m.Dim())
		for j := range out[i] {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}

func sum(m Matrix) float64 {
	var s float64
	for i := 0; i < m.Dim(); i++ {
		for j := 0; j < m.Dim(); j++ {
			s += m.At(i, j)
		}
	}
	return s
}

func TestBuild_PathP3VertexOperators(t *testing.T) {
	g := testutil.MustGraph(t, testutil.PathP3)

	tests := []struct {
		kind Kind
		want [][]float64
	}{
		{Adjacency, [][]float64{{0, 1, 0}, {1, 0, 1}, {0, 1, 0}}},
		{KirchhoffLaplacian, [][]float64{{1, -1, 0}, {-1, 2, -1}, {0, -1, 1}}},
		{SignlessLaplacian, [][]float64{{1, 1, 0}, {1, 2, 1}, {0, 1, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			m, err := Build(g, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, 3, m.Dim())
			assert.True(t, m.Symmetric())
			assert.NotNil(t, m.Sym())
			assert.Nil(t, m.Dense())
			assert.Equal(t, tt.want, dense(m))
		})
	}
}

func TestBuild_NormalizedLaplacianP3(t *testing.T) {
	g := testutil.MustGraph(t, testutil.PathP3)
	m, err := Build(g, NormalizedLaplacian)
	require.NoError(t, err)

	r := 1 / math.Sqrt2
	want := mat.NewDense(3, 3, []float64{
		1, -r, 0,
		-r, 1, -r,
		0, -r, 1,
	})
	assert.True(t, mat.EqualApprox(want, m.Gonum(), 1e-12))
}

func TestBuild_NormalizedLaplacianIsolatedVertex(t *testing.T) {
	g := testutil.MustGraph(t, testutil.TriangleK1)
	m, err := Build(g, NormalizedLaplacian)
	require.NoError(t, err)

	// Vertex 3 is isolated: zero row and column, diagonal included.
	for i := 0; i < 4; i++ {
		assert.Equal(t, 0.0, m.At(3, i))
		assert.Equal(t, 0.0, m.At(i, 3))
	}
	assert.Equal(t, 1.0, m.At(0, 0))
	assert.InDelta(t, -0.5, m.At(0, 1), 1e-12)
}

func TestBuild_NormalizedLaplacianNoEdges(t *testing.T) {
	g := testutil.MustGraph(t, testutil.EmptyE5)
	m, err := Build(g, NormalizedLaplacian)
	require.NoError(t, err)
	assert.Equal(t, 5, m.Dim())
	assert.Equal(t, 0.0, sum(m))
}

func TestBuild_NonBacktrackingP3(t *testing.T) {
	g := testutil.MustGraph(t, testutil.PathP3)

	// Arc order: (0,1) (1,0) (1,2) (2,1).
	m, err := Build(g, NonBacktracking)
	require.NoError(t, err)
	assert.False(t, m.Symmetric())
	assert.NotNil(t, m.Dense())
	assert.Equal(t, [][]float64{
		{0, 0, 1, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 1, 0, 0},
	}, dense(m))

	l, err := Build(g, NonBacktrackingLaplacian)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{
		{1, 0, -1, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, -1, 0, 1},
	}, dense(l))
}

func TestBuild_NonBacktrackingSums(t *testing.T) {
	// Row e=(u,v) has deg(v)-1 ones, so the total is Σ_v deg(v)(deg(v)-1).
	tests := []struct {
		name string
		enc  string
		dim  int
		sum  float64
	}{
		{"P3", testutil.PathP3, 4, 2},
		{"K3", testutil.Triangle, 6, 6},
		{"C4", testutil.CycleC4, 8, 8},
		{"K4", testutil.CompleteK4, 12, 24},
		{"Petersen", testutil.Petersen, 30, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Build(testutil.MustGraph(t, tt.enc), NonBacktracking)
			require.NoError(t, err)
			assert.Equal(t, tt.dim, m.Dim())
			assert.Equal(t, tt.sum, sum(m))
		})
	}
}

func TestBuild_NonBacktrackingLaplacianRowsSumToZero(t *testing.T) {
	// With every head of degree >= 2, each row of I - D⁻¹B sums to zero.
	m, err := Build(testutil.MustGraph(t, testutil.Petersen), NonBacktrackingLaplacian)
	require.NoError(t, err)
	for i := 0; i < m.Dim(); i++ {
		var row float64
		for j := 0; j < m.Dim(); j++ {
			row += m.At(i, j)
		}
		assert.InDelta(t, 0, row, 1e-12, "row %d", i)
	}
}

func TestBuild_EdgeIndexedEmpty(t *testing.T) {
	g := testutil.MustGraph(t, testutil.EmptyE5)
	for _, k := range []Kind{NonBacktracking, NonBacktrackingLaplacian} {
		m, err := Build(g, k)
		require.NoError(t, err)
		assert.True(t, m.Empty())
		assert.Equal(t, 0, m.Dim())
		assert.Nil(t, m.Gonum())
		assert.Equal(t, k, m.Kind())
	}
}

func TestBuild_ZeroOrderGraph(t *testing.T) {
	g := graph.MustNew(0, nil)
	for _, k := range AllKinds {
		m, err := Build(g, k)
		require.NoError(t, err)
		assert.True(t, m.Empty(), k.String())
	}
}

func TestBuild_Dimensions(t *testing.T) {
	g := testutil.MustGraph(t, testutil.CompleteK4)
	for _, k := range AllKinds {
		m, err := Build(g, k)
		require.NoError(t, err)
		if k.EdgeIndexed() {
			assert.Equal(t, 2*g.Size(), m.Dim(), k.String())
		} else {
			assert.Equal(t, g.Order(), m.Dim(), k.String())
		}
	}
}

func TestBuild_Deterministic(t *testing.T) {
	g := testutil.MustGraph(t, testutil.Petersen)
	for _, k := range AllKinds {
		a, err := Build(g, k)
		require.NoError(t, err)
		b, err := Build(g, k)
		require.NoError(t, err)
		assert.True(t, mat.Equal(a.Gonum(), b.Gonum()), k.String())
	}
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(nil, Adjacency)
	require.Error(t, err)
	assert.True(t, IsConstructionError(err))

	_, err = Build(testutil.MustGraph(t, testutil.PathP3), Kind(99))
	require.Error(t, err)
	var ce *ConstructionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeConstruction, ce.Code())
	assert.Contains(t, err.Error(), "Bg")
}

func TestIsConstructionError_Malformed(t *testing.T) {
	_, err := graph.Parse("Bx")
	require.Error(t, err)
	assert.True(t, IsConstructionError(err))
	assert.True(t, IsConstructionError(NewConstructionError("Bx", err)))
	assert.False(t, IsConstructionError(nil))

	msg := NewConstructionError("Bx", err).Error()
	assert.Contains(t, msg, "graph=Bx")
	assert.NotContains(t, msg, "kind=")
}
