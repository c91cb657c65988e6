package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NormalizesAndSortsEdges(t *testing.T) {
	g, err := New(4, []Edge{{3, 2}, {1, 0}, {2, 1}})
	require.NoError(t, err)

	assert.Equal(t, 4, g.Order())
	assert.Equal(t, 3, g.Size())
	assert.Equal(t, []Edge{{0, 1}, {1, 2}, {2, 3}}, g.Edges())
	assert.Equal(t, []int{1, 2, 2, 1}, g.Degrees())
	assert.Equal(t, []int{0, 2}, g.Neighbors(1))
}

func TestNew_RejectsInvalidEdges(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		edges []Edge
	}{
		{"self loop", 3, []Edge{{1, 1}}},
		{"duplicate", 3, []Edge{{0, 1}, {1, 0}}},
		{"out of range", 3, []Edge{{0, 3}}},
		{"negative endpoint", 3, []Edge{{-1, 2}}},
		{"negative order", -1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.n, tt.edges)
			require.Error(t, err)
			assert.True(t, IsMalformed(err))
		})
	}
}

func TestHasEdge(t *testing.T) {
	g := MustNew(3, []Edge{{0, 1}})

	assert.True(t, g.HasEdge(0, 1))
	assert.True(t, g.HasEdge(1, 0))
	assert.False(t, g.HasEdge(1, 2))
	assert.False(t, g.HasEdge(0, 7))
}

func TestDirectedEdges_LexicographicOrder(t *testing.T) {
	// P3: 0-1-2
	g := MustNew(3, []Edge{{0, 1}, {1, 2}})

	assert.Equal(t, []Arc{{0, 1}, {1, 0}, {1, 2}, {2, 1}}, g.DirectedEdges())
}

func TestDirectedEdges_Empty(t *testing.T) {
	g := MustNew(3, nil)
	assert.Empty(t, g.DirectedEdges())
}

func TestZeroValueGraph(t *testing.T) {
	var g Graph
	assert.Equal(t, 0, g.Order())
	assert.Equal(t, 0, g.Size())
	assert.Equal(t, "?", g.Encoding())
}
