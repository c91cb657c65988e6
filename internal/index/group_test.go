package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spectra/internal/store"
)

func TestGrouper_Runs(t *testing.T) {
	entries := []store.GranuleEntry{
		{ID: 1, Digest: "a"},
		{ID: 4, Digest: "a"},
		{ID: 2, Digest: "b"},
		{ID: 3, Digest: "c"},
		{ID: 5, Digest: "c"},
		{ID: 6, Digest: "c"},
	}

	var g grouper
	var runs []run
	for _, e := range entries {
		if done, closed := g.add(e); closed {
			runs = append(runs, done)
		}
	}
	last, ok := g.flush()
	require.True(t, ok)
	runs = append(runs, last)

	require.Len(t, runs, 3)
	assert.Equal(t, []int64{1, 4}, runs[0].ids)
	assert.Equal(t, []int64{2}, runs[1].ids)
	assert.Equal(t, []int64{3, 5, 6}, runs[2].ids)

	_, ok = g.flush()
	assert.False(t, ok)
}

func TestEachPair(t *testing.T) {
	var got [][2]int64
	err := eachPair([]int64{2, 5, 9}, func(a, b int64) error {
		got = append(got, [2]int64{a, b})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]int64{{2, 5}, {2, 9}, {5, 9}}, got)

	for k := 0; k < 8; k++ {
		ids := make([]int64, k)
		for i := range ids {
			ids[i] = int64(i)
		}
		n := 0
		_ = eachPair(ids, func(a, b int64) error { n++; return nil })
		assert.Equal(t, pairCount(k), n)
	}
}
