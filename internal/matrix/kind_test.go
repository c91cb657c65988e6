package matrix

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_Names(t *testing.T) {
	want := map[Kind]string{
		Adjacency:                "adj",
		NormalizedLaplacian:      "lap",
		KirchhoffLaplacian:       "kirchhoff",
		SignlessLaplacian:        "signless",
		NonBacktracking:          "nb",
		NonBacktrackingLaplacian: "nbl",
	}
	for k, name := range want {
		assert.Equal(t, name, k.String())
		assert.True(t, k.Valid())
	}
	assert.Equal(t, "Kind(0)", Kind(0).String())
	assert.False(t, Kind(0).Valid())
}

func TestKind_Symmetry(t *testing.T) {
	for _, k := range AllKinds {
		assert.NotEqual(t, k.Symmetric(), k.EdgeIndexed(), k.String())
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("NB")
	require.NoError(t, err)
	assert.Equal(t, NonBacktracking, k)

	k, err = ParseKind("normalizedlaplacian")
	require.NoError(t, err)
	assert.Equal(t, NormalizedLaplacian, k)

	_, err = ParseKind("hermitian")
	assert.Error(t, err)
}

func TestParseKinds(t *testing.T) {
	all, err := ParseKinds(nil)
	require.NoError(t, err)
	assert.Equal(t, AllKinds, all)

	got, err := ParseKinds([]string{"lap", "adj", "Lap"})
	require.NoError(t, err)
	assert.Equal(t, []Kind{NormalizedLaplacian, Adjacency}, got)

	_, err = ParseKinds([]string{"adj", "bogus"})
	assert.Error(t, err)
}

func TestKind_JSON(t *testing.T) {
	b, err := json.Marshal(map[Kind]int{NonBacktracking: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"nb":3}`, string(b))

	var got struct {
		Kind Kind `json:"kind"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"SignlessLaplacian"}`), &got))
	assert.Equal(t, SignlessLaplacian, got.Kind)

	assert.Error(t, json.Unmarshal([]byte(`{"kind":"hodge"}`), &got))
	_, err = json.Marshal(Kind(0))
	assert.Error(t, err)
}
