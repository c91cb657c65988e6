package pipeline

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spectra/internal/testutil"
)

func TestUUIDv7Generator_ValidFormat(t *testing.T) {
	id := UUIDv7Generator{}.Generate()
	assert.Len(t, id, 36)

	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestUUIDv7Generator_Sortable(t *testing.T) {
	gen := UUIDv7Generator{}
	seen := make(map[string]bool, 100)
	prev := ""
	for range 100 {
		id := gen.Generate()
		require.False(t, seen[id], "run id %s generated twice", id)
		seen[id] = true
		assert.GreaterOrEqual(t, id, prev)
		prev = id
	}
}

func TestRunIDGenerator_Implementations(t *testing.T) {
	var _ RunIDGenerator = UUIDv7Generator{}
	var _ RunIDGenerator = testutil.NewFixedRunIDGenerator("")
}
