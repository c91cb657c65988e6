package source

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, src Source) []Item {
	t.Helper()
	var items []Item
	for {
		it, err := src.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return items
		}
		require.NoError(t, err)
		items = append(items, it)
	}
}

func TestReader_SkipsBlankLines(t *testing.T) {
	in := "Bg\n\n  Bw  \r\n>>graph6<<Cl\n\n"
	items := drain(t, NewReader(strings.NewReader(in)))
	assert.Equal(t, []Item{
		{Line: 1, Encoding: "Bg"},
		{Line: 3, Encoding: "Bw"},
		{Line: 4, Encoding: ">>graph6<<Cl"},
	}, items)
}

func TestReader_NoTrailingNewline(t *testing.T) {
	items := drain(t, NewReader(strings.NewReader("Bg\nBw")))
	assert.Len(t, items, 2)
}

func TestReader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewReader(strings.NewReader("Bg\n")).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSlice(t *testing.T) {
	items := drain(t, FromSlice("Bg", "Bw"))
	assert.Equal(t, []Item{{Line: 1, Encoding: "Bg"}, {Line: 2, Encoding: "Bw"}}, items)
	assert.Empty(t, drain(t, FromSlice()))
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graphs.g6")
	require.NoError(t, os.WriteFile(path, []byte("Bg\nBw\n"), 0o644))

	rc, err := Open(path)
	require.NoError(t, err)
	defer rc.Close()
	assert.Len(t, drain(t, NewReader(rc)), 2)

	_, err = Open(filepath.Join(t.TempDir(), "missing.g6"))
	assert.Error(t, err)

	stdin, err := Open("-")
	require.NoError(t, err)
	assert.NoError(t, stdin.Close())
}
