// Package source reads graph6 encodings from line-oriented input, the
// format produced by nauty's geng and most graph catalogues.
package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxLineBytes bounds a single graph6 line (about n = 5800).
const maxLineBytes = 16 << 20

// Item is one encoding and the 1-based line it came from.
type Item struct {
	Line     int
	Encoding string
}

// Source yields graph6 encodings. Next returns io.EOF after the last item.
type Source interface {
	Next(ctx context.Context) (Item, error)
}

// Reader is a Source over an io.Reader. Blank lines are skipped; every
// other line is passed through trimmed, so malformed lines surface as
// parse errors downstream rather than here.
type Reader struct {
	sc   *bufio.Scanner
	line int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Reader{sc: sc}
}

// Next returns the next non-blank line.
func (r *Reader) Next(ctx context.Context) (Item, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Item{}, err
		}
		if !r.sc.Scan() {
			if err := r.sc.Err(); err != nil {
				return Item{}, fmt.Errorf("read line %d: %w", r.line+1, err)
			}
			return Item{}, io.EOF
		}
		r.line++
		text := strings.TrimSpace(r.sc.Text())
		if text == "" {
			continue
		}
		return Item{Line: r.line, Encoding: text}, nil
	}
}

// Slice is a Source over a fixed list of encodings.
type Slice struct {
	items []string
	pos   int
}

// FromSlice returns a Source yielding encodings in order.
func FromSlice(encodings ...string) *Slice {
	return &Slice{items: encodings}
}

// Next returns the next encoding.
func (s *Slice) Next(ctx context.Context) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, err
	}
	if s.pos >= len(s.items) {
		return Item{}, io.EOF
	}
	s.pos++
	return Item{Line: s.pos, Encoding: s.items[s.pos-1]}, nil
}

// Open opens path for reading; "-" or "" means standard input, which is
// not closed by the returned closer.
func Open(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	return f, nil
}
