package graph

import (
	"fmt"
	"strings"
)

const (
	graph6Bias   = 63
	graph6Header = ">>graph6<<"

	// Largest n representable with the 4-byte size prefix.
	maxShortOrder = 258047
	// Largest n representable with the 8-byte size prefix (36 bits).
	maxLongOrder = 68719476735

	// Dense operators on larger graphs are out of reach anyway; the bound
	// keeps n*(n-1)/2 far from overflow.
	maxParseOrder = 1 << 20
)

// Encoding returns the canonical graph6 encoding of g.
//
// The upper triangle is emitted column by column: for j = 1..n-1 and
// i = 0..j-1, bit x(i,j). Bits are packed six per byte, big-endian within
// the group, zero padded, and each group is offset by 63.
func (g *Graph) Encoding() string {
	var b strings.Builder
	writeOrder(&b, g.n)

	var group byte
	width := 0
	for j := 1; j < g.n; j++ {
		for i := 0; i < j; i++ {
			group <<= 1
			if g.HasEdge(i, j) {
				group |= 1
			}
			width++
			if width == 6 {
				b.WriteByte(group + graph6Bias)
				group, width = 0, 0
			}
		}
	}
	if width > 0 {
		group <<= 6 - width
		b.WriteByte(group + graph6Bias)
	}
	return b.String()
}

func writeOrder(b *strings.Builder, n int) {
	switch {
	case n <= 62:
		b.WriteByte(byte(n) + graph6Bias)
	case n <= maxShortOrder:
		b.WriteByte(126)
		for shift := 12; shift >= 0; shift -= 6 {
			b.WriteByte(byte((n>>shift)&0x3f) + graph6Bias)
		}
	default:
		b.WriteByte(126)
		b.WriteByte(126)
		for shift := 30; shift >= 0; shift -= 6 {
			b.WriteByte(byte((n>>shift)&0x3f) + graph6Bias)
		}
	}
}

// Parse decodes a graph6 string. Surrounding whitespace and an optional
// ">>graph6<<" header are accepted. Non-zero padding bits are rejected so
// that every accepted string is the canonical encoding of its graph.
func Parse(s string) (*Graph, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(raw, graph6Header)
	if raw == "" {
		return nil, &MalformedError{Encoding: s, Message: "empty encoding"}
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < graph6Bias || raw[i] > 126 {
			return nil, &MalformedError{Encoding: s, Message: fmt.Sprintf("byte %d (0x%02x) outside graph6 range", i, raw[i])}
		}
	}

	n, body, err := readOrder(raw)
	if err != nil {
		return nil, &MalformedError{Encoding: s, Message: err.Error()}
	}
	if n > maxParseOrder {
		return nil, &MalformedError{Encoding: s, Message: fmt.Sprintf("order %d exceeds %d", n, maxParseOrder)}
	}

	bits := n * (n - 1) / 2
	want := (bits + 5) / 6
	if len(body) != want {
		return nil, &MalformedError{Encoding: s, Message: fmt.Sprintf("expected %d adjacency bytes for n=%d, got %d", want, n, len(body))}
	}

	var edges []Edge
	k := 0
	for j := 1; j < n; j++ {
		for i := 0; i < j; i++ {
			group := body[k/6] - graph6Bias
			if group&(1<<(5-k%6)) != 0 {
				edges = append(edges, Edge{U: i, V: j})
			}
			k++
		}
	}
	if pad := want*6 - bits; pad > 0 {
		last := body[len(body)-1] - graph6Bias
		if last&((1<<pad)-1) != 0 {
			return nil, &MalformedError{Encoding: s, Message: "non-zero padding bits"}
		}
	}

	return New(n, edges)
}

// MustParse is like Parse but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustParse(s string) *Graph {
	g, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return g
}

func readOrder(raw string) (int, string, error) {
	if raw[0] != 126 {
		return int(raw[0] - graph6Bias), raw[1:], nil
	}
	if len(raw) >= 2 && raw[1] == 126 {
		if len(raw) < 8 {
			return 0, "", fmt.Errorf("truncated 8-byte size prefix")
		}
		n := 0
		for _, c := range []byte(raw[2:8]) {
			n = n<<6 | int(c-graph6Bias)
		}
		if n <= maxShortOrder || n > maxLongOrder {
			return 0, "", fmt.Errorf("non-canonical 8-byte size prefix for n=%d", n)
		}
		return n, raw[8:], nil
	}
	if len(raw) < 4 {
		return 0, "", fmt.Errorf("truncated 4-byte size prefix")
	}
	n := 0
	for _, c := range []byte(raw[1:4]) {
		n = n<<6 | int(c-graph6Bias)
	}
	if n <= 62 {
		return 0, "", fmt.Errorf("non-canonical 4-byte size prefix for n=%d", n)
	}
	return n, raw[4:], nil
}
