package matrix

import (
	"fmt"
	"strings"
)

// Kind identifies one of the operator representations of a graph.
type Kind int

const (
	// Adjacency is the symmetric 0/1 adjacency matrix A.
	Adjacency Kind = iota + 1
	// NormalizedLaplacian is I − D^(−1/2) A D^(−1/2).
	NormalizedLaplacian
	// KirchhoffLaplacian is D − A.
	KirchhoffLaplacian
	// SignlessLaplacian is D + A.
	SignlessLaplacian
	// NonBacktracking is the 2m×2m Hashimoto operator B over directed edges.
	NonBacktracking
	// NonBacktrackingLaplacian is I − D_out⁻¹ B.
	NonBacktrackingLaplacian
)

// AllKinds lists every Kind in declaration order.
var AllKinds = []Kind{
	Adjacency,
	NormalizedLaplacian,
	KirchhoffLaplacian,
	SignlessLaplacian,
	NonBacktracking,
	NonBacktrackingLaplacian,
}

var kindNames = map[Kind][2]string{
	Adjacency:                {"adj", "Adjacency"},
	NormalizedLaplacian:      {"lap", "NormalizedLaplacian"},
	KirchhoffLaplacian:       {"kirchhoff", "KirchhoffLaplacian"},
	SignlessLaplacian:        {"signless", "SignlessLaplacian"},
	NonBacktracking:          {"nb", "NonBacktracking"},
	NonBacktrackingLaplacian: {"nbl", "NonBacktrackingLaplacian"},
}

// String returns the short persisted name ("adj", "lap", ...).
// The short names double as SQL column prefixes and must never change.
func (k Kind) String() string {
	if names, ok := kindNames[k]; ok {
		return names[0]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Name returns the long descriptive name.
func (k Kind) Name() string {
	if names, ok := kindNames[k]; ok {
		return names[1]
	}
	return k.String()
}

// Valid reports whether k is one of AllKinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// Symmetric reports whether matrices of this kind are real symmetric, so
// their spectra are real.
func (k Kind) Symmetric() bool {
	switch k {
	case Adjacency, NormalizedLaplacian, KirchhoffLaplacian, SignlessLaplacian:
		return true
	}
	return false
}

// EdgeIndexed reports whether the basis is the directed-edge order rather
// than the vertex order.
func (k Kind) EdgeIndexed() bool {
	return k == NonBacktracking || k == NonBacktrackingLaplacian
}

// ParseKind accepts a short or long name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for _, k := range AllKinds {
		names := kindNames[k]
		if want == names[0] || want == strings.ToLower(names[1]) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown matrix kind %q", s)
}

// ParseKinds parses a list of kind names. An empty list means AllKinds.
func ParseKinds(names []string) ([]Kind, error) {
	if len(names) == 0 {
		out := make([]Kind, len(AllKinds))
		copy(out, AllKinds)
		return out, nil
	}
	out := make([]Kind, 0, len(names))
	seen := make(map[Kind]bool, len(names))
	for _, name := range names {
		k, err := ParseKind(name)
		if err != nil {
			return nil, err
		}
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out, nil
}

// MarshalText encodes k as its short name.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid matrix kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText accepts any name ParseKind accepts.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
