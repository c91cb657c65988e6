package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/spectra/internal/fingerprint"
	"github.com/roach88/spectra/internal/matrix"
	"github.com/roach88/spectra/internal/spectrum"
)

// hashColumn returns the fingerprint column for kind.
func hashColumn(k matrix.Kind) string {
	return k.String() + "_spectral_hash"
}

// eigenColumns returns the eigenvalue column(s) for kind: one for real
// spectra, a re/im pair for complex ones.
func eigenColumns(k matrix.Kind) []string {
	if k.Symmetric() {
		return []string{k.String() + "_eigenvalues"}
	}
	return []string{k.String() + "_eigenvalues_re", k.String() + "_eigenvalues_im"}
}

// kindColumns returns every column written for kind, hash last.
func kindColumns(k matrix.Kind) []string {
	return append(eigenColumns(k), hashColumn(k))
}

func checkKind(k matrix.Kind) error {
	if !k.Valid() {
		return fmt.Errorf("invalid matrix kind %d", int(k))
	}
	return nil
}

var metadataColumns = []string{
	"is_bipartite", "is_planar", "is_regular",
	"diameter", "girth", "radius",
	"min_degree", "max_degree", "triangle_count",
}

// graphSelectColumns is the fixed projection read by scanGraph.
var graphSelectColumns = func() string {
	cols := []string{"id", "graph6", "n", "m"}
	for _, k := range matrix.AllKinds {
		cols = append(cols, kindColumns(k)...)
	}
	cols = append(cols, metadataColumns...)
	return strings.Join(cols, ", ")
}()

// marshalKind converts a result to its column values in kindColumns order.
// Eigenvalues are stored as JSON arrays; float64 JSON round-trips exactly.
func marshalKind(k matrix.Kind, kr KindResult) ([]any, error) {
	s := kr.Spectrum
	if s.IsComplex() != !k.Symmetric() {
		return nil, fmt.Errorf("marshal %s: spectrum tag does not match kind", k)
	}
	if kr.Digest == "" {
		return nil, fmt.Errorf("marshal %s: empty digest", k)
	}

	if !s.IsComplex() {
		vals := s.Reals()
		if vals == nil {
			vals = []float64{}
		}
		data, err := json.Marshal(vals)
		if err != nil {
			return nil, fmt.Errorf("marshal %s eigenvalues: %w", k, err)
		}
		return []any{string(data), string(kr.Digest)}, nil
	}

	zs := s.Complexes()
	re := make([]float64, len(zs))
	im := make([]float64, len(zs))
	for i, z := range zs {
		re[i], im[i] = real(z), imag(z)
	}
	reData, err := json.Marshal(re)
	if err != nil {
		return nil, fmt.Errorf("marshal %s eigenvalues: %w", k, err)
	}
	imData, err := json.Marshal(im)
	if err != nil {
		return nil, fmt.Errorf("marshal %s eigenvalues: %w", k, err)
	}
	return []any{string(reData), string(imData), string(kr.Digest)}, nil
}

// unmarshalKind rebuilds a result from nullable columns in kindColumns
// order. ok is false when the hash is NULL (not computed).
func unmarshalKind(k matrix.Kind, cols []sql.NullString) (kr KindResult, ok bool, err error) {
	hash := cols[len(cols)-1]
	if !hash.Valid {
		return KindResult{}, false, nil
	}

	if k.Symmetric() {
		var vals []float64
		if err := unmarshalFloats(cols[0], &vals); err != nil {
			return KindResult{}, false, fmt.Errorf("unmarshal %s eigenvalues: %w", k, err)
		}
		return KindResult{Spectrum: spectrum.Real(vals), Digest: fingerprint.Digest(hash.String)}, true, nil
	}

	var re, im []float64
	if err := unmarshalFloats(cols[0], &re); err != nil {
		return KindResult{}, false, fmt.Errorf("unmarshal %s eigenvalues: %w", k, err)
	}
	if err := unmarshalFloats(cols[1], &im); err != nil {
		return KindResult{}, false, fmt.Errorf("unmarshal %s eigenvalues: %w", k, err)
	}
	if len(re) != len(im) {
		return KindResult{}, false, fmt.Errorf("unmarshal %s eigenvalues: %d real parts, %d imaginary parts", k, len(re), len(im))
	}
	zs := make([]complex128, len(re))
	for i := range re {
		zs[i] = complex(re[i], im[i])
	}
	return KindResult{Spectrum: spectrum.Complex(zs), Digest: fingerprint.Digest(hash.String)}, true, nil
}

func unmarshalFloats(col sql.NullString, dst *[]float64) error {
	if !col.Valid || col.String == "" {
		*dst = []float64{}
		return nil
	}
	if err := json.Unmarshal([]byte(col.String), dst); err != nil {
		return err
	}
	if *dst == nil {
		*dst = []float64{}
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanGraph reads one row selected with graphSelectColumns.
func scanGraph(row rowScanner) (GraphRecord, error) {
	var rec GraphRecord

	kindCols := make(map[matrix.Kind][]sql.NullString, len(matrix.AllKinds))
	dest := []any{&rec.ID, &rec.Encoding, &rec.N, &rec.M}
	for _, k := range matrix.AllKinds {
		cols := make([]sql.NullString, len(kindColumns(k)))
		kindCols[k] = cols
		for i := range cols {
			dest = append(dest, &cols[i])
		}
	}

	var bip, planar, regular sql.NullBool
	var diameter, girth, radius, minDeg, maxDeg, triangles sql.NullInt64
	dest = append(dest, &bip, &planar, &regular, &diameter, &girth, &radius, &minDeg, &maxDeg, &triangles)

	if err := row.Scan(dest...); err != nil {
		return GraphRecord{}, err
	}

	rec.Kinds = make(map[matrix.Kind]KindResult)
	for _, k := range matrix.AllKinds {
		kr, ok, err := unmarshalKind(k, kindCols[k])
		if err != nil {
			return GraphRecord{}, fmt.Errorf("graph %s: %w", rec.Encoding, err)
		}
		if ok {
			rec.Kinds[k] = kr
		}
	}

	rec.Metadata = Metadata{
		IsBipartite:   nullBool(bip),
		IsPlanar:      nullBool(planar),
		IsRegular:     nullBool(regular),
		Diameter:      nullInt(diameter),
		Girth:         nullInt(girth),
		Radius:        nullInt(radius),
		MinDegree:     nullInt(minDeg),
		MaxDegree:     nullInt(maxDeg),
		TriangleCount: nullInt(triangles),
	}
	return rec, nil
}

func nullBool(v sql.NullBool) *bool {
	if !v.Valid {
		return nil
	}
	b := v.Bool
	return &b
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

// metadataArgs returns column values for UpsertMetadata; nil keeps the
// stored value.
func metadataArgs(m Metadata) []any {
	b := func(p *bool) any {
		if p == nil {
			return nil
		}
		return *p
	}
	i := func(p *int) any {
		if p == nil {
			return nil
		}
		return *p
	}
	return []any{
		b(m.IsBipartite), b(m.IsPlanar), b(m.IsRegular),
		i(m.Diameter), i(m.Girth), i(m.Radius),
		i(m.MinDegree), i(m.MaxDegree), i(m.TriangleCount),
	}
}
