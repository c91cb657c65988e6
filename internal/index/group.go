package index

import (
	"github.com/roach88/spectra/internal/fingerprint"
	"github.com/roach88/spectra/internal/store"
)

// run is a maximal block of consecutive granule entries sharing a digest.
// ids are ascending because the stream is ordered by (digest, id).
type run struct {
	digest fingerprint.Digest
	ids    []int64
}

// grouper turns an ordered entry stream into runs.
type grouper struct {
	cur  run
	open bool
}

// add feeds the next entry. When e starts a new run, the previous run is
// returned with closed set.
func (g *grouper) add(e store.GranuleEntry) (done run, closed bool) {
	if g.open && e.Digest == g.cur.digest {
		g.cur.ids = append(g.cur.ids, e.ID)
		return run{}, false
	}
	done, closed = g.cur, g.open
	g.cur = run{digest: e.Digest, ids: []int64{e.ID}}
	g.open = true
	return done, closed
}

// flush returns the final run, if any.
func (g *grouper) flush() (run, bool) {
	done, ok := g.cur, g.open
	g.cur, g.open = run{}, false
	return done, ok
}

// pairCount is C(k, 2).
func pairCount(k int) int {
	return k * (k - 1) / 2
}

// eachPair calls fn for every unordered pair of ids with i < j, in
// lexicographic index order. ids must be ascending, so every pair is
// already canonical. Stops at the first error.
func eachPair(ids []int64, fn func(a, b int64) error) error {
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if err := fn(ids[i], ids[j]); err != nil {
				return err
			}
		}
	}
	return nil
}
