package ranking

import (
	"fmt"
	"sort"

	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/neighbor"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/similarity"
)

// DudDetector recognizes records that fell back to plain index order.
type DudDetector struct {
	leading [neighbor.K]int32
}

// NewDudDetector remembers the first neighbor.K ids of the corpus, which is
// what an all-zero thresholded row ranks to.
func NewDudDetector(ids []int32) DudDetector {
	var d DudDetector
	copy(d.leading[:], ids)
	return d
}

// IsDud reports whether r is (id, id+1, id+2, id+3) or the leading corpus ids.
func (d DudDetector) IsDud(r neighbor.Record) bool {
	run := true
	for i, id := range r.Closest {
		if id != r.InternalID+int32(i) {
			run = false
			break
		}
	}
	return run || r.Closest == d.leading
}

// Duds returns the internal ids of dud records, in input order.
func (d DudDetector) Duds(records []neighbor.Record) []int32 {
	var out []int32
	for _, r := range records {
		if d.IsDud(r) {
			out = append(out, r.InternalID)
		}
	}
	return out
}

// RepairDuds re-ranks dud records against the raw backup matrix. With at
// least neighbor.K duds the ranking is restricted to the dud columns so
// well-connected documents cannot crowd it; with fewer, the whole raw row
// is ranked. Non-dud records pass through. The result is sorted by internal_id.
func RepairDuds(
	records []neighbor.Record, backup similarity.Matrix, detector DudDetector,
) ([]neighbor.Record, []int32, error) {
	duds := detector.Duds(records)

	out := make([]neighbor.Record, len(records))
	copy(out, records)

	if len(duds) > 0 {
		dudCols := make([]int, 0, len(duds))
		for _, id := range duds {
			j := backup.IndexOf(id)
			if j < 0 {
				return nil, nil, fmt.Errorf("%w: dud %d not in backup matrix", domain.ErrDimensionMismatch, id)
			}
			dudCols = append(dudCols, j)
		}
		sort.Ints(dudCols)

		cols := dudCols
		if len(cols) < neighbor.K {
			cols = allColumns(backup.N())
		}

		repaired := make(map[int32]neighbor.Record, len(duds))
		for _, i := range dudCols {
			repaired[backup.ID(i)] = recordFrom(backup, i, rankColumns(backup, i, cols, neighbor.K))
		}
		for k, r := range out {
			if fixed, ok := repaired[r.InternalID]; ok {
				out[k] = fixed
			}
		}
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].InternalID < out[b].InternalID })
	return out, duds, nil
}
