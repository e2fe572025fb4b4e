package ranking

import "github.com/wilfordwoodruff/recommend-streamlit/internal/domain/neighbor"

// SelfRepairStats summarizes RepairSelfReference.
type SelfRepairStats struct {
	// Rotated counts records whose own id was found at rank 1..3.
	Rotated int
	// Inserted lists records whose own id was missing from all ranks.
	Inserted []int32
}

// RepairSelfReference moves every record's own id to rank 0.
//
// An id found at rank p is rotated into rank 0 and ranks 0..p-1 shift
// right by one, so the other three keep their order. An id missing from
// the record is inserted at rank 0 and the old rank 3 is dropped; those
// records are reported in Inserted. Already anchored records are untouched,
// which makes the repair idempotent.
func RepairSelfReference(records []neighbor.Record) ([]neighbor.Record, SelfRepairStats) {
	var stats SelfRepairStats
	out := make([]neighbor.Record, len(records))

	for k, r := range records {
		p := r.SelfRank()
		switch {
		case p == 0:
		case p > 0:
			copy(r.Closest[1:p+1], r.Closest[0:p])
			r.Closest[0] = r.InternalID
			stats.Rotated++
		default:
			copy(r.Closest[1:], r.Closest[:neighbor.K-1])
			r.Closest[0] = r.InternalID
			stats.Inserted = append(stats.Inserted, r.InternalID)
		}
		out[k] = r
	}
	return out, stats
}
