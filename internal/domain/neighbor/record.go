package neighbor

// K is the number of ranked slots per record: the document itself plus three neighbors.
const K = 4

// Record is one row of a facet snapshot: closest_0..closest_3 ordered by
// descending similarity to InternalID.
type Record struct {
	InternalID int32
	Closest    [K]int32
}

// New creates a record.
func New(internalID int32, closest [K]int32) Record {
	return Record{InternalID: internalID, Closest: closest}
}

// SelfRank returns the slot holding InternalID, or -1 when absent.
func (r Record) SelfRank() int {
	for i, id := range r.Closest {
		if id == r.InternalID {
			return i
		}
	}
	return -1
}

// IsSelfAnchored reports whether closest_0 is the document itself.
func (r Record) IsSelfAnchored() bool {
	return r.Closest[0] == r.InternalID
}

// Neighbors returns closest_1..closest_3.
func (r Record) Neighbors() []int32 {
	out := make([]int32, K-1)
	copy(out, r.Closest[1:])
	return out
}

// IsConsistent reports whether the record satisfies the published invariant:
// self at rank 0 and three distinct other ids after it.
func (r Record) IsConsistent() bool {
	if !r.IsSelfAnchored() {
		return false
	}
	seen := make(map[int32]struct{}, K)
	for _, id := range r.Closest {
		if _, dup := seen[id]; dup {
			return false
		}
		seen[id] = struct{}{}
	}
	return true
}
