package ranking

import (
	"fmt"
	"sort"

	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/neighbor"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/similarity"
)

// rankColumns orders the given column positions of row i by value
// descending, lower position first on ties, and returns at most limit of them.
func rankColumns(m similarity.Matrix, i int, cols []int, limit int) []int {
	ranked := make([]int, len(cols))
	copy(ranked, cols)
	sort.SliceStable(ranked, func(a, b int) bool {
		va, vb := m.At(i, ranked[a]), m.At(i, ranked[b])
		if va != vb {
			return va > vb
		}
		return ranked[a] < ranked[b]
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func allColumns(n int) []int {
	cols := make([]int, n)
	for j := range cols {
		cols[j] = j
	}
	return cols
}

// TopK selects the neighbor.K highest-valued columns of every row. Zeroed
// entries still take part and simply rank last. Records come back in
// matrix order.
func TopK(m similarity.Matrix) ([]neighbor.Record, error) {
	n := m.N()
	if n < neighbor.K {
		return nil, fmt.Errorf("%w: %d documents, need at least %d", domain.ErrCorpusTooSmall, n, neighbor.K)
	}

	cols := allColumns(n)
	out := make([]neighbor.Record, n)
	for i := 0; i < n; i++ {
		out[i] = recordFrom(m, i, rankColumns(m, i, cols, neighbor.K))
	}
	return out, nil
}

func recordFrom(m similarity.Matrix, i int, ranked []int) neighbor.Record {
	var closest [neighbor.K]int32
	for r, j := range ranked {
		closest[r] = m.ID(j)
	}
	return neighbor.New(m.ID(i), closest)
}
