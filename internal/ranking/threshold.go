package ranking

import (
	"fmt"

	"github.com/wilfordwoodruff/recommend-streamlit/internal/similarity"
)

// RowPercentiles returns the q-quantile of every row, diagonal included.
func RowPercentiles(m similarity.Matrix, q float64) ([]float64, error) {
	out := make([]float64, m.N())
	for i := range out {
		p, err := Percentile(m.Row(i), q)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

// Threshold keeps m[i][j] only when it is strictly greater than row i's
// q-quantile and zeroes it otherwise. Kept values are never rescaled.
func Threshold(m similarity.Matrix, q float64) (similarity.Matrix, []float64, error) {
	pct, err := RowPercentiles(m, q)
	if err != nil {
		return similarity.Matrix{}, nil, err
	}
	out := m.Map(func(i, _ int, v float64) float64 {
		if v > pct[i] {
			return v
		}
		return 0
	})
	return out, pct, nil
}
