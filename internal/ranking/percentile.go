// Package ranking turns similarity matrices into ranked neighbor records.
package ranking

import (
	"fmt"
	"math"
	"sort"

	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain"
)

// DefaultQuantile is the per-row cut used when none is configured.
const DefaultQuantile = 0.75

// Percentile returns the q-quantile of values using linear interpolation
// between closest ranks: position h = q*(n-1) over the ascending values.
func Percentile(values []float64, q float64) (float64, error) {
	if q < 0 || q > 1 || math.IsNaN(q) {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidQuantile, q)
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("percentile of empty row")
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	h := q * float64(len(sorted)-1)
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	if lo == hi {
		return sorted[lo], nil
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo]), nil
}
