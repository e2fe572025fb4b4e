// Package similarity builds TF-IDF vectors and all-pairs cosine matrices.
package similarity

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain"
)

// Matrix is a square similarity matrix. Row and column i both belong to
// the document whose internal id is IDs()[i].
type Matrix struct {
	data *mat.Dense
	ids  []int32
}

// NewMatrix wraps a square dense matrix with its index -> internal_id mapping.
func NewMatrix(data *mat.Dense, ids []int32) (Matrix, error) {
	r, c := data.Dims()
	if r != c {
		return Matrix{}, fmt.Errorf("%w: matrix is %dx%d", domain.ErrDimensionMismatch, r, c)
	}
	if r != len(ids) {
		return Matrix{}, fmt.Errorf("%w: %d rows for %d ids", domain.ErrDimensionMismatch, r, len(ids))
	}
	cp := make([]int32, len(ids))
	copy(cp, ids)
	return Matrix{data: data, ids: cp}, nil
}

// FromRows builds a Matrix from row slices. Used by tests and small fixtures.
func FromRows(rows [][]float64, ids []int32) (Matrix, error) {
	n := len(rows)
	flat := make([]float64, 0, n*n)
	for i, row := range rows {
		if len(row) != n {
			return Matrix{}, fmt.Errorf("%w: row %d has %d values, want %d", domain.ErrDimensionMismatch, i, len(row), n)
		}
		flat = append(flat, row...)
	}
	if n == 0 {
		return Matrix{}, fmt.Errorf("%w: empty matrix", domain.ErrDimensionMismatch)
	}
	return NewMatrix(mat.NewDense(n, n, flat), ids)
}

// N returns the corpus size.
func (m Matrix) N() int { return len(m.ids) }

// At returns the similarity between documents at positions i and j.
func (m Matrix) At(i, j int) float64 { return m.data.At(i, j) }

// Row returns a copy of row i.
func (m Matrix) Row(i int) []float64 {
	out := make([]float64, m.N())
	mat.Row(out, i, m.data)
	return out
}

// IDs returns a copy of the index -> internal_id mapping.
func (m Matrix) IDs() []int32 {
	out := make([]int32, len(m.ids))
	copy(out, m.ids)
	return out
}

// ID returns the internal id at position i.
func (m Matrix) ID(i int) int32 { return m.ids[i] }

// IndexOf returns the position of an internal id, or -1.
func (m Matrix) IndexOf(id int32) int {
	for i, v := range m.ids {
		if v == id {
			return i
		}
	}
	return -1
}

// Map returns a new matrix with fn applied to every entry.
func (m Matrix) Map(fn func(i, j int, v float64) float64) Matrix {
	n := m.N()
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.Set(i, j, fn(i, j, m.data.At(i, j)))
		}
	}
	return Matrix{data: out, ids: m.IDs()}
}

// IsSymmetric reports whether m[i][j] and m[j][i] differ by at most tol.
func (m Matrix) IsSymmetric(tol float64) bool {
	n := m.N()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := m.data.At(i, j) - m.data.At(j, i)
			if d > tol || d < -tol {
				return false
			}
		}
	}
	return true
}
