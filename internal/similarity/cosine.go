package similarity

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain"
)

// Cosine computes all-pairs cosine similarity of L2-normalized rows.
// Values are clamped to [0, 1] and mirrored so the result is exactly
// symmetric. Diagonal entries are 1 for rows with any weight and 0 for
// empty rows.
func Cosine(weights *mat.Dense, ids []int32) (Matrix, error) {
	n, _ := weights.Dims()
	if n != len(ids) {
		return Matrix{}, fmt.Errorf("%w: %d weight rows for %d ids", domain.ErrDimensionMismatch, n, len(ids))
	}

	var prod mat.Dense
	prod.Mul(weights, weights.T())

	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		nonEmpty := mat.Norm(weights.RowView(i), 2) > 0
		if nonEmpty {
			out.Set(i, i, 1)
		}
		for j := i + 1; j < n; j++ {
			v := clamp01(prod.At(i, j))
			out.Set(i, j, v)
			out.Set(j, i, v)
		}
	}
	return NewMatrix(out, ids)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Compute fits a fresh TF-IDF model on texts and returns their cosine matrix.
func Compute(tok Tokenizer, texts []string, ids []int32) (Matrix, error) {
	model, err := NewVectorizer(tok).Fit(texts)
	if err != nil {
		return Matrix{}, err
	}
	return Cosine(model.Weights, ids)
}
