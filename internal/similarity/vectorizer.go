package similarity

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain"
)

// Tokenizer splits text into terms.
type Tokenizer interface {
	Tokenize(text string) []string
}

// Vectorizer fits a TF-IDF model on a document set. It holds no state
// between calls; every Fit builds a fresh vocabulary.
type Vectorizer struct {
	tok Tokenizer
}

// NewVectorizer creates a vectorizer over the given tokenizer.
func NewVectorizer(tok Tokenizer) *Vectorizer {
	return &Vectorizer{tok: tok}
}

// Model is the result of a fit: the sorted vocabulary, its IDF weights, and
// one L2-normalized weight row per document.
type Model struct {
	Vocabulary []string
	IDF        []float64
	Weights    *mat.Dense
}

// Fit tokenizes every document, builds the vocabulary, and returns the
// weight matrix. Raw term counts are scaled by smoothed IDF
// ln((1+n)/(1+df)) + 1, then each row is scaled to unit length. Rows of
// documents without terms stay zero.
func (v *Vectorizer) Fit(texts []string) (Model, error) {
	n := len(texts)
	counts := make([]map[string]int, n)
	df := make(map[string]int)

	for i, text := range texts {
		tf := make(map[string]int)
		for _, term := range v.tok.Tokenize(text) {
			tf[term]++
		}
		for term := range tf {
			df[term]++
		}
		counts[i] = tf
	}

	if len(df) == 0 {
		return Model{}, fmt.Errorf("%w: %d documents contain no terms after stopword removal",
			domain.ErrEmptyVocabulary, n)
	}

	vocab := make([]string, 0, len(df))
	for term := range df {
		vocab = append(vocab, term)
	}
	sort.Strings(vocab)

	col := make(map[string]int, len(vocab))
	idf := make([]float64, len(vocab))
	for j, term := range vocab {
		col[term] = j
		idf[j] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}

	weights := mat.NewDense(n, len(vocab), nil)
	for i, tf := range counts {
		var norm float64
		for term, c := range tf {
			w := float64(c) * idf[col[term]]
			weights.Set(i, col[term], w)
			norm += w * w
		}
		if norm == 0 {
			continue
		}
		norm = math.Sqrt(norm)
		for term := range tf {
			j := col[term]
			weights.Set(i, j, weights.At(i, j)/norm)
		}
	}

	return Model{Vocabulary: vocab, IDF: idf, Weights: weights}, nil
}
