package textproc

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenizer splits text into lower-cased word terms of two or more
// characters and drops stopwords.
type Tokenizer struct {
	stopwords map[string]struct{}
}

// NewTokenizer creates a tokenizer. A nil set disables stopword filtering.
func NewTokenizer(stopwords map[string]struct{}) *Tokenizer {
	if stopwords == nil {
		stopwords = map[string]struct{}{}
	}
	return &Tokenizer{stopwords: stopwords}
}

// NewEnglishTokenizer creates a tokenizer with the built-in English stoplist.
func NewEnglishTokenizer() *Tokenizer {
	return NewTokenizer(EnglishStopwords())
}

// Tokenize returns terms in text order. Word characters are letters, digits,
// marks and underscore.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		word := current.String()
		current.Reset()
		if utf8.RuneCountInString(word) < 2 {
			return
		}
		if _, stop := t.stopwords[word]; stop {
			return
		}
		tokens = append(tokens, word)
	}

	for _, r := range strings.ToLower(text) {
		if isWordRune(r) {
			current.WriteRune(r)
			continue
		}
		flush()
	}
	flush()

	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}
