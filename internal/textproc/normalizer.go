// Package textproc cleans journal text and splits it into vectorizer terms.
package textproc

import (
	"regexp"
	"sort"
	"strings"

	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/document"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/facet"
)

// Weekday and month names stripped from transcripts.
var calendarWords = []string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
	"January", "February", "March", "April", "May", "June", "July",
	"August", "September", "October", "November", "December",
}

// markupTokens are literal sequences removed from every field. The escaped
// whitespace entries are a backslash followed by a letter, as they appear in
// the exported table, not control characters.
var markupTokens = []string{`|`, `[[`, `]]`, `\r`, `\t`, `\n`}

// Transcript-only bracket tokens.
var bracketTokens = []string{`[`, `]`}

// Normalizer replaces blacklisted tokens with a single space.
type Normalizer struct {
	wide   *regexp.Regexp // transcript
	narrow *regexp.Regexp // people, places, topics
}

// NewNormalizer builds a normalizer. extra literal tokens are added to both blacklists.
func NewNormalizer(extra ...string) *Normalizer {
	wide := make([]string, 0, len(calendarWords)+len(markupTokens)+len(bracketTokens)+len(extra))
	wide = append(wide, calendarWords...)
	wide = append(wide, markupTokens...)
	wide = append(wide, bracketTokens...)
	wide = append(wide, extra...)

	narrow := make([]string, 0, len(markupTokens)+len(extra))
	narrow = append(narrow, markupTokens...)
	narrow = append(narrow, extra...)

	return &Normalizer{
		wide:   compileAlternation(wide),
		narrow: compileAlternation(narrow),
	}
}

// compileAlternation quotes every literal and joins them longest first, so
// "[[" wins over "[".
func compileAlternation(words []string) *regexp.Regexp {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	sort.SliceStable(quoted, func(a, b int) bool { return len(quoted[a]) > len(quoted[b]) })
	return regexp.MustCompile(strings.Join(quoted, "|"))
}

// Transcript strips calendar words and markup from the full entry text.
func (n *Normalizer) Transcript(s string) string {
	return n.wide.ReplaceAllString(s, " ")
}

// Field strips markup from a people/places/topics field.
func (n *Normalizer) Field(s string) string {
	return n.narrow.ReplaceAllString(s, " ")
}

// Normalize returns a copy of d with normalized text attached for every facet.
func (n *Normalizer) Normalize(d document.Document) document.Document {
	d = d.WithText(facet.Transcript, n.Transcript(d.Raw(facet.Transcript)))
	for _, f := range []facet.Facet{facet.People, facet.Places, facet.Topics} {
		d = d.WithText(f, n.Field(d.Raw(f)))
	}
	return d
}

// NormalizeCorpus normalizes every document, keeping corpus order.
func (n *Normalizer) NormalizeCorpus(c document.Corpus) document.Corpus {
	out := document.Corpus{Docs: make([]document.Document, len(c.Docs))}
	for i, d := range c.Docs {
		out.Docs[i] = n.Normalize(d)
	}
	return out
}

// Display renders a field the way the viewer shows it: markup becomes ", ".
func (n *Normalizer) Display(s string) string {
	return n.narrow.ReplaceAllString(s, ", ")
}
