package textproc

import (
	"strings"
	"testing"

	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/document"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/facet"
)

func TestTranscript_StripsCalendarAndMarkup(t *testing.T) {
	n := NewNormalizer()

	got := n.Transcript(`Sunday [[Emma Smith]] came\nto [Nauvoo] in May|June`)
	for _, banned := range []string{"Sunday", "[", "]", `\n`, "|", "May", "June"} {
		if strings.Contains(got, banned) {
			t.Errorf("Transcript left %q in %q", banned, got)
		}
	}
	if !strings.Contains(got, "Emma Smith") || !strings.Contains(got, "Nauvoo") {
		t.Errorf("Transcript dropped content: %q", got)
	}
}

func TestTranscript_EscapesAreLiteral(t *testing.T) {
	n := NewNormalizer()

	// A real newline is not a blacklisted token.
	got := n.Transcript("line one\nline two")
	if got != "line one\nline two" {
		t.Errorf("real newline was altered: %q", got)
	}

	got = n.Transcript(`a\tb\rc`)
	if got != "a b c" {
		t.Errorf("escaped sequences = %q, want %q", got, "a b c")
	}
}

func TestField_KeepsCalendarWordsAndSingleBrackets(t *testing.T) {
	n := NewNormalizer()

	got := n.Field("[[Sunday School]]|[[Brigham Young]]")
	want := " Sunday School   Brigham Young "
	if got != want {
		t.Errorf("Field = %q, want %q", got, want)
	}
	if got := n.Field("[x]"); got != "[x]" {
		t.Errorf("single brackets should survive field normalization, got %q", got)
	}
}

func TestNormalizer_ExtraTokens(t *testing.T) {
	n := NewNormalizer("&amp;")
	if got := n.Field("a&amp;b"); got != "a b" {
		t.Errorf("Field with extra token = %q", got)
	}
	if got := n.Transcript("a&amp;b"); got != "a b" {
		t.Errorf("Transcript with extra token = %q", got)
	}
}

func TestNormalize_AttachesEveryFacet(t *testing.T) {
	n := NewNormalizer()
	d := n.Normalize(document.New(1, "Monday prayer", "[[Emma]]", "[[Kirtland]]", "[[Faith]]"))

	for _, f := range []facet.Facet{facet.Transcript, facet.People, facet.Places, facet.Topics} {
		if !d.IsNormalized(f) {
			t.Errorf("facet %s not normalized", f)
		}
	}
	if strings.Contains(d.Text(facet.Transcript), "Monday") {
		t.Errorf("transcript not normalized: %q", d.Text(facet.Transcript))
	}
	if d.Text(facet.People) != " Emma " {
		t.Errorf("people = %q", d.Text(facet.People))
	}
}

func TestDisplay(t *testing.T) {
	n := NewNormalizer()
	if got := n.Display("[[Emma]]|[[Joseph]]"); got != ", Emma, , , Joseph, " {
		t.Errorf("Display = %q", got)
	}
}
