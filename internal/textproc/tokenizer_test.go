package textproc

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tok := NewEnglishTokenizer()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"lowercases and drops stopwords", "The Prophet spoke to THE saints", []string{"prophet", "spoke", "saints"}},
		{"single characters dropped", "a b cd", []string{"cd"}},
		{"punctuation splits", "Emma,Joseph;Hyrum", []string{"emma", "joseph", "hyrum"}},
		{"digits kept", "ward 12 meeting", []string{"ward", "12", "meeting"}},
		{"underscore is a word char", "foo_bar", []string{"foo_bar"}},
		{"unicode letters", "Café über", []string{"café", "über"}},
		{"empty", "", nil},
		{"only stopwords", "the and of", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tok.Tokenize(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestNewTokenizer_NilStopwords(t *testing.T) {
	tok := NewTokenizer(nil)
	got := tok.Tokenize("the cat")
	if !reflect.DeepEqual(got, []string{"the", "cat"}) {
		t.Errorf("Tokenize = %v", got)
	}
}

func TestEnglishStopwords(t *testing.T) {
	set := EnglishStopwords()
	if len(set) < 300 {
		t.Errorf("expected the full English stoplist, got %d terms", len(set))
	}
	for _, w := range []string{"the", "and", "yourselves"} {
		if _, ok := set[w]; !ok {
			t.Errorf("missing stopword %q", w)
		}
	}
}

func TestParseStoplist_Invalid(t *testing.T) {
	if _, err := ParseStoplist([]byte("terms: [unclosed")); err == nil {
		t.Fatal("expected parse error")
	}
}
