package facet

import (
	"errors"
	"testing"

	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain"
)

func TestIsValid(t *testing.T) {
	valid := []Facet{People, Places, Topics, Transcript}
	for _, f := range valid {
		if !f.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", f)
		}
	}

	invalid := []Facet{"", "person", "PEOPLE", "emotions"}
	for _, f := range invalid {
		if f.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", f)
		}
	}
}

func TestParse(t *testing.T) {
	f, err := Parse("topics")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f != Topics {
		t.Errorf("Parse = %q, want %q", f, Topics)
	}

	_, err = Parse("dates")
	if !errors.Is(err, domain.ErrUnknownFacet) {
		t.Errorf("expected ErrUnknownFacet, got %v", err)
	}
}

func TestSnapshotName(t *testing.T) {
	if got := People.SnapshotName(); got != "closest_people_df.parquet" {
		t.Errorf("SnapshotName = %q", got)
	}
}
