package facet

import (
	"fmt"

	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain"
)

// Facet is one independent text dimension of a journal entry.
type Facet string

// Facet constants.
const (
	People Facet = "people"
	Places Facet = "places"
	Topics Facet = "topics"

	// Transcript is the full entry text. It backs dud repair and is not
	// published as a facet of its own by default.
	Transcript Facet = "transcript"
)

// Default lists the facets scored on every run.
var Default = []Facet{People, Places, Topics}

// IsValid checks if the facet is one of the supported values.
func (f Facet) IsValid() bool {
	return f == People || f == Places || f == Topics || f == Transcript
}

// String returns the facet name.
func (f Facet) String() string { return string(f) }

// Parse converts a name to a Facet.
func Parse(s string) (Facet, error) {
	f := Facet(s)
	if !f.IsValid() {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownFacet, s)
	}
	return f, nil
}

// SnapshotName returns the snapshot file name the viewer expects for the facet.
func (f Facet) SnapshotName() string {
	return fmt.Sprintf("closest_%s_df.parquet", f)
}
