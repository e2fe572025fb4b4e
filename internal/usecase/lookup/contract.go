package lookup

import (
	"context"

	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/document"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/facet"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/neighbor"
)

// CorpusLoader reads the input table the viewer displays.
type CorpusLoader interface {
	Load() (document.Corpus, error)
}

// SnapshotReader reads one facet snapshot.
type SnapshotReader interface {
	Read(f facet.Facet) ([]neighbor.Record, error)
}

// NeighborSource reads published records from a store.
type NeighborSource interface {
	Get(ctx context.Context, f facet.Facet, id int32) (neighbor.Record, error)
}

// Formatter renders raw text fields for display.
type Formatter interface {
	Field(s string) string
	Display(s string) string
}
