package scoring

import (
	"context"
	"time"

	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/document"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/facet"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/neighbor"
)

// CorpusLoader reads the input table.
type CorpusLoader interface {
	Load() (document.Corpus, error)
}

// SnapshotWriter persists one facet's records.
type SnapshotWriter interface {
	Write(f facet.Facet, records []neighbor.Record) error
}

// Publisher mirrors one facet's records to an external store.
type Publisher interface {
	Publish(ctx context.Context, f facet.Facet, records []neighbor.Record) error
}

// Recorder receives pipeline measurements.
type Recorder interface {
	ObserveStage(facet, stage string, d time.Duration)
	AddDocuments(facet string, n int)
	AddDuds(facet string, n int)
	AddSelfRepairs(facet, kind string, n int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveStage(string, string, time.Duration) {}
func (nopRecorder) AddDocuments(string, int)                   {}
func (nopRecorder) AddDuds(string, int)                        {}
func (nopRecorder) AddSelfRepairs(string, string, int)         {}
