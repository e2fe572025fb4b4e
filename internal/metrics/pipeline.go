package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline Prometheus metrics.
var (
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "recommend",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
		[]string{"facet", "stage"},
	)

	DocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recommend",
			Name:      "documents_total",
			Help:      "Documents scored per facet",
		},
		[]string{"facet"},
	)

	DudsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recommend",
			Name:      "duds_total",
			Help:      "Records repaired from the backup similarity matrix",
		},
		[]string{"facet"},
	)

	SelfRepairsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recommend",
			Name:      "self_repairs_total",
			Help:      "Records whose own id was moved to rank 0",
		},
		[]string{"facet", "kind"}, // "rotated" / "inserted"
	)
)

var registerPipelineOnce sync.Once

// RegisterPipelineMetrics registers the pipeline collectors on the default registry.
func RegisterPipelineMetrics() {
	registerPipelineOnce.Do(func() {
		prometheus.MustRegister(StageDuration)
		prometheus.MustRegister(DocumentsTotal)
		prometheus.MustRegister(DudsTotal)
		prometheus.MustRegister(SelfRepairsTotal)
	})
}

// Pipeline implements usecase/scoring.Recorder on the package collectors.
type Pipeline struct{}

// NewPipeline creates a recorder. Call RegisterPipelineMetrics to expose it.
func NewPipeline() *Pipeline { return &Pipeline{} }

// ObserveStage records one stage duration.
func (Pipeline) ObserveStage(facet, stage string, d time.Duration) {
	StageDuration.WithLabelValues(facet, stage).Observe(d.Seconds())
}

// AddDocuments counts scored documents.
func (Pipeline) AddDocuments(facet string, n int) {
	DocumentsTotal.WithLabelValues(facet).Add(float64(n))
}

// AddDuds counts dud repairs.
func (Pipeline) AddDuds(facet string, n int) {
	DudsTotal.WithLabelValues(facet).Add(float64(n))
}

// AddSelfRepairs counts self-reference repairs by kind.
func (Pipeline) AddSelfRepairs(facet, kind string, n int) {
	SelfRepairsTotal.WithLabelValues(facet, kind).Add(float64(n))
}

// WriteTextfile dumps the default registry for the node-exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
