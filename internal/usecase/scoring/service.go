// Package scoring runs the neighbor pipeline for every configured facet:
// normalize, similarity, threshold, top-k, dud repair, self-reference
// repair, then snapshot and optional publish.
package scoring

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/document"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/facet"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/neighbor"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/logger"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/ranking"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/similarity"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/textproc"
)

// Dud backup sources.
const (
	BackupTranscript = "transcript"
	BackupFacet      = "facet"
)

// Options tunes a run.
type Options struct {
	Quantile  float64
	Facets    []facet.Facet
	DudBackup string
}

// FacetReport summarizes one facet run.
type FacetReport struct {
	Facet     facet.Facet
	Documents int
	Duds      []int32
	Rotated   int
	Inserted  []int32
	Published bool
	Duration  time.Duration
}

// Report summarizes a whole run.
type Report struct {
	Documents int
	Facets    []FacetReport
}

// Service orchestrates the pipeline. It holds no state between runs.
type Service struct {
	loader     CorpusLoader
	snapshots  SnapshotWriter
	publisher  Publisher
	recorder   Recorder
	normalizer *textproc.Normalizer
	tokenizer  similarity.Tokenizer
	opts       Options
}

// New creates a scoring service. Zero options fall back to quantile 0.75,
// the default facets and the transcript dud backup.
func New(
	loader CorpusLoader, snapshots SnapshotWriter,
	normalizer *textproc.Normalizer, tokenizer similarity.Tokenizer, opts Options,
) *Service {
	if opts.Quantile == 0 {
		opts.Quantile = ranking.DefaultQuantile
	}
	if len(opts.Facets) == 0 {
		opts.Facets = facet.Default
	}
	if opts.DudBackup == "" {
		opts.DudBackup = BackupTranscript
	}
	return &Service{
		loader:     loader,
		snapshots:  snapshots,
		recorder:   nopRecorder{},
		normalizer: normalizer,
		tokenizer:  tokenizer,
		opts:       opts,
	}
}

// WithPublisher mirrors every facet's records after its snapshot is written.
func (s *Service) WithPublisher(p Publisher) *Service {
	s.publisher = p
	return s
}

// WithRecorder attaches a metrics recorder.
func (s *Service) WithRecorder(r Recorder) *Service {
	if r != nil {
		s.recorder = r
	}
	return s
}

// Run loads the corpus and scores every facet. The first failing stage
// aborts the run with a *domain.StageError.
func (s *Service) Run(ctx context.Context) (Report, error) {
	log := logger.FromContext(ctx)

	var corpus document.Corpus
	err := s.stage(ctx, "corpus", domain.StageLoad, func() error {
		c, err := s.loader.Load()
		if err != nil {
			return err
		}
		corpus = c
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	report, err := s.Score(ctx, corpus)
	if err != nil {
		return report, err
	}

	log.Info("scoring finished",
		zap.Int("documents", report.Documents),
		zap.Int("facets", len(report.Facets)),
	)
	return report, nil
}

// Score runs the pipeline over an already loaded corpus.
func (s *Service) Score(ctx context.Context, corpus document.Corpus) (Report, error) {
	report := Report{Documents: corpus.Len()}

	if err := validateCorpus(corpus); err != nil {
		return report, domain.NewStageError("corpus", domain.StageLoad, err)
	}

	err := s.stage(ctx, "corpus", domain.StageNormalize, func() error {
		corpus = s.normalizer.NormalizeCorpus(corpus)
		return nil
	})
	if err != nil {
		return report, err
	}

	var backup *similarity.Matrix
	if s.opts.DudBackup == BackupTranscript {
		m, err := s.similarity(ctx, corpus, facet.Transcript)
		if err != nil {
			return report, err
		}
		backup = &m
	}

	for _, f := range s.opts.Facets {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("scoring cancelled before %s: %w", f, err)
		}

		fr, err := s.runFacet(ctx, corpus, f, backup)
		if err != nil {
			return report, err
		}
		report.Facets = append(report.Facets, fr)
	}
	return report, nil
}

func (s *Service) runFacet(
	ctx context.Context, corpus document.Corpus, f facet.Facet, backup *similarity.Matrix,
) (FacetReport, error) {
	start := time.Now()
	ctx = logger.With(ctx, zap.String("facet", f.String()))
	log := logger.FromContext(ctx)

	records, fr, err := s.ScoreFacet(ctx, corpus, f, backup)
	if err != nil {
		return fr, err
	}

	err = s.stage(ctx, f.String(), domain.StageSnapshot, func() error {
		return s.snapshots.Write(f, records)
	})
	if err != nil {
		return fr, err
	}

	if s.publisher != nil {
		err = s.stage(ctx, f.String(), domain.StagePublish, func() error {
			return s.publisher.Publish(ctx, f, records)
		})
		if err != nil {
			return fr, err
		}
		fr.Published = true
	}

	fr.Duration = time.Since(start)
	s.recorder.AddDocuments(f.String(), fr.Documents)
	log.Info("facet scored",
		zap.Int("documents", fr.Documents),
		zap.Int("duds", len(fr.Duds)),
		zap.Int("rotated", fr.Rotated),
		zap.Int("inserted", len(fr.Inserted)),
		zap.Bool("published", fr.Published),
		zap.Duration("duration", fr.Duration),
	)
	return fr, nil
}

// ScoreFacet computes the final neighbor records for one facet of a
// normalized corpus. backup is the raw matrix dud repair ranks against;
// nil uses the facet's own raw matrix.
func (s *Service) ScoreFacet(
	ctx context.Context, corpus document.Corpus, f facet.Facet, backup *similarity.Matrix,
) ([]neighbor.Record, FacetReport, error) {
	fr := FacetReport{Facet: f, Documents: corpus.Len()}
	name := f.String()
	log := logger.FromContext(ctx)

	raw, err := s.similarity(ctx, corpus, f)
	if err != nil {
		return nil, fr, err
	}
	if backup == nil {
		backup = &raw
	}

	var thresholded similarity.Matrix
	err = s.stage(ctx, name, domain.StageThreshold, func() error {
		m, _, err := ranking.Threshold(raw, s.opts.Quantile)
		thresholded = m
		return err
	})
	if err != nil {
		return nil, fr, err
	}

	var records []neighbor.Record
	err = s.stage(ctx, name, domain.StageTopK, func() error {
		r, err := ranking.TopK(thresholded)
		records = r
		return err
	})
	if err != nil {
		return nil, fr, err
	}

	err = s.stage(ctx, name, domain.StageDuds, func() error {
		r, duds, err := ranking.RepairDuds(records, *backup, ranking.NewDudDetector(corpus.IDs()))
		if err != nil {
			return err
		}
		records = r
		fr.Duds = duds
		return nil
	})
	if err != nil {
		return nil, fr, err
	}
	if len(fr.Duds) > 0 {
		s.recorder.AddDuds(name, len(fr.Duds))
		log.Info("duds repaired from backup matrix", zap.Int("count", len(fr.Duds)), zap.Int32s("ids", fr.Duds))
	}

	err = s.stage(ctx, name, domain.StageSelfRef, func() error {
		r, stats := ranking.RepairSelfReference(records)
		records = r
		fr.Rotated = stats.Rotated
		fr.Inserted = stats.Inserted
		return verify(records)
	})
	if err != nil {
		return nil, fr, err
	}
	if fr.Rotated > 0 {
		s.recorder.AddSelfRepairs(name, "rotated", fr.Rotated)
	}
	if len(fr.Inserted) > 0 {
		s.recorder.AddSelfRepairs(name, "inserted", len(fr.Inserted))
		log.Warn("documents missing from their own top-4; inserted at rank 0",
			zap.Int("count", len(fr.Inserted)), zap.Int32s("ids", fr.Inserted))
	}

	return records, fr, nil
}

func (s *Service) similarity(ctx context.Context, corpus document.Corpus, f facet.Facet) (similarity.Matrix, error) {
	var m similarity.Matrix
	err := s.stage(ctx, f.String(), domain.StageSimilar, func() error {
		out, err := similarity.Compute(s.tokenizer, corpus.Texts(f), corpus.IDs())
		m = out
		return err
	})
	return m, err
}

// stage times fn, records it and wraps any error with the facet and stage.
func (s *Service) stage(ctx context.Context, facetName, stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	s.recorder.ObserveStage(facetName, stage, d)

	log := logger.FromContext(ctx)
	if err != nil {
		log.Error("stage failed", zap.String("stage", stage), zap.Error(err))
		return domain.NewStageError(facetName, stage, err)
	}
	log.Debug("stage done", zap.String("stage", stage), zap.Duration("duration", d))
	return nil
}

func validateCorpus(c document.Corpus) error {
	if c.Len() < neighbor.K {
		return fmt.Errorf("%w: %d documents, need at least %d", domain.ErrCorpusTooSmall, c.Len(), neighbor.K)
	}
	if _, err := c.Index(); err != nil {
		return err
	}
	return nil
}

// verify rejects any record that would break the published invariant.
func verify(records []neighbor.Record) error {
	for _, r := range records {
		if !r.IsConsistent() {
			return fmt.Errorf("%w: record %d = %v", domain.ErrMissingSelfMatch, r.InternalID, r.Closest)
		}
	}
	return nil
}
