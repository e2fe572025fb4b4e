package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing document or record.
	ErrNotFound = errors.New("not found")
	// ErrMissingColumn signals an input table without a required column.
	ErrMissingColumn = errors.New("missing required column")
	// ErrDuplicateID signals two input rows sharing one internal_id.
	ErrDuplicateID = errors.New("duplicate internal_id")
	// ErrCorpusTooSmall signals a corpus that cannot yield three distinct neighbors per document.
	ErrCorpusTooSmall = errors.New("corpus too small")
	// ErrEmptyVocabulary signals a facet where every document is empty or stopwords only.
	ErrEmptyVocabulary = errors.New("empty vocabulary")
	// ErrInvalidQuantile signals a quantile outside [0, 1].
	ErrInvalidQuantile = errors.New("invalid quantile")
	// ErrUnknownFacet signals an unsupported facet name.
	ErrUnknownFacet = errors.New("unknown facet")
	// ErrMissingSelfMatch signals a record whose top-4 never contained its own id.
	ErrMissingSelfMatch = errors.New("missing self match")
	// ErrDimensionMismatch signals matrices or id lists of different sizes.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// Pipeline stage names used in StageError and logs.
const (
	StageLoad      = "load"
	StageNormalize = "normalize"
	StageSimilar   = "similarity"
	StageThreshold = "threshold"
	StageTopK      = "top_k"
	StageDuds      = "dud_repair"
	StageSelfRef   = "self_reference_repair"
	StageSnapshot  = "snapshot"
	StagePublish   = "publish"
)

// StageError wraps a failure with the facet and stage that produced it.
type StageError struct {
	Facet string
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("facet %s: stage %s: %s", e.Facet, e.Stage, e.Err.Error())
}

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError creates a StageError. Returns nil when err is nil.
func NewStageError(facet, stage string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Facet: facet, Stage: stage, Err: err}
}
