// Package corpus loads the journal-entry table the pipeline scores.
package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/document"
)

// Source column headers and the internal names they are renamed to.
const (
	ColumnID         = "internal_id"
	ColumnTranscript = "text_only_transcript"
	ColumnPeople     = "people"
	ColumnPlaces     = "places"
	ColumnTopics     = "topics"
)

var headerRenames = map[string]string{
	"Internal ID":          ColumnID,
	"Text Only Transcript": ColumnTranscript,
	"People":               ColumnPeople,
	"Places":               ColumnPlaces,
	"Topics":               ColumnTopics,
}

var requiredColumns = []string{ColumnID, ColumnTranscript, ColumnPeople, ColumnPlaces, ColumnTopics}

// Loader reads the corpus from a CSV file.
type Loader struct {
	path string
}

// NewLoader creates a loader for the given CSV path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Path returns the file the loader reads.
func (l *Loader) Path() string { return l.path }

// Load opens and parses the CSV file.
func (l *Loader) Load() (document.Corpus, error) {
	f, err := os.Open(filepath.Clean(l.path))
	if err != nil {
		return document.Corpus{}, fmt.Errorf("open corpus %s: %w", l.path, err)
	}
	defer f.Close()

	c, err := Read(f)
	if err != nil {
		return document.Corpus{}, fmt.Errorf("read corpus %s: %w", l.path, err)
	}
	return c, nil
}

// Read parses a corpus table. Headers are renamed to internal names; other
// columns are ignored. Empty cells become empty strings.
func Read(r io.Reader) (document.Corpus, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return document.Corpus{}, fmt.Errorf("empty table: %w", domain.ErrMissingColumn)
		}
		return document.Corpus{}, fmt.Errorf("read header: %w", err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return document.Corpus{}, err
	}

	var c document.Corpus
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return document.Corpus{}, fmt.Errorf("line %d: %w", line, err)
		}

		rawID := strings.TrimSpace(cell(rec, cols[ColumnID]))
		id, err := strconv.ParseInt(rawID, 10, 32)
		if err != nil {
			return document.Corpus{}, fmt.Errorf("line %d: invalid internal_id %q: %w", line, rawID, err)
		}

		c.Docs = append(c.Docs, document.New(
			int32(id),
			cell(rec, cols[ColumnTranscript]),
			cell(rec, cols[ColumnPeople]),
			cell(rec, cols[ColumnPlaces]),
			cell(rec, cols[ColumnTopics]),
		))
	}

	if _, err := c.Index(); err != nil {
		return document.Corpus{}, err
	}
	return c, nil
}

// resolveColumns maps internal column names to record positions.
// Both the source headers and the already-renamed names are accepted.
func resolveColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(requiredColumns))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if renamed, ok := headerRenames[h]; ok {
			h = renamed
		}
		if _, seen := cols[h]; !seen {
			cols[h] = i
		}
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s: %w", strings.Join(missing, ", "), domain.ErrMissingColumn)
	}
	return cols, nil
}

// cell returns the value at i, or "" for short rows.
func cell(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}
