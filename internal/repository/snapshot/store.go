// Package snapshot persists per-facet neighbor records as parquet files,
// the contract between the scorer and the viewer.
package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/parquet-go/parquet-go"

	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/facet"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/neighbor"
)

// row is the on-disk schema: internal_id plus four ranked ids, all int32.
type row struct {
	InternalID int32 `parquet:"internal_id"`
	Closest0   int32 `parquet:"closest_0"`
	Closest1   int32 `parquet:"closest_1"`
	Closest2   int32 `parquet:"closest_2"`
	Closest3   int32 `parquet:"closest_3"`
}

func toRow(r neighbor.Record) row {
	return row{
		InternalID: r.InternalID,
		Closest0:   r.Closest[0],
		Closest1:   r.Closest[1],
		Closest2:   r.Closest[2],
		Closest3:   r.Closest[3],
	}
}

func (r row) record() neighbor.Record {
	return neighbor.New(r.InternalID, [neighbor.K]int32{r.Closest0, r.Closest1, r.Closest2, r.Closest3})
}

// Store reads and writes snapshots under one directory.
type Store struct {
	dir string
}

// New creates a snapshot store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the snapshot file for a facet.
func (s *Store) Path(f facet.Facet) string {
	return filepath.Join(s.dir, f.SnapshotName())
}

// Write replaces the facet snapshot. Rows are sorted by internal_id and the
// file is written to a temp name first, then renamed.
func (s *Store) Write(f facet.Facet, records []neighbor.Record) error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	rows := make([]row, len(records))
	for i, r := range records {
		rows[i] = toRow(r)
	}
	sort.SliceStable(rows, func(a, b int) bool { return rows[a].InternalID < rows[b].InternalID })

	tmp, err := os.CreateTemp(s.dir, f.SnapshotName()+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	w := parquet.NewGenericWriter[row](tmp)
	if _, err := w.Write(rows); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s rows: %w", f, err)
	}
	if err := w.Close(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush %s snapshot: %w", f, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s snapshot: %w", f, err)
	}

	if err := os.Rename(tmpName, s.Path(f)); err != nil {
		return fmt.Errorf("publish %s snapshot: %w", f, err)
	}
	return nil
}

// Read loads the facet snapshot. A missing file yields domain.ErrNotFound.
func (s *Store) Read(f facet.Facet) ([]neighbor.Record, error) {
	path := s.Path(f)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s snapshot: %w", f, domain.ErrNotFound)
	}

	rows, err := parquet.ReadFile[row](path)
	if err != nil {
		return nil, fmt.Errorf("read %s snapshot: %w", f, err)
	}

	out := make([]neighbor.Record, len(rows))
	for i, r := range rows {
		out[i] = r.record()
	}
	return out, nil
}
