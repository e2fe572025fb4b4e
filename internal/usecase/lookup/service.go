// Package lookup answers the viewer's questions: which entries exist, what an
// entry says, and which entries are its closest matches per facet.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/document"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/facet"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/neighbor"
)

// Entry is one journal entry prepared for display.
type Entry struct {
	ID         int32
	Transcript string
	People     string
	Places     string
	Topics     string
}

// Match is one ranked neighbor of an entry.
type Match struct {
	Rank  int
	Entry Entry
}

// View is an entry with its matches per facet.
type View struct {
	Entry   Entry
	Matches map[facet.Facet][]Match
}

// Service caches the corpus and snapshots in memory; Reload swaps them.
type Service struct {
	corpus    CorpusLoader
	snapshots SnapshotReader
	formatter Formatter
	facets    []facet.Facet
	source    NeighborSource

	mu      sync.RWMutex
	entries map[int32]Entry
	ids     []int32
	records map[facet.Facet]map[int32]neighbor.Record
	loadErr error
}

// New creates a lookup service. Call Reload before serving.
func New(corpus CorpusLoader, snapshots SnapshotReader, formatter Formatter, facets []facet.Facet) *Service {
	if len(facets) == 0 {
		facets = facet.Default
	}
	return &Service{
		corpus:    corpus,
		snapshots: snapshots,
		formatter: formatter,
		facets:    facets,
		loadErr:   errors.New("snapshots not loaded"),
	}
}

// WithNeighborSource reads records from a store first, falling back to snapshots.
func (s *Service) WithNeighborSource(src NeighborSource) *Service {
	s.source = src
	return s
}

// Reload reads the corpus and every facet snapshot. On failure the previous
// state is kept and the error is reported by Ready.
func (s *Service) Reload() error {
	c, err := s.corpus.Load()
	if err != nil {
		return s.fail(fmt.Errorf("load corpus: %w", err))
	}

	entries := make(map[int32]Entry, c.Len())
	for _, d := range c.Docs {
		entries[d.InternalID()] = s.entry(d)
	}
	ids := c.IDs()
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })

	records := make(map[facet.Facet]map[int32]neighbor.Record, len(s.facets))
	for _, f := range s.facets {
		recs, err := s.snapshots.Read(f)
		if err != nil {
			return s.fail(fmt.Errorf("load %s snapshot: %w", f, err))
		}
		byID := make(map[int32]neighbor.Record, len(recs))
		for _, r := range recs {
			byID[r.InternalID] = r
		}
		records[f] = byID
	}

	s.mu.Lock()
	s.entries, s.ids, s.records, s.loadErr = entries, ids, records, nil
	s.mu.Unlock()
	return nil
}

func (s *Service) fail(err error) error {
	s.mu.Lock()
	if s.entries == nil {
		s.loadErr = err
	}
	s.mu.Unlock()
	return err
}

// Ready reports whether a successful Reload has happened.
func (s *Service) Ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// IDs returns every entry id, ascending.
func (s *Service) IDs() []int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int32, len(s.ids))
	copy(out, s.ids)
	return out
}

// Facets returns the facets the service serves.
func (s *Service) Facets() []facet.Facet {
	out := make([]facet.Facet, len(s.facets))
	copy(out, s.facets)
	return out
}

// Entry returns one entry with closest_1..closest_3 for every facet.
func (s *Service) Entry(ctx context.Context, id int32) (View, error) {
	e, err := s.lookupEntry(id)
	if err != nil {
		return View{}, err
	}

	v := View{Entry: e, Matches: make(map[facet.Facet][]Match, len(s.facets))}
	for _, f := range s.facets {
		rec, err := s.Neighbors(ctx, f, id)
		if err != nil {
			return View{}, err
		}
		matches := make([]Match, 0, neighbor.K-1)
		for rank, nid := range rec.Neighbors() {
			ne, err := s.lookupEntry(nid)
			if err != nil {
				return View{}, fmt.Errorf("%s neighbor %d of %d: %w", f, nid, id, err)
			}
			matches = append(matches, Match{Rank: rank + 1, Entry: ne})
		}
		v.Matches[f] = matches
	}
	return v, nil
}

// Neighbors returns the raw record of one entry for a facet.
func (s *Service) Neighbors(ctx context.Context, f facet.Facet, id int32) (neighbor.Record, error) {
	if !s.serves(f) {
		return neighbor.Record{}, fmt.Errorf("%w: %q", domain.ErrUnknownFacet, f)
	}

	if s.source != nil {
		rec, err := s.source.Get(ctx, f, id)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return neighbor.Record{}, err
		}
	}

	s.mu.RLock()
	rec, ok := s.records[f][id]
	s.mu.RUnlock()
	if !ok {
		return neighbor.Record{}, fmt.Errorf("%s record %d: %w", f, id, domain.ErrNotFound)
	}
	return rec, nil
}

func (s *Service) serves(f facet.Facet) bool {
	for _, have := range s.facets {
		if have == f {
			return true
		}
	}
	return false
}

func (s *Service) lookupEntry(id int32) (Entry, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return Entry{}, fmt.Errorf("entry %d: %w", id, domain.ErrNotFound)
	}
	return e, nil
}

// entry formats raw fields the way the viewer shows them: markup in the
// transcript becomes a space, markup in the facet lists becomes ", ".
func (s *Service) entry(d document.Document) Entry {
	return Entry{
		ID:         d.InternalID(),
		Transcript: s.formatter.Field(d.Raw(facet.Transcript)),
		People:     s.formatter.Display(d.Raw(facet.People)),
		Places:     s.formatter.Display(d.Raw(facet.Places)),
		Topics:     s.formatter.Display(d.Raw(facet.Topics)),
	}
}
