package lookup

import (
	"context"
	"errors"
	"testing"

	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/document"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/facet"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/neighbor"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/textproc"
)

// --- mocks ---

type mockCorpus struct {
	corpus document.Corpus
	err    error
}

func (m *mockCorpus) Load() (document.Corpus, error) { return m.corpus, m.err }

type mockSnapshots struct {
	records map[facet.Facet][]neighbor.Record
	err     error
}

func (m *mockSnapshots) Read(f facet.Facet) ([]neighbor.Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	recs, ok := m.records[f]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return recs, nil
}

type mockSource struct {
	getFn func(ctx context.Context, f facet.Facet, id int32) (neighbor.Record, error)
}

func (m *mockSource) Get(ctx context.Context, f facet.Facet, id int32) (neighbor.Record, error) {
	return m.getFn(ctx, f, id)
}

func testCorpus() document.Corpus {
	return document.Corpus{Docs: []document.Document{
		document.New(4, `Went to meeting\nSunday`, "Brigham Young|[[Heber Kimball]]", "Salt Lake City", "Sermons"),
		document.New(1, "Rain all day", "Wilford Woodruff", "Winter Quarters", "Weather"),
		document.New(3, "Travelled north", "", "Ogden", "Travel"),
		document.New(2, "Wrote letters", "Phebe Woodruff", "", "Family"),
	}}
}

func testSnapshots() *mockSnapshots {
	recs := []neighbor.Record{
		neighbor.New(1, [neighbor.K]int32{1, 2, 3, 4}),
		neighbor.New(2, [neighbor.K]int32{2, 1, 4, 3}),
		neighbor.New(3, [neighbor.K]int32{3, 4, 1, 2}),
		neighbor.New(4, [neighbor.K]int32{4, 3, 2, 1}),
	}
	return &mockSnapshots{records: map[facet.Facet][]neighbor.Record{
		facet.People: recs, facet.Places: recs, facet.Topics: recs,
	}}
}

func newLoaded(t *testing.T) *Service {
	t.Helper()
	svc := New(&mockCorpus{corpus: testCorpus()}, testSnapshots(), textproc.NewNormalizer(), nil)
	if err := svc.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	return svc
}

// --- tests ---

func TestReload_ReadyAndIDs(t *testing.T) {
	svc := New(&mockCorpus{corpus: testCorpus()}, testSnapshots(), textproc.NewNormalizer(), nil)
	if svc.Ready() == nil {
		t.Fatal("service must not be ready before Reload")
	}
	if err := svc.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if err := svc.Ready(); err != nil {
		t.Fatalf("Ready: %v", err)
	}
	ids := svc.IDs()
	if len(ids) != 4 || ids[0] != 1 || ids[3] != 4 {
		t.Errorf("IDs = %v, want ascending 1..4", ids)
	}
}

func TestReload_FailureKeepsPreviousState(t *testing.T) {
	snaps := testSnapshots()
	svc := New(&mockCorpus{corpus: testCorpus()}, snaps, textproc.NewNormalizer(), nil)
	if err := svc.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	snaps.err = errors.New("disk gone")
	if err := svc.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if err := svc.Ready(); err != nil {
		t.Errorf("previous snapshots should keep serving, Ready = %v", err)
	}
	if _, err := svc.Entry(context.Background(), 1); err != nil {
		t.Errorf("Entry after failed reload: %v", err)
	}
}

func TestReload_MissingSnapshot(t *testing.T) {
	snaps := testSnapshots()
	delete(snaps.records, facet.Places)
	svc := New(&mockCorpus{corpus: testCorpus()}, snaps, textproc.NewNormalizer(), nil)

	if err := svc.Reload(); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Reload error = %v, want ErrNotFound", err)
	}
	if svc.Ready() == nil {
		t.Error("service must not be ready")
	}
}

func TestEntry(t *testing.T) {
	svc := newLoaded(t)

	v, err := svc.Entry(context.Background(), 4)
	if err != nil {
		t.Fatalf("Entry: %v", err)
	}
	if v.Entry.People != "Brigham Young, , Heber Kimball, " {
		t.Errorf("people display = %q", v.Entry.People)
	}
	if v.Entry.Transcript != "Went to meeting Sunday" {
		t.Errorf("transcript display = %q", v.Entry.Transcript)
	}

	matches := v.Matches[facet.People]
	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(matches))
	}
	wantIDs := []int32{3, 2, 1}
	for i, m := range matches {
		if m.Rank != i+1 || m.Entry.ID != wantIDs[i] {
			t.Errorf("match %d = rank %d id %d, want rank %d id %d", i, m.Rank, m.Entry.ID, i+1, wantIDs[i])
		}
	}
	if matches[0].Entry.Places != "Ogden" {
		t.Errorf("neighbor places = %q", matches[0].Entry.Places)
	}

	if _, err := svc.Entry(context.Background(), 99); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Entry(99) error = %v, want ErrNotFound", err)
	}
}

func TestNeighbors(t *testing.T) {
	svc := newLoaded(t)
	ctx := context.Background()

	rec, err := svc.Neighbors(ctx, facet.Topics, 2)
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	if rec.Closest != [neighbor.K]int32{2, 1, 4, 3} {
		t.Errorf("closest = %v", rec.Closest)
	}

	if _, err := svc.Neighbors(ctx, facet.Transcript, 2); !errors.Is(err, domain.ErrUnknownFacet) {
		t.Errorf("transcript error = %v, want ErrUnknownFacet", err)
	}
	if _, err := svc.Neighbors(ctx, facet.Topics, 42); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing id error = %v, want ErrNotFound", err)
	}
}

func TestNeighbors_PrefersSource(t *testing.T) {
	storeErr := errors.New("valkey down")
	src := &mockSource{getFn: func(_ context.Context, _ facet.Facet, id int32) (neighbor.Record, error) {
		switch id {
		case 1:
			return neighbor.New(1, [neighbor.K]int32{1, 4, 3, 2}), nil
		case 3:
			return neighbor.Record{}, storeErr
		}
		return neighbor.Record{}, domain.ErrNotFound
	}}
	svc := newLoaded(t).WithNeighborSource(src)
	ctx := context.Background()

	rec, err := svc.Neighbors(ctx, facet.People, 1)
	if err != nil || rec.Closest != [neighbor.K]int32{1, 4, 3, 2} {
		t.Errorf("source record = %v, %v", rec.Closest, err)
	}

	// Not published yet: falls back to the snapshot.
	rec, err = svc.Neighbors(ctx, facet.People, 2)
	if err != nil || rec.Closest != [neighbor.K]int32{2, 1, 4, 3} {
		t.Errorf("fallback record = %v, %v", rec.Closest, err)
	}

	if _, err := svc.Neighbors(ctx, facet.People, 3); !errors.Is(err, storeErr) {
		t.Errorf("store error = %v, want passthrough", err)
	}
}
