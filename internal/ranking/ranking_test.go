package ranking

import (
	"errors"
	"math"
	"testing"

	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/neighbor"
	"github.com/wilfordwoodruff/recommend-streamlit/internal/similarity"
)

func mustMatrix(t *testing.T, rows [][]float64, ids []int32) similarity.Matrix {
	t.Helper()
	m, err := similarity.FromRows(rows, ids)
	if err != nil {
		t.Fatalf("build matrix: %v", err)
	}
	return m
}

func onesMatrix(t *testing.T, n int) similarity.Matrix {
	t.Helper()
	rows := make([][]float64, n)
	ids := make([]int32, n)
	for i := range rows {
		rows[i] = make([]float64, n)
		for j := range rows[i] {
			rows[i][j] = 1
		}
		ids[i] = int32(i + 1)
	}
	return mustMatrix(t, rows, ids)
}

func TestPercentile(t *testing.T) {
	row := []float64{1.0, 0.9, 0.1, 0.05, 0.0}
	tests := []struct {
		q    float64
		want float64
	}{
		{0.75, 0.9},
		{0.5, 0.1},
		{0.6, 0.42},
		{0, 0},
		{1, 1},
	}
	for _, tc := range tests {
		got, err := Percentile(row, tc.q)
		if err != nil {
			t.Fatalf("q=%v: unexpected error: %v", tc.q, err)
		}
		if math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("Percentile(q=%v) = %v, want %v", tc.q, got, tc.want)
		}
	}
	if row[0] != 1.0 || row[4] != 0.0 {
		t.Error("Percentile reordered its input")
	}
}

func TestPercentile_InvalidQuantile(t *testing.T) {
	for _, q := range []float64{-0.1, 1.5, math.NaN()} {
		if _, err := Percentile([]float64{1}, q); !errors.Is(err, domain.ErrInvalidQuantile) {
			t.Errorf("q=%v: expected ErrInvalidQuantile, got %v", q, err)
		}
	}
}

func TestThreshold_StrictAndMonotonic(t *testing.T) {
	raw := mustMatrix(t, [][]float64{
		{1.0, 0.9, 0.1, 0.05, 0.0},
		{0.9, 1.0, 0.3, 0.2, 0.1},
		{0.1, 0.3, 1.0, 0.6, 0.5},
		{0.05, 0.2, 0.6, 1.0, 0.7},
		{0.0, 0.1, 0.5, 0.7, 1.0},
	}, []int32{1, 2, 3, 4, 5})

	th, pct, err := Threshold(raw, DefaultQuantile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pct[0] != 0.9 {
		t.Errorf("row 0 percentile = %v, want 0.9", pct[0])
	}
	// 0.9 equals the threshold and is zeroed by the strict comparison.
	if th.At(0, 0) != 1.0 || th.At(0, 1) != 0 || th.At(0, 2) != 0 {
		t.Errorf("row 0 thresholded = %v", th.Row(0))
	}

	for i := 0; i < raw.N(); i++ {
		for j := 0; j < raw.N(); j++ {
			v := th.At(i, j)
			if v != 0 && v != raw.At(i, j) {
				t.Errorf("th[%d][%d] = %v changed magnitude of %v", i, j, v, raw.At(i, j))
			}
		}
	}
}

func TestThreshold_AllOnesZeroesEverything(t *testing.T) {
	th, _, err := Threshold(onesMatrix(t, 4), DefaultQuantile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if th.At(i, j) != 0 {
				t.Fatalf("th[%d][%d] = %v, want 0", i, j, th.At(i, j))
			}
		}
	}
}

func TestTopK_OrderAndTies(t *testing.T) {
	m := mustMatrix(t, [][]float64{
		{1, 0.2, 0.8, 0.2, 0.2},
		{0.2, 1, 0, 0, 0},
		{0.8, 0, 1, 0, 0},
		{0.2, 0, 0, 1, 0},
		{0.2, 0, 0, 0, 1},
	}, []int32{10, 20, 30, 40, 50})

	recs, err := TopK(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := [neighbor.K]int32{10, 30, 20, 40}; recs[0].Closest != want {
		t.Errorf("row 0 = %v, want %v", recs[0].Closest, want)
	}
	// Zeros still rank, lower column first.
	if want := [neighbor.K]int32{20, 10, 30, 40}; recs[1].Closest != want {
		t.Errorf("row 1 = %v, want %v", recs[1].Closest, want)
	}
	if recs[4].InternalID != 50 {
		t.Errorf("records not in matrix order: %v", recs[4].InternalID)
	}
}

func TestTopK_CorpusTooSmall(t *testing.T) {
	_, err := TopK(onesMatrix(t, 3))
	if !errors.Is(err, domain.ErrCorpusTooSmall) {
		t.Fatalf("expected ErrCorpusTooSmall, got %v", err)
	}
}

func TestDudDetector(t *testing.T) {
	d := NewDudDetector([]int32{1, 2, 3, 4, 5, 6, 7})
	tests := []struct {
		name string
		rec  neighbor.Record
		want bool
	}{
		{"self run", neighbor.New(3, [neighbor.K]int32{3, 4, 5, 6}), true},
		{"leading ids", neighbor.New(6, [neighbor.K]int32{1, 2, 3, 4}), true},
		{"off by one", neighbor.New(3, [neighbor.K]int32{4, 5, 6, 7}), false},
		{"real ranking", neighbor.New(3, [neighbor.K]int32{3, 7, 1, 2}), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := d.IsDud(tc.rec); got != tc.want {
				t.Errorf("IsDud = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRepairDuds_IdenticalCorpusUnchanged(t *testing.T) {
	raw := onesMatrix(t, 4)
	th, _, err := Threshold(raw, DefaultQuantile)
	if err != nil {
		t.Fatalf("threshold: %v", err)
	}
	recs, err := TopK(th)
	if err != nil {
		t.Fatalf("top k: %v", err)
	}

	fixed, duds, err := RepairDuds(recs, raw, NewDudDetector(raw.IDs()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(duds) != 4 {
		t.Fatalf("duds = %v, want all four", duds)
	}
	for i := range recs {
		if fixed[i] != recs[i] {
			t.Errorf("record %d changed: %v -> %v", i, recs[i].Closest, fixed[i].Closest)
		}
	}

	anchored, stats := RepairSelfReference(fixed)
	for _, r := range anchored {
		if !r.IsConsistent() {
			t.Errorf("record %d inconsistent after self repair: %v", r.InternalID, r.Closest)
		}
	}
	if stats.Rotated != 3 || len(stats.Inserted) != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if want := [neighbor.K]int32{3, 1, 2, 4}; anchored[2].Closest != want {
		t.Errorf("doc 3 = %v, want %v", anchored[2].Closest, want)
	}
}

func TestRepairDuds_FewDudsRankWholeRow(t *testing.T) {
	// Doc 3 has no facet signal; its backup row says doc 4 is identical.
	backup := mustMatrix(t, [][]float64{
		{1, 0.3, 0.1, 0.1, 0.2},
		{0.3, 1, 0.2, 0.2, 0.1},
		{0.1, 0.2, 1, 1, 0.4},
		{0.1, 0.2, 1, 1, 0.4},
		{0.2, 0.1, 0.4, 0.4, 1},
	}, []int32{1, 2, 3, 4, 5})

	recs := []neighbor.Record{
		neighbor.New(5, [neighbor.K]int32{5, 2, 1, 3}),
		neighbor.New(3, [neighbor.K]int32{3, 4, 5, 6}),
		neighbor.New(1, [neighbor.K]int32{1, 5, 2, 4}),
	}

	fixed, duds, err := RepairDuds(recs, backup, NewDudDetector(backup.IDs()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(duds) != 1 || duds[0] != 3 {
		t.Fatalf("duds = %v, want [3]", duds)
	}
	if fixed[0].InternalID != 1 || fixed[1].InternalID != 3 || fixed[2].InternalID != 5 {
		t.Fatalf("not sorted by internal_id: %v", fixed)
	}
	if want := [neighbor.K]int32{3, 4, 5, 2}; fixed[1].Closest != want {
		t.Errorf("doc 3 = %v, want %v", fixed[1].Closest, want)
	}
	if fixed[0] != recs[2] || fixed[2] != recs[0] {
		t.Error("non-dud records changed")
	}
}

func TestRepairDuds_RestrictsToDudColumns(t *testing.T) {
	n := 6
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
	}
	for i := range rows {
		rows[i][i] = 1
		// Column 6 is similar to everything but is not a dud.
		rows[i][n-1] = 0.9
		rows[n-1][i] = 0.9
	}
	rows[n-1][n-1] = 1
	backup := mustMatrix(t, rows, []int32{1, 2, 3, 4, 5, 6})

	recs := []neighbor.Record{
		neighbor.New(1, [neighbor.K]int32{1, 2, 3, 4}),
		neighbor.New(2, [neighbor.K]int32{2, 3, 4, 5}),
		neighbor.New(3, [neighbor.K]int32{3, 4, 5, 6}),
		neighbor.New(4, [neighbor.K]int32{1, 2, 3, 4}),
		neighbor.New(5, [neighbor.K]int32{5, 6, 1, 2}),
		neighbor.New(6, [neighbor.K]int32{6, 1, 2, 3}),
	}
	fixed, duds, err := RepairDuds(recs, backup, NewDudDetector(backup.IDs()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(duds) != 4 {
		t.Fatalf("duds = %v", duds)
	}
	for _, r := range fixed[:4] {
		for _, id := range r.Closest {
			if id == 6 || id == 5 {
				t.Errorf("doc %d ranked non-dud %d: %v", r.InternalID, id, r.Closest)
			}
		}
	}
	if want := [neighbor.K]int32{2, 1, 3, 4}; fixed[1].Closest != want {
		t.Errorf("doc 2 = %v, want %v", fixed[1].Closest, want)
	}
}

func TestRepairSelfReference(t *testing.T) {
	tests := []struct {
		name string
		in   neighbor.Record
		want [neighbor.K]int32
	}{
		{"anchored", neighbor.New(1, [neighbor.K]int32{1, 2, 3, 4}), [neighbor.K]int32{1, 2, 3, 4}},
		{"rank one", neighbor.New(2, [neighbor.K]int32{1, 2, 3, 4}), [neighbor.K]int32{2, 1, 3, 4}},
		{"rank two", neighbor.New(7, [neighbor.K]int32{1, 2, 7, 4}), [neighbor.K]int32{7, 1, 2, 4}},
		{"rank three", neighbor.New(9, [neighbor.K]int32{1, 2, 3, 9}), [neighbor.K]int32{9, 1, 2, 3}},
		{"missing", neighbor.New(8, [neighbor.K]int32{1, 2, 3, 4}), [neighbor.K]int32{8, 1, 2, 3}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, _ := RepairSelfReference([]neighbor.Record{tc.in})
			if out[0].Closest != tc.want {
				t.Errorf("got %v, want %v", out[0].Closest, tc.want)
			}
			if !out[0].IsConsistent() {
				t.Errorf("inconsistent result %v", out[0].Closest)
			}
		})
	}
}

func TestRepairSelfReference_StatsAndIdempotence(t *testing.T) {
	in := []neighbor.Record{
		neighbor.New(1, [neighbor.K]int32{1, 2, 3, 4}),
		neighbor.New(2, [neighbor.K]int32{3, 2, 1, 4}),
		neighbor.New(5, [neighbor.K]int32{1, 2, 3, 4}),
	}
	once, stats := RepairSelfReference(in)
	if stats.Rotated != 1 {
		t.Errorf("Rotated = %d, want 1", stats.Rotated)
	}
	if len(stats.Inserted) != 1 || stats.Inserted[0] != 5 {
		t.Errorf("Inserted = %v, want [5]", stats.Inserted)
	}
	if in[1].Closest[0] != 3 {
		t.Error("input slice was mutated")
	}

	twice, stats2 := RepairSelfReference(once)
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("second pass changed record %d: %v -> %v", i, once[i].Closest, twice[i].Closest)
		}
	}
	if stats2.Rotated != 0 || len(stats2.Inserted) != 0 {
		t.Errorf("second pass stats = %+v", stats2)
	}
}
