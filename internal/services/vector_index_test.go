package services

import (
	"math"
	"testing"

	"github.com/yungbote/conscious-backend/internal/data/repos/testutil"
	"github.com/yungbote/conscious-backend/internal/domain"
	"github.com/yungbote/conscious-backend/internal/platform/dbctx"
)

// fixedIndex returns its neighbors in the stored order, like an ANN index
// ordering by distance alone.
type fixedIndex []domain.Neighbor

func (f fixedIndex) Nearest(_ dbctx.Context, _ []float32, _ int) ([]domain.Neighbor, error) {
	out := make([]domain.Neighbor, len(f))
	copy(out, f)
	return out, nil
}

func TestCosineDistance(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, 2},
		{"scaled", []float32{1, 1}, []float32{3, 3}, 0},
		{"zero", []float32{0, 0}, []float32{1, 0}, 1},
		{"mismatch", []float32{1, 0, 0}, []float32{1, 0}, 1},
	}
	for _, tc := range cases {
		if got := CosineDistance(tc.a, tc.b); math.Abs(got-tc.want) > 1e-6 {
			t.Errorf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestScanIndexNearest(t *testing.T) {
	h := newHarness(t)
	a := testutil.SeedThought(t, h.ctx, h.db, "a", []float32{1, 0, 0})
	b := testutil.SeedThought(t, h.ctx, h.db, "b", []float32{0.8, 0.6, 0})
	testutil.SeedThought(t, h.ctx, h.db, "c", []float32{0, 0, 1})
	dup := testutil.SeedThought(t, h.ctx, h.db, "a again", []float32{1, 0, 0})

	got, err := NewScanIndex(h.thoughts).Nearest(dbcOf(h), []float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Nearest: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len=%d want 3", len(got))
	}
	if got[0].ID != a.ID || got[1].ID != dup.ID || got[2].ID != b.ID {
		t.Fatalf("order=%+v", got)
	}
	if math.Abs(got[2].Distance-0.2) > 1e-6 {
		t.Fatalf("distance=%v want 0.2", got[2].Distance)
	}
}

func TestDeduplicatorStrictAndLenient(t *testing.T) {
	h := newHarness(t)
	testutil.SeedThought(t, h.ctx, h.db, "a", []float32{1, 0, 0})
	d := NewDeduplicator(NewScanIndex(h.thoughts), testutil.Dimension, testutil.Logger(t))
	cands := []Candidate{
		{Text: "ok", Vector: []float32{1, 0, 0}},
		{Text: "wide", Vector: []float32{1, 0, 0, 0}},
	}

	res, err := d.FindNeighbors(dbcOf(h), cands, NeighborQuery{DistanceMax: 0.1, Limit: 5})
	if err != nil {
		t.Fatalf("FindNeighbors: %v", err)
	}
	if len(res[0].Neighbors) != 1 || res[1].Error == "" || res[1].Neighbors == nil {
		t.Fatalf("res=%+v", res)
	}

	_, err = d.FindNeighbors(dbcOf(h), cands, NeighborQuery{DistanceMax: 0.1, Limit: 5, Strict: true})
	if err == nil {
		t.Fatalf("strict mode must fail on a bad candidate")
	}
}

func TestDeduplicatorBreaksDistanceTiesByID(t *testing.T) {
	idx := fixedIndex{
		{ID: 9, Text: "late", Distance: 0.02},
		{ID: 4, Text: "early", Distance: 0.02},
		{ID: 1, Text: "far", Distance: 0.3},
		{ID: 7, Text: "near", Distance: 0.01},
	}
	d := NewDeduplicator(idx, testutil.Dimension, testutil.Logger(t))
	res, err := d.FindNeighbors(dbctx.Context{}, []Candidate{{Text: "q", Vector: []float32{1, 0, 0}}}, NeighborQuery{DistanceMax: 0.1, Limit: 4})
	if err != nil {
		t.Fatalf("FindNeighbors: %v", err)
	}
	var ids []int64
	for _, n := range res[0].Neighbors {
		ids = append(ids, n.ID)
	}
	want := []int64{7, 4, 9}
	if len(ids) != len(want) {
		t.Fatalf("ids=%v want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids=%v want %v", ids, want)
		}
	}
}
