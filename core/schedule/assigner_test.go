package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/propscan/scheduler/core/store"
	"github.com/propscan/scheduler/core/territory"
	"github.com/propscan/scheduler/infra/logger"
)

func newTestAssigner(st *store.MemoryStore, matrix *territory.Matrix) *Assigner {
	det := NewConflictDetector(st, matrix, Config{})
	return NewAssigner(st, det, matrix, logger.NopLogger{})
}

func TestSuggest_PrefersTerritoryMatch(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	if err := st.UpsertTechnician(ctx, testTechnician("t1", "Richmond")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := st.UpsertTechnician(ctx, testTechnician("t2", "Frankston")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	a := newTestAssigner(st, territory.New(territory.Config{}))

	sug, err := a.Suggest(ctx, "Richmond", monday.Add(9*time.Hour), 120, "building")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sug.Best.Technician.ID != "t1" {
		t.Fatalf("expected t1 (territory match) got %s", sug.Best.Technician.ID)
	}
	if sug.Best.Score <= sug.Ranked[1].Score {
		t.Fatalf("territory match must outrank mismatch: %v vs %v", sug.Best.Score, sug.Ranked[1].Score)
	}
}

func TestSuggest_WorkloadPenalty(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	if err := st.UpsertTechnician(ctx, testTechnician("t1", "Richmond")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := st.UpsertTechnician(ctx, testTechnician("t2", "Richmond")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	seedBooking(t, st, "b1", "t2", "Richmond", monday.Add(7*time.Hour), 60)
	seedBooking(t, st, "b2", "t2", "Richmond", monday.Add(16*time.Hour), 60)
	a := newTestAssigner(st, territory.New(territory.Config{}))

	sug, err := a.Suggest(ctx, "Richmond", monday.Add(10*time.Hour), 120, "pest")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sug.Best.Technician.ID != "t1" {
		t.Fatalf("expected unloaded t1 got %s", sug.Best.Technician.ID)
	}
	if diff := sug.Ranked[0].Score - sug.Ranked[1].Score; diff != 2*workloadPenaltyPerJob {
		t.Fatalf("expected 20 point workload gap got %v", diff)
	}
}

func TestSuggest_ExcludesDoubleBooked(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	if err := st.UpsertTechnician(ctx, testTechnician("t1", "Richmond")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := st.UpsertTechnician(ctx, testTechnician("t2", "Richmond")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	seedBooking(t, st, "b1", "t1", "Richmond", monday.Add(9*time.Hour), 120)
	a := newTestAssigner(st, territory.New(territory.Config{}))

	sug, err := a.Suggest(ctx, "Richmond", monday.Add(9*time.Hour+30*time.Minute), 60, "building")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sug.Ranked) != 1 || sug.Best.Technician.ID != "t2" {
		t.Fatalf("expected only t2 ranked got %+v", sug.Ranked)
	}
}

func TestSuggest_AdjacentTerritoryScoresBetween(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	if err := st.UpsertTechnician(ctx, testTechnician("t1", "A")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := st.UpsertTechnician(ctx, testTechnician("t2", "Z")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	matrix := territory.New(territory.Config{
		TravelMinutes: map[string]map[string]int{"A": {"B": 10}, "Z": {"B": 90}},
	})
	a := newTestAssigner(st, matrix)

	sug, err := a.Suggest(ctx, "B", monday.Add(9*time.Hour), 60, "building")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sug.Best.Technician.ID != "t1" {
		t.Fatalf("expected adjacent t1 to win got %s", sug.Best.Technician.ID)
	}
	if diff := sug.Ranked[0].Score - sug.Ranked[1].Score; diff != scoreAdjacentTerritory {
		t.Fatalf("expected adjacency bonus of %d got %v", scoreAdjacentTerritory, diff)
	}
}

func TestSuggest_TieBreaksBySmallestID(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	if err := st.UpsertTechnician(ctx, testTechnician("t9", "Richmond")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := st.UpsertTechnician(ctx, testTechnician("t2", "Richmond")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	a := newTestAssigner(st, territory.New(territory.Config{}))

	sug, err := a.Suggest(ctx, "Richmond", monday.Add(9*time.Hour), 60, "building")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sug.Best.Technician.ID != "t2" {
		t.Fatalf("expected tie break on smallest id got %s", sug.Best.Technician.ID)
	}
}

func TestSuggest_NoCandidates(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	if err := st.UpsertTechnician(ctx, testTechnician("t1", "Richmond")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	a := newTestAssigner(st, territory.New(territory.Config{}))

	// Sunday: nobody works, everyone is excluded.
	_, err := a.Suggest(ctx, "Richmond", monday.AddDate(0, 0, -1).Add(9*time.Hour), 60, "building")
	var ncerr *NoCandidateError
	if !errors.As(err, &ncerr) {
		t.Fatalf("expected NoCandidateError got %v", err)
	}
}
