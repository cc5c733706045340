package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/propscan/scheduler/core/logger"
	coremetrics "github.com/propscan/scheduler/core/metrics"
	"github.com/propscan/scheduler/core/model"
	"github.com/propscan/scheduler/core/store"
	"github.com/propscan/scheduler/core/territory"
)

// Scoring weights. Higher is better; a technician with a double-booking or
// outside-hours conflict at the proposed slot is excluded entirely.
const (
	scoreTerritoryMatch    = 100
	scoreAdjacentTerritory = 20
	scoreCleanSlot         = 10
	workloadPenaltyPerJob  = 10
)

// Candidate is one ranked technician with the score breakdown.
type Candidate struct {
	Technician model.Technician           `json:"technician"`
	Score      float64                    `json:"score"`
	Reasoning  []string                   `json:"reasoning"`
	Conflicts  []model.SchedulingConflict `json:"conflicts,omitempty"`
}

// Suggestion is the assigner's answer: the best candidate plus the full
// ranked list for presenting reasoning to the caller.
type Suggestion struct {
	Best   Candidate   `json:"best"`
	Ranked []Candidate `json:"ranked"`
}

// Assigner scores and ranks candidate technicians for a job.
type Assigner struct {
	store    store.CalendarStore
	detector *ConflictDetector
	matrix   *territory.Matrix
	log      logger.Logger
	recorder coremetrics.SuggestionRecorder
}

// NewAssigner creates an Assigner.
func NewAssigner(st store.CalendarStore, det *ConflictDetector, m *territory.Matrix, log logger.Logger) *Assigner {
	return &Assigner{store: st, detector: det, matrix: m, log: log}
}

// SetRecorder attaches an optional suggestion recorder.
func (a *Assigner) SetRecorder(r coremetrics.SuggestionRecorder) { a.recorder = r }

// Suggest ranks every active technician for the proposed job. Results are
// deterministic: equal scores break by smallest technician id.
func (a *Assigner) Suggest(ctx context.Context, jobTerritory string, start time.Time, durationMinutes int, serviceType string) (Suggestion, error) {
	if durationMinutes <= 0 {
		return Suggestion{}, validationf("duration must be positive, got %d", durationMinutes)
	}
	if jobTerritory == "" {
		return Suggestion{}, validationf("territory is required")
	}
	techs, err := a.store.ListTechnicians(ctx, true)
	if err != nil {
		return Suggestion{}, fmt.Errorf("list technicians: %w", err)
	}

	var ranked []Candidate
	for _, tech := range techs {
		cand, excluded, err := a.score(ctx, tech, jobTerritory, start, durationMinutes)
		if err != nil {
			return Suggestion{}, err
		}
		if excluded {
			a.log.Debugf("excluding %s for %s at %s", tech.ID, jobTerritory, start.Format(time.RFC3339))
			continue
		}
		ranked = append(ranked, cand)
	}
	if len(ranked) == 0 {
		return Suggestion{}, &NoCandidateError{Territory: jobTerritory}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Technician.ID < ranked[j].Technician.ID
	})
	a.log.Infof("suggested %s (score %.0f) for %s %s job", ranked[0].Technician.ID,
		ranked[0].Score, jobTerritory, serviceType)
	if a.recorder != nil {
		if err := a.recorder.RecordSuggestion(coremetrics.SuggestionEvent{
			Territory:  jobTerritory,
			Candidates: len(ranked),
			BestID:     ranked[0].Technician.ID,
			BestScore:  ranked[0].Score,
			Time:       time.Now().UTC(),
		}); err != nil {
			a.log.Errorf("record suggestion: %v", err)
		}
	}
	return Suggestion{Best: ranked[0], Ranked: ranked}, nil
}

func (a *Assigner) score(ctx context.Context, tech model.Technician, jobTerritory string, start time.Time, durationMinutes int) (Candidate, bool, error) {
	conflicts, err := a.detector.CheckConflicts(ctx, tech.ID, start, durationMinutes, jobTerritory)
	if err != nil {
		return Candidate{}, false, fmt.Errorf("conflicts for %s: %w", tech.ID, err)
	}
	for _, c := range conflicts {
		if c.Kind == model.ConflictDoubleBooking || c.Kind == model.ConflictOutsideHours {
			return Candidate{}, true, nil
		}
	}

	cand := Candidate{Technician: tech, Conflicts: conflicts}
	switch {
	case tech.ServesTerritory(jobTerritory):
		cand.Score += scoreTerritoryMatch
		cand.Reasoning = append(cand.Reasoning, "territory match")
	case a.adjacentTo(tech, jobTerritory):
		cand.Score += scoreAdjacentTerritory
		cand.Reasoning = append(cand.Reasoning, "adjacent territory")
	}

	load, err := a.sameDayLoad(ctx, tech.ID, start)
	if err != nil {
		return Candidate{}, false, err
	}
	if load > 0 {
		cand.Score -= float64(load * workloadPenaltyPerJob)
		cand.Reasoning = append(cand.Reasoning, fmt.Sprintf("%d same-day booking(s)", load))
	} else {
		cand.Reasoning = append(cand.Reasoning, "no bookings that day")
	}

	if len(conflicts) == 0 {
		cand.Score += scoreCleanSlot
		cand.Reasoning = append(cand.Reasoning, "slot is conflict-free")
	}
	return cand, false, nil
}

func (a *Assigner) adjacentTo(tech model.Technician, jobTerritory string) bool {
	if a.matrix == nil {
		return false
	}
	for _, t := range tech.Territories {
		if a.matrix.Adjacent(t, jobTerritory) {
			return true
		}
	}
	return false
}

// sameDayLoad counts the technician's non-cancelled bookings on the proposed
// day, for the load-balancing penalty.
func (a *Assigner) sameDayLoad(ctx context.Context, technicianID string, start time.Time) (int, error) {
	day := start.UTC().Truncate(24 * time.Hour)
	bookings, err := a.store.ListInspections(ctx, store.InspectionFilter{
		TechnicianID: technicianID,
		From:         day,
		To:           day.AddDate(0, 0, 1),
	})
	if err != nil {
		return 0, fmt.Errorf("list bookings: %w", err)
	}
	return len(bookings), nil
}
