package store

import (
	"context"
	"sort"
	"sync"

	"github.com/propscan/scheduler/core/model"
)

// MemoryStore is an in-memory CalendarStore. It backs tests and single-node
// deployments that do not need durability.
type MemoryStore struct {
	mu          sync.RWMutex
	technicians map[string]model.Technician
	inspections map[string]model.Inspection
	reminders   map[string]model.ReminderJob
	syncs       map[string]model.SyncRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		technicians: map[string]model.Technician{},
		inspections: map[string]model.Inspection{},
		reminders:   map[string]model.ReminderJob{},
		syncs:       map[string]model.SyncRecord{},
	}
}

func (s *MemoryStore) GetTechnician(_ context.Context, id string) (model.Technician, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.technicians[id]
	if !ok {
		return model.Technician{}, ErrNotFound
	}
	return t, nil
}

func (s *MemoryStore) ListTechnicians(_ context.Context, activeOnly bool) ([]model.Technician, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Technician, 0, len(s.technicians))
	for _, t := range s.technicians {
		if activeOnly && !t.Active {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) UpsertTechnician(_ context.Context, t model.Technician) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.technicians[t.ID] = t
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetInspection(_ context.Context, id string) (model.Inspection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.inspections[id]
	if !ok {
		return model.Inspection{}, ErrNotFound
	}
	return i, nil
}

func (s *MemoryStore) InsertInspection(_ context.Context, i model.Inspection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inspections[i.ID] = i
	return nil
}

func (s *MemoryStore) UpdateInspection(_ context.Context, i model.Inspection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inspections[i.ID]; !ok {
		return ErrNotFound
	}
	s.inspections[i.ID] = i
	return nil
}

func (s *MemoryStore) ListInspections(_ context.Context, f InspectionFilter) ([]model.Inspection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Inspection
	for _, i := range s.inspections {
		if f.TechnicianID != "" && i.TechnicianID != f.TechnicianID {
			continue
		}
		if !f.IncludeCancelled && i.Cancelled() {
			continue
		}
		if !f.From.IsZero() && !i.End().After(f.From) {
			continue
		}
		if !f.To.IsZero() && !i.ScheduledStart.Before(f.To) {
			continue
		}
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].ScheduledStart.Equal(out[b].ScheduledStart) {
			return out[a].ID < out[b].ID
		}
		return out[a].ScheduledStart.Before(out[b].ScheduledStart)
	})
	return out, nil
}

func (s *MemoryStore) InsertReminderJob(_ context.Context, j model.ReminderJob) error {
	s.mu.Lock()
	s.reminders[j.ID] = j
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) UpdateReminderJob(_ context.Context, j model.ReminderJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reminders[j.ID]; !ok {
		return ErrNotFound
	}
	s.reminders[j.ID] = j
	return nil
}

func (s *MemoryStore) ListReminderJobs(_ context.Context, f ReminderFilter) ([]model.ReminderJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.ReminderJob
	for _, j := range s.reminders {
		if f.InspectionID != "" && j.InspectionID != f.InspectionID {
			continue
		}
		if f.Status != "" && j.Status != f.Status {
			continue
		}
		if !f.DueBefore.IsZero() && j.FireAt.After(f.DueBefore) {
			continue
		}
		out = append(out, j)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].FireAt.Equal(out[b].FireAt) {
			return out[a].ID < out[b].ID
		}
		return out[a].FireAt.Before(out[b].FireAt)
	})
	return out, nil
}

func (s *MemoryStore) GetSyncRecord(_ context.Context, inspectionID string) (model.SyncRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.syncs[inspectionID]
	if !ok {
		return model.SyncRecord{}, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) UpsertSyncRecord(_ context.Context, r model.SyncRecord) error {
	s.mu.Lock()
	s.syncs[r.InspectionID] = r
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListSyncRecords(_ context.Context, f SyncFilter) ([]model.SyncRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.SyncRecord
	for _, r := range s.syncs {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if !f.DueBefore.IsZero() && r.NextAttempt.After(f.DueBefore) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].InspectionID < out[b].InspectionID })
	return out, nil
}
