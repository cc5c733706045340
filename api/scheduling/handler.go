// Package scheduling exposes the booking engine over HTTP. Handlers are
// thin: decode, call the engine, map error types to statuses.
package scheduling

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/propscan/scheduler/core/extsync"
	"github.com/propscan/scheduler/core/model"
	"github.com/propscan/scheduler/core/reminder"
	"github.com/propscan/scheduler/core/schedule"
	"github.com/propscan/scheduler/core/store"
	"github.com/propscan/scheduler/infra/logger"
)

// Handler bundles the engine components the HTTP surface needs.
type Handler struct {
	Store        store.CalendarStore
	Availability *schedule.AvailabilityIndex
	Detector     *schedule.ConflictDetector
	Assigner     *schedule.Assigner
	Coordinator  *schedule.Coordinator
	Planner      *schedule.Planner
	Reminders    *reminder.Scheduler
	Sync         *extsync.Worker
	Log          logger.Logger
}

func NewHandler(st store.CalendarStore, av *schedule.AvailabilityIndex, det *schedule.ConflictDetector, as *schedule.Assigner, co *schedule.Coordinator, pl *schedule.Planner, rem *reminder.Scheduler, sync *extsync.Worker, log logger.Logger) *Handler {
	if log == nil {
		log = logger.New("api")
	}
	return &Handler{
		Store:        st,
		Availability: av,
		Detector:     det,
		Assigner:     as,
		Coordinator:  co,
		Planner:      pl,
		Reminders:    rem,
		Sync:         sync,
		Log:          log,
	}
}

func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// GET /api/technicians/{id}/slots?date=2026-01-05&duration=120
func (h *Handler) GetAvailableSlots(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid date, want YYYY-MM-DD"})
		return
	}
	duration := 0
	if v := r.URL.Query().Get("duration"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid duration"})
			return
		}
		duration = n
	}
	slots, err := h.Availability.GetAvailableSlots(r.Context(), id, date, duration)
	if err != nil {
		respondError(w, err)
		return
	}
	if slots == nil {
		slots = []model.TimeSlot{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"technician_id": id, "date": date.Format("2006-01-02"), "slots": slots})
}

type checkConflictsRequest struct {
	TechnicianID    string    `json:"technician_id"`
	Territory       string    `json:"territory"`
	Start           time.Time `json:"start"`
	DurationMinutes int       `json:"duration_minutes"`
}

// POST /api/conflicts/check
func (h *Handler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	var req checkConflictsRequest
	if err := decode(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body: " + err.Error()})
		return
	}
	conflicts, err := h.Detector.CheckConflicts(r.Context(), req.TechnicianID, req.Start, req.DurationMinutes, req.Territory)
	if err != nil {
		respondError(w, err)
		return
	}
	if conflicts == nil {
		conflicts = []model.SchedulingConflict{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"conflicts": conflicts})
}

type suggestRequest struct {
	Territory       string    `json:"territory"`
	Start           time.Time `json:"start"`
	DurationMinutes int       `json:"duration_minutes"`
	ServiceType     string    `json:"service_type"`
}

// POST /api/assignments/suggest
func (h *Handler) SuggestTechnician(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := decode(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body: " + err.Error()})
		return
	}
	sug, err := h.Assigner.Suggest(r.Context(), req.Territory, req.Start, req.DurationMinutes, req.ServiceType)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sug)
}

type createRequest struct {
	LeadID          string   `json:"lead_id"`
	TechnicianID    string   `json:"technician_id"`
	Territory       string   `json:"territory"`
	Start           string   `json:"start"`
	DurationMinutes int      `json:"duration_minutes"`
	Notes           string   `json:"notes"`
	EstimatedCost   *float64 `json:"estimated_cost"`
	Force           bool     `json:"force"`
}

// POST /api/inspections
func (h *Handler) CreateInspection(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decode(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body: " + err.Error()})
		return
	}
	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid start, want RFC3339"})
		return
	}
	insp, err := h.Coordinator.Create(r.Context(), schedule.CreateRequest{
		LeadID:          req.LeadID,
		TechnicianID:    req.TechnicianID,
		Territory:       req.Territory,
		Start:           start,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		EstimatedCost:   req.EstimatedCost,
		Force:           req.Force,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, insp)
}

// GET /api/inspections/{id}
func (h *Handler) GetInspection(w http.ResponseWriter, r *http.Request) {
	insp, err := h.Coordinator.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, insp)
}

type rescheduleRequest struct {
	Start           string `json:"start"`
	DurationMinutes int    `json:"duration_minutes"`
	Force           bool   `json:"force"`
}

// POST /api/inspections/{id}/reschedule
func (h *Handler) RescheduleInspection(w http.ResponseWriter, r *http.Request) {
	var req rescheduleRequest
	if err := decode(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body: " + err.Error()})
		return
	}
	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid start, want RFC3339"})
		return
	}
	insp, err := h.Coordinator.Reschedule(r.Context(), chi.URLParam(r, "id"), start, req.DurationMinutes, req.Force)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, insp)
}

type bulkRescheduleRequest struct {
	Items []bulkRescheduleItem `json:"items"`
}

type bulkRescheduleItem struct {
	ID              string `json:"id"`
	Start           string `json:"start"`
	DurationMinutes int    `json:"duration_minutes"`
	Force           bool   `json:"force"`
}

type bulkRescheduleResult struct {
	ID         string            `json:"id"`
	Error      string            `json:"error,omitempty"`
	Inspection *model.Inspection `json:"inspection,omitempty"`
}

// POST /api/inspections/reschedule moves several bookings in one call. Items
// are processed independently; one failure does not roll back the others.
func (h *Handler) BulkReschedule(w http.ResponseWriter, r *http.Request) {
	var req bulkRescheduleRequest
	if err := decode(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body: " + err.Error()})
		return
	}
	if len(req.Items) == 0 {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "items is required"})
		return
	}
	results := make([]bulkRescheduleResult, 0, len(req.Items))
	for _, item := range req.Items {
		start, err := time.Parse(time.RFC3339, item.Start)
		if err != nil {
			results = append(results, bulkRescheduleResult{ID: item.ID, Error: "invalid start, want RFC3339"})
			continue
		}
		insp, err := h.Coordinator.Reschedule(r.Context(), item.ID, start, item.DurationMinutes, item.Force)
		if err != nil {
			results = append(results, bulkRescheduleResult{ID: item.ID, Error: err.Error()})
			continue
		}
		results = append(results, bulkRescheduleResult{ID: item.ID, Inspection: &insp})
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": results})
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// POST /api/inspections/{id}/cancel
func (h *Handler) CancelInspection(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := decode(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body: " + err.Error()})
		return
	}
	if err := h.Coordinator.Cancel(r.Context(), chi.URLParam(r, "id"), req.Reason); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": string(model.StatusCancelled)})
}

// POST /api/inspections/{id}/start
func (h *Handler) StartInspection(w http.ResponseWriter, r *http.Request) {
	if err := h.Coordinator.Start(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": string(model.StatusInProgress)})
}

// POST /api/inspections/{id}/complete
func (h *Handler) CompleteInspection(w http.ResponseWriter, r *http.Request) {
	if err := h.Coordinator.Complete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": string(model.StatusCompleted)})
}

// GET /api/technicians/{id}/schedule?date=2026-01-05
func (h *Handler) GetDaySchedule(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid date, want YYYY-MM-DD"})
		return
	}
	day, err := h.Planner.DaySchedule(r.Context(), chi.URLParam(r, "id"), date)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, day)
}

type remindersRequest struct {
	Settings *model.ReminderSettings `json:"settings"`
}

// POST /api/inspections/{id}/reminders
func (h *Handler) ScheduleReminders(w http.ResponseWriter, r *http.Request) {
	var req remindersRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body: " + err.Error()})
			return
		}
	}
	jobs, err := h.Reminders.Schedule(r.Context(), chi.URLParam(r, "id"), req.Settings)
	if err != nil {
		respondError(w, err)
		return
	}
	if jobs == nil {
		jobs = []model.ReminderJob{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

// GET /api/inspections/{id}/sync
func (h *Handler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.Store.GetSyncRecord(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, &schedule.NotFoundError{Kind: "sync record", ID: id})
			return
		}
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// POST /api/inspections/{id}/sync re-enqueues an upsert for the booking.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Coordinator.Get(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	if err := h.Sync.Enqueue(r.Context(), id, model.SyncOpUpsert); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": string(model.SyncPending)})
}

// PUT /api/technicians
func (h *Handler) UpsertTechnician(w http.ResponseWriter, r *http.Request) {
	var tech model.Technician
	if err := decode(r, &tech); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body: " + err.Error()})
		return
	}
	if err := tech.Validate(); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if err := h.Store.UpsertTechnician(r.Context(), tech); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tech)
}

// GET /api/technicians?active=true
func (h *Handler) ListTechnicians(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	techs, err := h.Store.ListTechnicians(r.Context(), activeOnly)
	if err != nil {
		respondError(w, err)
		return
	}
	if techs == nil {
		techs = []model.Technician{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"technicians": techs})
}
