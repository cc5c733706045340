package scheduling

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/propscan/scheduler/core/events"
	"github.com/propscan/scheduler/core/extsync"
	"github.com/propscan/scheduler/core/model"
	"github.com/propscan/scheduler/core/reminder"
	"github.com/propscan/scheduler/core/schedule"
	"github.com/propscan/scheduler/core/store"
	"github.com/propscan/scheduler/core/territory"
	"github.com/propscan/scheduler/infra/logger"
	"github.com/propscan/scheduler/internal/eventbus"
)

var monday = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

type fakeProvider struct{}

func (fakeProvider) UpsertEvent(_ context.Context, insp model.Inspection, _ string) (string, error) {
	return "ext-" + insp.ID, nil
}

func (fakeProvider) DeleteEvent(context.Context, string) error { return nil }

func testTechnician(id string, territories ...string) model.Technician {
	hours := model.WeekTemplate{}
	for d := 1; d <= 5; d++ {
		hours[d] = model.DayWindow{Start: "07:00", End: "19:00"}
	}
	return model.Technician{ID: id, Name: "Tech " + id, Territories: territories, Hours: hours, Active: true}
}

func newTestServer(t *testing.T) (http.Handler, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	if err := st.UpsertTechnician(context.Background(), testTechnician("t1", "Richmond")); err != nil {
		t.Fatalf("seed technician: %v", err)
	}
	matrix := territory.New(territory.Config{})
	log := logger.NopLogger{}
	det := schedule.NewConflictDetector(st, matrix, schedule.Config{})
	coord, err := schedule.NewCoordinator(st, det, eventbus.New[events.BookingEvent](), nil, log, schedule.Config{})
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}
	planner, err := schedule.NewPlanner(st, matrix, schedule.Config{})
	if err != nil {
		t.Fatalf("new planner: %v", err)
	}
	rem, err := reminder.NewScheduler(st, log, reminder.Config{})
	if err != nil {
		t.Fatalf("new reminder scheduler: %v", err)
	}
	sync, err := extsync.NewWorker(st, fakeProvider{}, nil, log, extsync.Config{})
	if err != nil {
		t.Fatalf("new sync worker: %v", err)
	}
	h := NewHandler(st,
		schedule.NewAvailabilityIndex(st, schedule.Config{}),
		det,
		schedule.NewAssigner(st, det, matrix, log),
		coord,
		planner,
		rem,
		sync,
		log,
	)
	return NewRouter(h, nil), st
}

func doJSON(t *testing.T, srv http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	return rr
}

func createBooking(t *testing.T, srv http.Handler, start time.Time) model.Inspection {
	t.Helper()
	rr := doJSON(t, srv, "POST", "/api/inspections", map[string]any{
		"lead_id":       "lead-1",
		"technician_id": "t1",
		"territory":     "Richmond",
		"start":         start.Format(time.RFC3339),
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status %d: %s", rr.Code, rr.Body.String())
	}
	var insp model.Inspection
	if err := json.Unmarshal(rr.Body.Bytes(), &insp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return insp
}

func TestCreateAndGetInspection(t *testing.T) {
	srv, _ := newTestServer(t)
	insp := createBooking(t, srv, monday.Add(9*time.Hour))
	if insp.Status != model.StatusScheduled {
		t.Fatalf("expected SCHEDULED got %s", insp.Status)
	}
	if insp.DurationMinutes != model.DefaultDurationMinutes {
		t.Fatalf("expected default duration got %d", insp.DurationMinutes)
	}

	rr := doJSON(t, srv, "GET", "/api/inspections/"+insp.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get status %d", rr.Code)
	}
	var got model.Inspection
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != insp.ID || got.LeadID != "lead-1" {
		t.Fatalf("unexpected booking %#v", got)
	}
}

func TestCreateInspection_ConflictReturns409(t *testing.T) {
	srv, _ := newTestServer(t)
	createBooking(t, srv, monday.Add(9*time.Hour))

	rr := doJSON(t, srv, "POST", "/api/inspections", map[string]any{
		"lead_id":       "lead-2",
		"technician_id": "t1",
		"territory":     "Richmond",
		"start":         monday.Add(9 * time.Hour).Format(time.RFC3339),
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d: %s", rr.Code, rr.Body.String())
	}
	var body errorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Conflicts) == 0 || body.Conflicts[0].Kind != model.ConflictDoubleBooking {
		t.Fatalf("expected double booking conflict, got %#v", body.Conflicts)
	}
}

func TestCreateInspection_BadBody(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest("POST", "/api/inspections", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestCreateInspection_MissingLead(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := doJSON(t, srv, "POST", "/api/inspections", map[string]any{
		"technician_id": "t1",
		"territory":     "Richmond",
		"start":         monday.Add(9 * time.Hour).Format(time.RFC3339),
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestGetAvailableSlots(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := doJSON(t, srv, "GET", "/api/technicians/t1/slots?date=2026-01-05", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Slots []model.TimeSlot `json:"slots"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Slots) != 1 {
		t.Fatalf("expected one open slot, got %d", len(out.Slots))
	}
}

func TestGetAvailableSlots_Errors(t *testing.T) {
	srv, _ := newTestServer(t)
	if rr := doJSON(t, srv, "GET", "/api/technicians/t1/slots?date=not-a-date", nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad date: expected 400 got %d", rr.Code)
	}
	if rr := doJSON(t, srv, "GET", "/api/technicians/nobody/slots?date=2026-01-05", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown technician: expected 404 got %d", rr.Code)
	}
}

func TestCheckConflicts(t *testing.T) {
	srv, _ := newTestServer(t)
	createBooking(t, srv, monday.Add(9*time.Hour))

	rr := doJSON(t, srv, "POST", "/api/conflicts/check", map[string]any{
		"technician_id":    "t1",
		"territory":        "Richmond",
		"start":            monday.Add(9 * time.Hour).Format(time.RFC3339),
		"duration_minutes": 60,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Conflicts []model.SchedulingConflict `json:"conflicts"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Conflicts) == 0 {
		t.Fatalf("expected conflicts")
	}
}

func TestSuggestTechnician(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := doJSON(t, srv, "POST", "/api/assignments/suggest", map[string]any{
		"territory":        "Richmond",
		"start":            monday.Add(10 * time.Hour).Format(time.RFC3339),
		"duration_minutes": 60,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var sug schedule.Suggestion
	if err := json.Unmarshal(rr.Body.Bytes(), &sug); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sug.Best.Technician.ID != "t1" {
		t.Fatalf("expected t1, got %q", sug.Best.Technician.ID)
	}
}

func TestSuggestTechnician_NoCandidate(t *testing.T) {
	srv, _ := newTestServer(t)
	sunday := monday.Add(-24 * time.Hour)
	rr := doJSON(t, srv, "POST", "/api/assignments/suggest", map[string]any{
		"territory":        "Richmond",
		"start":            sunday.Add(10 * time.Hour).Format(time.RFC3339),
		"duration_minutes": 60,
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestRescheduleInspection(t *testing.T) {
	srv, _ := newTestServer(t)
	insp := createBooking(t, srv, monday.Add(9*time.Hour))

	rr := doJSON(t, srv, "POST", "/api/inspections/"+insp.ID+"/reschedule", map[string]any{
		"start": monday.Add(14 * time.Hour).Format(time.RFC3339),
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var moved model.Inspection
	if err := json.Unmarshal(rr.Body.Bytes(), &moved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !moved.ScheduledStart.Equal(monday.Add(14 * time.Hour)) {
		t.Fatalf("unexpected start %s", moved.ScheduledStart)
	}
}

func TestLifecycleEndpoints(t *testing.T) {
	srv, st := newTestServer(t)
	insp := createBooking(t, srv, monday.Add(9*time.Hour))

	if rr := doJSON(t, srv, "POST", "/api/inspections/"+insp.ID+"/start", nil); rr.Code != http.StatusOK {
		t.Fatalf("start: %d %s", rr.Code, rr.Body.String())
	}
	if rr := doJSON(t, srv, "POST", "/api/inspections/"+insp.ID+"/complete", nil); rr.Code != http.StatusOK {
		t.Fatalf("complete: %d %s", rr.Code, rr.Body.String())
	}
	got, err := st.GetInspection(context.Background(), insp.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.StatusCompleted {
		t.Fatalf("expected COMPLETED got %s", got.Status)
	}

	rr := doJSON(t, srv, "POST", "/api/inspections/"+insp.ID+"/reschedule", map[string]any{
		"start": monday.Add(15 * time.Hour).Format(time.RFC3339),
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("reschedule after complete: expected 409 got %d", rr.Code)
	}
}

func TestCancelInspection(t *testing.T) {
	srv, st := newTestServer(t)
	insp := createBooking(t, srv, monday.Add(9*time.Hour))

	rr := doJSON(t, srv, "POST", "/api/inspections/"+insp.ID+"/cancel", map[string]any{"reason": "customer request"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	got, err := st.GetInspection(context.Background(), insp.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.StatusCancelled {
		t.Fatalf("expected CANCELLED got %s", got.Status)
	}

	if rr := doJSON(t, srv, "POST", "/api/inspections/"+insp.ID+"/cancel", map[string]any{"reason": "again"}); rr.Code != http.StatusConflict {
		t.Fatalf("double cancel: expected 409 got %d", rr.Code)
	}
}

func TestGetDaySchedule(t *testing.T) {
	srv, _ := newTestServer(t)
	createBooking(t, srv, monday.Add(9*time.Hour))

	rr := doJSON(t, srv, "GET", "/api/technicians/t1/schedule?date=2026-01-05", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var day schedule.DaySchedule
	if err := json.Unmarshal(rr.Body.Bytes(), &day); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(day.Stops) != 1 {
		t.Fatalf("expected one stop, got %d", len(day.Stops))
	}
}

func TestScheduleReminders(t *testing.T) {
	srv, _ := newTestServer(t)
	// A date far enough out that every reminder fire time is in the future.
	start := time.Date(2027, 1, 4, 9, 0, 0, 0, time.UTC)
	insp := createBooking(t, srv, start)

	rr := doJSON(t, srv, "POST", "/api/inspections/"+insp.ID+"/reminders", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Jobs []model.ReminderJob `json:"jobs"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(out.Jobs))
	}
}

func TestSyncEndpoints(t *testing.T) {
	srv, st := newTestServer(t)
	insp := createBooking(t, srv, monday.Add(9*time.Hour))

	if rr := doJSON(t, srv, "GET", "/api/inspections/"+insp.ID+"/sync", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("before enqueue: expected 404 got %d", rr.Code)
	}

	if rr := doJSON(t, srv, "POST", "/api/inspections/"+insp.ID+"/sync", nil); rr.Code != http.StatusAccepted {
		t.Fatalf("trigger: expected 202 got %d", rr.Code)
	}

	rr := doJSON(t, srv, "GET", "/api/inspections/"+insp.ID+"/sync", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("after enqueue: status %d", rr.Code)
	}
	var rec model.SyncRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Status != model.SyncPending || rec.Op != model.SyncOpUpsert {
		t.Fatalf("unexpected record %#v", rec)
	}

	if _, err := st.GetSyncRecord(context.Background(), insp.ID); err != nil {
		t.Fatalf("record not persisted: %v", err)
	}
}

func TestTechnicianEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doJSON(t, srv, "PUT", "/api/technicians", testTechnician("t2", "Fitzroy"))
	if rr.Code != http.StatusOK {
		t.Fatalf("upsert: %d %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, "GET", "/api/technicians?active=true", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list: %d", rr.Code)
	}
	var out struct {
		Technicians []model.Technician `json:"technicians"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Technicians) != 2 {
		t.Fatalf("expected 2 technicians, got %d", len(out.Technicians))
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := doJSON(t, srv, "GET", "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
}

func TestBulkReschedule(t *testing.T) {
	srv, _ := newTestServer(t)
	first := createBooking(t, srv, monday.Add(9*time.Hour))
	second := createBooking(t, srv, monday.Add(13*time.Hour))

	rr := doJSON(t, srv, "POST", "/api/inspections/reschedule", map[string]any{
		"items": []map[string]any{
			{"id": first.ID, "start": monday.Add(16*time.Hour + 30*time.Minute).Format(time.RFC3339)},
			{"id": "nope", "start": monday.Add(11 * time.Hour).Format(time.RFC3339)},
			{"id": second.ID, "start": "not-a-time"},
		},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Results []struct {
			ID         string            `json:"id"`
			Error      string            `json:"error"`
			Inspection *model.Inspection `json:"inspection"`
		} `json:"results"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Results) != 3 {
		t.Fatalf("expected 3 results got %d", len(out.Results))
	}
	if out.Results[0].Error != "" || out.Results[0].Inspection == nil {
		t.Fatalf("expected first item to succeed: %+v", out.Results[0])
	}
	if !out.Results[0].Inspection.ScheduledStart.Equal(monday.Add(16*time.Hour + 30*time.Minute)) {
		t.Fatalf("unexpected start %v", out.Results[0].Inspection.ScheduledStart)
	}
	if out.Results[1].Error == "" {
		t.Fatalf("expected unknown id to fail")
	}
	if out.Results[2].Error == "" {
		t.Fatalf("expected bad start to fail")
	}

	if rr := doJSON(t, srv, "POST", "/api/inspections/reschedule", map[string]any{"items": []map[string]any{}}); rr.Code != http.StatusBadRequest {
		t.Fatalf("empty items: expected 400 got %d", rr.Code)
	}
}
