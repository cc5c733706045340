package scheduling

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter assembles the HTTP surface around the handler set.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/technicians", func(r chi.Router) {
			r.Get("/", h.ListTechnicians)
			r.Put("/", h.UpsertTechnician)
			r.Get("/{id}/slots", h.GetAvailableSlots)
			r.Get("/{id}/schedule", h.GetDaySchedule)
		})

		r.Post("/conflicts/check", h.CheckConflicts)
		r.Post("/assignments/suggest", h.SuggestTechnician)

		r.Route("/inspections", func(r chi.Router) {
			r.Post("/", h.CreateInspection)
			r.Post("/reschedule", h.BulkReschedule)
			r.Get("/{id}", h.GetInspection)
			r.Post("/{id}/reschedule", h.RescheduleInspection)
			r.Post("/{id}/cancel", h.CancelInspection)
			r.Post("/{id}/start", h.StartInspection)
			r.Post("/{id}/complete", h.CompleteInspection)
			r.Post("/{id}/reminders", h.ScheduleReminders)
			r.Get("/{id}/sync", h.GetSyncStatus)
			r.Post("/{id}/sync", h.TriggerSync)
		})
	})

	return r
}
