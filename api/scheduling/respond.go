package scheduling

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/propscan/scheduler/core/model"
	"github.com/propscan/scheduler/core/schedule"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

type errorBody struct {
	Error     string                     `json:"error"`
	Conflicts []model.SchedulingConflict `json:"conflicts,omitempty"`
}

// respondError maps engine error types to HTTP statuses. Conflict rejections
// carry the full conflict set so the caller can present alternatives.
func respondError(w http.ResponseWriter, err error) {
	var (
		verr *schedule.ValidationError
		nerr *schedule.NotFoundError
		cerr *schedule.ConflictError
		serr *schedule.InvalidStateError
		aerr *schedule.NoCandidateError
	)
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, errorBody{Error: verr.Error()})
	case errors.As(err, &nerr):
		respondJSON(w, http.StatusNotFound, errorBody{Error: nerr.Error()})
	case errors.As(err, &cerr):
		respondJSON(w, http.StatusConflict, errorBody{Error: cerr.Error(), Conflicts: cerr.Conflicts})
	case errors.As(err, &serr):
		respondJSON(w, http.StatusConflict, errorBody{Error: serr.Error()})
	case errors.As(err, &aerr):
		respondJSON(w, http.StatusUnprocessableEntity, errorBody{Error: aerr.Error()})
	case errors.Is(err, schedule.ErrLockTimeout):
		respondJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error()})
	default:
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
