package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/claude/liftlog/internal/models"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Constraint string `json:"constraint,omitempty"`
}

// writeError maps engine errors onto status codes. Unknown errors are
// logged and reported as 500.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	body := errorBody{Message: err.Error()}
	var status int
	switch {
	case errors.Is(err, models.ErrNotFound):
		status, body.Error = http.StatusNotFound, "not_found"
	case errors.Is(err, models.ErrInvalidDuration):
		status, body.Error = http.StatusUnprocessableEntity, "invalid_duration"
	case errors.Is(err, models.ErrIncompleteRecordData):
		status, body.Error = http.StatusUnprocessableEntity, "incomplete_record_data"
	case errors.Is(err, models.ErrConstraintViolation):
		status, body.Error = http.StatusConflict, "constraint_violation"
		var ce *models.ConstraintError
		if errors.As(err, &ce) {
			body.Constraint = ce.Constraint
		}
	default:
		log.Error("request failed", "error", err)
		status, body.Error, body.Message = http.StatusInternalServerError, "internal", "internal error"
	}
	writeJSON(w, status, body)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON request body into v, writing 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return false
	}
	return true
}
