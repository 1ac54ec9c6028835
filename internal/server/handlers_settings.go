package server

import (
	"net/http"
	"time"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/training"
)

// sourceAlphaUpload labels imports posted to the ingest endpoint.
const sourceAlphaUpload = "alpha_upload"

func (s *Server) handleGetProgressionSettings(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	settings, err := s.svc.GetProgressionSettings(r.Context(), uid)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSaveProgressionSettings(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var settings models.ProgressionSettings
	if !decodeJSON(w, r, &settings) {
		return
	}
	saved, err := s.svc.SaveProgressionSettings(r.Context(), uid, settings)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// handleSuggestion answers 204 when the advisor has nothing to suggest.
func (s *Server) handleSuggestion(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	exerciseID := r.URL.Query().Get("exercise_id")
	if exerciseID == "" {
		badRequest(w, "exercise_id parameter required")
		return
	}
	sug, err := s.svc.SuggestProgression(r.Context(), uid, exerciseID, r.URL.Query().Get("target_reps"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	if sug == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, sug)
}

func (s *Server) handleListMeasurements(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	ms, err := s.svc.ListMeasurements(r.Context(), uid, queryLimit(r, 100))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

func (s *Server) handleRecordMeasurement(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var in training.MeasurementInput
	if !decodeJSON(w, r, &in) {
		return
	}
	m, err := s.svc.RecordMeasurement(r.Context(), uid, in)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleLatestMeasurement(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	m, err := s.svc.LatestMeasurement(r.Context(), uid)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	stats, err := s.svc.GetDataStats(r.Context(), uid)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	logs, err := s.db.QueryImportLogs(r.Context(), uid, queryLimit(r, 50))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// handleAlphaIngest imports a CSV export posted as the request body. The
// X-Export-Name header, when present, only labels the log line.
func (s *Server) handleAlphaIngest(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	start := time.Now()
	result, err := s.alpha.Ingest(r.Context(), r.Body, uid)
	ingest.RecordImport(s.db, s.log, uid, sourceAlphaUpload, result, err, time.Since(start))

	status := "success"
	if err != nil {
		status = "error"
	}
	if s.metrics != nil {
		s.metrics.CounterImports.WithLabelValues(sourceAlphaUpload, status).Inc()
	}

	if err != nil {
		s.log.Error("alpha ingest error", "export", r.Header.Get("X-Export-Name"), "error", err)
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "import_failed", Message: err.Error()})
		return
	}
	s.log.Info("alpha ingest", "export", r.Header.Get("X-Export-Name"), "sessions", result.SessionsInserted)
	writeJSON(w, http.StatusOK, result)
}
