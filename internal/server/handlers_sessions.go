package server

import (
	"net/http"

	"github.com/claude/liftlog/internal/storage"
	"github.com/claude/liftlog/internal/training"
	"github.com/go-chi/chi/v5"
)

// closeSessionRequest is a finished session with its sets.
type closeSessionRequest struct {
	training.SessionDraft
	Sets []training.SetDraft `json:"sets"`
}

// updateSessionRequest holds the mutable fields of a closed session.
type updateSessionRequest struct {
	Notes            *string `json:"notes"`
	DifficultyRating *int    `json:"difficulty_rating"`
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req closeSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.svc.CloseSession(r.Context(), uid, req.SessionDraft, req.Sets)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	f := storage.SessionFilter{Limit: queryLimit(r, 0)}
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := parseTime(v, false)
		if err != nil {
			badRequest(w, "invalid from: "+err.Error())
			return
		}
		f.From = &t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := parseTime(v, true)
		if err != nil {
			badRequest(w, "invalid to: "+err.Error())
			return
		}
		f.To = &t
	}

	sessions, err := s.svc.ListSessions(r.Context(), uid, f)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	detail, err := s.svc.GetSession(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req updateSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	detail, err := s.svc.UpdateSessionNotes(r.Context(), uid, chi.URLParam(r, "id"), req.Notes, req.DifficultyRating)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	if err := s.svc.DeleteSession(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		writeError(w, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
