package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/claude/gainz/internal/models"
	"github.com/claude/gainz/internal/workout"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

type addExerciseRequest struct {
	Name string `json:"name"`
}

// addSetRequest carries the raw form text; validation happens in the service.
type addSetRequest struct {
	Reps   string `json:"reps"`
	Weight string `json:"weight"`
}

type moveRequest struct {
	Source      uuid.UUID `json:"source"`
	Destination uuid.UUID `json:"destination"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sessions, err := s.svc.ListSessions(r.Context(), start, end)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.StartSession(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	detail, err := s.svc.ActiveSession(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "session")
	if !ok {
		return
	}
	detail, err := s.svc.GetSession(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "session")
	if !ok {
		return
	}
	sess, err := s.svc.EndSession(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleAddExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "session")
	if !ok {
		return
	}
	var req addExerciseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ex, err := s.svc.AddExercise(r.Context(), id, req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ex)
}

func (s *Server) handleMoveExercise(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(w, r, "session")
	if !ok {
		return
	}
	var req moveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	src, err := s.svc.GetExercise(r.Context(), req.Source)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if src.SessionID != sessionID {
		s.writeError(w, &workout.ValidationError{Field: "source", Message: "exercise belongs to a different session"})
		return
	}
	exercises, err := s.svc.MoveExercise(r.Context(), req.Source, req.Destination)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exercises)
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "exercise")
	if !ok {
		return
	}
	detail, err := s.svc.GetExercise(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleRemoveExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "exercise")
	if !ok {
		return
	}
	if err := s.svc.RemoveExercise(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "exercise")
	if !ok {
		return
	}
	var req addSetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	set, err := s.svc.AddSet(r.Context(), models.SetDraft{ExerciseID: id, Reps: req.Reps, Weight: req.Weight})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

func (s *Server) handleMoveSet(w http.ResponseWriter, r *http.Request) {
	exerciseID, ok := pathID(w, r, "exercise")
	if !ok {
		return
	}
	var req moveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ex, err := s.svc.GetExercise(r.Context(), exerciseID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !slices.ContainsFunc(ex.Sets, func(set models.Set) bool { return set.ID == req.Source }) {
		s.writeError(w, &workout.ValidationError{Field: "source", Message: "set does not belong to this exercise"})
		return
	}
	sets, err := s.svc.MoveSet(r.Context(), req.Source, req.Destination)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sets)
}

func (s *Server) handleRemoveSet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "set")
	if !ok {
		return
	}
	if err := s.svc.RemoveSet(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeError maps service errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		verr *workout.ValidationError
		serr *workout.StorageError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, workout.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, workout.ErrSessionActive), errors.Is(err, workout.ErrSessionEnded):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.As(err, &serr):
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage failure: " + serr.Op})
	default:
		s.log.Error("unhandled error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func pathID(w http.ResponseWriter, r *http.Request, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + what + " ID"})
		return uuid.Nil, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// parseTimeRange reads start/end query parameters as RFC 3339 or dates.
// A date-only end includes that whole day. Without start, the last 30 days.
func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	end = time.Now()
	if endStr != "" {
		var dateOnly bool
		end, dateOnly, err = parseTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end: %w", err)
		}
		if dateOnly {
			end = end.Add(24 * time.Hour)
		}
	}

	if startStr == "" {
		return end.AddDate(0, 0, -30), end, nil
	}
	start, _, err = parseTime(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start: %w", err)
	}
	return start, end, nil
}

func parseTime(s string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	if t, err = time.Parse(time.DateOnly, s); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("%q is not RFC 3339 or YYYY-MM-DD", s)
}
