package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/mutate"
	"github.com/claude/liftlog/internal/session"
)

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	current := s.manager.Current()
	if current == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active session"})
		return
	}
	writeJSON(w, http.StatusOK, current)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.History())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var opts session.StartOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, s.manager.Start(opts))
}

// handleEnd discards the session. A session with completed sets is refused
// unless ?force=true; the client confirms and retries.
func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("force") != "true" {
		if current := s.manager.Current(); current != nil && hasCompletedSets(current) {
			writeJSON(w, http.StatusConflict, map[string]string{
				"error": "session has completed sets; pass force=true to discard it",
			})
			return
		}
	}
	if err := s.manager.End(); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ended"})
}

func hasCompletedSets(session *models.ActiveWorkoutSession) bool {
	for _, ex := range session.Exercises {
		for _, set := range ex.Sets {
			if set.Completed {
				return true
			}
		}
	}
	return false
}

type completeRequest struct {
	Description         string   `json:"description"`
	Notes               string   `json:"notes"`
	MoodRating          *int     `json:"mood_rating"`
	PerceivedDifficulty *int     `json:"perceived_difficulty"`
	Gym                 *string  `json:"gym"`
	Tags                []string `json:"tags"`
	Share               bool     `json:"share"`
	ShareContent        string   `json:"share_content"`
}

type completeResponse struct {
	Status     string             `json:"status"`
	Log        *models.CreatedLog `json:"log,omitempty"`
	Shared     bool               `json:"shared"`
	ShareError string             `json:"share_error,omitempty"`
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	opts := session.CompleteOptions{
		Share:        req.Share,
		ShareContent: req.ShareContent,
	}
	opts.Description = req.Description
	opts.Notes = req.Notes
	opts.MoodRating = req.MoodRating
	opts.PerceivedDifficulty = req.PerceivedDifficulty
	opts.Gym = req.Gym
	opts.Tags = req.Tags

	outcome, err := s.manager.Complete(r.Context(), opts)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			s.writeError(w, err)
			return
		}
		// The session is untouched; the caller may retry.
		s.log.Error("workout log creation failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	resp := completeResponse{Status: "completed", Log: outcome.Log, Shared: outcome.Shared}
	if outcome.ShareErr != nil {
		resp.ShareError = "workout log saved, but sharing failed: " + outcome.ShareErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := s.manager.Rename(req.Name); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.manager.Current())
}

func (s *Server) handleToggleTimer(w http.ResponseWriter, r *http.Request) {
	current, err := s.manager.ToggleTimer()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, current)
}

func (s *Server) handleSetRestTimer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seconds int  `json:"seconds"`
		Clear   bool `json:"clear"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	var err error
	if req.Clear {
		err = s.manager.SetRestTimer(nil)
	} else {
		err = s.manager.StartRestTimer(req.Seconds)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.manager.Current())
}

type addExerciseRequest struct {
	Exercise models.Exercise     `json:"exercise"`
	Pending  *mutate.PendingLink `json:"pending,omitempty"`
}

func (s *Server) handleAddExercise(w http.ResponseWriter, r *http.Request) {
	var req addExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := s.manager.AddExercise(req.Exercise, req.Pending); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.manager.Current())
}

func (s *Server) handleReorderExercises(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := s.manager.ReorderExercises(req.From, req.To); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.manager.Current())
}

func (s *Server) handleSetCurrentExercise(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := s.manager.SetCurrentExercise(req.Index); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.manager.Current())
}

func (s *Server) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r, "index")
	if !ok {
		return
	}
	if err := s.manager.DeleteExercise(index); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.manager.Current())
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r, "index")
	if !ok {
		return
	}
	if err := s.manager.AddSet(index); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.manager.Current())
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r, "index")
	if !ok {
		return
	}
	setIndex, ok := pathIndex(w, r, "set")
	if !ok {
		return
	}

	var set models.ExerciseSet
	if err := json.NewDecoder(r.Body).Decode(&set); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := s.manager.UpdateSet(index, setIndex, set); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.manager.Current())
}

func (s *Server) handleRemoveSet(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r, "index")
	if !ok {
		return
	}
	setIndex, ok := pathIndex(w, r, "set")
	if !ok {
		return
	}
	if err := s.manager.RemoveSet(index, setIndex); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.manager.Current())
}

func (s *Server) handleCompleteSet(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r, "index")
	if !ok {
		return
	}
	setIndex, ok := pathIndex(w, r, "set")
	if !ok {
		return
	}
	if err := s.manager.CompleteSet(index, setIndex); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.manager.Current())
}

type supersetRequest struct {
	First    int  `json:"first"`
	Second   *int `json:"second,omitempty"`
	RestTime int  `json:"rest_time"`
}

// handleCreateSuperset pairs two existing exercises, or — when "second" is
// omitted — opens a pending superset and returns the link to thread through
// the next add-exercise call.
func (s *Server) handleCreateSuperset(w http.ResponseWriter, r *http.Request) {
	var req supersetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	if req.Second == nil {
		link, err := s.manager.BeginSuperset(req.First, req.RestTime)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"session": s.manager.Current(),
			"pending": link,
		})
		return
	}

	if err := s.manager.CreateSuperset(req.First, *req.Second, req.RestTime); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.manager.Current())
}

// writeError maps session/mutation errors onto HTTP statuses: missing
// session → 404, validation-rejected edits → 422.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNoSession):
		status = http.StatusNotFound
	case errors.Is(err, mutate.ErrLastSet),
		errors.Is(err, mutate.ErrCompletedSets),
		errors.Is(err, mutate.ErrSelfPair):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, mutate.ErrIndexRange):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func pathIndex(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + name + " parameter"})
		return 0, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
