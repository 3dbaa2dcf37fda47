package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/store"
)

const testAPIKey = "test-key"

func testServer(t *testing.T) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.Open(t.TempDir(), log)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	manager := session.NewManager(st, nil, log)
	t.Cleanup(manager.Close)
	return New(manager, testAPIKey, log)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) models.ActiveWorkoutSession {
	t.Helper()
	var s models.ActiveWorkoutSession
	if err := json.NewDecoder(rec.Body).Decode(&s); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return s
}

func startSession(t *testing.T, s *Server, name string) models.ActiveWorkoutSession {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/v1/session/start", map[string]string{"name": name})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d, want 201: %s", rec.Code, rec.Body)
	}
	return decodeSession(t, rec)
}

func addExercise(t *testing.T, s *Server, name string) models.ActiveWorkoutSession {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/v1/session/exercises", map[string]any{
		"exercise": map[string]any{"name": name, "effort_type": "reps"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add exercise status = %d, want 200: %s", rec.Code, rec.Body)
	}
	return decodeSession(t, rec)
}

// TestGetSessionIdle verifies GET /session returns 404 when no workout is
// in progress.
func TestGetSessionIdle(t *testing.T) {
	s := testServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/v1/session", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// TestStartAndGetSession verifies the start endpoint creates a session that
// the read endpoint then returns.
func TestStartAndGetSession(t *testing.T) {
	s := testServer(t)
	started := startSession(t, s, "Leg Day")
	if started.Name != "Leg Day" {
		t.Errorf("name = %q, want Leg Day", started.Name)
	}
	if started.SourceType != models.SourceCustom {
		t.Errorf("source_type = %q, want custom", started.SourceType)
	}

	rec := doJSON(t, s, http.MethodGet, "/api/v1/session", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decodeSession(t, rec)
	if got.ID != started.ID {
		t.Errorf("session id = %q, want %q", got.ID, started.ID)
	}
}

// TestAddExerciseSeedsDefaultSet verifies a new exercise arrives with its
// effort-appropriate starter set.
func TestAddExerciseSeedsDefaultSet(t *testing.T) {
	s := testServer(t)
	startSession(t, s, "W")

	got := addExercise(t, s, "Back Squat")
	if len(got.Exercises) != 1 {
		t.Fatalf("exercises = %d, want 1", len(got.Exercises))
	}
	ex := got.Exercises[0]
	if ex.ID == "" {
		t.Error("expected generated exercise id")
	}
	if len(ex.Sets) != 1 {
		t.Fatalf("sets = %d, want 1", len(ex.Sets))
	}
	if ex.Sets[0].Reps == nil || *ex.Sets[0].Reps != 10 {
		t.Errorf("default reps = %v, want 10", ex.Sets[0].Reps)
	}
}

// TestRemoveLastSetRejected verifies deleting an exercise's only set is
// refused with 422 and the set survives.
func TestRemoveLastSetRejected(t *testing.T) {
	s := testServer(t)
	startSession(t, s, "W")
	addExercise(t, s, "Curl")

	rec := doJSON(t, s, http.MethodDelete, "/api/v1/session/exercises/0/sets/0", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/v1/session", nil)
	got := decodeSession(t, rec)
	if len(got.Exercises[0].Sets) != 1 {
		t.Errorf("sets = %d, want the refused delete to leave 1", len(got.Exercises[0].Sets))
	}
}

// TestAddSetCopiesForward verifies POST .../sets clones the previous set's
// targets with completion reset.
func TestAddSetCopiesForward(t *testing.T) {
	s := testServer(t)
	startSession(t, s, "W")
	addExercise(t, s, "Bench")

	rec := doJSON(t, s, http.MethodPost, "/api/v1/session/exercises/0/sets", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	got := decodeSession(t, rec)
	sets := got.Exercises[0].Sets
	if len(sets) != 2 {
		t.Fatalf("sets = %d, want 2", len(sets))
	}
	if sets[1].Completed {
		t.Error("copied set must start incomplete")
	}
	if sets[1].Order != 1 {
		t.Errorf("order = %d, want 1", sets[1].Order)
	}
}

// TestCompleteSetStartsRestTimer verifies completing a standalone set starts
// the set's rest countdown.
func TestCompleteSetStartsRestTimer(t *testing.T) {
	s := testServer(t)
	startSession(t, s, "W")
	addExercise(t, s, "Row")

	rec := doJSON(t, s, http.MethodPost, "/api/v1/session/exercises/0/sets/0/complete", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	got := decodeSession(t, rec)
	if !got.Exercises[0].Sets[0].Completed {
		t.Error("set not marked completed")
	}
	if got.RestTimer == nil || got.RestTimer.TotalSeconds != 60 {
		t.Errorf("rest timer = %+v, want 60-second countdown", got.RestTimer)
	}
}

// TestSupersetPairAndPending covers both shapes of POST /session/superset:
// pairing two existing exercises, and opening a pending group for the next
// added exercise.
func TestSupersetPairAndPending(t *testing.T) {
	s := testServer(t)
	startSession(t, s, "W")
	addExercise(t, s, "Squat")
	addExercise(t, s, "Curl")

	rec := doJSON(t, s, http.MethodPost, "/api/v1/session/superset", map[string]any{
		"first": 0, "second": 1, "rest_time": 120,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("pair status = %d, want 200: %s", rec.Code, rec.Body)
	}
	got := decodeSession(t, rec)
	if got.Exercises[0].SupersetGroup == "" || got.Exercises[0].SupersetGroup != got.Exercises[1].SupersetGroup {
		t.Error("pair did not share a group")
	}
	if got.Exercises[0].SupersetRestTime != 120 {
		t.Errorf("rest = %d, want 120", got.Exercises[0].SupersetRestTime)
	}

	// Pending form: no "second"; the response carries the link.
	rec = doJSON(t, s, http.MethodPost, "/api/v1/session/superset", map[string]any{"first": 0})
	if rec.Code != http.StatusOK {
		t.Fatalf("pending status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var pendingResp struct {
		Pending *struct {
			Group    string `json:"group"`
			Position int    `json:"position"`
		} `json:"pending"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&pendingResp); err != nil {
		t.Fatal(err)
	}
	if pendingResp.Pending == nil || pendingResp.Pending.Group == "" {
		t.Fatal("expected pending link in response")
	}
	if pendingResp.Pending.Position != 1 {
		t.Errorf("pending position = %d, want 1", pendingResp.Pending.Position)
	}
}

// TestSupersetSelfPairRejected verifies pairing an exercise with itself is 422.
func TestSupersetSelfPairRejected(t *testing.T) {
	s := testServer(t)
	startSession(t, s, "W")
	addExercise(t, s, "Squat")

	rec := doJSON(t, s, http.MethodPost, "/api/v1/session/superset", map[string]any{
		"first": 0, "second": 0,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

// TestRenameSession verifies PUT /session/name.
func TestRenameSession(t *testing.T) {
	s := testServer(t)
	startSession(t, s, "old")

	rec := doJSON(t, s, http.MethodPut, "/api/v1/session/name", map[string]string{"name": "new"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := decodeSession(t, rec); got.Name != "new" {
		t.Errorf("name = %q, want new", got.Name)
	}
}

// TestEndSession verifies DELETE /session discards the workout and a second
// delete reports no session.
func TestEndSession(t *testing.T) {
	s := testServer(t)
	startSession(t, s, "W")

	rec := doJSON(t, s, http.MethodDelete, "/api/v1/session", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/v1/session", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

// TestEndWithCompletedSetsNeedsForce verifies discarding a session that has
// completed sets requires force=true.
func TestEndWithCompletedSetsNeedsForce(t *testing.T) {
	s := testServer(t)
	startSession(t, s, "W")
	addExercise(t, s, "Squat")
	doJSON(t, s, http.MethodPost, "/api/v1/session/exercises/0/sets/0/complete", nil)

	rec := doJSON(t, s, http.MethodDelete, "/api/v1/session", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("unforced end status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/v1/session?force=true", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("forced end status = %d, want 200: %s", rec.Code, rec.Body)
	}
}

// TestHistoryAfterDiscard verifies GET /history lists the archived session.
func TestHistoryAfterDiscard(t *testing.T) {
	s := testServer(t)
	startSession(t, s, "abandoned")
	doJSON(t, s, http.MethodDelete, "/api/v1/session", nil)

	rec := doJSON(t, s, http.MethodGet, "/api/v1/history", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var history []models.HistoryEntry
	if err := json.NewDecoder(rec.Body).Decode(&history); err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 {
		t.Fatalf("history = %d entries, want 1", len(history))
	}
	if history[0].Session.Name != "abandoned" || history[0].Reason != models.ArchivedDiscarded {
		t.Errorf("entry = %q/%q, want abandoned/discarded", history[0].Session.Name, history[0].Reason)
	}
}

// TestDeleteExerciseOutOfRange verifies an out-of-range index is 400.
func TestDeleteExerciseOutOfRange(t *testing.T) {
	s := testServer(t)
	startSession(t, s, "W")

	rec := doJSON(t, s, http.MethodDelete, "/api/v1/session/exercises/5", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestUpdateSetValues verifies PUT .../sets/{set} replaces the set's targets.
func TestUpdateSetValues(t *testing.T) {
	s := testServer(t)
	startSession(t, s, "W")
	addExercise(t, s, "Deadlift")

	reps, weight := 5, 140.0
	rec := doJSON(t, s, http.MethodPut, "/api/v1/session/exercises/0/sets/0", models.ExerciseSet{
		Reps:   &reps,
		Weight: &weight,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	got := decodeSession(t, rec)
	set := got.Exercises[0].Sets[0]
	if set.Reps == nil || *set.Reps != 5 {
		t.Errorf("reps = %v, want 5", set.Reps)
	}
	if set.Weight == nil || *set.Weight != 140.0 {
		t.Errorf("weight = %v, want 140", set.Weight)
	}
}

// TestMutationsRequireSession verifies edit endpoints answer 404 when idle.
func TestMutationsRequireSession(t *testing.T) {
	s := testServer(t)

	paths := []struct {
		method, path string
		body         any
	}{
		{http.MethodPut, "/api/v1/session/name", map[string]string{"name": "x"}},
		{http.MethodPost, "/api/v1/session/timer/toggle", nil},
		{http.MethodPost, "/api/v1/session/exercises", map[string]any{"exercise": map[string]any{"name": "x"}}},
	}
	for _, tc := range paths {
		rec := doJSON(t, s, tc.method, tc.path, tc.body)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s status = %d, want 404", tc.method, tc.path, rec.Code)
		}
	}
}

// TestToggleTimerEndpoint verifies POST /session/timer/toggle flips the
// running flag.
func TestToggleTimerEndpoint(t *testing.T) {
	s := testServer(t)
	startSession(t, s, "W")

	rec := doJSON(t, s, http.MethodPost, "/api/v1/session/timer/toggle", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := decodeSession(t, rec); got.TimerActive {
		t.Error("timer still active after toggle")
	}
}

// TestRestTimerEndpoint verifies PUT /session/rest-timer starts and clears
// the countdown.
func TestRestTimerEndpoint(t *testing.T) {
	s := testServer(t)
	startSession(t, s, "W")

	rec := doJSON(t, s, http.MethodPut, "/api/v1/session/rest-timer", map[string]any{"seconds": 45})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decodeSession(t, rec)
	if got.RestTimer == nil || got.RestTimer.TotalSeconds != 45 {
		t.Fatalf("rest timer = %+v, want 45 seconds", got.RestTimer)
	}

	rec = doJSON(t, s, http.MethodPut, "/api/v1/session/rest-timer", map[string]any{"clear": true})
	if got := decodeSession(t, rec); got.RestTimer != nil {
		t.Errorf("rest timer = %+v, want cleared", got.RestTimer)
	}
}

// TestReorderExercises verifies PUT /session/exercises/order moves an
// exercise and the list keeps its members.
func TestReorderExercises(t *testing.T) {
	s := testServer(t)
	startSession(t, s, "W")
	for i := 0; i < 3; i++ {
		addExercise(t, s, fmt.Sprintf("ex-%d", i))
	}

	rec := doJSON(t, s, http.MethodPut, "/api/v1/session/exercises/order", map[string]int{"from": 0, "to": 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	got := decodeSession(t, rec)
	if got.Exercises[2].Name != "ex-0" {
		t.Errorf("exercises[2] = %q, want ex-0", got.Exercises[2].Name)
	}
}
