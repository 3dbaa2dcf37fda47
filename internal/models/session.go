package models

import "time"

// EffortType is the measurement axis for an exercise's sets. It determines
// which numeric fields of each set are meaningful.
type EffortType string

const (
	EffortReps     EffortType = "reps"
	EffortTime     EffortType = "time"
	EffortDistance EffortType = "distance"
)

// SourceType records where a session came from. It is a provenance tag only;
// the foreign-reference fields on the session carry the actual links.
type SourceType string

const (
	SourceTemplate SourceType = "template"
	SourceProgram  SourceType = "program"
	SourceCustom   SourceType = "custom"
)

// RestTimer is an independent countdown nested inside the session.
type RestTimer struct {
	IsActive         bool      `json:"is_active"`
	TotalSeconds     int       `json:"total_seconds"`
	StartTime        time.Time `json:"start_time"`
	RemainingSeconds int       `json:"remaining_seconds"`
}

// ExerciseSet is one set within an exercise. Which value fields are populated
// depends on the parent exercise's effort type: reps+weight, duration+weight,
// or distance+duration. Target values come from the template; actual values
// are what the user logged.
type ExerciseSet struct {
	Order          int      `json:"order"`
	Reps           *int     `json:"reps,omitempty"`
	Weight         *float64 `json:"weight,omitempty"`
	Duration       *int     `json:"duration,omitempty"`
	Distance       *float64 `json:"distance,omitempty"`
	ActualReps     *int     `json:"actual_reps,omitempty"`
	ActualWeight   *float64 `json:"actual_weight,omitempty"`
	ActualDuration *int     `json:"actual_duration,omitempty"`
	ActualDistance *float64 `json:"actual_distance,omitempty"`
	Completed      bool     `json:"completed"`
	RestTime       int      `json:"rest_time"`
}

// Exercise is one entry in a session's ordered exercise list. Exercises
// performed back-to-back share a SupersetGroup id.
type Exercise struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Equipment        string        `json:"equipment,omitempty"`
	EffortType       EffortType    `json:"effort_type"`
	SupersetGroup    string        `json:"superset_group,omitempty"`
	SupersetRestTime int           `json:"superset_rest_time,omitempty"`
	Notes            string        `json:"notes,omitempty"`
	Sets             []ExerciseSet `json:"sets"`
}

// InSuperset reports whether the exercise belongs to a superset group.
func (e *Exercise) InSuperset() bool {
	return e.SupersetGroup != ""
}

// ActiveWorkoutSession is the single in-progress workout. Exactly one may
// exist at a time; it lives in the session manager and is mirrored to the
// persistence slot on every mutation.
//
// The workout timer is an explicit accumulator: AccumulatedSeconds holds the
// elapsed time up to the last pause, and LastResumeTime marks when the timer
// was last (re)started. Duration is recomputed from both while the timer is
// active, so pausing never loses or double-counts time.
type ActiveWorkoutSession struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	Exercises            []Exercise `json:"exercises"`
	Started              bool       `json:"started"`
	StartTime            time.Time  `json:"start_time"`
	Duration             int        `json:"duration"`
	AccumulatedSeconds   int        `json:"accumulated_seconds"`
	LastResumeTime       time.Time  `json:"last_resume_time"`
	TimerActive          bool       `json:"timer_active"`
	CurrentExerciseIndex int        `json:"current_exercise_index"`
	SourceType           SourceType `json:"source_type"`
	TemplateID           string     `json:"template_id,omitempty"`
	ProgramID            string     `json:"program_id,omitempty"`
	WorkoutID            string     `json:"workout_id,omitempty"`
	RestTimer            *RestTimer `json:"rest_timer,omitempty"`
	LastUpdated          time.Time  `json:"last_updated"`
}

// ElapsedSeconds returns the workout duration at the given instant.
func (s *ActiveWorkoutSession) ElapsedSeconds(now time.Time) int {
	if !s.TimerActive || s.LastResumeTime.IsZero() {
		return s.AccumulatedSeconds
	}
	return s.AccumulatedSeconds + int(now.Sub(s.LastResumeTime).Seconds())
}

// ArchiveReason records why a session ended up in the history archive.
type ArchiveReason string

const (
	ArchivedStale     ArchiveReason = "stale"
	ArchivedCompleted ArchiveReason = "completed"
	ArchivedDiscarded ArchiveReason = "discarded"
)

// HistoryEntry is one archived session in the bounded history log.
type HistoryEntry struct {
	Session    ActiveWorkoutSession `json:"session"`
	Reason     ArchiveReason        `json:"reason"`
	ArchivedAt time.Time            `json:"archived_at"`
}
