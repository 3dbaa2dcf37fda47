package models

// WorkoutLogPayload is the JSON body the remote log-creation endpoint
// expects. The shape is flat: superset links are array-index based and every
// set carries the full field grid with the unused axes explicitly null.
type WorkoutLogPayload struct {
	Date                string        `json:"date"`
	Name                string        `json:"name"`
	Description         string        `json:"description"`
	Notes               string        `json:"notes"`
	DurationMinutes     int           `json:"duration"`
	MoodRating          *int          `json:"mood_rating"`
	PerceivedDifficulty *int          `json:"perceived_difficulty"`
	Completed           bool          `json:"completed"`
	Exercises           []LogExercise `json:"exercises"`
	TemplateID          *string       `json:"template_id"`
	ProgramID           *string       `json:"program_id"`
	ProgramWorkoutID    *string       `json:"program_workout_id"`
	Gym                 *string       `json:"gym"`
	Tags                []string      `json:"tags"`
	SourceType          string        `json:"source_type"`
}

// LogExercise is one exercise entry of the log payload. SupersetWith holds
// the array index of the paired exercise, or null when not in a superset.
type LogExercise struct {
	Name                   string            `json:"name"`
	Equipment              string            `json:"equipment"`
	EffortType             string            `json:"effort_type"`
	Order                  int               `json:"order"`
	Notes                  string            `json:"notes"`
	Sets                   []LogSet          `json:"sets"`
	SupersetWith           *int              `json:"superset_with"`
	IsSuperset             bool              `json:"is_superset"`
	SupersetRestTime       *int              `json:"superset_rest_time"`
	SupersetPairedExercise *SupersetSnapshot `json:"superset_paired_exercise"`
}

// SupersetSnapshot is a denormalized copy of the paired exercise's identity,
// carried so the backend can render the pairing without a second lookup.
type SupersetSnapshot struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// LogSet carries exactly one measurement axis per the exercise's effort
// type; the remaining fields are null so the backend schema sees a
// consistent shape regardless of which path produced the set.
type LogSet struct {
	Reps      *int     `json:"reps"`
	Weight    *float64 `json:"weight"`
	Duration  *int     `json:"duration"`
	Distance  *float64 `json:"distance"`
	RestTime  int      `json:"rest_time"`
	Order     int      `json:"order"`
	Completed bool     `json:"completed"`
}

// CreatedLog is the response of a successful log creation.
type CreatedLog struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Date string `json:"date"`
}
