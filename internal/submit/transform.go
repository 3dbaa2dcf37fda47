// Package submit converts a finished session into the remote log-creation
// payload and delivers it, optionally followed by a social post.
package submit

import (
	"github.com/claude/liftlog/internal/models"
)

// Options carries the user-entered completion details that are not part of
// the session itself.
type Options struct {
	Description         string
	Notes               string
	MoodRating          *int
	PerceivedDifficulty *int
	Gym                 *string
	Tags                []string
}

// BuildLogPayload flattens the session into the wire shape the log-creation
// endpoint expects: index-based superset links, one measurement axis per set
// with the unused fields explicitly null, and the internal "custom" source
// remapped to the literal "none".
func BuildLogPayload(session *models.ActiveWorkoutSession, opts Options) models.WorkoutLogPayload {
	payload := models.WorkoutLogPayload{
		Date:                session.StartTime.Format("2006-01-02"),
		Name:                session.Name,
		Description:         opts.Description,
		Notes:               opts.Notes,
		DurationMinutes:     (session.Duration + 30) / 60,
		MoodRating:          opts.MoodRating,
		PerceivedDifficulty: opts.PerceivedDifficulty,
		Completed:           true,
		Exercises:           make([]models.LogExercise, 0, len(session.Exercises)),
		TemplateID:          optionalString(session.TemplateID),
		ProgramID:           optionalString(session.ProgramID),
		ProgramWorkoutID:    optionalString(session.WorkoutID),
		Gym:                 opts.Gym,
		Tags:                opts.Tags,
		SourceType:          wireSourceType(session.SourceType),
	}
	if payload.Tags == nil {
		payload.Tags = []string{}
	}

	for i, ex := range session.Exercises {
		entry := models.LogExercise{
			Name:       ex.Name,
			Equipment:  ex.Equipment,
			EffortType: string(ex.EffortType),
			Order:      i,
			Notes:      ex.Notes,
			Sets:       make([]models.LogSet, 0, len(ex.Sets)),
		}

		if ex.InSuperset() {
			if partner := firstPartner(session.Exercises, i); partner >= 0 {
				idx := partner
				rest := ex.SupersetRestTime
				entry.SupersetWith = &idx
				entry.IsSuperset = true
				entry.SupersetRestTime = &rest
				entry.SupersetPairedExercise = &models.SupersetSnapshot{
					ID:    session.Exercises[partner].ID,
					Name:  session.Exercises[partner].Name,
					Order: partner,
				}
			}
		}

		for _, set := range ex.Sets {
			entry.Sets = append(entry.Sets, buildLogSet(ex.EffortType, set))
		}
		payload.Exercises = append(payload.Exercises, entry)
	}

	return payload
}

// buildLogSet selects the measurement fields for the effort type, preferring
// actual values over targets, and nulls the rest.
func buildLogSet(effort models.EffortType, set models.ExerciseSet) models.LogSet {
	out := models.LogSet{
		RestTime:  set.RestTime,
		Order:     set.Order,
		Completed: set.Completed,
	}
	switch effort {
	case models.EffortTime:
		out.Duration = pickInt(set.ActualDuration, set.Duration)
		out.Weight = pickFloat(set.ActualWeight, set.Weight)
	case models.EffortDistance:
		out.Distance = pickFloat(set.ActualDistance, set.Distance)
		out.Duration = pickInt(set.ActualDuration, set.Duration)
	default:
		out.Reps = pickInt(set.ActualReps, set.Reps)
		out.Weight = pickFloat(set.ActualWeight, set.Weight)
	}
	return out
}

// firstPartner returns the index of the first other exercise sharing the
// superset group of the exercise at i, or -1. Groups with three or more
// members are still encoded pairwise; only one partner is recorded.
func firstPartner(exercises []models.Exercise, i int) int {
	group := exercises[i].SupersetGroup
	for j, ex := range exercises {
		if j != i && ex.SupersetGroup == group {
			return j
		}
	}
	return -1
}

// wireSourceType maps the internal provenance tag to the backend's enum,
// where "custom" is transmitted as "none".
func wireSourceType(source models.SourceType) string {
	if source == models.SourceCustom || source == "" {
		return "none"
	}
	return string(source)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func pickInt(actual, target *int) *int {
	if actual != nil {
		return actual
	}
	return target
}

func pickFloat(actual, target *float64) *float64 {
	if actual != nil {
		return actual
	}
	return target
}
