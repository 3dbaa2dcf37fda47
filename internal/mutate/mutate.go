// Package mutate implements the workout edit operations as pure functions
// over the session's exercise list. Every function returns a new slice and
// leaves its input untouched; validation-rejected operations return sentinel
// errors for the caller to surface.
package mutate

import (
	"errors"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/models"
)

var (
	// ErrLastSet rejects removing an exercise's only set.
	ErrLastSet = errors.New("an exercise must keep at least one set")
	// ErrCompletedSets rejects deleting an exercise with completed work.
	ErrCompletedSets = errors.New("exercise has completed sets")
	// ErrSelfPair rejects pairing an exercise with itself.
	ErrSelfPair = errors.New("cannot superset an exercise with itself")
	// ErrIndexRange rejects an out-of-range exercise or set index.
	ErrIndexRange = errors.New("index out of range")
)

// DefaultSupersetRest is the rest applied to a new superset group, replacing
// the individual sets' rest times between rounds.
const DefaultSupersetRest = 90

// defaultSetRest seeds the rest time of a brand-new exercise's first set.
const defaultSetRest = 60

// PendingLink is the continuation for a superset whose second member has not
// been added yet: the next AddExercise call joins the new exercise to Group
// at Position instead of appending it.
type PendingLink struct {
	Group    string `json:"group"`
	Position int    `json:"position"`
	RestTime int    `json:"rest_time"`
}

// DefaultSet seeds the first set of a new exercise according to its effort
// type.
func DefaultSet(effort models.EffortType) models.ExerciseSet {
	set := models.ExerciseSet{Order: 0, RestTime: defaultSetRest}
	switch effort {
	case models.EffortTime:
		set.Duration = intPtr(30)
	case models.EffortDistance:
		set.Distance = floatPtr(100)
	default:
		set.Reps = intPtr(10)
		set.Weight = floatPtr(0)
	}
	return set
}

// AddExercise appends ex, generating an id and seeding a default set when
// missing. A non-nil pending link joins the new exercise to the waiting
// superset group at the recorded position instead.
func AddExercise(exercises []models.Exercise, ex models.Exercise, pending *PendingLink) []models.Exercise {
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	if len(ex.Sets) == 0 {
		ex.Sets = []models.ExerciseSet{DefaultSet(ex.EffortType)}
	}

	out := copyExercises(exercises)
	if pending == nil {
		return append(out, ex)
	}

	ex.SupersetGroup = pending.Group
	ex.SupersetRestTime = pending.RestTime
	pos := pending.Position
	if pos < 0 || pos > len(out) {
		pos = len(out)
	}
	out = append(out, models.Exercise{})
	copy(out[pos+1:], out[pos:])
	out[pos] = ex
	return out
}

// AddSet appends a set to the exercise at index, cloning the last set's
// values so weight, reps, and rest carry forward.
func AddSet(exercises []models.Exercise, index int) ([]models.Exercise, error) {
	if index < 0 || index >= len(exercises) {
		return nil, ErrIndexRange
	}

	out := copyExercises(exercises)
	sets := out[index].Sets

	var next models.ExerciseSet
	if len(sets) > 0 {
		next = sets[len(sets)-1]
	} else {
		next = DefaultSet(out[index].EffortType)
	}
	next.Completed = false
	next.Order = len(sets)
	out[index].Sets = append(sets, next)
	return out, nil
}

// RemoveSet deletes one set, refusing to leave the exercise empty. Remaining
// set orders are renumbered contiguously from 0.
func RemoveSet(exercises []models.Exercise, index, setIndex int) ([]models.Exercise, error) {
	if index < 0 || index >= len(exercises) {
		return nil, ErrIndexRange
	}
	sets := exercises[index].Sets
	if setIndex < 0 || setIndex >= len(sets) {
		return nil, ErrIndexRange
	}
	if len(sets) == 1 {
		return nil, ErrLastSet
	}

	out := copyExercises(exercises)
	out[index].Sets = append(out[index].Sets[:setIndex], out[index].Sets[setIndex+1:]...)
	for i := range out[index].Sets {
		out[index].Sets[i].Order = i
	}
	return out, nil
}

// UpdateSet replaces the values of one set, keeping its order.
func UpdateSet(exercises []models.Exercise, index, setIndex int, set models.ExerciseSet) ([]models.Exercise, error) {
	if index < 0 || index >= len(exercises) {
		return nil, ErrIndexRange
	}
	if setIndex < 0 || setIndex >= len(exercises[index].Sets) {
		return nil, ErrIndexRange
	}

	out := copyExercises(exercises)
	set.Order = setIndex
	out[index].Sets[setIndex] = set
	return out, nil
}

// DeleteExercise removes the exercise at index. Exercises with completed
// sets are protected. When the deletion leaves a superset group with a
// single member, that member is demoted back to a standalone exercise.
func DeleteExercise(exercises []models.Exercise, index int) ([]models.Exercise, error) {
	if index < 0 || index >= len(exercises) {
		return nil, ErrIndexRange
	}
	for _, set := range exercises[index].Sets {
		if set.Completed {
			return nil, ErrCompletedSets
		}
	}

	group := exercises[index].SupersetGroup
	out := copyExercises(exercises)
	out = append(out[:index], out[index+1:]...)

	if group != "" {
		remaining := groupMembers(out, group)
		if len(remaining) == 1 {
			out[remaining[0]].SupersetGroup = ""
			out[remaining[0]].SupersetRestTime = 0
		}
	}
	return out, nil
}

// ReorderExercises moves the exercise at from to position to.
func ReorderExercises(exercises []models.Exercise, from, to int) ([]models.Exercise, error) {
	if from < 0 || from >= len(exercises) || to < 0 || to >= len(exercises) {
		return nil, ErrIndexRange
	}

	out := copyExercises(exercises)
	ex := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out, models.Exercise{})
	copy(out[to+1:], out[to:])
	out[to] = ex
	return out, nil
}

// CreateSuperset pairs the two exercises under a fresh group id. A
// non-positive rest falls back to the 90 second default.
func CreateSuperset(exercises []models.Exercise, first, second, restTime int) ([]models.Exercise, error) {
	if first < 0 || first >= len(exercises) || second < 0 || second >= len(exercises) {
		return nil, ErrIndexRange
	}
	if first == second {
		return nil, ErrSelfPair
	}
	if restTime <= 0 {
		restTime = DefaultSupersetRest
	}

	group := uuid.NewString()
	out := copyExercises(exercises)
	out[first].SupersetGroup = group
	out[first].SupersetRestTime = restTime
	out[second].SupersetGroup = group
	out[second].SupersetRestTime = restTime
	return out, nil
}

// BeginSuperset tags the exercise at index with a fresh group whose partner
// does not exist yet and returns the pending link the next AddExercise call
// should complete.
func BeginSuperset(exercises []models.Exercise, index, restTime int) ([]models.Exercise, *PendingLink, error) {
	if index < 0 || index >= len(exercises) {
		return nil, nil, ErrIndexRange
	}
	if restTime <= 0 {
		restTime = DefaultSupersetRest
	}

	group := uuid.NewString()
	out := copyExercises(exercises)
	out[index].SupersetGroup = group
	out[index].SupersetRestTime = restTime
	return out, &PendingLink{Group: group, Position: index + 1, RestTime: restTime}, nil
}

/// CompleteResult is the outcome of completing a set: the updated list, the
// exercise index the session should move to, and how long to rest before the
// next set. Mid-superset transitions rest zero seconds; finishing the last
// member of a group rests for the group's configured time.
type CompleteResult struct {
	Exercises   []models.Exercise
	NextIndex   int
	RestSeconds int
}

// CompleteSet marks a set done and decides where the session goes next.
func CompleteSet(exercises []models.Exercise, index, setIndex int) (CompleteResult, error) {
	if index < 0 || index >= len(exercises) {
		return CompleteResult{}, ErrIndexRange
	}
	if setIndex < 0 || setIndex >= len(exercises[index].Sets) {
		return CompleteResult{}, ErrIndexRange
	}

	out := copyExercises(exercises)
	out[index].Sets[setIndex].Completed = true

	res := CompleteResult{
		Exercises:   out,
		NextIndex:   index,
		RestSeconds: out[index].Sets[setIndex].RestTime,
	}

	ex := out[index]
	if !ex.InSuperset() {
		return res, nil
	}

	members := groupMembers(out, ex.SupersetGroup)
	pos := -1
	for i, m := range members {
		if m == index {
			pos = i
			break
		}
	}
	if pos >= 0 && pos < len(members)-1 {
		// Paired exercises run back to back with no rest between them.
		res.NextIndex = members[pos+1]
		res.RestSeconds = 0
	} else {
		res.RestSeconds = ex.SupersetRestTime
	}
	return res, nil
}

// ClampIndex keeps a current-exercise pointer inside [0, n), or 0 when the
// list is empty.
func ClampIndex(index, n int) int {
	if n == 0 || index < 0 {
		return 0
	}
	if index >= n {
		return n - 1
	}
	return index
}

// groupMembers returns the indices of the exercises in the group, in list
// order.
func groupMembers(exercises []models.Exercise, group string) []int {
	var members []int
	for i, ex := range exercises {
		if ex.SupersetGroup == group {
			members = append(members, i)
		}
	}
	return members
}

func copyExercises(exercises []models.Exercise) []models.Exercise {
	out := make([]models.Exercise, len(exercises))
	copy(out, exercises)
	for i := range out {
		sets := make([]models.ExerciseSet, len(out[i].Sets))
		copy(sets, out[i].Sets)
		out[i].Sets = sets
	}
	return out
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
