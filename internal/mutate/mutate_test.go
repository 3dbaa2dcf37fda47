package mutate

import (
	"errors"
	"testing"

	"github.com/claude/liftlog/internal/models"
)

func repsExercise(name string, sets int) models.Exercise {
	ex := models.Exercise{
		ID:         name,
		Name:       name,
		EffortType: models.EffortReps,
	}
	for i := 0; i < sets; i++ {
		s := DefaultSet(models.EffortReps)
		s.Order = i
		ex.Sets = append(ex.Sets, s)
	}
	return ex
}

// TestDefaultSetShapes verifies the seeded first set per effort type:
// reps→{reps:10, weight:0}, time→{duration:30}, distance→{distance:100}.
func TestDefaultSetShapes(t *testing.T) {
	reps := DefaultSet(models.EffortReps)
	if reps.Reps == nil || *reps.Reps != 10 {
		t.Errorf("reps default = %v, want 10", reps.Reps)
	}
	if reps.Weight == nil || *reps.Weight != 0 {
		t.Errorf("weight default = %v, want 0", reps.Weight)
	}
	if reps.Duration != nil || reps.Distance != nil {
		t.Error("reps set should not carry duration or distance")
	}

	timed := DefaultSet(models.EffortTime)
	if timed.Duration == nil || *timed.Duration != 30 {
		t.Errorf("duration default = %v, want 30", timed.Duration)
	}

	dist := DefaultSet(models.EffortDistance)
	if dist.Distance == nil || *dist.Distance != 100 {
		t.Errorf("distance default = %v, want 100", dist.Distance)
	}
}

// TestAddExerciseDefaults verifies that an exercise without an id or sets
// gets both generated, and that the input slice is not mutated.
func TestAddExerciseDefaults(t *testing.T) {
	in := []models.Exercise{repsExercise("squat", 1)}
	out := AddExercise(in, models.Exercise{Name: "bench", EffortType: models.EffortReps}, nil)

	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	added := out[1]
	if added.ID == "" {
		t.Error("expected generated exercise id")
	}
	if len(added.Sets) != 1 {
		t.Fatalf("seeded sets = %d, want 1", len(added.Sets))
	}
	if added.Sets[0].Reps == nil || *added.Sets[0].Reps != 10 {
		t.Errorf("seeded reps = %v, want 10", added.Sets[0].Reps)
	}
	if len(in) != 1 {
		t.Errorf("input slice mutated: len = %d", len(in))
	}
}

// TestAddExercisePendingLink verifies that a pending superset link makes the
// new exercise join the waiting group at the recorded position instead of
// being appended.
func TestAddExercisePendingLink(t *testing.T) {
	in := []models.Exercise{repsExercise("squat", 1), repsExercise("curl", 1)}
	withGroup, link, err := BeginSuperset(in, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if link.Position != 1 {
		t.Errorf("pending position = %d, want 1", link.Position)
	}
	if link.RestTime != DefaultSupersetRest {
		t.Errorf("pending rest = %d, want %d", link.RestTime, DefaultSupersetRest)
	}

	out := AddExercise(withGroup, models.Exercise{Name: "lunge", EffortType: models.EffortReps}, link)
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	if out[1].Name != "lunge" {
		t.Errorf("exercise at pending position = %q, want lunge", out[1].Name)
	}
	if out[1].SupersetGroup != out[0].SupersetGroup || out[1].SupersetGroup == "" {
		t.Errorf("joined group = %q, want %q", out[1].SupersetGroup, out[0].SupersetGroup)
	}
	if out[2].Name != "curl" {
		t.Errorf("displaced exercise = %q, want curl", out[2].Name)
	}
}

// TestAddSetCopyForward verifies that a new set clones the last set's values
// (weight, reps, rest) rather than starting from zero.
func TestAddSetCopyForward(t *testing.T) {
	ex := repsExercise("squat", 1)
	ex.Sets[0].Reps = intPtr(5)
	ex.Sets[0].Weight = floatPtr(100)
	ex.Sets[0].RestTime = 120
	ex.Sets[0].Completed = true

	out, err := AddSet([]models.Exercise{ex}, 0)
	if err != nil {
		t.Fatal(err)
	}

	sets := out[0].Sets
	if len(sets) != 2 {
		t.Fatalf("sets = %d, want 2", len(sets))
	}
	added := sets[1]
	if added.Reps == nil || *added.Reps != 5 {
		t.Errorf("cloned reps = %v, want 5", added.Reps)
	}
	if added.Weight == nil || *added.Weight != 100 {
		t.Errorf("cloned weight = %v, want 100", added.Weight)
	}
	if added.RestTime != 120 {
		t.Errorf("cloned rest = %d, want 120", added.RestTime)
	}
	if added.Completed {
		t.Error("new set must not start completed")
	}
	if added.Order != 1 {
		t.Errorf("order = %d, want 1", added.Order)
	}
}

// TestRemoveSetLastGuard verifies that removing an exercise's only set is
// rejected and leaves the set count unchanged.
func TestRemoveSetLastGuard(t *testing.T) {
	in := []models.Exercise{repsExercise("squat", 1)}
	_, err := RemoveSet(in, 0, 0)
	if !errors.Is(err, ErrLastSet) {
		t.Fatalf("err = %v, want ErrLastSet", err)
	}
	if len(in[0].Sets) != 1 {
		t.Errorf("set count changed: %d", len(in[0].Sets))
	}
}

// TestRemoveSetRenumbers verifies that remaining set orders are contiguous
// from 0 after a removal.
func TestRemoveSetRenumbers(t *testing.T) {
	in := []models.Exercise{repsExercise("squat", 3)}
	out, err := RemoveSet(in, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	sets := out[0].Sets
	if len(sets) != 2 {
		t.Fatalf("sets = %d, want 2", len(sets))
	}
	for i, s := range sets {
		if s.Order != i {
			t.Errorf("sets[%d].Order = %d, want %d", i, s.Order, i)
		}
	}
}

// TestDeleteExerciseCompletedGuard verifies that completed work cannot be
// silently discarded.
func TestDeleteExerciseCompletedGuard(t *testing.T) {
	ex := repsExercise("squat", 2)
	ex.Sets[1].Completed = true

	_, err := DeleteExercise([]models.Exercise{ex}, 0)
	if !errors.Is(err, ErrCompletedSets) {
		t.Fatalf("err = %v, want ErrCompletedSets", err)
	}
}

// TestDeleteExerciseSupersetDemotion verifies that deleting one member of a
// 2-member superset strips the grouping fields from the survivor.
func TestDeleteExerciseSupersetDemotion(t *testing.T) {
	in := []models.Exercise{repsExercise("squat", 1), repsExercise("curl", 1)}
	paired, err := CreateSuperset(in, 0, 1, 60)
	if err != nil {
		t.Fatal(err)
	}

	out, err := DeleteExercise(paired, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("len = %d, want 1", len(out))
	}
	if out[0].SupersetGroup != "" {
		t.Errorf("survivor group = %q, want empty", out[0].SupersetGroup)
	}
	if out[0].SupersetRestTime != 0 {
		t.Errorf("survivor rest = %d, want 0", out[0].SupersetRestTime)
	}
}

// TestDeleteExerciseLargeGroupKeepsPairing verifies that deleting one member
// of a 3-member group leaves the other two still grouped.
func TestDeleteExerciseLargeGroupKeepsPairing(t *testing.T) {
	in := []models.Exercise{repsExercise("a", 1), repsExercise("b", 1), repsExercise("c", 1)}
	paired, err := CreateSuperset(in, 0, 1, 60)
	if err != nil {
		t.Fatal(err)
	}
	paired[2].SupersetGroup = paired[0].SupersetGroup
	paired[2].SupersetRestTime = paired[0].SupersetRestTime

	out, err := DeleteExercise(paired, 0)
	if err != nil {
		t.Fatal(err)
	}
	if out[0].SupersetGroup == "" || out[1].SupersetGroup == "" {
		t.Error("remaining members should stay grouped")
	}
}

// TestCreateSupersetSelfPair verifies the self-pairing guard.
func TestCreateSupersetSelfPair(t *testing.T) {
	in := []models.Exercise{repsExercise("squat", 1)}
	if _, err := CreateSuperset(in, 0, 0, 60); !errors.Is(err, ErrSelfPair) {
		t.Fatalf("err = %v, want ErrSelfPair", err)
	}
}

// TestCompleteSetSupersetAdvance verifies the superset flow: completing a
// set on the first member advances to the second with zero rest; completing
// on the last member rests for the group's configured time, not the set's
// own rest_time.
func TestCompleteSetSupersetAdvance(t *testing.T) {
	in := []models.Exercise{repsExercise("squat", 1), repsExercise("curl", 1)}
	in[0].Sets[0].RestTime = 45
	in[1].Sets[0].RestTime = 45
	paired, err := CreateSuperset(in, 0, 1, 90)
	if err != nil {
		t.Fatal(err)
	}

	first, err := CompleteSet(paired, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if first.NextIndex != 1 {
		t.Errorf("NextIndex = %d, want 1", first.NextIndex)
	}
	if first.RestSeconds != 0 {
		t.Errorf("mid-superset rest = %d, want 0", first.RestSeconds)
	}
	if !first.Exercises[0].Sets[0].Completed {
		t.Error("set not marked completed")
	}

	last, err := CompleteSet(first.Exercises, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if last.RestSeconds != 90 {
		t.Errorf("last-member rest = %d, want group rest 90", last.RestSeconds)
	}
	if last.NextIndex != 1 {
		t.Errorf("NextIndex = %d, want 1 (unchanged)", last.NextIndex)
	}
}

// TestCompleteSetStandaloneRest verifies that a standalone exercise rests
// for the completed set's own rest_time.
func TestCompleteSetStandaloneRest(t *testing.T) {
	ex := repsExercise("squat", 1)
	ex.Sets[0].RestTime = 75

	res, err := CompleteSet([]models.Exercise{ex}, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.RestSeconds != 75 {
		t.Errorf("rest = %d, want 75", res.RestSeconds)
	}
	if res.NextIndex != 0 {
		t.Errorf("NextIndex = %d, want 0", res.NextIndex)
	}
}

// TestReorderExercises verifies the move operation.
func TestReorderExercises(t *testing.T) {
	in := []models.Exercise{repsExercise("a", 1), repsExercise("b", 1), repsExercise("c", 1)}
	out, err := ReorderExercises(in, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"b", "c", "a"}
	for i, name := range want {
		if out[i].Name != name {
			t.Errorf("out[%d] = %q, want %q", i, out[i].Name, name)
		}
	}
}

// TestClampIndex verifies the current-exercise pointer stays in [0, n), or
// 0 when the list is empty.
func TestClampIndex(t *testing.T) {
	cases := []struct {
		index, n, want int
	}{
		{0, 0, 0},
		{5, 0, 0},
		{-1, 3, 0},
		{1, 3, 1},
		{3, 3, 2},
		{10, 3, 2},
	}
	for _, c := range cases {
		if got := ClampIndex(c.index, c.n); got != c.want {
			t.Errorf("ClampIndex(%d, %d) = %d, want %d", c.index, c.n, got, c.want)
		}
	}
}
