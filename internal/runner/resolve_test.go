package runner

import (
	"testing"

	"github.com/mpataki/balneo/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(exercises []models.Exercise) []string {
	out := make([]string, 0, len(exercises))
	for _, e := range exercises {
		out = append(out, e.Name)
	}
	return out
}

func TestResolveExercisesSortsByOrder(t *testing.T) {
	repo := newMemoryRepo()
	for _, id := range []string{"a", "b", "c"} {
		repo.exercises[id] = &models.Exercise{ID: id, Name: id, DurationSeconds: 10}
	}
	repo.sessions["s"] = &models.Session{ID: "s", Exercises: []models.SessionExercise{
		{ExerciseID: "c", Order: 2},
		{ExerciseID: "a", Order: 0},
		{ExerciseID: "b", Order: 1},
	}}

	assert.Equal(t, []string{"a", "b", "c"}, names(ResolveExercises(repo, "s")))
}

func TestResolveExercisesTiesKeepInsertionOrder(t *testing.T) {
	repo := newMemoryRepo()
	for _, id := range []string{"w", "x", "y", "z"} {
		repo.exercises[id] = &models.Exercise{ID: id, Name: id, DurationSeconds: 10}
	}
	repo.sessions["s"] = &models.Session{ID: "s", Exercises: []models.SessionExercise{
		{ExerciseID: "z", Order: 1},
		{ExerciseID: "y", Order: 0},
		{ExerciseID: "x", Order: 1},
		{ExerciseID: "w", Order: 0},
	}}

	for i := 0; i < 20; i++ {
		require.Equal(t, []string{"y", "w", "z", "x"}, names(ResolveExercises(repo, "s")))
	}
}

func TestResolveExercisesDropsDanglingReferences(t *testing.T) {
	repo := newMemoryRepo()
	repo.addSession("s", 5, 6, 7)
	repo.deleteExercise("s-1")

	got := ResolveExercises(repo, "s")
	assert.Equal(t, []string{"s-0", "s-2"}, names(got))
	assert.Equal(t, 7, got[1].DurationSeconds)
}

func TestResolveExercisesUnknownSession(t *testing.T) {
	repo := newMemoryRepo()
	assert.Empty(t, ResolveExercises(repo, "nope"))

	slot := InitialSlot(repo, "p", "nope")
	assert.Equal(t, models.PatientSlot{PatientID: "p", SessionID: "nope"}, slot)
}

func TestResolveExercisesReadsRepositoryEveryTime(t *testing.T) {
	repo := newMemoryRepo()
	repo.addSession("s", 5, 6)
	require.Len(t, ResolveExercises(repo, "s"), 2)

	repo.deleteExercise("s-0")
	got := ResolveExercises(repo, "s")
	require.Len(t, got, 1)
	assert.Equal(t, 6, got[0].DurationSeconds)
}

func TestResolveExercisesDoesNotReorderStoredSession(t *testing.T) {
	repo := newMemoryRepo()
	repo.exercises["a"] = &models.Exercise{ID: "a", Name: "a", DurationSeconds: 1}
	repo.exercises["b"] = &models.Exercise{ID: "b", Name: "b", DurationSeconds: 1}
	stored := []models.SessionExercise{{ExerciseID: "b", Order: 1}, {ExerciseID: "a", Order: 0}}
	repo.sessions["s"] = &models.Session{ID: "s", Exercises: stored}

	ResolveExercises(repo, "s")
	assert.Equal(t, "b", repo.sessions["s"].Exercises[0].ExerciseID)
}
