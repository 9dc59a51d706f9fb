package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mpataki/balneo/internal/models"
	"github.com/mpataki/balneo/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorageSatisfiesRunnerContracts(t *testing.T) {
	var _ runner.Repository = (*Storage)(nil)
	var _ runner.History = (*Storage)(nil)
}

func TestExerciseCRUD(t *testing.T) {
	s := newTestStore(t)

	empty, err := s.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty)

	ex := &models.Exercise{Name: "Marche avant", DurationSeconds: 120, Instructions: "Marchez"}
	require.NoError(t, s.CreateExercise(ex))
	require.NotEmpty(t, ex.ID)

	got, err := s.GetExercise(ex.ID)
	require.NoError(t, err)
	assert.Equal(t, ex, got)

	name := "Marche latérale"
	updated, err := s.UpdateExercise(ex.ID, models.ExerciseUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, 120, updated.DurationSeconds)

	require.NoError(t, s.DeleteExercise(ex.ID))
	_, err = s.GetExercise(ex.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, s.DeleteExercise(ex.ID), models.ErrNotFound)
}

func TestCreateExerciseRejectsNonPositiveDuration(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.CreateExercise(&models.Exercise{Name: "x", DurationSeconds: 0}))
}

func TestSessionKeepsInsertionOrderAndDanglingReferences(t *testing.T) {
	s := newTestStore(t)
	a := &models.Exercise{Name: "a", DurationSeconds: 5}
	b := &models.Exercise{Name: "b", DurationSeconds: 3}
	require.NoError(t, s.CreateExercise(a))
	require.NoError(t, s.CreateExercise(b))

	session := &models.Session{Name: "genou", Exercises: []models.SessionExercise{
		{ExerciseID: b.ID, Order: 1},
		{ExerciseID: a.ID, Order: 0},
	}}
	require.NoError(t, s.CreateSession(session))
	assert.False(t, session.CreatedAt.IsZero())

	got, err := s.GetSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.Exercises, got.Exercises)
	assert.True(t, session.CreatedAt.Equal(got.CreatedAt))

	resolved := runner.ResolveExercises(s, session.ID)
	require.Len(t, resolved, 2)
	assert.Equal(t, "a", resolved[0].Name)

	require.NoError(t, s.DeleteExercise(a.ID))
	got, err = s.GetSession(session.ID)
	require.NoError(t, err)
	assert.Len(t, got.Exercises, 2, "references survive exercise deletion")
	assert.Len(t, runner.ResolveExercises(s, session.ID), 1)
}

func TestUpdateAndDeleteSession(t *testing.T) {
	s := newTestStore(t)
	ex := &models.Exercise{Name: "a", DurationSeconds: 5}
	require.NoError(t, s.CreateExercise(ex))
	session := &models.Session{Name: "old"}
	require.NoError(t, s.CreateSession(session))

	name := "new"
	updated, err := s.UpdateSession(session.ID, models.SessionUpdate{
		Name:      &name,
		Exercises: []models.SessionExercise{{ExerciseID: ex.ID, Order: 0}},
	})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Name)
	assert.Len(t, updated.Exercises, 1)

	_, err = s.UpdateSession("missing", models.SessionUpdate{Name: &name})
	assert.ErrorIs(t, err, models.ErrNotFound)

	sessions, err := s.ListSessions()
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	require.NoError(t, s.DeleteSession(session.ID))
	_, err = s.GetSession(session.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPatientHistory(t *testing.T) {
	s := newTestStore(t)
	clock := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	p := &models.Patient{FirstName: "Marie", LastName: "Dupont"}
	require.NoError(t, s.CreatePatient(p))

	first, err := s.AddPatientSession(p.ID, "session-1", "")
	require.NoError(t, err)
	second, err := s.AddPatientSession(p.ID, "session-2", "fatigue")
	require.NoError(t, err)

	history, err := s.GetPatientSessions(p.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID, "newest first")
	assert.Equal(t, first.ID, history[1].ID)
	assert.Equal(t, "fatigue", history[0].Notes)
	assert.True(t, history[0].CompletedAt.Equal(second.CompletedAt))

	require.NoError(t, s.DeletePatientSession(first.ID))
	history, err = s.GetPatientSessions(p.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	require.NoError(t, s.DeletePatient(p.ID))
	all, err := s.ListPatientSessions()
	require.NoError(t, err)
	assert.Empty(t, all, "deleting a patient deletes their history")
}

func TestUpdatePatient(t *testing.T) {
	s := newTestStore(t)
	p := &models.Patient{FirstName: "Jean", LastName: "Martin"}
	require.NoError(t, s.CreatePatient(p))

	notes := "Arthrose hanche gauche"
	updated, err := s.UpdatePatient(p.ID, models.PatientUpdate{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes)
	assert.Equal(t, "Jean", updated.FirstName)

	patients, err := s.ListPatients()
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, notes, patients[0].Notes)

	_, err = s.GetPatient("missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
