package orchestrator

import (
	"path/filepath"
	"testing"

	"github.com/mpataki/balneo/internal/catalog"
	"github.com/mpataki/balneo/internal/models"
	"github.com/mpataki/balneo/internal/runner"
	"github.com/mpataki/balneo/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, *storage.Storage) {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, catalog.Import(store, catalog.Default()))

	run := runner.New(store, store)
	t.Cleanup(run.EndSession)
	return New(store, run, 2, 4), store
}

func TestLaunchStartsSlotsAndRecordsHistory(t *testing.T) {
	o, store := newTestOrchestrator(t)

	err := o.Launch([]SlotConfig{
		{PatientID: "patient-1", SessionID: "session-1"},
		{PatientID: "patient-2", SessionID: "session-3"},
	})
	require.NoError(t, err)

	slots := o.Runner().Slots()
	require.Len(t, slots, 2)
	assert.Equal(t, models.PatientSlot{PatientID: "patient-1", SessionID: "session-1", TimeRemainingSeconds: 120}, slots[0])
	assert.Equal(t, "session-3", slots[1].SessionID)

	history, err := store.GetPatientSessions("patient-2")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "session-3", history[0].SessionID)
}

func TestLaunchValidation(t *testing.T) {
	o, store := newTestOrchestrator(t)
	empty := &models.Session{ID: "empty", Name: "Vide"}
	require.NoError(t, store.CreateSession(empty))

	tests := []struct {
		name    string
		configs []SlotConfig
		want    error
	}{
		{"too few", []SlotConfig{{PatientID: "patient-1", SessionID: "session-1"}}, ErrSlotCount},
		{"too many", make([]SlotConfig, 5), ErrSlotCount},
		{"missing session", []SlotConfig{
			{PatientID: "patient-1", SessionID: "session-1"},
			{PatientID: "patient-2"},
		}, ErrIncompleteSlot},
		{"unknown patient", []SlotConfig{
			{PatientID: "patient-1", SessionID: "session-1"},
			{PatientID: "nobody", SessionID: "session-1"},
		}, models.ErrNotFound},
		{"empty session", []SlotConfig{
			{PatientID: "patient-1", SessionID: "session-1"},
			{PatientID: "patient-2", SessionID: "empty"},
		}, ErrEmptySession},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := o.Launch(tt.configs)
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, o.Runner().Active())
		})
	}

	all, err := store.ListPatientSessions()
	require.NoError(t, err)
	assert.Empty(t, all, "rejected launches are not recorded")
}

func TestDurationMismatch(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	assert.Equal(t, 375, o.SessionDuration("session-1"))

	same, mismatch := o.DurationMismatch([]SlotConfig{
		{PatientID: "patient-1", SessionID: "session-1"},
		{PatientID: "patient-2", SessionID: "session-1"},
	})
	assert.False(t, mismatch)
	assert.Len(t, same, 2)

	durations, mismatch := o.DurationMismatch([]SlotConfig{
		{PatientID: "patient-1", SessionID: "session-1"},
		{PatientID: "patient-3", SessionID: "session-3"},
	})
	assert.True(t, mismatch)
	assert.Equal(t, "Sophie", durations[1].Patient.FirstName)
	assert.Equal(t, 735, durations[1].Seconds)
}
