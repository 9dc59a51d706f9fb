package runner

import (
	"errors"
	"log"
	"sort"

	"github.com/mpataki/balneo/internal/models"
)

// Repository is the read side of the clinical data the runner depends on.
// Lookups for absent ids return an error wrapping models.ErrNotFound.
type Repository interface {
	GetSession(id string) (*models.Session, error)
	GetExercise(id string) (*models.Exercise, error)
}

// History records a patient's session attempt.
type History interface {
	AddPatientSession(patientID, sessionID, notes string) (*models.PatientSession, error)
}

// ResolveExercises returns the session's exercises ordered by their rank.
// Entries sharing a rank keep their stored (insertion) order. References to
// deleted exercises are dropped, and an unknown session resolves to nothing.
// Nothing is cached: every call reads the repository again.
func ResolveExercises(repo Repository, sessionID string) []models.Exercise {
	session, err := repo.GetSession(sessionID)
	if err != nil {
		logLookup("session", sessionID, err)
		return nil
	}

	ordered := make([]models.SessionExercise, len(session.Exercises))
	copy(ordered, session.Exercises)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})

	exercises := make([]models.Exercise, 0, len(ordered))
	for _, se := range ordered {
		ex, err := repo.GetExercise(se.ExerciseID)
		if err != nil {
			logLookup("exercise", se.ExerciseID, err)
			continue
		}
		exercises = append(exercises, *ex)
	}
	return exercises
}

// InitialSlot builds the slot a run starts from: first exercise, full
// duration, paused. A session with no resolvable exercise yields a slot with
// zero time remaining which the runner never lets run.
func InitialSlot(repo Repository, patientID, sessionID string) models.PatientSlot {
	slot := models.PatientSlot{
		PatientID: patientID,
		SessionID: sessionID,
	}
	if exercises := ResolveExercises(repo, sessionID); len(exercises) > 0 {
		slot.TimeRemainingSeconds = exercises[0].DurationSeconds
	}
	return slot
}

func logLookup(kind, id string, err error) {
	if errors.Is(err, models.ErrNotFound) {
		return
	}
	log.Printf("runner: lookup %s %q: %v", kind, id, err)
}
