// Package orchestrator prepares and launches multi-patient runs on top of
// the repository and the session runner.
package orchestrator

import (
	"errors"
	"fmt"

	"github.com/mpataki/balneo/internal/models"
	"github.com/mpataki/balneo/internal/runner"
	"github.com/mpataki/balneo/internal/storage"
)

var (
	ErrSlotCount      = errors.New("unsupported number of patients")
	ErrIncompleteSlot = errors.New("every slot needs a patient and a session")
	ErrEmptySession   = errors.New("session has no exercises")
)

// SlotConfig pairs one patient with the session they will follow.
type SlotConfig struct {
	PatientID string
	SessionID string
}

// SlotDuration is the total program length of a configured slot.
type SlotDuration struct {
	Patient *models.Patient
	Session *models.Session
	Seconds int
}

type Orchestrator struct {
	storage  *storage.Storage
	runner   *runner.Runner
	minSlots int
	maxSlots int
}

func New(store *storage.Storage, run *runner.Runner, minSlots, maxSlots int) *Orchestrator {
	return &Orchestrator{
		storage:  store,
		runner:   run,
		minSlots: minSlots,
		maxSlots: maxSlots,
	}
}

func (o *Orchestrator) Runner() *runner.Runner { return o.runner }

func (o *Orchestrator) SlotRange() (int, int) { return o.minSlots, o.maxSlots }

// Validate checks a launch configuration without starting anything.
func (o *Orchestrator) Validate(configs []SlotConfig) error {
	if len(configs) < o.minSlots || len(configs) > o.maxSlots {
		return fmt.Errorf("%w: %d (want %d to %d)", ErrSlotCount, len(configs), o.minSlots, o.maxSlots)
	}

	for i, c := range configs {
		if c.PatientID == "" || c.SessionID == "" {
			return fmt.Errorf("slot %d: %w", i+1, ErrIncompleteSlot)
		}
		if _, err := o.storage.GetPatient(c.PatientID); err != nil {
			return fmt.Errorf("slot %d: %w", i+1, err)
		}
		session, err := o.storage.GetSession(c.SessionID)
		if err != nil {
			return fmt.Errorf("slot %d: %w", i+1, err)
		}
		if len(runner.ResolveExercises(o.storage, c.SessionID)) == 0 {
			return fmt.Errorf("slot %d: session %q: %w", i+1, session.Name, ErrEmptySession)
		}
	}
	return nil
}

// Launch validates configs and replaces the active run with one slot per
// config. The runner records each slot in the patient's history.
func (o *Orchestrator) Launch(configs []SlotConfig) error {
	if err := o.Validate(configs); err != nil {
		return err
	}

	slots := make([]models.PatientSlot, len(configs))
	for i, c := range configs {
		slots[i] = runner.InitialSlot(o.storage, c.PatientID, c.SessionID)
	}
	o.runner.Start(slots)
	return nil
}

// SessionDuration is the sum of the session's resolved exercise durations.
func (o *Orchestrator) SessionDuration(sessionID string) int {
	total := 0
	for _, ex := range runner.ResolveExercises(o.storage, sessionID) {
		total += ex.DurationSeconds
	}
	return total
}

// DurationMismatch reports every slot's total length and whether they
// differ, in which case the operator is asked to confirm before launching.
func (o *Orchestrator) DurationMismatch(configs []SlotConfig) ([]SlotDuration, bool) {
	out := make([]SlotDuration, 0, len(configs))
	distinct := make(map[int]bool)
	for _, c := range configs {
		d := SlotDuration{Seconds: o.SessionDuration(c.SessionID)}
		d.Patient, _ = o.storage.GetPatient(c.PatientID)
		d.Session, _ = o.storage.GetSession(c.SessionID)
		distinct[d.Seconds] = true
		out = append(out, d)
	}
	return out, len(distinct) > 1
}

// Read methods for TUI

func (o *Orchestrator) ListPatients() ([]*models.Patient, error) {
	return o.storage.ListPatients()
}

func (o *Orchestrator) ListSessions() ([]*models.Session, error) {
	return o.storage.ListSessions()
}

func (o *Orchestrator) GetPatient(id string) (*models.Patient, error) {
	return o.storage.GetPatient(id)
}

func (o *Orchestrator) GetSession(id string) (*models.Session, error) {
	return o.storage.GetSession(id)
}

func (o *Orchestrator) GetPatientSessions(patientID string) ([]*models.PatientSession, error) {
	return o.storage.GetPatientSessions(patientID)
}

func (o *Orchestrator) Exercises(sessionID string) []models.Exercise {
	return o.runner.Exercises(sessionID)
}
