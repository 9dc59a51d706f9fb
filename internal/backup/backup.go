// Package backup writes and reads a JSON snapshot of every clinical record.
// The document uses the same keys as the browser application's saved state,
// so exports from either side can be exchanged.
package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mpataki/balneo/internal/models"
)

type State struct {
	Exercises       []*models.Exercise       `json:"exercises"`
	Sessions        []*models.Session        `json:"sessions"`
	Patients        []*models.Patient        `json:"patients"`
	PatientSessions []*models.PatientSession `json:"patientSessions"`
}

type Source interface {
	ListExercises() ([]*models.Exercise, error)
	ListSessions() ([]*models.Session, error)
	ListPatients() ([]*models.Patient, error)
	ListPatientSessions() ([]*models.PatientSession, error)
}

type Target interface {
	SaveExercise(ex *models.Exercise) error
	CreateSession(session *models.Session) error
	CreatePatient(p *models.Patient) error
	SavePatientSession(ps *models.PatientSession) error
}

func Snapshot(src Source) (*State, error) {
	var st State
	var err error

	if st.Exercises, err = src.ListExercises(); err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	if st.Sessions, err = src.ListSessions(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if st.Patients, err = src.ListPatients(); err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	if st.PatientSessions, err = src.ListPatientSessions(); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return &st, nil
}

// Export writes the snapshot to path through a temporary file, so a crash
// never leaves a truncated backup behind.
func Export(src Source, path string) error {
	st, err := Snapshot(src)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".balneo-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func Read(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse backup: %w", err)
	}
	return &st, nil
}

// Import writes every record of the backup at path into dst. Exercises and
// patients come first so sessions and history entries find their references.
func Import(dst Target, path string) (*State, error) {
	st, err := Read(path)
	if err != nil {
		return nil, err
	}

	for _, ex := range st.Exercises {
		if err := dst.SaveExercise(ex); err != nil {
			return nil, err
		}
	}
	for _, p := range st.Patients {
		if err := dst.CreatePatient(p); err != nil {
			return nil, err
		}
	}
	for _, s := range st.Sessions {
		if err := dst.CreateSession(s); err != nil {
			return nil, err
		}
	}
	for _, ps := range st.PatientSessions {
		if err := dst.SavePatientSession(ps); err != nil {
			return nil, err
		}
	}
	return st, nil
}
