package storage

import (
	"fmt"

	"github.com/mpataki/balneo/internal/models"
)

func (s *Storage) CreatePatient(p *models.Patient) error {
	if p.ID == "" {
		p.ID = newID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO patients (id, first_name, last_name, notes, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET first_name = excluded.first_name,
		 last_name = excluded.last_name, notes = excluded.notes`,
		p.ID, p.FirstName, p.LastName, p.Notes, formatTime(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create patient %q: %w", p.FullName(), err)
	}
	return nil
}

func (s *Storage) GetPatient(id string) (*models.Patient, error) {
	row := s.db.QueryRow(
		`SELECT id, first_name, last_name, notes, created_at FROM patients WHERE id = ?`, id,
	)

	var p models.Patient
	var createdAt string
	if err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Notes, &createdAt); err != nil {
		return nil, notFound("patient", id, err)
	}
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

func (s *Storage) UpdatePatient(id string, u models.PatientUpdate) (*models.Patient, error) {
	p, err := s.GetPatient(id)
	if err != nil {
		return nil, err
	}
	if u.FirstName != nil {
		p.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		p.LastName = *u.LastName
	}
	if u.Notes != nil {
		p.Notes = *u.Notes
	}

	_, err = s.db.Exec(
		`UPDATE patients SET first_name = ?, last_name = ?, notes = ? WHERE id = ?`,
		p.FirstName, p.LastName, p.Notes, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update patient %q: %w", id, err)
	}
	return p, nil
}

// DeletePatient removes the patient together with their history.
func (s *Storage) DeletePatient(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM patient_sessions WHERE patient_id = ?`, id); err != nil {
		return fmt.Errorf("delete history of patient %q: %w", id, err)
	}
	result, err := tx.Exec(`DELETE FROM patients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete patient %q: %w", id, err)
	}
	if err := requireAffected(result, "patient", id); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Storage) ListPatients() ([]*models.Patient, error) {
	rows, err := s.db.Query(
		`SELECT id, first_name, last_name, notes, created_at FROM patients ORDER BY rowid`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patients []*models.Patient
	for rows.Next() {
		var p models.Patient
		var createdAt string
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Notes, &createdAt); err != nil {
			return nil, err
		}
		p.CreatedAt = parseTime(createdAt)
		patients = append(patients, &p)
	}
	return patients, rows.Err()
}

// AddPatientSession appends an entry to the patient's history, stamped now.
func (s *Storage) AddPatientSession(patientID, sessionID, notes string) (*models.PatientSession, error) {
	ps := &models.PatientSession{
		ID:          newID(),
		PatientID:   patientID,
		SessionID:   sessionID,
		CompletedAt: s.now().UTC(),
		Notes:       notes,
	}
	if err := s.SavePatientSession(ps); err != nil {
		return nil, err
	}
	return ps, nil
}

// SavePatientSession writes a history entry as given, replacing any entry
// with the same id.
func (s *Storage) SavePatientSession(ps *models.PatientSession) error {
	if ps.ID == "" {
		ps.ID = newID()
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO patient_sessions (id, patient_id, session_id, completed_at, notes) VALUES (?, ?, ?, ?, ?)`,
		ps.ID, ps.PatientID, ps.SessionID, formatTime(ps.CompletedAt), ps.Notes,
	)
	if err != nil {
		return fmt.Errorf("record session %q for patient %q: %w", ps.SessionID, ps.PatientID, err)
	}
	return nil
}

func (s *Storage) DeletePatientSession(id string) error {
	result, err := s.db.Exec(`DELETE FROM patient_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete history entry %q: %w", id, err)
	}
	return requireAffected(result, "history entry", id)
}

// GetPatientSessions returns the patient's history, newest first.
func (s *Storage) GetPatientSessions(patientID string) ([]*models.PatientSession, error) {
	return s.queryPatientSessions(
		`SELECT id, patient_id, session_id, completed_at, notes FROM patient_sessions
		 WHERE patient_id = ? ORDER BY completed_at DESC, rowid DESC`, patientID,
	)
}

func (s *Storage) ListPatientSessions() ([]*models.PatientSession, error) {
	return s.queryPatientSessions(
		`SELECT id, patient_id, session_id, completed_at, notes FROM patient_sessions ORDER BY rowid`,
	)
}

func (s *Storage) queryPatientSessions(query string, args ...any) ([]*models.PatientSession, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []*models.PatientSession
	for rows.Next() {
		var ps models.PatientSession
		var completedAt string
		if err := rows.Scan(&ps.ID, &ps.PatientID, &ps.SessionID, &completedAt, &ps.Notes); err != nil {
			return nil, err
		}
		ps.CompletedAt = parseTime(completedAt)
		history = append(history, &ps)
	}
	return history, rows.Err()
}
