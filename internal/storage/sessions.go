package storage

import (
	"database/sql"
	"fmt"

	"github.com/mpataki/balneo/internal/models"
)

// CreateSession stores the session and its exercise list. CreatedAt is
// stamped when zero.
func (s *Storage) CreateSession(session *models.Session) error {
	if session.ID == "" {
		session.ID = newID()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = s.now().UTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sessions (id, name, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		session.ID, session.Name, formatTime(session.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create session %q: %w", session.Name, err)
	}
	if err := replaceSessionExercises(tx, session.ID, session.Exercises); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Storage) GetSession(id string) (*models.Session, error) {
	row := s.db.QueryRow(`SELECT id, name, created_at FROM sessions WHERE id = ?`, id)

	var session models.Session
	var createdAt string
	if err := row.Scan(&session.ID, &session.Name, &createdAt); err != nil {
		return nil, notFound("session", id, err)
	}
	session.CreatedAt = parseTime(createdAt)

	exercises, err := s.sessionExercises(id)
	if err != nil {
		return nil, err
	}
	session.Exercises = exercises
	return &session, nil
}

// sessionExercises returns the stored list in insertion order; callers sort
// by Order themselves.
func (s *Storage) sessionExercises(sessionID string) ([]models.SessionExercise, error) {
	rows, err := s.db.Query(
		`SELECT exercise_id, position FROM session_exercises WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exercises := []models.SessionExercise{}
	for rows.Next() {
		var se models.SessionExercise
		if err := rows.Scan(&se.ExerciseID, &se.Order); err != nil {
			return nil, err
		}
		exercises = append(exercises, se)
	}
	return exercises, rows.Err()
}

func (s *Storage) UpdateSession(id string, u models.SessionUpdate) (*models.Session, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if u.Name != nil {
		result, err := tx.Exec(`UPDATE sessions SET name = ? WHERE id = ?`, *u.Name, id)
		if err != nil {
			return nil, fmt.Errorf("update session %q: %w", id, err)
		}
		if err := requireAffected(result, "session", id); err != nil {
			return nil, err
		}
	}
	if u.Exercises != nil {
		if err := replaceSessionExercises(tx, id, u.Exercises); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.GetSession(id)
}

func (s *Storage) DeleteSession(id string) error {
	result, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session %q: %w", id, err)
	}
	return requireAffected(result, "session", id)
}

func (s *Storage) ListSessions() ([]*models.Session, error) {
	rows, err := s.db.Query(`SELECT id FROM sessions ORDER BY rowid`)
	if err != nil {
		return nil, err
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sessions := make([]*models.Session, 0, len(ids))
	for _, id := range ids {
		session, err := s.GetSession(id)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func replaceSessionExercises(tx *sql.Tx, sessionID string, exercises []models.SessionExercise) error {
	if _, err := tx.Exec(`DELETE FROM session_exercises WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear exercises of session %q: %w", sessionID, err)
	}
	for _, se := range exercises {
		_, err := tx.Exec(
			`INSERT INTO session_exercises (session_id, exercise_id, position) VALUES (?, ?, ?)`,
			sessionID, se.ExerciseID, se.Order,
		)
		if err != nil {
			return fmt.Errorf("add exercise %q to session %q: %w", se.ExerciseID, sessionID, err)
		}
	}
	return nil
}
