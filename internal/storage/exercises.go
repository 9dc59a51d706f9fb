package storage

import (
	"fmt"

	"github.com/mpataki/balneo/internal/models"
)

// CreateExercise stores ex, assigning a new id when ex.ID is empty.
func (s *Storage) CreateExercise(ex *models.Exercise) error {
	if ex.ID == "" {
		ex.ID = newID()
	}
	_, err := s.db.Exec(
		`INSERT INTO exercises (id, name, duration, description, instructions) VALUES (?, ?, ?, ?, ?)`,
		ex.ID, ex.Name, ex.DurationSeconds, ex.Description, ex.Instructions,
	)
	if err != nil {
		return fmt.Errorf("create exercise %q: %w", ex.Name, err)
	}
	return nil
}

// SaveExercise inserts or replaces ex by id.
func (s *Storage) SaveExercise(ex *models.Exercise) error {
	if ex.ID == "" {
		return s.CreateExercise(ex)
	}
	_, err := s.db.Exec(
		`INSERT INTO exercises (id, name, duration, description, instructions) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, duration = excluded.duration,
		 description = excluded.description, instructions = excluded.instructions`,
		ex.ID, ex.Name, ex.DurationSeconds, ex.Description, ex.Instructions,
	)
	if err != nil {
		return fmt.Errorf("save exercise %q: %w", ex.ID, err)
	}
	return nil
}

func (s *Storage) GetExercise(id string) (*models.Exercise, error) {
	row := s.db.QueryRow(
		`SELECT id, name, duration, description, instructions FROM exercises WHERE id = ?`, id,
	)

	var ex models.Exercise
	if err := row.Scan(&ex.ID, &ex.Name, &ex.DurationSeconds, &ex.Description, &ex.Instructions); err != nil {
		return nil, notFound("exercise", id, err)
	}
	return &ex, nil
}

func (s *Storage) UpdateExercise(id string, u models.ExerciseUpdate) (*models.Exercise, error) {
	ex, err := s.GetExercise(id)
	if err != nil {
		return nil, err
	}
	if u.Name != nil {
		ex.Name = *u.Name
	}
	if u.DurationSeconds != nil {
		ex.DurationSeconds = *u.DurationSeconds
	}
	if u.Description != nil {
		ex.Description = *u.Description
	}
	if u.Instructions != nil {
		ex.Instructions = *u.Instructions
	}

	_, err = s.db.Exec(
		`UPDATE exercises SET name = ?, duration = ?, description = ?, instructions = ? WHERE id = ?`,
		ex.Name, ex.DurationSeconds, ex.Description, ex.Instructions, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update exercise %q: %w", id, err)
	}
	return ex, nil
}

// DeleteExercise removes the exercise only. Sessions keep their reference,
// which is skipped when the session is resolved.
func (s *Storage) DeleteExercise(id string) error {
	result, err := s.db.Exec(`DELETE FROM exercises WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete exercise %q: %w", id, err)
	}
	return requireAffected(result, "exercise", id)
}

func (s *Storage) ListExercises() ([]*models.Exercise, error) {
	rows, err := s.db.Query(
		`SELECT id, name, duration, description, instructions FROM exercises ORDER BY rowid`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exercises []*models.Exercise
	for rows.Next() {
		var ex models.Exercise
		if err := rows.Scan(&ex.ID, &ex.Name, &ex.DurationSeconds, &ex.Description, &ex.Instructions); err != nil {
			return nil, err
		}
		exercises = append(exercises, &ex)
	}
	return exercises, rows.Err()
}
