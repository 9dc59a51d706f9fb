package models

import "time"

type SessionExercise struct {
	ExerciseID string `json:"exerciseId"`
	Order      int    `json:"order"`
}

type Session struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Exercises []SessionExercise `json:"exercises"`
	CreatedAt time.Time         `json:"createdAt"`
}

type SessionUpdate struct {
	Name      *string
	Exercises []SessionExercise // nil keeps the current list
}
