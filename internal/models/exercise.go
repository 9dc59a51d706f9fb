package models

import "time"

type Exercise struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DurationSeconds int    `json:"duration"` // seconds
	Description     string `json:"description"`
	Instructions    string `json:"instructions"`
}

// ExerciseUpdate is a partial update; nil fields are left untouched.
type ExerciseUpdate struct {
	Name            *string
	DurationSeconds *int
	Description     *string
	Instructions    *string
}

type Patient struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
}

// ShortName renders "Marie D." for display cards.
func (p *Patient) ShortName() string {
	if p == nil {
		return ""
	}
	if p.LastName == "" {
		return p.FirstName
	}
	initial := []rune(p.LastName)[0]
	return p.FirstName + " " + string(initial) + "."
}

func (p *Patient) FullName() string {
	if p == nil {
		return ""
	}
	return p.FirstName + " " + p.LastName
}

type PatientUpdate struct {
	FirstName *string
	LastName  *string
	Notes     *string
}

// PatientSession is one entry of a patient's history. It is recorded when a
// run starts, so CompletedAt is the start time of an attempted session.
type PatientSession struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patientId"`
	SessionID   string    `json:"sessionId"`
	CompletedAt time.Time `json:"completedAt"`
	Notes       string    `json:"notes"`
}
