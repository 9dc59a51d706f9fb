package models

// PatientSlot is one patient's run through one session. Slots are owned by
// the runner; everyone else works on copies.
type PatientSlot struct {
	PatientID            string `json:"patientId"`
	SessionID            string `json:"sessionId"`
	CurrentExerciseIndex int    `json:"currentExerciseIndex"`
	TimeRemainingSeconds int    `json:"timeRemaining"`
	IsRunning            bool   `json:"isRunning"`
	IsComplete           bool   `json:"isComplete"`
}

// SlotUpdate is a partial merge onto a PatientSlot. Nil fields are kept.
type SlotUpdate struct {
	CurrentExerciseIndex *int
	TimeRemainingSeconds *int
	IsRunning            *bool
	IsComplete           *bool
}

// Apply returns s with every non-nil field of u merged in.
func (u SlotUpdate) Apply(s PatientSlot) PatientSlot {
	if u.CurrentExerciseIndex != nil {
		s.CurrentExerciseIndex = *u.CurrentExerciseIndex
	}
	if u.TimeRemainingSeconds != nil {
		s.TimeRemainingSeconds = *u.TimeRemainingSeconds
	}
	if u.IsRunning != nil {
		s.IsRunning = *u.IsRunning
	}
	if u.IsComplete != nil {
		s.IsComplete = *u.IsComplete
	}
	return s
}

func Int(v int) *int    { return &v }
func Bool(v bool) *bool { return &v }
