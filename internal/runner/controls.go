package runner

import "github.com/mpataki/balneo/internal/models"

// tick is one second elapsing on a running slot.
func (r *Runner) tick(index int) {
	s := r.slots[index]
	if !s.IsRunning || s.IsComplete {
		return
	}

	if s.TimeRemainingSeconds > 1 {
		remaining := s.TimeRemainingSeconds - 1
		r.set(index, models.SlotUpdate{TimeRemainingSeconds: &remaining})
		if remaining == r.warnAt {
			r.emit(EventWarning, index)
			return
		}
		r.emit(EventChanged, index)
		return
	}

	r.advance(index, true)
}

// advance moves the slot to its next exercise, reseeding the countdown. On
// the last exercise it completes the slot, but only when the countdown ran
// out; an explicit skip cannot complete a slot.
//
// The sequence is resolved again here, so exercises deleted mid-run are
// skipped and the next index always falls inside the current sequence.
func (r *Runner) advance(index int, expired bool) bool {
	s := r.slots[index]
	exercises := ResolveExercises(r.repo, s.SessionID)

	next := s.CurrentExerciseIndex + 1
	if next < len(exercises) {
		duration := exercises[next].DurationSeconds
		r.set(index, models.SlotUpdate{
			CurrentExerciseIndex: &next,
			TimeRemainingSeconds: &duration,
		})
		r.emit(EventAdvance, index)
		return true
	}

	if !expired {
		return false
	}
	r.set(index, models.SlotUpdate{
		IsRunning:  models.Bool(false),
		IsComplete: models.Bool(true),
	})
	r.emit(EventComplete, index)
	return true
}

func (r *Runner) Pause(index int) {
	r.UpdateSlot(index, models.SlotUpdate{IsRunning: models.Bool(false)})
}

// Resume continues the countdown where it stopped. Complete slots stay
// complete.
func (r *Runner) Resume(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.slots) || r.slots[index].IsComplete {
		return
	}
	if r.set(index, models.SlotUpdate{IsRunning: models.Bool(true)}) {
		r.emit(EventChanged, index)
	}
}

func (r *Runner) Toggle(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.slots) || r.slots[index].IsComplete {
		return
	}
	running := !r.slots[index].IsRunning
	if r.set(index, models.SlotUpdate{IsRunning: &running}) {
		r.emit(EventChanged, index)
	}
}

// Skip jumps to the next exercise without waiting for the countdown. It
// keeps the slot's running flag and does nothing on the last exercise or on
// a complete slot.
func (r *Runner) Skip(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.slots) || r.slots[index].IsComplete {
		return
	}
	r.advance(index, false)
}

// Reset rewinds the slot to its first exercise, paused. It is also how a
// complete slot restarts.
func (r *Runner) Reset(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reset(index) {
		r.emit(EventChanged, index)
	}
}

func (r *Runner) reset(index int) bool {
	if index < 0 || index >= len(r.slots) {
		return false
	}
	duration := 0
	if exercises := ResolveExercises(r.repo, r.slots[index].SessionID); len(exercises) > 0 {
		duration = exercises[0].DurationSeconds
	}
	return r.set(index, models.SlotUpdate{
		CurrentExerciseIndex: models.Int(0),
		TimeRemainingSeconds: &duration,
		IsRunning:            models.Bool(false),
		IsComplete:           models.Bool(false),
	})
}

// ToggleAll pauses every slot that is not complete when all of them are
// running, and resumes them otherwise. Complete slots are left alone, and
// slots without exercises do not keep the others from pausing.
func (r *Runner) ToggleAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	running := !r.allRunningLocked()
	changed := false
	for i, s := range r.slots {
		if s.IsComplete {
			continue
		}
		if r.set(i, models.SlotUpdate{IsRunning: &running}) {
			changed = true
		}
	}
	if changed {
		r.emit(EventChanged, -1)
	}
}

func (r *Runner) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := false
	for i := range r.slots {
		if r.reset(i) {
			changed = true
		}
	}
	if changed {
		r.emit(EventChanged, -1)
	}
}
