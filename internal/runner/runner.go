// Package runner owns the live multi-patient run: one slot per patient, each
// with its own one-second countdown that walks the patient through the
// session's exercises.
//
// All state lives behind a single mutex. Clock callbacks and control calls
// take the same lock, so no caller ever observes a half-applied update and a
// tick can never be in flight together with a control for the same slot.
//
// Every running slot owns exactly one cadence. Whenever a slot's running or
// complete flag flips, its cadence is stopped and, if the slot is running
// again, a new one is armed. Cadences carry a generation number; a callback
// whose generation no longer matches its slot is dropped, which covers timers
// that fired while being stopped and timers left over from a previous run.
package runner

import (
	"log"
	"sync"
	"time"

	"github.com/mpataki/balneo/internal/models"
)

// DefaultWarningThreshold is the remaining time, in seconds, at which a
// running slot emits its low-time warning.
const DefaultWarningThreshold = 4

const tickInterval = time.Second

type Runner struct {
	repo    Repository
	history History
	clock   Clock
	warnAt  int

	mu       sync.Mutex
	slots    []models.PatientSlot
	cadences []*cadence
	gen      uint64

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

type Option func(*Runner)

func WithClock(c Clock) Option {
	return func(r *Runner) { r.clock = c }
}

func WithWarningThreshold(seconds int) Option {
	return func(r *Runner) { r.warnAt = seconds }
}

// New creates an idle runner. history may be nil, in which case runs are
// not recorded.
func New(repo Repository, history History, opts ...Option) *Runner {
	r := &Runner{
		repo:    repo,
		history: history,
		clock:   realClock{},
		warnAt:  DefaultWarningThreshold,
		subs:    make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start replaces the active run with slots. Every outstanding cadence of the
// previous run is stopped first. Each slot is recorded once in its patient's
// history. An empty slots list leaves the runner untouched.
func (r *Runner) Start(slots []models.PatientSlot) {
	if len(slots) == 0 {
		return
	}

	r.mu.Lock()
	r.stopAllLocked()
	r.slots = make([]models.PatientSlot, len(slots))
	r.cadences = make([]*cadence, len(slots))
	for i, s := range slots {
		s = r.normalize(models.PatientSlot{}, s)
		r.slots[i] = s
		if s.IsRunning {
			r.arm(i)
		}
	}
	r.emit(EventStarted, -1)
	r.mu.Unlock()

	if r.history == nil {
		return
	}
	for _, s := range slots {
		if _, err := r.history.AddPatientSession(s.PatientID, s.SessionID, ""); err != nil {
			log.Printf("runner: record session %q for patient %q: %v", s.SessionID, s.PatientID, err)
		}
	}
}

// UpdateSlot merges u into the slot at index. Out-of-range indexes are
// ignored. An index or time outside the current sequence is clamped to it.
func (r *Runner) UpdateSlot(index int, u models.SlotUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.slots) {
		return
	}
	if r.set(index, r.bound(r.slots[index], u)) {
		r.emit(EventChanged, index)
	}
}

// bound keeps a controller's index within the resolved sequence and its time
// within that exercise's duration. Ticks and advances do not go through it,
// so a countdown captured before a deletion keeps its length.
func (r *Runner) bound(s models.PatientSlot, u models.SlotUpdate) models.SlotUpdate {
	if u.CurrentExerciseIndex == nil && u.TimeRemainingSeconds == nil {
		return u
	}

	next := u.Apply(s)
	index, remaining := next.CurrentExerciseIndex, next.TimeRemainingSeconds
	exercises := ResolveExercises(r.repo, s.SessionID)
	if len(exercises) == 0 {
		index, remaining = 0, 0
	} else {
		index = min(max(index, 0), len(exercises)-1)
		remaining = min(max(remaining, 0), exercises[index].DurationSeconds)
	}
	u.CurrentExerciseIndex = &index
	u.TimeRemainingSeconds = &remaining
	return u
}

// EndSession stops every cadence and discards the run. Calling it on an idle
// runner does nothing.
func (r *Runner) EndSession() {
	r.mu.Lock()
	defer r.mu.Unlock()

	active := len(r.slots) > 0
	r.stopAllLocked()
	r.slots = nil
	r.cadences = nil
	if active {
		r.emit(EventEnded, -1)
	}
}

// Slots returns a copy of the active run.
func (r *Runner) Slots() []models.PatientSlot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Runner) Slot(index int) (models.PatientSlot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.slots) {
		return models.PatientSlot{}, false
	}
	return r.slots[index], true
}

func (r *Runner) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots) > 0
}

// AllRunning reports whether every slot that can run, and is not complete,
// is running.
func (r *Runner) AllRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allRunningLocked()
}

func (r *Runner) AllComplete() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.slots) == 0 {
		return false
	}
	for _, s := range r.slots {
		if !s.IsComplete {
			return false
		}
	}
	return true
}

// Exercises resolves a session against the current repository contents.
func (r *Runner) Exercises(sessionID string) []models.Exercise {
	return ResolveExercises(r.repo, sessionID)
}

// allRunningLocked skips complete slots and slots with nothing to run, which
// can never be started.
func (r *Runner) allRunningLocked() bool {
	considered := 0
	for _, s := range r.slots {
		switch {
		case s.IsComplete:
			continue
		case s.IsRunning:
			considered++
		case len(ResolveExercises(r.repo, s.SessionID)) == 0:
			continue
		default:
			return false
		}
	}
	return considered > 0
}

func (r *Runner) snapshotLocked() []models.PatientSlot {
	if r.slots == nil {
		return nil
	}
	out := make([]models.PatientSlot, len(r.slots))
	copy(out, r.slots)
	return out
}

// set applies u to slot index and keeps exactly one cadence per running
// slot. It reports whether the slot changed.
func (r *Runner) set(index int, u models.SlotUpdate) bool {
	if index < 0 || index >= len(r.slots) {
		return false
	}

	prev := r.slots[index]
	next := r.normalize(prev, u.Apply(prev))
	r.slots[index] = next

	if prev.IsRunning != next.IsRunning || prev.IsComplete != next.IsComplete {
		r.cadences[index].stop()
		r.cadences[index] = nil
		if next.IsRunning {
			r.arm(index)
		}
	}
	return prev != next
}

// normalize enforces the slot invariants: nothing negative, a complete slot
// is never running, and a slot without exercises never starts.
func (r *Runner) normalize(prev, next models.PatientSlot) models.PatientSlot {
	if next.CurrentExerciseIndex < 0 {
		next.CurrentExerciseIndex = 0
	}
	if next.TimeRemainingSeconds < 0 {
		next.TimeRemainingSeconds = 0
	}
	if next.IsComplete {
		next.IsRunning = false
	}
	if next.IsRunning && !prev.IsRunning && len(ResolveExercises(r.repo, next.SessionID)) == 0 {
		next.IsRunning = false
	}
	return next
}

func (r *Runner) arm(index int) {
	r.gen++
	c := &cadence{gen: r.gen, start: r.clock.Now()}
	r.cadences[index] = c
	r.schedule(index, c)
}

func (r *Runner) schedule(index int, c *cadence) {
	c.ticks++
	due := c.start.Add(time.Duration(c.ticks) * tickInterval)
	delay := due.Sub(r.clock.Now())
	if delay < 0 {
		delay = 0
	}
	gen := c.gen
	c.timer = r.clock.AfterFunc(delay, func() { r.fire(index, gen) })
}

func (r *Runner) fire(index int, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index >= len(r.cadences) {
		return
	}
	c := r.cadences[index]
	if c == nil || c.gen != gen {
		return
	}

	r.tick(index)

	if r.cadences[index] == c {
		r.schedule(index, c)
	}
}

func (r *Runner) stopAllLocked() {
	for i, c := range r.cadences {
		c.stop()
		r.cadences[i] = nil
	}
}
