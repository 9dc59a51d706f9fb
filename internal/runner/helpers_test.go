package runner

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mpataki/balneo/internal/models"
)

// manualClock fires callbacks only when advanced. When leaky is set, Stop
// reports success but the callback still fires, as when a real timer has
// already been dispatched.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*manualTimer
	leaky  bool
}

type manualTimer struct {
	clock   *manualClock
	at      time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &manualTimer{clock: c, at: c.now.Add(d), seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	if !t.clock.leaky {
		t.stopped = true
	}
	return active
}

// Advance moves time forward, firing every due callback in deadline order.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var due []*manualTimer
		for _, t := range c.timers {
			if !t.stopped && !t.fired && !t.at.After(target) {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			c.now = target
			c.mu.Unlock()
			return
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].at.Equal(due[j].at) {
				return due[i].seq < due[j].seq
			}
			return due[i].at.Before(due[j].at)
		})
		next := due[0]
		next.fired = true
		c.now = next.at
		c.mu.Unlock()

		next.f()
	}
}

// lateClock delivers every callback a fixed delay after its deadline, like a
// loaded machine would.
type lateClock struct {
	*manualClock
	delay time.Duration
}

func (c lateClock) AfterFunc(d time.Duration, f func()) Timer {
	return c.manualClock.AfterFunc(d+c.delay, f)
}

// ticks advances the clock n whole seconds.
func (c *manualClock) ticks(n int) {
	for i := 0; i < n; i++ {
		c.Advance(time.Second)
	}
}

func (c *manualClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type memoryRepo struct {
	mu        sync.Mutex
	sessions  map[string]*models.Session
	exercises map[string]*models.Exercise
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		sessions:  make(map[string]*models.Session),
		exercises: make(map[string]*models.Exercise),
	}
}

// addSession registers a session whose exercises have the given durations,
// named "<session>-0", "<session>-1", ...
func (m *memoryRepo) addSession(id string, durations ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &models.Session{ID: id, Name: id}
	for i, d := range durations {
		exID := fmt.Sprintf("%s-%d", id, i)
		m.exercises[exID] = &models.Exercise{ID: exID, Name: exID, DurationSeconds: d}
		s.Exercises = append(s.Exercises, models.SessionExercise{ExerciseID: exID, Order: i})
	}
	m.sessions[id] = s
}

func (m *memoryRepo) deleteExercise(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.exercises, id)
}

func (m *memoryRepo) GetSession(id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, models.ErrNotFound)
	}
	cp := *s
	cp.Exercises = append([]models.SessionExercise(nil), s.Exercises...)
	return &cp, nil
}

func (m *memoryRepo) GetExercise(id string) (*models.Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exercises[id]
	if !ok {
		return nil, fmt.Errorf("exercise %q: %w", id, models.ErrNotFound)
	}
	cp := *e
	return &cp, nil
}

type recordingHistory struct {
	mu      sync.Mutex
	records []models.PatientSession
	err     error
}

func (h *recordingHistory) AddPatientSession(patientID, sessionID, notes string) (*models.PatientSession, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return nil, h.err
	}
	ps := models.PatientSession{PatientID: patientID, SessionID: sessionID, Notes: notes}
	h.records = append(h.records, ps)
	return &ps, nil
}

func newTestRunner(repo *memoryRepo) (*Runner, *manualClock, *recordingHistory) {
	clock := newManualClock()
	history := &recordingHistory{}
	return New(repo, history, WithClock(clock)), clock, history
}

func drain(ch <-chan Event) []Event {
	var out []Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Kind)
	}
	return out
}
