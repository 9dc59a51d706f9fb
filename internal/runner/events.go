package runner

import (
	"log"

	"github.com/mpataki/balneo/internal/models"
)

type EventKind int

const (
	EventStarted EventKind = iota
	EventChanged
	EventAdvance
	EventComplete
	EventWarning
	EventEnded
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventChanged:
		return "changed"
	case EventAdvance:
		return "advance"
	case EventComplete:
		return "complete"
	case EventWarning:
		return "warning"
	case EventEnded:
		return "ended"
	}
	return "unknown"
}

// Event is published after every state change. Slot is -1 for changes that
// span the whole run. Slots is a private copy of the state after the change.
type Event struct {
	Kind  EventKind
	Slot  int
	Slots []models.PatientSlot
}

// IsCue reports whether the event should trigger an audible cue.
func (e Event) IsCue() bool {
	switch e.Kind {
	case EventAdvance, EventComplete, EventWarning:
		return true
	}
	return false
}

const subscriberBuffer = 64

// Subscribe returns a channel of events and a function that unsubscribes
// and closes it. Slow subscribers lose events rather than block the clock.
func (r *Runner) Subscribe() (<-chan Event, func()) {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	id := r.nextSub
	r.nextSub++
	ch := make(chan Event, subscriberBuffer)
	r.subs[id] = ch

	return ch, func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		if c, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(c)
		}
	}
}

// emit must be called with r.mu held so events leave in state order.
func (r *Runner) emit(kind EventKind, slot int) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	if len(r.subs) == 0 {
		return
	}

	for id, ch := range r.subs {
		ev := Event{Kind: kind, Slot: slot, Slots: r.snapshotLocked()}
		select {
		case ch <- ev:
		default:
			log.Printf("runner: subscriber %d is full, dropped %s event", id, kind)
		}
	}
}
