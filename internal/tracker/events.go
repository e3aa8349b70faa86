package tracker

import "time"

type EventKind string

const (
	EventDayCreated   EventKind = "day_created"
	EventDayUpdated   EventKind = "day_updated"
	EventBlockStarted EventKind = "block_started"
	EventBlockEnded   EventKind = "block_ended"
	EventLapped       EventKind = "lapped"
	EventBlockDeleted EventKind = "block_deleted"
	EventBlockUpdated EventKind = "block_updated"
)

// Event is published after a mutation has been committed.
type Event struct {
	Kind    EventKind
	DayID   int64
	BlockID int64
	At      time.Time
}

const subscriberBuffer = 16

// Subscribe returns a channel of committed mutations and a function that
// ends the subscription. A subscriber that falls behind misses events.
func (t *Tracker) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	t.mu.Lock()
	t.subs[ch] = struct{}{}
	t.mu.Unlock()

	var once bool
	cancel := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if once {
			return
		}
		once = true
		delete(t.subs, ch)
		close(ch)
	}
	return ch, cancel
}

// publish must be called with t.mu held.
func (t *Tracker) publish(e Event) {
	for ch := range t.subs {
		select {
		case ch <- e:
		default:
			t.log.Warn("dropping event for slow subscriber", "kind", e.Kind)
		}
	}
}
