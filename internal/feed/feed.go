// Package feed implements the in-process change feed backing the
// dashboard's push-based read surface.  Mutating operations publish an
// event per change; any number of consumers subscribe and render from
// the latest state.  The core stays agnostic to how many consumers are
// attached or what transport carries the events onward.
package feed

import "sync"

// Collections the feed reports changes for.
const (
	CollectionShifts   = "shifts"
	CollectionBookings = "bookings"
	CollectionAdmins   = "admins"
)

// Actions a change event can carry.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Event is one change notification.  Payload holds the full record
// after the change (nil for deletions) so consumers never need a
// follow-up read.
type Event struct {
	Collection string `json:"collection"`
	Action     string `json:"action"`
	ID         uint64 `json:"id"`
	Payload    any    `json:"payload,omitempty"`
}

// Feed fans change events out to subscribers.  Each subscriber gets a
// buffered channel; a subscriber that cannot keep up has events dropped
// rather than blocking publishers, because publishers sit on the
// request path.
type Feed struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]chan Event
}

// New returns an empty Feed.
func New() *Feed {
	return &Feed{subs: make(map[uint64]chan Event)}
}

// Subscribe registers a consumer and returns its id together with the
// event channel.  The channel is closed by Unsubscribe.
func (f *Feed) Subscribe(buffer int) (uint64, <-chan Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	ch := make(chan Event, buffer)
	f.subs[f.nextID] = ch
	return f.nextID, ch
}

// Unsubscribe removes a consumer and closes its channel.  Unknown ids
// are ignored, so calling it twice on teardown is safe.
func (f *Feed) Unsubscribe(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.subs[id]; ok {
		delete(f.subs, id)
		close(ch)
	}
}

// Publish delivers an event to every subscriber without blocking.  A
// nil Feed is valid and drops everything, which keeps the service
// layer testable without wiring a feed.
func (f *Feed) Publish(ev Event) {
	if f == nil {
		return
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, ch := range f.subs {
		select {
		case ch <- ev:
		default: // slow consumer, drop
		}
	}
}
