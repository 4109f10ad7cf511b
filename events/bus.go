package events

import (
	"github.com/Kubuxu/go-broadcast"
)

// Bus fans committed events out to live subscribers. The zero value is ready
// to use. Published events are shared between subscribers and must not be
// modified.
type Bus struct {
	ch broadcast.Channel[*Event]
}

// Publish delivers e to every subscriber. Callers publish under the same lock
// that orders their commits, so subscribers see events in sequence order.
func (b *Bus) Publish(e *Event) {
	b.ch.Publish(e)
}

// Last returns the most recently published event, or nil.
func (b *Bus) Last() *Event {
	return b.ch.Last()
}

// Subscribe registers ch for future events and returns the last published
// event. A subscriber whose channel is full is dropped and its channel closed.
// Call closer to unsubscribe.
func (b *Bus) Subscribe(ch chan<- *Event) (last *Event, closer func()) {
	return b.ch.Subscribe(ch)
}
