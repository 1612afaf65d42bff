// Package bus is a small in-process notification channel. Screens publish
// and subscribe to named events; delivery is synchronous and in registration
// order, so a publisher returns only after every handler ran.
package bus

import (
	"log/slog"
	"sync"
)

// EventCustomizationUpdated fires after a project's colors/image were
// persisted server-side. Publish order matters: the update call must be
// acknowledged before the event goes out, so a re-fetching subscriber is
// guaranteed to observe the new values.
const EventCustomizationUpdated = "customizationUpdated"

// CustomizationUpdated is the payload for EventCustomizationUpdated.
type CustomizationUpdated struct {
	ID   string
	Name string
	Text string
}

// Handler receives the payload published for an event.
type Handler func(payload any)

type subscription struct {
	id      int
	handler Handler
}

// Bus is an in-memory event bus: ordered fan-out on publish, no persistence,
// no delivery to subscribers registered after a publish.
type Bus struct {
	mu     sync.Mutex
	nextID int
	events map[string][]subscription
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{events: make(map[string][]subscription)}
}

// Subscribe registers handler for event and returns a token for Unsubscribe.
func (b *Bus) Subscribe(event string, handler Handler) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.events[event] = append(b.events[event], subscription{id: b.nextID, handler: handler})
	return b.nextID
}

// Unsubscribe removes the subscription identified by token. Unknown tokens
// are ignored.
func (b *Bus) Unsubscribe(event string, token int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.events[event]
	for i, s := range subs {
		if s.id == token {
			b.events[event] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.events[event]) == 0 {
		delete(b.events, event)
	}
}

// Publish delivers payload to every handler currently registered for event,
// in registration order. A panicking handler is logged and does not stop
// delivery to the remaining handlers.
func (b *Bus) Publish(event string, payload any) {
	b.mu.Lock()
	subs := b.events[event]
	// Copy so handlers can subscribe/unsubscribe without holding the lock.
	list := make([]subscription, len(subs))
	copy(list, subs)
	b.mu.Unlock()

	for _, s := range list {
		deliver(event, s.handler, payload)
	}
}

// SubscriberCount returns the number of handlers registered for event.
func (b *Bus) SubscriberCount(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events[event])
}

func deliver(event string, h Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panicked", "event", event, "panic", r)
		}
	}()
	h(payload)
}
