package auth

import (
	"sync"

	"github.com/rs/zerolog"
)

// EventKind tags an auth lifecycle event.
type EventKind string

const (
	EventLogin           EventKind = "login"
	EventLogout          EventKind = "logout"
	EventUserAdded       EventKind = "user_added"
	EventUserUpdated     EventKind = "user_updated"
	EventUserDeleted     EventKind = "user_deleted"
	EventUserActivated   EventKind = "user_activated"
	EventUserDeactivated EventKind = "user_deactivated"
)

// Event carries a fixed payload shape per kind: Username is set for every
// kind except logout, Session only for login.
type Event struct {
	Kind     EventKind
	Username string
	Session  *Session
}

// Bus is a synchronous fan-out dispatcher for auth events. A panicking
// subscriber is recovered and logged; dispatch continues to the remaining
// subscribers.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]func(Event)
	next int
	log  zerolog.Logger
}

// NewBus creates an event bus.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subs: make(map[int]func(Event)),
		log:  log.With().Str("component", "auth-events").Logger(),
	}
}

// Subscribe registers a callback and returns its unsubscribe function.
func (b *Bus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish dispatches an event to every subscriber in turn.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	fns := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		b.dispatch(e, fn)
	}
}

func (b *Bus) dispatch(e Event, fn func(Event)) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Any("panic", r).Str("event", string(e.Kind)).Msg("event subscriber panicked")
		}
	}()
	fn(e)
}
