package registry

import "sync"

// Bus is a non-blocking fan-out for registry change events. Subscribers
// that fall behind miss events rather than stalling publishers; the SSE
// consumer re-renders the whole list on every event, so a dropped event
// only delays a refresh.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Change]struct{}
}

// NewBus creates a change bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[chan Change]struct{})}
}

// Publish sends a change to all subscribers without blocking.
func (b *Bus) Publish(c Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- c:
		default:
			// subscriber too slow, skip
		}
	}
}

// Subscribe returns a buffered channel that receives changes.
func (b *Bus) Subscribe() chan Change {
	ch := make(chan Change, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(ch chan Change) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}
