package auth

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestBusFanOut(t *testing.T) {
	b := NewBus(zerolog.Nop())

	var got []EventKind
	b.Subscribe(func(e Event) { got = append(got, e.Kind) })
	b.Subscribe(func(e Event) { got = append(got, e.Kind) })

	b.Publish(Event{Kind: EventLogin, Username: "admin"})
	if len(got) != 2 {
		t.Fatalf("deliveries=%d, want 2", len(got))
	}
}

func TestBusUnsubscribe(t *testing.T) {
	b := NewBus(zerolog.Nop())

	calls := 0
	unsubscribe := b.Subscribe(func(Event) { calls++ })

	b.Publish(Event{Kind: EventLogout})
	unsubscribe()
	b.Publish(Event{Kind: EventLogout})

	if calls != 1 {
		t.Fatalf("calls=%d, want 1", calls)
	}
}

func TestBusIsolatesPanickingSubscriber(t *testing.T) {
	b := NewBus(zerolog.Nop())

	b.Subscribe(func(Event) { panic("boom") })
	delivered := false
	b.Subscribe(func(Event) { delivered = true })

	b.Publish(Event{Kind: EventUserAdded, Username: "x"})
	if !delivered {
		t.Fatal("panic in one subscriber blocked the next")
	}
}
