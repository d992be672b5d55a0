package events

import (
	"sync"
	"testing"
)

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus()
	a := bus.Subscribe(EventScheduleSaved)
	b := bus.Subscribe(EventScheduleSaved)
	other := bus.Subscribe(EventEventDeleted)

	bus.Publish(EventScheduleSaved, Payload{"host_id": "h1"})

	for _, sub := range []Subscriber{a, b} {
		select {
		case got := <-sub:
			if got["host_id"] != "h1" {
				t.Fatalf("payload = %v", got)
			}
		default:
			t.Fatal("expected payload")
		}
	}
	select {
	case got := <-other:
		t.Fatalf("unexpected payload on other type: %v", got)
	default:
	}
}

func TestBusDropsWhenSubscriberFull(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventEventCreated)
	for i := 0; i < cap(sub)+5; i++ {
		bus.Publish(EventEventCreated, Payload{"n": i})
	}
	if len(sub) != cap(sub) {
		t.Fatalf("buffered = %d, want %d", len(sub), cap(sub))
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventEventUpdated)
	bus.Unsubscribe(EventEventUpdated, sub)

	if _, ok := <-sub; ok {
		t.Fatal("subscriber should be closed")
	}
	// Publishing after unsubscribe must not panic on the closed channel.
	bus.Publish(EventEventUpdated, Payload{})
	// Unknown subscriber is a no-op.
	bus.Unsubscribe(EventEventUpdated, make(Subscriber))
}

func TestPublishRacingUnsubscribe(t *testing.T) {
	bus := NewBus()
	for round := 0; round < 200; round++ {
		subs := make([]Subscriber, 16)
		for i := range subs {
			subs[i] = bus.Subscribe(EventScheduleSaved)
		}

		var wg sync.WaitGroup
		for p := 0; p < 4; p++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					bus.Publish(EventScheduleSaved, Payload{"host_id": "h1"})
				}
			}()
		}
		for _, sub := range subs {
			wg.Add(1)
			go func(sub Subscriber) {
				defer wg.Done()
				bus.Unsubscribe(EventScheduleSaved, sub)
			}(sub)
		}
		wg.Wait()
	}

	bus.mu.RLock()
	remaining := len(bus.subs[EventScheduleSaved])
	bus.mu.RUnlock()
	if remaining != 0 {
		t.Fatalf("subscribers left = %d, want 0", remaining)
	}
}
