package messaging

import (
	"context"
	"testing"
	"time"

	"mandate/internal/shared/events"
)

func TestPublishReachesSubscriber(t *testing.T) {
	bus := NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan events.Envelope, 1)
	err := bus.Subscribe(ctx, TopicDelegateNotifications, "test-group", func(_ context.Context, event events.Envelope) error {
		received <- event
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	publisher := DelegatePublisher{Bus: bus}
	envelope := events.Envelope{EventID: "n-1", EventType: "relationship.delegate_notification"}
	if err := publisher.PublishDelegateNotification(ctx, envelope); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case got := <-received:
		if got.EventID != "n-1" {
			t.Fatalf("unexpected envelope %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for envelope")
	}
}

func TestPublishWithoutSubscribersSucceeds(t *testing.T) {
	bus := NewBus(nil)
	err := bus.Publish(context.Background(), "no-subscribers", events.Envelope{EventID: "n-1"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestSubscriberRemovedOnContextCancel(t *testing.T) {
	bus := NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())

	err := bus.Subscribe(ctx, "topic-a", "test-group", func(context.Context, events.Envelope) error { return nil })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		bus.mu.RLock()
		remaining := len(bus.subscribers["topic-a"])
		bus.mu.RUnlock()
		if remaining == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("subscriber was not removed after cancel")
}
