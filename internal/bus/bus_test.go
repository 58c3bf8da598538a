package bus

import (
	"testing"
	"time"
)

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestPublishReachesSubscriber(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe(TopicBalanceUpdated)
	defer cancel()

	b.Publish(TopicBalanceUpdated, map[string]any{"balance": "750"})
	ev := recv(t, ch)
	if ev.Topic != TopicBalanceUpdated {
		t.Fatalf("topic = %s", ev.Topic)
	}
}

func TestTopicFilter(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe(TopicMarketplaceUpdated)
	defer cancel()

	b.Publish(TopicBalanceUpdated, nil)
	b.Publish(TopicMarketplaceUpdated, nil)

	ev := recv(t, ch)
	if ev.Topic != TopicMarketplaceUpdated {
		t.Fatalf("filtered subscriber got %s", ev.Topic)
	}
	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra event %s", extra.Topic)
	default:
	}
}

func TestSubscribeAllTopics(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Publish(TopicWalletConnected, nil)
	if ev := recv(t, ch); ev.Topic != TopicWalletConnected {
		t.Fatalf("got %s", ev.Topic)
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	b := New()
	_, cancel := b.Subscribe(TopicBalanceUpdated)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			b.Publish(TopicBalanceUpdated, i)
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	b := New()
	_, cancel := b.Subscribe()
	cancel()
	cancel()
	b.Publish(TopicWalletDisconnected, nil)
}
