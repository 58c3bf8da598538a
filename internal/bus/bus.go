// Package bus is the in-process signal fan-out between a session's
// mounted views. Delivery is after the fact: subscribers see mutations
// eventually, not transactionally.
package bus

import (
	"sync"
)

// Topics published by the ledger, mode controller, and marketplace.
const (
	TopicWalletConnected    = "wallet.connected"
	TopicWalletDisconnected = "wallet.disconnected"
	TopicBalanceUpdated     = "balance.updated"
	TopicMarketplaceUpdated = "marketplace.updated"
)

type Event struct {
	Topic   string `json:"topic"`
	Payload any    `json:"payload,omitempty"`
}

type subscriber struct {
	topics map[string]bool
	ch     chan Event
}

// Bus fans events out to subscribers. Publish never blocks: a subscriber
// whose buffer is full misses the event and must re-read state, the same
// contract a late storage notification gives.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[int]*subscriber
}

func New() *Bus {
	return &Bus{subs: map[int]*subscriber{}}
}

// Subscribe registers interest in the given topics (all topics when none
// are named). The returned cancel func must be called to release the
// subscription.
func (b *Bus) Subscribe(topics ...string) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, 16)}
	if len(topics) > 0 {
		sub.topics = make(map[string]bool, len(topics))
		for _, t := range topics {
			sub.topics[t] = true
		}
	}

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = sub
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub.ch)
		}
		b.mu.Unlock()
	}
	return sub.ch, cancel
}

func (b *Bus) Publish(topic string, payload any) {
	ev := Event{Topic: topic, Payload: payload}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		if sub.topics != nil && !sub.topics[topic] {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
}
