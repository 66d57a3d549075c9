// Package events carries change notifications from polling tasks to whatever
// renders them. A typed bus replaces direct UI event dispatch so the
// scheduler stays decoupled from any particular consumer.
package events

import (
	"sync"
	"time"

	"grid-ops-service/internal/domain"
)

// Change describes one detected difference between polling ticks.
type Change struct {
	Domain  string
	Summary domain.StatusSummary
	Delta   int
	At      time.Time
}

const subscriberBuffer = 16

// Bus is a fan-out publish/subscribe channel for Change events. Publishing
// never blocks: a subscriber that has fallen behind misses events rather
// than stalling the polling loop.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]chan Change
}

// NewBus constructs an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]chan Change)}
}

// Subscribe returns a channel receiving changes for the given domain tag.
func (b *Bus) Subscribe(domainTag string) <-chan Change {
	ch := make(chan Change, subscriberBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[domainTag] = append(b.subs[domainTag], ch)
	return ch
}

// Publish delivers the change to every subscriber of its domain.
func (b *Bus) Publish(change Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[change.Domain] {
		select {
		case ch <- change:
		default:
		}
	}
}

// Close tears down every subscriber channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, subs := range b.subs {
		for _, ch := range subs {
			close(ch)
		}
	}
	b.subs = make(map[string][]chan Change)
}
