// Package eventbus is the in-process replacement for the storefront's
// ambient UI broadcasts. Cart and order mutations publish zero-payload
// signals here; surfaces that render cart state subscribe and re-fetch.
// Delivery is fire-and-forget: a publish with no subscribers is a no-op and
// a slow subscriber drops signals rather than blocking the publisher.
package eventbus

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Topic names an in-process signal.
type Topic string

const (
	TopicCartUpdated Topic = "cart.updated"
	TopicCartCleared Topic = "cart.cleared"
	TopicOrderPlaced Topic = "order.placed"
)

// Event carries the topic that fired. Signals are zero-payload; subscribers
// re-fetch whatever state they need.
type Event struct {
	Topic Topic
}

// Publisher is the narrow surface mutation paths depend on.
type Publisher interface {
	Publish(ctx context.Context, topic Topic)
}

// Subscription delivers events for one subscriber until Unsubscribe.
type Subscription struct {
	id     string
	topic  Topic
	ch     chan Event
	cancel func()
}

// Events exposes the subscriber's delivery channel.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Unsubscribe detaches the subscription and closes its channel.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.cancel == nil {
		return
	}
	s.cancel()
}

// Bus fans events out to topic subscribers.
type Bus struct {
	mu     sync.Mutex
	subs   map[Topic]map[string]*Subscription
	buffer int
}

// New builds a bus whose subscriptions buffer the given number of pending
// events before drops begin. Zero or negative picks a small default.
func New(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 4
	}
	return &Bus{
		subs:   make(map[Topic]map[string]*Subscription),
		buffer: buffer,
	}
}

// Subscribe registers interest in a topic.
func (b *Bus) Subscribe(topic Topic) *Subscription {
	sub := &Subscription{
		id:    uuid.NewString(),
		topic: topic,
		ch:    make(chan Event, b.buffer),
	}
	sub.cancel = func() { b.remove(sub) }

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[string]*Subscription)
	}
	b.subs[topic][sub.id] = sub
	return sub
}

// Publish delivers the topic signal to every current subscriber without
// blocking. Subscribers with a full buffer miss the signal; there is no
// queueing guarantee.
func (b *Bus) Publish(ctx context.Context, topic Topic) {
	if b == nil {
		return
	}
	_ = ctx

	b.mu.Lock()
	targets := make([]*Subscription, 0, len(b.subs[topic]))
	for _, sub := range b.subs[topic] {
		targets = append(targets, sub)
	}
	b.mu.Unlock()

	for _, sub := range targets {
		select {
		case sub.ch <- Event{Topic: topic}:
		default:
		}
	}
}

func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	group, ok := b.subs[sub.topic]
	if !ok {
		return
	}
	if _, present := group[sub.id]; !present {
		return
	}
	delete(group, sub.id)
	close(sub.ch)
}
