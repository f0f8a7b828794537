// Package pubsub is the in-process broker decoupling mutation handlers from
// subscription streams. Topics come into being on first use and live for the
// whole process; events are transient and delivered at most once per
// subscriber.
package pubsub

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// FilterFunc decides whether one published event is relevant to a subscriber.
// It runs on the subscriber's own goroutine, so it may block (for example on
// identity resolution) without delaying the publisher or other subscribers.
// A non-nil error drops the event for this subscriber only.
type FilterFunc func(ctx context.Context, event any) (bool, error)

// queueSize bounds how many undelivered events a single subscriber may hold.
// A subscriber that falls further behind loses events (at-most-once).
const queueSize = 64

type Broker struct {
	mu     sync.RWMutex
	topics map[string][]*Subscription
}

func NewBroker() *Broker {
	return &Broker{topics: make(map[string][]*Subscription)}
}

// Publish hands event to every subscription currently registered on topic.
// It only enqueues; filtering and delivery happen on each subscriber's
// goroutine. Publish never blocks on a slow subscriber.
func (b *Broker) Publish(topic string, event any) {
	b.mu.RLock()
	subs := make([]*Subscription, len(b.topics[topic]))
	copy(subs, b.topics[topic])
	b.mu.RUnlock()

	for _, s := range subs {
		select {
		case s.queue <- event:
		default:
			slog.Warn("pubsub: subscriber queue full, dropping event",
				slog.String("topic", topic), slog.String("subscription", s.id))
		}
	}
}

// Subscribe registers filter on topic and returns a live event stream.
// Events the filter accepts arrive on C in publish order. The subscription
// ends when ctx is cancelled or Close is called; both deregister immediately.
func (b *Broker) Subscribe(ctx context.Context, topic string, filter FilterFunc) *Subscription {
	ctx, cancel := context.WithCancel(ctx)

	s := &Subscription{
		id:     newSubID(),
		topic:  topic,
		broker: b,
		filter: filter,
		queue:  make(chan any, queueSize),
		out:    make(chan any),
		ctx:    ctx,
		cancel: cancel,
	}

	b.mu.Lock()
	b.topics[topic] = append(b.topics[topic], s)
	b.mu.Unlock()

	go s.deliver()

	return s
}

func (b *Broker) remove(s *Subscription) {
	b.mu.Lock()
	b.topics[s.topic] = findAndDelete(b.topics[s.topic], s)
	b.mu.Unlock()
}

// Close tears down every subscription on every topic.
func (b *Broker) Close() {
	b.mu.RLock()
	var subs []*Subscription
	for _, topicSubs := range b.topics {
		subs = append(subs, topicSubs...)
	}
	b.mu.RUnlock()

	for _, s := range subs {
		s.Close()
	}
}

// Subscription is one registration on one topic, owned by the subscriber
// that created it. The broker only keeps a non-owning reference.
type Subscription struct {
	id     string
	topic  string
	broker *Broker
	filter FilterFunc
	queue  chan any
	out    chan any

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// C is the stream of accepted events. It is closed after Close (or context
// cancellation) once the delivery goroutine has stopped.
func (s *Subscription) C() <-chan any { return s.out }

func (s *Subscription) Topic() string { return s.topic }

// Close deregisters the subscription so no further evaluation happens for
// it. Safe to call from any goroutine, any number of times.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.broker.remove(s)
		s.cancel()
	})
}

func (s *Subscription) deliver() {
	defer close(s.out)
	defer s.Close() // covers teardown via context cancellation

	for {
		select {
		case <-s.ctx.Done():
			return
		case event := <-s.queue:
			ok, err := s.filter(s.ctx, event)
			if err != nil {
				if s.ctx.Err() != nil {
					return
				}
				slog.Error("pubsub: filter failed, dropping event",
					slog.String("topic", s.topic), slog.String("subscription", s.id), "err", err)
				continue
			}
			if !ok {
				continue
			}

			select {
			case s.out <- event:
			case <-s.ctx.Done():
				return
			}
		}
	}
}

func newSubID() string { return uuid.NewString() }

// Deletes item from slice then insert zero value at end (for GC).
// Be careful, it reorders the slice
func findAndDelete[T comparable](list []T, elem T) []T {
	var zero T
	lastIdx := len(list) - 1
	for i := range list {
		if list[i] == elem {
			list[i] = list[lastIdx]
			list[lastIdx] = zero
			list = list[:lastIdx]
			return list
		}
	}
	return list
}
