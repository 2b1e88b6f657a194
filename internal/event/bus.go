package event

import (
	"sync"
	"sync/atomic"

	"github.com/dshills/arcdbg/internal/event/topic"
	"github.com/dshills/arcdbg/internal/logging"
)

// HandlerFunc handles a delivered event.
type HandlerFunc func(ev Event) error

// Publisher is the publishing half of a Bus.
type Publisher interface {
	Publish(ev Event) error
}

// Subscription identifies a registered handler.
type Subscription struct {
	id      uint64
	pattern topic.Topic
}

// Pattern returns the topic pattern of the subscription.
func (s Subscription) Pattern() topic.Topic { return s.pattern }

type subscriber struct {
	Subscription
	handler HandlerFunc
}

// Stats contains bus counters.
type Stats struct {
	Published uint64
	Delivered uint64
	Errors    uint64
	Panics    uint64
}

// Bus delivers events synchronously to matching subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscriber
	nextID uint64
	log    *logging.Logger

	published atomic.Uint64
	delivered atomic.Uint64
	errors    atomic.Uint64
	panics    atomic.Uint64
}

// NewBus creates an event bus. A nil logger discards handler failures.
func NewBus(log *logging.Logger) *Bus {
	if log == nil {
		log = logging.Nop
	}
	return &Bus{log: log.WithComponent("event")}
}

// Subscribe registers fn for every topic matching pattern.
func (b *Bus) Subscribe(pattern topic.Topic, fn HandlerFunc) (Subscription, error) {
	if !pattern.IsValid() {
		return Subscription{}, ErrInvalidTopic
	}
	if fn == nil {
		return Subscription{}, ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := Subscription{id: b.nextID, pattern: pattern}
	b.subs = append(b.subs, subscriber{Subscription: sub, handler: fn})
	return sub, nil
}

// Unsubscribe removes a subscription.
func (b *Bus) Unsubscribe(sub Subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == sub.id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return nil
		}
	}
	return ErrSubscriptionNotFound
}

// Publish delivers ev to every matching subscriber before returning.
// Handler failures are logged and counted, never returned.
func (b *Bus) Publish(ev Event) error {
	if !ev.Type.IsValid() {
		return ErrInvalidTopic
	}
	b.published.Add(1)

	b.mu.RLock()
	targets := make([]subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		if ev.Type.Matches(s.pattern) {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range targets {
		b.deliver(s, ev)
	}
	return nil
}

func (b *Bus) deliver(s subscriber, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.panics.Add(1)
			b.log.Error("handler for %s panicked on %s: %v", s.pattern, ev.Type, r)
		}
	}()

	b.delivered.Add(1)
	if err := s.handler(ev); err != nil {
		b.errors.Add(1)
		b.log.Warn("handler for %s failed on %s: %v", s.pattern, ev.Type, err)
	}
}

// Stats returns a snapshot of the bus counters.
func (b *Bus) Stats() Stats {
	return Stats{
		Published: b.published.Load(),
		Delivered: b.delivered.Load(),
		Errors:    b.errors.Load(),
		Panics:    b.panics.Load(),
	}
}
