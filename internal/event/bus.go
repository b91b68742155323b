// Package event carries change notifications inside one store instance.
//
// The bus pairs watermill's gochannel pub/sub infrastructure with a direct
// subscriber registry. Subscribers registered here are invoked in
// registration order on the publisher's goroutine, which keeps per-key
// diffing deterministic; the watermill topic mirrors every event for
// callers that want channel-based consumption.
package event

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Type identifies a kind of store event.
type Type string

const (
	// DocumentChanged is raised once per persisted document transition,
	// whether from a local mutation or an observed external write.
	DocumentChanged Type = "document.changed"
)

// Event is a single notification.
type Event struct {
	Type Type `json:"type"`
	Data any  `json:"data,omitempty"`
}

// Subscriber receives events.
type Subscriber func(Event)

type entry struct {
	id uint64
	fn Subscriber
}

// Bus is an instance-scoped pub/sub hub.
type Bus struct {
	mu          sync.RWMutex
	pubsub      *gochannel.GoChannel
	subscribers map[Type][]entry
	nextID      uint64
	closed      bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 16},
			watermill.NopLogger{},
		),
		subscribers: make(map[Type][]entry),
	}
}

// Subscribe registers fn for events of type t and returns an unsubscribe
// function. Unsubscribing removes exactly this registration.
func (b *Bus) Subscribe(t Type, fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	id := atomic.AddUint64(&b.nextID, 1)
	b.subscribers[t] = append(b.subscribers[t], entry{id: id, fn: fn})

	return func() {
		b.unsubscribe(t, id)
	}
}

func (b *Bus) unsubscribe(t Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[t]
	for i, e := range subs {
		if e.id == id {
			b.subscribers[t] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}

// PublishSync delivers e to every subscriber in registration order on the
// caller's goroutine, then mirrors it onto the watermill topic.
func (b *Bus) PublishSync(e Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	subs := make([]Subscriber, 0, len(b.subscribers[e.Type]))
	for _, en := range b.subscribers[e.Type] {
		subs = append(subs, en.fn)
	}
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(e)
	}

	if payload, err := json.Marshal(e); err == nil {
		_ = b.pubsub.Publish(string(e.Type), message.NewMessage(watermill.NewUUID(), payload))
	}
}

// Messages exposes the watermill topic for t, for channel-based consumers.
func (b *Bus) Messages(ctx context.Context, t Type) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, string(t))
}

// Close drops all subscribers and shuts the watermill channel down.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.subscribers = make(map[Type][]entry)
	b.mu.Unlock()

	return b.pubsub.Close()
}
