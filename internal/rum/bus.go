// Package rum provides the in-process channel between the external RUM
// monitoring collaborator and the replay pipeline. The collaborator publishes
// context updates (application/session/view identity); the pipeline reads the
// latest context synchronously at tick time and publishes replay-availability
// status back on the same bus for cross-feature correlation.
package rum

import (
	"sync"
	"time"

	"github.com/replaykit/replaykit/pkg/types"
)

// EventType discriminates bus events.
type EventType int

const (
	// ContextChanged carries a new RUM context.
	ContextChanged EventType = iota
	// ReplayAvailable signals that replay data exists for a view.
	ReplayAvailable
)

// Event is one bus message.
type Event struct {
	Type      EventType
	Context   types.RUMContext // set for ContextChanged
	ViewID    string           // set for ReplayAvailable
	Timestamp int64
}

// Bus is an in-process pub/sub channel. Publishing is non-blocking: if a
// subscriber's channel is full the event is dropped for that subscriber.
type Bus struct {
	subscribers sync.Map
	bufferSize  int

	mu      sync.RWMutex
	current types.RUMContext
}

// Subscriber represents one bus subscription.
type Subscriber struct {
	ID string
	Ch chan Event
}

// NewBus creates a bus whose subscriber channels buffer bufferSize events.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &Bus{bufferSize: bufferSize}
}

// PublishContext records ctx as the latest known context and fans it out.
// Called by the RUM collaborator whenever the active view or session changes.
func (b *Bus) PublishContext(ctx types.RUMContext) {
	b.mu.Lock()
	b.current = ctx
	b.mu.Unlock()

	b.publish(Event{
		Type:      ContextChanged,
		Context:   ctx,
		Timestamp: time.Now().UnixMilli(),
	})
}

// PublishReplayAvailable signals that the pipeline holds replay data for the
// given view.
func (b *Bus) PublishReplayAvailable(viewID string) {
	b.publish(Event{
		Type:      ReplayAvailable,
		ViewID:    viewID,
		Timestamp: time.Now().UnixMilli(),
	})
}

// Current returns the latest published context. Safe to call from any
// goroutine; the coordinator reads it synchronously on each tick.
func (b *Bus) Current() types.RUMContext {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// Subscribe registers a subscriber under the given id. Re-subscribing under
// an id replaces the previous subscription and closes its channel, so the
// displaced receiver observes the close instead of blocking forever.
func (b *Bus) Subscribe(id string) *Subscriber {
	sub := &Subscriber{
		ID: id,
		Ch: make(chan Event, b.bufferSize),
	}
	if prev, ok := b.subscribers.Swap(id, sub); ok {
		close(prev.(*Subscriber).Ch)
	}
	return sub
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(id string) {
	if value, ok := b.subscribers.LoadAndDelete(id); ok {
		sub := value.(*Subscriber)
		close(sub.Ch)
	}
}

func (b *Bus) publish(ev Event) {
	b.subscribers.Range(func(key, value interface{}) bool {
		sub := value.(*Subscriber)
		select {
		case sub.Ch <- ev:
		default:
			// Subscriber is behind - drop instead of blocking.
		}
		return true
	})
}
