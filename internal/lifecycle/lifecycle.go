// Package lifecycle tracks the host application's foreground/background state
// and fans state changes out to the scheduler and segment writer.
package lifecycle

import (
	"sync"
)

// AppState is the host application's execution state.
type AppState int

const (
	StateForeground AppState = iota
	StateBackground
)

func (s AppState) String() string {
	if s == StateBackground {
		return "background"
	}
	return "foreground"
}

// Observer is a small pub/sub bus for application state. Publishing is
// non-blocking; a slow subscriber misses intermediate transitions but always
// sees the latest state via Current.
type Observer struct {
	subscribers sync.Map
	bufferSize  int

	mu      sync.RWMutex
	current AppState
}

// NewObserver creates an observer starting in the foreground state.
func NewObserver(bufferSize int) *Observer {
	if bufferSize <= 0 {
		bufferSize = 4
	}
	return &Observer{
		bufferSize: bufferSize,
		current:    StateForeground,
	}
}

// Publish records a state transition and notifies subscribers. Publishing the
// current state again is a no-op.
func (o *Observer) Publish(state AppState) {
	o.mu.Lock()
	if o.current == state {
		o.mu.Unlock()
		return
	}
	o.current = state
	o.mu.Unlock()

	o.subscribers.Range(func(key, value interface{}) bool {
		ch := value.(chan AppState)
		select {
		case ch <- state:
		default:
		}
		return true
	})
}

// Current returns the latest published state.
func (o *Observer) Current() AppState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.current
}

// Subscribe registers a subscriber under the given id. Re-subscribing under
// an id replaces the previous subscription and closes its channel.
func (o *Observer) Subscribe(id string) chan AppState {
	ch := make(chan AppState, o.bufferSize)
	if prev, ok := o.subscribers.Swap(id, ch); ok {
		close(prev.(chan AppState))
	}
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (o *Observer) Unsubscribe(id string) {
	if value, ok := o.subscribers.LoadAndDelete(id); ok {
		close(value.(chan AppState))
	}
}
