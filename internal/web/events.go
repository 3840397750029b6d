package web

import (
	"sync"

	"orientd/internal/bridge"
)

// EventBroadcaster fans subscription events out to SSE clients. It keeps the
// most recent event so a new client learns the current orientation at once.
// Slow clients miss events instead of blocking the publisher.
type EventBroadcaster struct {
	mu        sync.RWMutex
	subs      map[int]chan bridge.Event
	nextID    int
	last      bridge.Event
	haveLast  bool
	available bool
}

func NewEventBroadcaster() *EventBroadcaster {
	return &EventBroadcaster{
		subs:      make(map[int]chan bridge.Event),
		available: true,
	}
}

// Available is false once the last event published was an error.
func (b *EventBroadcaster) Available() bool {
	if b == nil {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.available
}

func (b *EventBroadcaster) Subscribe(buffer int) (int, <-chan bridge.Event) {
	if b == nil {
		return 0, nil
	}
	if buffer <= 0 {
		buffer = 4
	}
	ch := make(chan bridge.Event, buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	// Queued under the lock so a concurrent Publish lands behind it.
	if b.haveLast {
		ch <- b.last
	}
	return id, ch
}

func (b *EventBroadcaster) Unsubscribe(id int) {
	if b == nil {
		return
	}
	b.mu.Lock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
	b.mu.Unlock()
}

func (b *EventBroadcaster) Subscribers() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *EventBroadcaster) Last() (bridge.Event, bool) {
	if b == nil {
		return bridge.Event{}, false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last, b.haveLast
}

func (b *EventBroadcaster) Publish(e bridge.Event) {
	if b == nil {
		return
	}
	// Holding the write lock keeps Unsubscribe from closing a channel mid-send.
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
	b.last = e
	b.haveLast = true
	b.available = e.Kind != bridge.EventError
}
