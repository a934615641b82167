package room

import "sync"

// broadcaster fans events out to every subscriber of one player slot.
// Each subscriber owns a buffered channel; a subscriber that falls
// behind is disconnected rather than ever blocking the publisher.
type broadcaster struct {
	mu     sync.Mutex
	nextID uint64
	buffer int
	subs   map[uint64]chan Event
	closed bool
}

func newBroadcaster(buffer int) *broadcaster {
	return &broadcaster{
		buffer: buffer,
		subs:   make(map[uint64]chan Event),
	}
}

// subscribe registers a new consumer and returns its channel plus a
// cancel function. Any initial events are queued ahead of future
// publishes. The channel is closed on cancel, overflow, or broadcaster
// close.
func (b *broadcaster) subscribe(initial ...Event) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	for _, ev := range initial {
		select {
		case ch <- ev:
		default:
		}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	return ch, func() { b.drop(id) }
}

func (b *broadcaster) drop(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// publish delivers an event to every subscriber in registration order of
// their channels. Per-subscriber delivery preserves publish order; a
// full channel disconnects that subscriber.
func (b *broadcaster) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			delete(b.subs, id)
			close(ch)
		}
	}
}

// close disconnects every subscriber.
func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
