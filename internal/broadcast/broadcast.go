package broadcast

import (
	"sync"

	"github.com/google/uuid"
)

const subscriberBuffer = 16

// Broadcaster fans immutable snapshots out to registered observers. Every
// Publish call must hand over a fresh copy, never a live reference, so
// consumers relying on reference equality see each change.
type Broadcaster[T any] struct {
	mu   sync.Mutex
	subs map[uuid.UUID]chan T
}

func New[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{subs: make(map[uuid.UUID]chan T)}
}

// Subscribe registers an observer and returns its id plus the channel
// snapshots arrive on. The channel is closed on Unsubscribe and CloseAll.
func (b *Broadcaster[T]) Subscribe() (uuid.UUID, <-chan T) {
	id := uuid.New()
	ch := make(chan T, subscriberBuffer)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()
	return id, ch
}

func (b *Broadcaster[T]) Unsubscribe(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		close(ch)
		delete(b.subs, id)
	}
}

// Publish delivers the snapshot to every subscriber. A subscriber that has
// fallen subscriberBuffer snapshots behind loses this one instead of
// blocking the publisher.
func (b *Broadcaster[T]) Publish(snapshot T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- snapshot:
		default:
		}
	}
}

// CloseAll drops every subscriber and closes their channels.
func (b *Broadcaster[T]) CloseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}
