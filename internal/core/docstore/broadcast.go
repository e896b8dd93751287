package docstore

import (
	"context"
	"sync"
)

// Broadcaster fans changes out to in-process watchers. Slow watchers miss changes
// rather than blocking writers.
type Broadcaster struct {
	mu       sync.RWMutex
	watchers map[int]watcher
	nextID   int
	buffer   int
}

type watcher struct {
	prefix string
	ch     chan Change
}

func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = 64
	}
	return &Broadcaster{
		watchers: make(map[int]watcher),
		buffer:   buffer,
	}
}

func (b *Broadcaster) Subscribe(ctx context.Context, prefix string) <-chan Change {
	ch := make(chan Change, b.buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.watchers[id] = watcher{prefix: prefix, ch: ch}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		if w, ok := b.watchers[id]; ok {
			delete(b.watchers, id)
			close(w.ch)
		}
		b.mu.Unlock()
	}()

	return ch
}

func (b *Broadcaster) Publish(change Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, w := range b.watchers {
		if !Covers(w.prefix, change.Path) {
			continue
		}
		select {
		case w.ch <- change:
		default:
		}
	}
}

// Close ends every subscription.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, w := range b.watchers {
		close(w.ch)
		delete(b.watchers, id)
	}
}
