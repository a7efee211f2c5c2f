package store

import "sync"

// Field is a single reactive value.
//
// Set replaces the value wholesale and notifies subscribers. Each subscriber
// channel has capacity 1 and always holds the newest value: an unread older
// value is replaced rather than queued, so a slow renderer skips frames
// instead of blocking the writer or drawing stale data.
type Field[V any] struct {
	mu          sync.Mutex
	value       V
	subscribers map[chan V]struct{}
}

// NewField creates a [Field] holding initial.
func NewField[V any](initial V) *Field[V] {
	return &Field[V]{
		value:       initial,
		subscribers: make(map[chan V]struct{}),
	}
}

// Get returns the current value.
func (f *Field[V]) Get() V {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// Set overwrites the value and notifies subscribers.
func (f *Field[V]) Set(v V) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.value = v
	for ch := range f.subscribers {
		// replace an unread value so the channel holds only the newest
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

// Subscribe returns a channel of values and a function that cancels the
// subscription and closes the channel. The cancel function is idempotent.
//
// The channel does not replay the current value; call Get first if needed.
func (f *Field[V]) Subscribe() (<-chan V, func()) {
	ch := make(chan V, 1)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subscribers, ch)
			f.mu.Unlock()
			close(ch)
		})
	}
}
