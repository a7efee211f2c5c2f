package store

import (
	"sort"
	"sync"
)

const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// Subscribers receive updates via buffered channels (buffer size 100). Updates
// are sent non-blocking; if a subscriber's buffer is full, the update is dropped
// for that subscriber to prevent blocking the entire system.
type MemoryStore struct {
	mu          sync.RWMutex
	snapshots   map[string]Snapshot
	subscribers map[chan Snapshot]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory [Store] implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots:   make(map[string]Snapshot),
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

// Update stores a [Snapshot] and notifies all subscribers.
func (m *MemoryStore) Update(snapshot Snapshot) {
	m.mu.Lock()
	m.snapshots[snapshot.Name] = snapshot
	m.mu.Unlock()

	m.notifySubscribers(snapshot)
}

// Get returns the snapshot stored under name.
func (m *MemoryStore) Get(name string) (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.snapshots[name]
	return s, ok
}

// GetAll returns all stored snapshots sorted by name.
func (m *MemoryStore) GetAll() []Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]Snapshot, 0, len(m.snapshots))
	for _, s := range m.snapshots {
		results = append(results, s)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Name < results[j].Name
	})
	return results
}

// Subscribe creates a new subscription and returns a channel for receiving updates.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Snapshot) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the snapshot to all active subscribers without blocking.
func (m *MemoryStore) notifySubscribers(snapshot Snapshot) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- snapshot:
		default:
			// subscriber is slow, drop the message
		}
	}
}
