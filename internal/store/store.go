package store

import (
	"encoding/json"
	"time"
)

// Snapshot is the latest known state of one widget, as served to renderers.
//
// Snapshot is optimized for JSON serialization (used by the REST API and
// SSE). It is decoupled from the widget's typed payload: Items carries the
// last successfully decoded response body verbatim.
type Snapshot struct {
	// Name is the widget's name.
	Name string `json:"name"`

	// URL is the endpoint the widget polls.
	URL string `json:"url"`

	// Labels contains key-value metadata such as the widget kind.
	Labels map[string]string `json:"labels"`

	// State is "uninitialized" or "loaded".
	State string `json:"state"`

	// Items is the last good response body, or null before the first one.
	Items json.RawMessage `json:"items"`

	// Version counts successful overwrites of Items.
	Version uint64 `json:"version"`

	// UpdatedAt is when Items was last replaced. nil before the first load.
	UpdatedAt *time.Time `json:"updated_at"`

	// CheckedAt is when the most recent poll completed.
	CheckedAt time.Time `json:"checked_at"`

	// ResponseTimeMs is the latency of the most recent poll in milliseconds.
	ResponseTimeMs int64 `json:"response_time_ms"`

	// StatusCode is the HTTP status of the most recent poll, zero on transport failure.
	StatusCode int `json:"status_code"`

	// Error contains the most recent poll's error message, if any.
	Error *string `json:"error"`
}

// Store defines the interface for storing and subscribing to widget snapshots.
//
// Store implementations must be safe for concurrent access.
type Store interface {
	// Update stores a snapshot and notifies all subscribers.
	// Snapshots are keyed by Name, so subsequent updates replace previous values.
	Update(snapshot Snapshot)

	// Get returns the snapshot stored under name.
	Get(name string) (Snapshot, bool)

	// GetAll returns all stored snapshots sorted by name.
	// The returned slice is a snapshot; modifications do not affect the store.
	GetAll() []Snapshot

	// Subscribe returns a channel that receives snapshot updates.
	// The returned channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Snapshot

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Snapshot)
}
