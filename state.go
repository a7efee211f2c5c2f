package pollwidget

import (
	"encoding/json"
	"time"
)

// State is the lifecycle state of a widget's items.
//
// A widget starts in [StateUninitialized] and moves to [StateLoaded] on its
// first successfully decoded response. There is no error state: a failed poll
// leaves the state and the items exactly as they were.
type State string

const (
	// StateUninitialized means no response has been decoded yet.
	StateUninitialized State = "uninitialized"

	// StateLoaded means items hold the body of the latest decoded response.
	StateLoaded State = "loaded"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// Snapshot is the value of a widget's reactive field.
type Snapshot[T any] struct {
	// Items is whatever the server last returned, decoded into T.
	// It is the zero value of T before the first load.
	Items T

	// State is the widget's lifecycle state.
	State State

	// Version increments by one on every successful overwrite of Items.
	Version uint64

	// UpdatedAt is when Items was last replaced. Zero before the first load.
	UpdatedAt time.Time
}

// Update describes the outcome of one poll, successful or not.
//
// Update is emitted to callbacks and to a [Board] after every completed poll.
// Items always carries the last good response body, so a failed poll reports
// the stale payload alongside the error.
type Update struct {
	// Widget is the name of the widget that polled.
	Widget string

	// URL is the endpoint that was polled.
	URL string

	// Labels contains the widget's key-value metadata.
	Labels map[string]string

	// State is the widget's state after the poll.
	State State

	// Items is the last successfully decoded response body, verbatim.
	// nil before the first load.
	Items json.RawMessage

	// Version is the widget's version after the poll.
	Version uint64

	// UpdatedAt is when Items was last replaced.
	UpdatedAt time.Time

	// Latency is the time taken by the HTTP request.
	Latency time.Duration

	// CheckedAt is when the poll completed.
	CheckedAt time.Time

	// StatusCode is the HTTP status code. Zero if no response arrived.
	StatusCode int

	// Error is the transport or decode error, nil on success.
	Error error
}

// PollStats reports how a mounted widget's timer has dispatched polls.
type PollStats struct {
	// Dispatched counts polls issued, including the one at mount time.
	Dispatched uint64

	// Skipped counts ticks dropped by [WithSkipOverlap].
	Skipped uint64

	// InFlight is the number of requests currently outstanding.
	InFlight int64
}
