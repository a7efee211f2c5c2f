// Package poller issues the periodic GET requests behind every widget.
//
// This package is internal to pollwidget. It has two parts:
//
//   - [Client]: HTTP client wrapper with an optional per-request timeout and a body size limit
//   - [Scheduler]: runs a job immediately and then on every tick of a clock
//
// The scheduler never waits for a previous run before dispatching the next
// one, so a request that hangs cannot stall the cadence.
//
// Users of the pollwidget library should not need to interact with this
// package directly. Configuration is done through the main pollwidget package.
package poller
