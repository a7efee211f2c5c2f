// Package store holds widget state for pollwidget.
//
// It has two layers:
//
//   - [Field]: the reactive value owned by a single widget
//   - [Store] / [MemoryStore]: the latest [Snapshot] of every widget on a board,
//     with pub/sub for renderers such as the dashboard's SSE stream
//
// Both are safe for concurrent access. Field subscribers always see the newest
// value; MemoryStore subscribers that fall behind miss updates rather than
// block the poll path.
package store
