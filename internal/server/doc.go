// Package server provides the HTTP server for the widget dashboard and API.
//
// This package is internal and handles all HTTP concerns:
//
//   - Dashboard serving: Serves the embedded HTML/CSS/JS dashboard at "/"
//   - REST API: JSON snapshots at "/api/widgets" and "/api/widgets/{name}"
//   - Server-Sent Events: Real-time updates at "/api/sse"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
//
// Users of the pollwidget library should not need to interact with this
// package directly. The server is started automatically by [pollwidget.Board.Start].
package server
