// Package pollwidget keeps small reactive snapshots of remote JSON
// collections by polling them on a fixed interval.
//
// A [Widget] issues an unauthenticated GET to its endpoint when mounted and
// then once per interval. Every completed response, whatever its HTTP status,
// replaces the widget's items wholesale; failed or undecodable polls leave
// the items as they were and are simply retried on the next tick. There is
// no backoff, no caching and no de-duplication of overlapping requests.
//
// # Quick Start
//
//	w, _ := pollwidget.NewWidget[json.RawMessage]("lcd",
//	    "http://fermentrack.local/api/lcd/", 5*time.Second)
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	w.Mount(ctx)
//	defer w.Unmount()
//
//	snap := w.Snapshot() // uninitialized until the first response
//
// Renderers either read [Widget.Snapshot] or call [Widget.Subscribe] to be
// woken on every overwrite.
//
// # Boards
//
// A [Board] mounts several widgets, keeps their latest snapshots in memory
// and serves them through an HTTP dashboard with a JSON API and
// Server-Sent Events:
//
//	lcd, _ := fermentrack.NewLCDWidget("http://fermentrack.local")
//	gravity, _ := fermentrack.NewGravityWidget("http://fermentrack.local")
//
//	b, err := pollwidget.New(
//	    pollwidget.WithWidgets(lcd, gravity),
//	    pollwidget.WithPort(9090),
//	)
//	if err != nil {
//	    return err
//	}
//	return b.Start(ctx) // blocks until ctx is cancelled
//
// # Architecture
//
//   - internal/poller: HTTP client and per-widget poll timer
//   - internal/store: reactive field and snapshot store with pub/sub
//   - internal/server: HTTP server with REST API and Server-Sent Events
//   - internal/tui: terminal renderer
//   - fermentrack: typed widgets for the Fermentrack LCD and gravity APIs
//   - config: YAML/TOML file configuration
//   - dashboard: embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice.
package pollwidget
