package pollwidget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/jpalmerr/pollwidget/dashboard"
	"github.com/jpalmerr/pollwidget/internal/server"
	"github.com/jpalmerr/pollwidget/internal/store"
)

const (
	defaultPort = 8080

	// updateBuffer bounds how many widget updates may queue before polls
	// wait for the board to catch up.
	updateBuffer = 64
)

// Board mounts a set of widgets and fans their updates out to renderers.
//
// Board is created using [New] with functional options and started with
// [Board.Start]. Every completed poll of every widget is written into a
// snapshot store, passed to the registered update callbacks and, unless
// disabled with [WithoutDashboard], streamed to the HTTP dashboard.
//
// The typical lifecycle is:
//
//	lcd, _ := fermentrack.NewLCDWidget("http://fermentrack.local")
//	b, err := pollwidget.New(pollwidget.WithWidget(lcd))
//	if err != nil {
//	    slog.Error("failed to create board", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	b.Start(ctx) // blocks until context cancelled
type Board struct {
	title           string
	widgets         []Source
	port            int
	dashboard       bool
	logger          *slog.Logger
	updateCallbacks []func(Update)

	started atomic.Bool
}

// New creates a new [Board] with the given options.
//
// At least one widget must be configured via [WithWidget] or [WithWidgets],
// and widget names must be unique. The dashboard port defaults to 8080.
//
// Returns an error if no widgets are configured or if any option is invalid.
func New(opts ...BoardOption) (*Board, error) {
	cfg := &boardConfig{
		port:      defaultPort,
		dashboard: true,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.widgets) == 0 {
		return nil, errors.New("at least one widget is required")
	}

	// names key the snapshot store and the dashboard API
	seen := make(map[string]bool, len(cfg.widgets))
	for _, w := range cfg.widgets {
		if seen[w.Name()] {
			return nil, fmt.Errorf("duplicate widget name: %q", w.Name())
		}
		seen[w.Name()] = true
	}

	if cfg.port < 1 || cfg.port > 65535 {
		return nil, fmt.Errorf("port must be between 1 and 65535, got %d", cfg.port)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Board{
		title:           cfg.title,
		widgets:         cfg.widgets,
		port:            cfg.port,
		dashboard:       cfg.dashboard,
		logger:          logger,
		updateCallbacks: cfg.updateCallbacks,
	}, nil
}

// Start mounts every widget and serves the dashboard.
//
// Start is a blocking call that runs until the provided context is cancelled,
// at which point every widget is unmounted (cancelling in-flight requests)
// and the HTTP server shuts down gracefully.
//
// A Board can be started once. Returns nil on graceful shutdown, or an error
// if the board was already started or the HTTP server fails to start.
func (b *Board) Start(ctx context.Context) error {
	if !b.started.CompareAndSwap(false, true) {
		return errors.New("board already started")
	}

	if ctx.Err() != nil {
		return nil
	}

	b.logger.Info("board starting", "widget_count", len(b.widgets))

	snapshots := store.NewMemoryStore()
	for _, w := range b.widgets {
		snapshots.Update(w.rawSnapshot())
	}

	if b.dashboard {
		httpServer := server.NewServer(snapshots, b.port, dashboard.Assets, b.title, b.logger)
		if err := httpServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		b.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", b.port))
	}

	updates := make(chan Update, updateBuffer)
	stop := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case upd := <-updates:
				// store update first (callbacks fire after data is persisted)
				snapshots.Update(updateToSnapshot(upd))
				for _, cb := range b.updateCallbacks {
					invokeCallbackSafe(cb, upd, b.logger)
				}
			case <-stop:
				return
			}
		}
	}()

	for _, w := range b.widgets {
		w.observe(func(upd Update) {
			select {
			case updates <- upd:
			case <-stop:
			}
		})
		w.Mount(ctx)
		b.logger.Info("widget mounted", "widget", w.Name(), "url", w.URL(), "interval", w.Interval().String())
	}

	<-ctx.Done()

	for _, w := range b.widgets {
		w.Unmount()
	}
	close(stop)
	wg.Wait()

	b.logger.Info("board stopped")
	return nil
}

// Widgets returns a copy of the configured widgets.
func (b *Board) Widgets() []Source {
	cp := make([]Source, len(b.widgets))
	copy(cp, b.widgets)
	return cp
}

// Port returns the configured HTTP port for the dashboard server.
func (b *Board) Port() int {
	return b.port
}

// Title returns the configured dashboard title.
func (b *Board) Title() string {
	return b.title
}

// updateToSnapshot converts a poll report to its stored form.
func updateToSnapshot(u Update) store.Snapshot {
	var errStr *string
	if u.Error != nil {
		s := u.Error.Error()
		errStr = &s
	}

	snap := store.Snapshot{
		Name:           u.Widget,
		URL:            u.URL,
		Labels:         copyMap(u.Labels),
		State:          u.State.String(),
		Items:          u.Items,
		Version:        u.Version,
		CheckedAt:      u.CheckedAt,
		ResponseTimeMs: u.Latency.Milliseconds(),
		StatusCode:     u.StatusCode,
		Error:          errStr,
	}
	if !u.UpdatedAt.IsZero() {
		at := u.UpdatedAt
		snap.UpdatedAt = &at
	}
	return snap
}

// invokeCallbackSafe calls an update callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(Update), upd Update, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("update callback panicked",
				"panic", r,
				"widget", upd.Widget,
				"correlation_id", uuid.NewString(),
			)
		}
	}()
	cb(upd)
}
