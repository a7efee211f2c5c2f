package pollwidget

import (
	"errors"
	"log/slog"
	"time"

	"k8s.io/utils/clock"
)

// widgetConfig holds mutable state during widget construction.
type widgetConfig struct {
	labels      map[string]string
	timeout     time.Duration
	skipOverlap bool
	maxBodySize int64
	clock       clock.WithTicker
	logger      *slog.Logger
	callbacks   []func(Update)
}

// Option is a function that configures a [Widget] during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [NewWidget] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*widgetConfig) error

// WithLabels adds metadata labels to the widget.
//
// Labels travel with every [Update] and snapshot. Renderers use the "kind"
// label to pick a layout ("lcd", "gravity"; anything else renders as JSON).
//
// Accepts variadic key-value pairs. The number of arguments must be even.
//
// Example:
//
//	w, err := pollwidget.NewWidget[json.RawMessage]("lcd", url, 5*time.Second,
//	    pollwidget.WithLabels("kind", "lcd", "site", "garage"),
//	)
//
// Returns an error if an odd number of arguments is provided.
func WithLabels(keyValues ...string) Option {
	return func(cfg *widgetConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithLabels requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.labels[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithTimeout bounds each request.
//
// By default requests have no timeout and may hang until the widget is
// unmounted; later ticks keep issuing new requests regardless.
//
// Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) Option {
	return func(cfg *widgetConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithSkipOverlap makes the widget skip a tick while its previous request is
// still outstanding.
//
// Without it, overlapping requests are all kept and whichever completes last
// determines the items.
func WithSkipOverlap() Option {
	return func(cfg *widgetConfig) error {
		cfg.skipOverlap = true
		return nil
	}
}

// WithMaxBodySize sets how many bytes of a response body are read.
// Larger bodies are truncated and therefore fail to decode. Defaults to 1MB.
//
// Returns an error if n is zero or negative.
func WithMaxBodySize(n int64) Option {
	return func(cfg *widgetConfig) error {
		if n <= 0 {
			return errors.New("max body size must be positive")
		}
		cfg.maxBodySize = n
		return nil
	}
}

// WithClock replaces the clock that drives the poll timer and timestamps.
// Tests pass a fake clock from k8s.io/utils/clock/testing.
//
// Returns an error if c is nil.
func WithClock(c clock.WithTicker) Option {
	return func(cfg *widgetConfig) error {
		if c == nil {
			return errors.New("clock cannot be nil")
		}
		cfg.clock = c
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the widget.
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *widgetConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithCallback registers a function to be called after every completed poll.
//
// Callbacks run on the poll's goroutine, so with overlapping polls they may
// run concurrently. They must be non-blocking. Panics are recovered and
// logged.
//
// Nil callbacks are silently ignored.
func WithCallback(cb func(Update)) Option {
	return func(cfg *widgetConfig) error {
		if cb == nil {
			return nil
		}
		cfg.callbacks = append(cfg.callbacks, cb)
		return nil
	}
}
