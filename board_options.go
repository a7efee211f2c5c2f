package pollwidget

import (
	"errors"
	"log/slog"
)

// boardConfig holds mutable state during Board construction.
type boardConfig struct {
	title           string
	widgets         []Source
	port            int
	dashboard       bool
	logger          *slog.Logger
	updateCallbacks []func(Update)
}

// BoardOption is a function that configures a [Board] during construction.
//
// Options return an error if validation fails.
type BoardOption func(*boardConfig) error

// WithWidget adds a single widget to the board.
//
// Can be called multiple times. At least one widget must be configured for
// [New] to succeed.
//
// Returns an error if w is nil.
func WithWidget(w Source) BoardOption {
	return func(cfg *boardConfig) error {
		if w == nil {
			return errors.New("widget cannot be nil")
		}
		cfg.widgets = append(cfg.widgets, w)
		return nil
	}
}

// WithWidgets adds several widgets at once.
// Equivalent to calling [WithWidget] for each.
func WithWidgets(widgets ...Source) BoardOption {
	return func(cfg *boardConfig) error {
		for _, w := range widgets {
			if w == nil {
				return errors.New("widget cannot be nil")
			}
			cfg.widgets = append(cfg.widgets, w)
		}
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard server.
//
// The dashboard UI and API will be available at http://localhost:<port>.
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) BoardOption {
	return func(cfg *boardConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab and header.
//
// If not specified, defaults to "Fermentrack".
func WithTitle(title string) BoardOption {
	return func(cfg *boardConfig) error {
		cfg.title = title
		return nil
	}
}

// WithoutDashboard disables the HTTP server. Updates still reach the
// callbacks registered with [WithUpdateCallback].
func WithoutDashboard() BoardOption {
	return func(cfg *boardConfig) error {
		cfg.dashboard = false
		return nil
	}
}

// WithBoardLogger sets a custom [slog.Logger] for the board and its server.
// If not specified, [slog.Default] is used.
//
// Widgets keep their own loggers; see [WithLogger].
//
// Returns an error if the logger is nil.
func WithBoardLogger(logger *slog.Logger) BoardOption {
	return func(cfg *boardConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithUpdateCallback registers a function to be called for every completed
// poll of every widget on the board.
//
// Multiple callbacks execute in registration order. Callbacks are invoked
// from a single goroutine after the snapshot store is updated, so they must
// be non-blocking: a slow callback delays subsequent updates. Panics are
// recovered and logged.
//
// Example:
//
//	b, err := pollwidget.New(
//	    pollwidget.WithWidget(lcd),
//	    pollwidget.WithUpdateCallback(func(u pollwidget.Update) {
//	        if u.Error != nil {
//	            log.Printf("%s: %v", u.Widget, u.Error)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithUpdateCallback(cb func(Update)) BoardOption {
	return func(cfg *boardConfig) error {
		if cb == nil {
			return nil
		}
		cfg.updateCallbacks = append(cfg.updateCallbacks, cb)
		return nil
	}
}
