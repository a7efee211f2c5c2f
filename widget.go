package pollwidget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/jpalmerr/pollwidget/internal/poller"
	"github.com/jpalmerr/pollwidget/internal/store"
)

// ErrMalformedBody is wrapped by errors returned when a response body is not
// valid JSON for the widget's item type.
var ErrMalformedBody = errors.New("malformed response body")

// Source is the type-independent view of a widget used by [Board].
// Every *[Widget] implements it.
type Source interface {
	Name() string
	URL() string
	Interval() time.Duration
	Labels() map[string]string
	Mount(ctx context.Context)
	Unmount()

	observe(fn func(Update))
	rawSnapshot() store.Snapshot
}

// Widget keeps a reactive snapshot of a remote JSON collection by polling it
// with unauthenticated GET requests.
//
// The type parameter T is the shape the response body is decoded into. Use
// json.RawMessage or any to stay schema-agnostic, or a slice of record
// structs such as those in the fermentrack package.
//
// On every completed response, whatever its status code, the body is decoded
// into a fresh T and replaces the items wholesale. A transport failure or an
// undecodable body leaves the items untouched; the next tick simply polls
// again.
//
// Widget is safe for concurrent use. Overlapping polls are allowed by default
// and the last one to complete wins.
type Widget[T any] struct {
	name        string
	url         string
	interval    time.Duration
	labels      map[string]string
	timeout     time.Duration
	skipOverlap bool
	clock       clock.WithTicker
	logger      *slog.Logger
	callbacks   []func(Update)

	client *poller.Client
	field  *store.Field[Snapshot[T]]

	mu        sync.Mutex
	raw       json.RawMessage // last good body
	observers []func(Update)
	scheduler *poller.Scheduler
	unmounted bool
}

// NewWidget creates a [Widget] that polls endpoint every interval.
//
// The name identifies the widget in logs, on a [Board] and in the dashboard.
// The endpoint must be an absolute http or https URL.
//
// Returns an error if the name is empty, the URL is invalid, the interval is
// not positive, or any option fails validation.
//
// Example:
//
//	w, err := pollwidget.NewWidget[json.RawMessage]("lcd",
//	    "http://fermentrack.local/api/lcd/", 5*time.Second,
//	    pollwidget.WithLabels("kind", "lcd"),
//	)
func NewWidget[T any](name, endpoint string, interval time.Duration, opts ...Option) (*Widget[T], error) {
	if name == "" {
		return nil, errors.New("widget name cannot be empty")
	}

	parsedURL, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, errors.New("URL must have an http:// or https:// scheme")
	}
	if parsedURL.Host == "" {
		return nil, errors.New("URL must have a host")
	}

	if interval <= 0 {
		return nil, errors.New("polling interval must be positive")
	}

	cfg := &widgetConfig{
		labels: make(map[string]string),
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	clk := cfg.clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Widget[T]{
		name:        name,
		url:         endpoint,
		interval:    interval,
		labels:      cfg.labels,
		timeout:     cfg.timeout,
		skipOverlap: cfg.skipOverlap,
		clock:       clk,
		logger:      logger,
		callbacks:   cfg.callbacks,
		client:      poller.NewClient(cfg.maxBodySize),
		field:       store.NewField(Snapshot[T]{State: StateUninitialized}),
	}, nil
}

// Name returns the widget's name.
func (w *Widget[T]) Name() string {
	return w.name
}

// URL returns the endpoint the widget polls.
func (w *Widget[T]) URL() string {
	return w.url
}

// Interval returns the time between polls.
func (w *Widget[T]) Interval() time.Duration {
	return w.interval
}

// Labels returns a copy of the widget's labels.
func (w *Widget[T]) Labels() map[string]string {
	return copyMap(w.labels)
}

// Items returns the most recently received collection, or the zero value of
// T before the first response arrives.
func (w *Widget[T]) Items() T {
	return w.field.Get().Items
}

// State returns the widget's lifecycle state.
func (w *Widget[T]) State() State {
	return w.field.Get().State
}

// Snapshot returns the current value of the widget's reactive field.
func (w *Widget[T]) Snapshot() Snapshot[T] {
	return w.field.Get()
}

// Subscribe returns a channel that receives the field's value after every
// successful overwrite, and a function that ends the subscription.
//
// The channel holds at most one value and always the newest: a renderer that
// falls behind skips intermediate snapshots. The current value is not
// replayed; read [Widget.Snapshot] first to render the initial state.
func (w *Widget[T]) Subscribe() (<-chan Snapshot[T], func()) {
	return w.field.Subscribe()
}

// Stats returns the poll timer's counters. All zero before Mount.
func (w *Widget[T]) Stats() PollStats {
	w.mu.Lock()
	s := w.scheduler
	w.mu.Unlock()

	if s == nil {
		return PollStats{}
	}
	st := s.Stats()
	return PollStats{
		Dispatched: st.Dispatched,
		Skipped:    st.Skipped,
		InFlight:   st.InFlight,
	}
}

// Mount activates the widget: it issues one fetch immediately and then one
// per interval until ctx is cancelled or [Widget.Unmount] is called.
//
// Mount is non-blocking. Calling it more than once is a no-op, and a widget
// that has been unmounted cannot be mounted again.
func (w *Widget[T]) Mount(ctx context.Context) {
	w.mu.Lock()
	if w.scheduler != nil || w.unmounted {
		w.mu.Unlock()
		return
	}
	info := poller.JobInfo{
		Name:        w.name,
		Interval:    w.interval,
		SkipOverlap: w.skipOverlap,
		Clock:       w.clock,
	}
	w.scheduler = poller.NewScheduler(info, func(ctx context.Context) {
		_ = w.FetchAndUpdate(ctx)
	}, w.logger)
	s := w.scheduler
	w.mu.Unlock()

	w.logger.Debug("widget mounted", "widget", w.name, "url", w.url, "interval", w.interval.String())
	s.Start(ctx)
}

// Unmount tears the widget down: the timer stops and every in-flight request
// is cancelled. Unmount blocks until outstanding polls have returned.
//
// The last snapshot stays readable. Unmount is idempotent and safe to call
// before Mount.
func (w *Widget[T]) Unmount() {
	w.mu.Lock()
	w.unmounted = true
	s := w.scheduler
	w.mu.Unlock()

	if s != nil {
		s.Stop()
	}
	w.client.Close()
}

// FetchAndUpdate issues one GET to the widget's endpoint and, if a response
// completes, decodes its body and replaces the items with it.
//
// The HTTP status code is not checked. A body that does not decode into T
// returns an error wrapping [ErrMalformedBody]; transport failures return the
// transport error. In both cases the items are left unchanged.
//
// Every outcome is reported to callbacks, except polls abandoned because ctx
// was cancelled.
func (w *Widget[T]) FetchAndUpdate(ctx context.Context) error {
	resp := w.client.Fetch(ctx, w.url, w.timeout)

	err := resp.Error
	if err == nil {
		err = w.apply(resp.Body)
	}

	if ctx.Err() != nil {
		w.logger.Debug("poll abandoned", "widget", w.name, "url", w.url)
		return err
	}

	upd := w.newUpdate(resp, err)
	w.logPoll(upd, len(resp.Body))
	w.notify(upd)
	return err
}

// apply decodes body and overwrites the field.
func (w *Widget[T]) apply(body []byte) error {
	var items T
	if err := json.Unmarshal(body, &items); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	prev := w.field.Get()
	w.raw = append(json.RawMessage(nil), body...)
	w.field.Set(Snapshot[T]{
		Items:     items,
		State:     StateLoaded,
		Version:   prev.Version + 1,
		UpdatedAt: w.clock.Now(),
	})
	return nil
}

// newUpdate builds the per-poll report from the current field value.
func (w *Widget[T]) newUpdate(resp poller.Response, err error) Update {
	w.mu.Lock()
	raw := w.raw
	snap := w.field.Get()
	w.mu.Unlock()

	return Update{
		Widget:     w.name,
		URL:        w.url,
		Labels:     copyMap(w.labels),
		State:      snap.State,
		Items:      raw,
		Version:    snap.Version,
		UpdatedAt:  snap.UpdatedAt,
		Latency:    resp.Latency,
		CheckedAt:  w.clock.Now(),
		StatusCode: resp.StatusCode,
		Error:      err,
	}
}

// logPoll logs a poll outcome (DEBUG level for success to reduce noise).
func (w *Widget[T]) logPoll(upd Update, bodyBytes int) {
	logAttrs := []any{
		"widget", upd.Widget,
		"url", upd.URL,
		"status_code", upd.StatusCode,
		"latency_ms", upd.Latency.Milliseconds(),
		"version", upd.Version,
	}
	switch {
	case upd.Error == nil:
		w.logger.Debug("poll completed", logAttrs...)
	case errors.Is(upd.Error, ErrMalformedBody):
		w.logger.Warn("poll returned malformed body", append(logAttrs, "body_bytes", bodyBytes, "error", upd.Error.Error())...)
	default:
		w.logger.Warn("poll failed", append(logAttrs, "error", upd.Error.Error())...)
	}
}

// notify delivers an update to option callbacks and board observers.
func (w *Widget[T]) notify(upd Update) {
	w.mu.Lock()
	observers := append([]func(Update){}, w.observers...)
	w.mu.Unlock()

	for _, cb := range w.callbacks {
		invokeCallbackSafe(cb, upd, w.logger)
	}
	for _, fn := range observers {
		fn(upd)
	}
}

// observe registers an internal listener, used by Board.
func (w *Widget[T]) observe(fn func(Update)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.observers = append(w.observers, fn)
}

// rawSnapshot returns the current state in its type-independent form.
func (w *Widget[T]) rawSnapshot() store.Snapshot {
	w.mu.Lock()
	raw := w.raw
	snap := w.field.Get()
	w.mu.Unlock()

	out := store.Snapshot{
		Name:    w.name,
		URL:     w.url,
		Labels:  copyMap(w.labels),
		State:   snap.State.String(),
		Items:   raw,
		Version: snap.Version,
	}
	if !snap.UpdatedAt.IsZero() {
		at := snap.UpdatedAt
		out.UpdatedAt = &at
	}
	return out
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
