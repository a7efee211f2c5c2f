package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jpalmerr/pollwidget"
	"github.com/jpalmerr/pollwidget/fermentrack"
)

// BuildWidgets converts parsed configuration into widgets ready to mount.
//
// lcd and gravity widgets decode into the fermentrack record types; raw
// widgets keep the response as unparsed JSON.
func BuildWidgets(cfg *Config, logger *slog.Logger) ([]pollwidget.Source, error) {
	widgets := make([]pollwidget.Source, 0, len(cfg.Widgets))

	for _, wc := range cfg.Widgets {
		w, err := buildWidget(cfg, wc, logger)
		if err != nil {
			return nil, fmt.Errorf("widget %s: %w", wc.Name, err)
		}
		widgets = append(widgets, w)
	}

	return widgets, nil
}

func buildWidget(cfg *Config, wc WidgetConfig, logger *slog.Logger) (pollwidget.Source, error) {
	endpoint, err := widgetEndpoint(cfg, wc)
	if err != nil {
		return nil, err
	}
	opts := widgetOptions(cfg, wc, logger)
	interval := wc.Interval.Duration()

	switch wc.Kind {
	case KindLCD:
		if interval == 0 {
			interval = fermentrack.LCDInterval
		}
		return newSource[[]fermentrack.LCDStatus](wc.Name, endpoint, interval, opts)
	case KindGravity:
		if interval == 0 {
			interval = fermentrack.GravityInterval
		}
		return newSource[[]fermentrack.GravitySensor](wc.Name, endpoint, interval, opts)
	default:
		return newSource[json.RawMessage](wc.Name, endpoint, interval, opts)
	}
}

func newSource[T any](name, endpoint string, interval time.Duration, opts []pollwidget.Option) (pollwidget.Source, error) {
	w, err := pollwidget.NewWidget[T](name, endpoint, interval, opts...)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// widgetEndpoint picks the URL to poll: an explicit url, then path, then
// the kind's default path (narrowed to one device when set).
func widgetEndpoint(cfg *Config, wc WidgetConfig) (string, error) {
	if wc.URL != "" {
		return wc.URL, nil
	}

	path := wc.Path
	if path == "" {
		switch {
		case wc.Kind == KindLCD && wc.Device > 0:
			path = fermentrack.LCDDevicePath(wc.Device)
		case wc.Kind == KindLCD:
			path = fermentrack.LCDPath
		case wc.Kind == KindGravity && wc.Device > 0:
			path = fermentrack.GravityDevicePath(wc.Device)
		case wc.Kind == KindGravity:
			path = fermentrack.GravityPath
		}
	}
	return fermentrack.Endpoint(cfg.BaseURL, path)
}

func widgetOptions(cfg *Config, wc WidgetConfig, logger *slog.Logger) []pollwidget.Option {
	var opts []pollwidget.Option

	labels := make(map[string]string, len(wc.Labels)+1)
	for k, v := range wc.Labels {
		labels[k] = v
	}
	// renderers pick a layout from kind, so the configured kind always wins
	labels[fermentrack.KindLabel] = wc.Kind
	opts = append(opts, pollwidget.WithLabels(mapToKeyValuePairs(labels)...))

	timeout := wc.Timeout.Duration()
	if timeout == 0 {
		timeout = cfg.Timeout.Duration()
	}
	if timeout > 0 {
		opts = append(opts, pollwidget.WithTimeout(timeout))
	}

	if wc.SkipOverlap {
		opts = append(opts, pollwidget.WithSkipOverlap())
	}
	if logger != nil {
		opts = append(opts, pollwidget.WithLogger(logger))
	}

	return opts
}

// mapToKeyValuePairs converts a map to a slice of key-value pairs sorted by key.
func mapToKeyValuePairs(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
