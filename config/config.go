// Package config provides file configuration for the widget board.
//
// This package enables running the board as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
// Files ending in .toml are parsed as TOML; anything else as YAML.
//
// Example configuration:
//
//	title: Garage Brewery
//	port: 8080
//	base_url: ${FERMENTRACK_URL:-http://localhost:8000}
//
//	widgets:
//	  - kind: lcd
//	  - kind: gravity
//	    interval: 30s
//	  - name: fridge-2
//	    kind: lcd
//	    device: 2
//	  - name: weather
//	    kind: raw
//	    url: https://example.com/api/weather.json
//	    interval: 1m
//
// When no widgets are listed, the LCD and gravity widgets are configured
// with their default cadences.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort = 8080

	// minInterval prevents accidental hammering of a brewery server.
	minInterval = 1 * time.Second
	maxInterval = 1 * time.Hour
)

// Widget kinds.
const (
	KindLCD     = "lcd"
	KindGravity = "gravity"
	KindRaw     = "raw"
)

// Config is the root configuration structure.
//
// Use [Load], [Parse] or [ParseTOML] to create a Config.
type Config struct {
	// Title is the dashboard title. Defaults to "Fermentrack" at render time.
	Title string `yaml:"title" toml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port" toml:"port"`

	// BaseURL is the Fermentrack installation that lcd and gravity widgets
	// poll. Supports ${VAR} and ${VAR:-default} substitution.
	BaseURL string `yaml:"base_url" toml:"base_url"`

	// Timeout applies to every widget that does not set its own.
	// Zero means requests never time out.
	Timeout Duration `yaml:"timeout" toml:"timeout"`

	// Widgets lists the widgets to mount.
	Widgets []WidgetConfig `yaml:"widgets" toml:"widgets"`
}

// WidgetConfig defines a single polled widget.
type WidgetConfig struct {
	// Name identifies the widget. Defaults to the kind.
	Name string `yaml:"name" toml:"name"`

	// Kind selects the record shape: "lcd", "gravity" or "raw".
	// Defaults to "raw".
	Kind string `yaml:"kind" toml:"kind"`

	// URL is an absolute endpoint. When set it overrides BaseURL and Path.
	URL string `yaml:"url" toml:"url"`

	// Path is resolved against BaseURL. Defaults by kind.
	Path string `yaml:"path" toml:"path"`

	// Device restricts lcd and gravity widgets to one device ID.
	Device int `yaml:"device" toml:"device"`

	// Interval is the polling cadence. Defaults by kind; required for raw.
	Interval Duration `yaml:"interval" toml:"interval"`

	// Timeout bounds each request. Defaults to the top-level timeout.
	Timeout Duration `yaml:"timeout" toml:"timeout"`

	// SkipOverlap skips a tick while the previous request is outstanding.
	SkipOverlap bool `yaml:"skip_overlap" toml:"skip_overlap"`

	// Labels are metadata key-value pairs. "kind" is always set to Kind,
	// replacing any "kind" entry given here.
	Labels map[string]string `yaml:"labels" toml:"labels"`
}

// Duration wraps time.Duration for YAML and TOML unmarshalling.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler, used by the TOML decoder.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		sub := envVarPattern.FindStringSubmatch(match)
		name, hasDefault, def := sub[1], sub[2] != "", sub[3]

		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		if hasDefault {
			return def
		}
		firstErr = fmt.Errorf("environment variable %q is not set", name)
		return match
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a configuration file, choosing the format by
// extension.
//
// Environment variables in the file are expanded after parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseTOML(data)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseTOML parses TOML configuration data.
func ParseTOML(data []byte) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown TOML key %q", undecoded[0].String())
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given: the LCD
// and gravity widgets of the Fermentrack installation at baseURL.
func Default(baseURL string) (*Config, error) {
	cfg := &Config{BaseURL: baseURL}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finish applies defaults, expands environment variables and validates.
func (c *Config) finish() error {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if len(c.Widgets) == 0 {
		c.Widgets = []WidgetConfig{{Kind: KindLCD}, {Kind: KindGravity}}
	}
	return c.expandAndValidate()
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.Timeout.Duration() < 0 {
		return fmt.Errorf("timeout cannot be negative, got %s", c.Timeout.Duration())
	}

	if c.BaseURL != "" {
		expanded, err := expandEnvVars(c.BaseURL)
		if err != nil {
			return fmt.Errorf("base_url: %w", err)
		}
		if err := validateHTTPURL(expanded); err != nil {
			return fmt.Errorf("base_url: %w", err)
		}
		c.BaseURL = expanded
	}

	seen := make(map[string]int, len(c.Widgets))
	for i := range c.Widgets {
		w := &c.Widgets[i]

		if w.Kind == "" {
			w.Kind = KindRaw
		}
		switch w.Kind {
		case KindLCD, KindGravity, KindRaw:
		default:
			return fmt.Errorf("widgets[%d]: kind must be lcd, gravity or raw, got %q", i, w.Kind)
		}

		if w.Name == "" {
			if w.Kind == KindRaw {
				return fmt.Errorf("widgets[%d]: name is required for raw widgets", i)
			}
			w.Name = w.Kind
		}
		if j, dup := seen[w.Name]; dup {
			return fmt.Errorf("widgets[%d] (%s): duplicate name, also used by widgets[%d]", i, w.Name, j)
		}
		seen[w.Name] = i

		if err := c.validateWidget(w); err != nil {
			return fmt.Errorf("widgets[%d] (%s): %w", i, w.Name, err)
		}
	}

	return nil
}

func (c *Config) validateWidget(w *WidgetConfig) error {
	if w.URL != "" {
		expanded, err := expandEnvVars(w.URL)
		if err != nil {
			return fmt.Errorf("url: %w", err)
		}
		if err := validateHTTPURL(expanded); err != nil {
			return fmt.Errorf("url: %w", err)
		}
		w.URL = expanded
	} else {
		if c.BaseURL == "" {
			return fmt.Errorf("url is required when base_url is not set")
		}
		if w.Kind == KindRaw && w.Path == "" {
			return fmt.Errorf("raw widgets need a url or a path")
		}
	}

	if w.Device < 0 {
		return fmt.Errorf("device must be a positive ID, got %d", w.Device)
	}
	if w.Device != 0 && w.Kind == KindRaw {
		return fmt.Errorf("device only applies to lcd and gravity widgets")
	}

	if w.Interval == 0 && w.Kind == KindRaw {
		return fmt.Errorf("interval is required for raw widgets")
	}
	if w.Interval != 0 {
		if w.Interval.Duration() < minInterval {
			return fmt.Errorf("interval must be at least %s, got %s", minInterval, w.Interval.Duration())
		}
		if w.Interval.Duration() > maxInterval {
			return fmt.Errorf("interval must not exceed %s, got %s", maxInterval, w.Interval.Duration())
		}
	}

	if w.Timeout.Duration() < 0 {
		return fmt.Errorf("timeout cannot be negative, got %s", w.Timeout.Duration())
	}

	for k, v := range w.Labels {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("labels[%s]: %w", k, err)
		}
		w.Labels[k] = expanded
	}

	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url must have a host")
	}
	return nil
}
