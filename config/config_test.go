package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse_MinimalConfig(t *testing.T) {
	yaml := `
base_url: http://fermentrack.local
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// check defaults applied
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if len(cfg.Widgets) != 2 {
		t.Fatalf("len(Widgets) = %d, want 2", len(cfg.Widgets))
	}
	if cfg.Widgets[0].Name != KindLCD || cfg.Widgets[0].Kind != KindLCD {
		t.Errorf("Widgets[0] = %+v, want lcd", cfg.Widgets[0])
	}
	if cfg.Widgets[1].Name != KindGravity || cfg.Widgets[1].Kind != KindGravity {
		t.Errorf("Widgets[1] = %+v, want gravity", cfg.Widgets[1])
	}
}

func TestParse_FullWidgetConfig(t *testing.T) {
	yaml := `
title: Garage Brewery
port: 9090
base_url: http://fermentrack.local:8000
timeout: 3s

widgets:
  - name: fridge-2
    kind: lcd
    device: 2
    interval: 2s
    timeout: 1s
    skip_overlap: true
    labels:
      site: garage
  - name: weather
    kind: raw
    url: https://example.com/api/weather.json
    interval: 1m
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Title != "Garage Brewery" {
		t.Errorf("Title = %q", cfg.Title)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.Timeout.Duration() != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", cfg.Timeout.Duration())
	}
	if len(cfg.Widgets) != 2 {
		t.Fatalf("len(Widgets) = %d, want 2", len(cfg.Widgets))
	}

	w := cfg.Widgets[0]
	if w.Name != "fridge-2" || w.Kind != KindLCD || w.Device != 2 {
		t.Errorf("Widgets[0] = %+v", w)
	}
	if w.Interval.Duration() != 2*time.Second {
		t.Errorf("Interval = %v, want 2s", w.Interval.Duration())
	}
	if w.Timeout.Duration() != time.Second {
		t.Errorf("Timeout = %v, want 1s", w.Timeout.Duration())
	}
	if !w.SkipOverlap {
		t.Error("SkipOverlap = false, want true")
	}
	if w.Labels["site"] != "garage" {
		t.Errorf("Labels = %v", w.Labels)
	}

	raw := cfg.Widgets[1]
	if raw.Kind != KindRaw || raw.URL != "https://example.com/api/weather.json" {
		t.Errorf("Widgets[1] = %+v", raw)
	}
	if raw.Interval.Duration() != time.Minute {
		t.Errorf("Interval = %v, want 1m", raw.Interval.Duration())
	}
}

func TestParseTOML(t *testing.T) {
	data := `
title = "Cellar"
base_url = "http://fermentrack.local"

[[widgets]]
kind = "gravity"
interval = "30s"

[[widgets]]
name = "tap-list"
path = "/taps.json"
interval = "5m"
[widgets.labels]
room = "bar"
`
	cfg, err := ParseTOML([]byte(data))
	if err != nil {
		t.Fatalf("ParseTOML() error = %v", err)
	}

	if cfg.Title != "Cellar" || cfg.Port != 8080 {
		t.Errorf("Title = %q, Port = %d", cfg.Title, cfg.Port)
	}
	if len(cfg.Widgets) != 2 {
		t.Fatalf("len(Widgets) = %d, want 2", len(cfg.Widgets))
	}
	if cfg.Widgets[0].Name != KindGravity || cfg.Widgets[0].Interval.Duration() != 30*time.Second {
		t.Errorf("Widgets[0] = %+v", cfg.Widgets[0])
	}
	taps := cfg.Widgets[1]
	if taps.Kind != KindRaw || taps.Path != "/taps.json" || taps.Labels["room"] != "bar" {
		t.Errorf("Widgets[1] = %+v", taps)
	}
}

func TestParseTOML_Errors(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantErrLike string
	}{
		{"syntax", `title = `, "failed to parse TOML"},
		{"unknown key", "base_url = \"http://f.local\"\npoll_interval = \"5s\"", "unknown TOML key"},
		{"bad duration", "base_url = \"http://f.local\"\ntimeout = \"soon\"", "failed to parse TOML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTOML([]byte(tt.data))
			if err == nil {
				t.Fatal("ParseTOML() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErrLike) {
				t.Errorf("ParseTOML() error = %q, want containing %q", err.Error(), tt.wantErrLike)
			}
		})
	}
}

func TestLoad_ChoosesFormatByExtension(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "board.yaml")
	if err := os.WriteFile(yamlPath, []byte("title: From YAML\nbase_url: http://f.local\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	tomlPath := filepath.Join(dir, "board.TOML")
	if err := os.WriteFile(tomlPath, []byte("title = \"From TOML\"\nbase_url = \"http://f.local\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(yamlPath)
	if err != nil {
		t.Fatalf("Load(yaml) error = %v", err)
	}
	if cfg.Title != "From YAML" {
		t.Errorf("Title = %q, want %q", cfg.Title, "From YAML")
	}

	cfg, err = Load(tomlPath)
	if err != nil {
		t.Fatalf("Load(toml) error = %v", err)
	}
	if cfg.Title != "From TOML" {
		t.Errorf("Title = %q, want %q", cfg.Title, "From TOML")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Load() error = %v, want read failure", err)
	}
}

func TestParse_EnvVarSubstitution(t *testing.T) {
	t.Setenv("FERMENTRACK_URL", "http://10.0.0.5:8000")
	t.Setenv("BREW_SITE", "garage")

	yaml := `
base_url: ${FERMENTRACK_URL}
widgets:
  - kind: lcd
    labels:
      site: ${BREW_SITE}
  - name: weather
    url: ${FERMENTRACK_URL}/weather.json
    interval: 1m
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.BaseURL != "http://10.0.0.5:8000" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Widgets[0].Labels["site"] != "garage" {
		t.Errorf("Labels[site] = %q, want garage", cfg.Widgets[0].Labels["site"])
	}
	if cfg.Widgets[1].URL != "http://10.0.0.5:8000/weather.json" {
		t.Errorf("URL = %q", cfg.Widgets[1].URL)
	}
}

func TestParse_EnvVarDefault(t *testing.T) {
	yaml := `base_url: ${UNSET_FERMENTRACK_URL:-http://localhost:8000}`

	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.BaseURL != "http://localhost:8000" {
		t.Errorf("BaseURL = %q, want default", cfg.BaseURL)
	}
}

func TestParse_EnvVarMissing(t *testing.T) {
	yaml := `base_url: ${MISSING_FERMENTRACK_URL}`

	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() expected error for missing env var, got nil")
	}
	if !strings.Contains(err.Error(), "MISSING_FERMENTRACK_URL") {
		t.Errorf("error = %q, want variable name", err.Error())
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		wantErrLike string
	}{
		{
			name:        "defaults without base_url",
			yaml:        `port: 8080`,
			wantErrLike: "url is required when base_url is not set",
		},
		{
			name:        "port out of range",
			yaml:        "port: 70000\nbase_url: http://f.local",
			wantErrLike: "port must be between 1 and 65535",
		},
		{
			name:        "negative port",
			yaml:        "port: -1\nbase_url: http://f.local",
			wantErrLike: "port must be between 1 and 65535",
		},
		{
			name:        "base_url not http",
			yaml:        `base_url: ftp://f.local`,
			wantErrLike: "scheme must be http or https",
		},
		{
			name:        "base_url without host",
			yaml:        `base_url: "http://"`,
			wantErrLike: "must have a host",
		},
		{
			name: "unknown kind",
			yaml: `
base_url: http://f.local
widgets:
  - name: x
    kind: thermometer
`,
			wantErrLike: "kind must be lcd, gravity or raw",
		},
		{
			name: "raw without name",
			yaml: `
widgets:
  - url: https://example.com
    interval: 5s
`,
			wantErrLike: "name is required",
		},
		{
			name: "duplicate names",
			yaml: `
base_url: http://f.local
widgets:
  - kind: lcd
  - name: lcd
    kind: gravity
`,
			wantErrLike: "duplicate name",
		},
		{
			name: "raw without url or path",
			yaml: `
base_url: http://f.local
widgets:
  - name: x
    interval: 5s
`,
			wantErrLike: "need a url or a path",
		},
		{
			name: "raw without interval",
			yaml: `
widgets:
  - name: x
    url: https://example.com
`,
			wantErrLike: "interval is required",
		},
		{
			name: "device on raw widget",
			yaml: `
widgets:
  - name: x
    url: https://example.com
    interval: 5s
    device: 3
`,
			wantErrLike: "device only applies",
		},
		{
			name: "negative device",
			yaml: `
base_url: http://f.local
widgets:
  - kind: gravity
    device: -3
`,
			wantErrLike: "device must be a positive ID",
		},
		{
			name: "widget url not http",
			yaml: `
widgets:
  - name: x
    url: file:///etc/passwd
    interval: 5s
`,
			wantErrLike: "scheme must be http or https",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErrLike) {
				t.Errorf("Parse() error = %q, want containing %q", err.Error(), tt.wantErrLike)
			}
		})
	}
}

func TestParse_IntervalValidation(t *testing.T) {
	tests := []struct {
		name     string
		interval string
		wantErr  string
	}{
		{"too short", "500ms", "interval must be at least 1s"},
		{"too long", "2h", "interval must not exceed 1h0m0s"},
		{"minimum", "1s", ""},
		{"maximum", "1h", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yaml := "base_url: http://f.local\nwidgets:\n  - kind: lcd\n    interval: " + tt.interval + "\n"
			_, err := Parse([]byte(yaml))
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Parse() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_TimeoutValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"negative top-level", "base_url: http://f.local\ntimeout: -1s"},
		{"negative widget", "base_url: http://f.local\nwidgets:\n  - kind: lcd\n    timeout: -5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), "timeout cannot be negative") {
				t.Errorf("Parse() error = %v, want negative timeout error", err)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("widgets: [unclosed"))
	if err == nil || !strings.Contains(err.Error(), "failed to parse YAML") {
		t.Errorf("Parse() error = %v, want YAML parse error", err)
	}
}

func TestParse_InvalidDuration(t *testing.T) {
	_, err := Parse([]byte("base_url: http://f.local\ntimeout: forever"))
	if err == nil || !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("Parse() error = %v, want invalid duration", err)
	}
}

func TestDuration_Unmarshal(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"5s", 5 * time.Second, false},
		{"1m30s", 90 * time.Second, false},
		{"250ms", 250 * time.Millisecond, false},
		{"5", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Errorf("UnmarshalText(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("UnmarshalText(%q) error = %v", tt.input, err)
			}
			if d.Duration() != tt.want {
				t.Errorf("Duration() = %v, want %v", d.Duration(), tt.want)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "value")
	t.Setenv("EMPTY_VAR", "")

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"no vars", "plain text", "plain text", false},
		{"simple var", "${TEST_VAR}", "value", false},
		{"var in text", "http://${TEST_VAR}:8000", "http://value:8000", false},
		{"multiple vars", "${TEST_VAR}-${TEST_VAR}", "value-value", false},
		{"default ignored when set", "${TEST_VAR:-default}", "value", false},
		{"default used when unset", "${UNSET:-default}", "default", false},
		{"empty default", "${UNSET:-}", "", false},
		{"set but empty", "${EMPTY_VAR:-fallback}", "", false},
		{"missing required", "${MISSING}", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandEnvVars(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expandEnvVars() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expandEnvVars() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandEnvVars() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("POLLWIDGET_TEST_URL=http://from-dotenv:8000\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// registers cleanup that restores the unset state
	t.Setenv("POLLWIDGET_TEST_URL", "")
	os.Unsetenv("POLLWIDGET_TEST_URL")

	if err := LoadEnv(filepath.Join(dir, "missing.env"), envPath); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	cfg, err := Parse([]byte(`base_url: ${POLLWIDGET_TEST_URL}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.BaseURL != "http://from-dotenv:8000" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
}

func TestLoadEnv_ExistingVarWins(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("POLLWIDGET_TEST_SITE=dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("POLLWIDGET_TEST_SITE", "shell")

	if err := LoadEnv(envPath); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if got := os.Getenv("POLLWIDGET_TEST_SITE"); got != "shell" {
		t.Errorf("POLLWIDGET_TEST_SITE = %q, want shell", got)
	}
}

func TestDefault(t *testing.T) {
	t.Setenv("FERMENTRACK_TEST_HOST", "brew.local")

	cfg, err := Default("http://${FERMENTRACK_TEST_HOST}:8000")
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if cfg.BaseURL != "http://brew.local:8000" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Port != 8080 || len(cfg.Widgets) != 2 {
		t.Errorf("Port = %d, len(Widgets) = %d", cfg.Port, len(cfg.Widgets))
	}

	if _, err := Default(""); err == nil {
		t.Error("Default(\"\") expected error, got nil")
	}
}

func TestLoad_ExampleConfigsAgree(t *testing.T) {
	t.Setenv("FERMENTRACK_URL", "http://fermentrack.local")

	fromYAML, err := Load(filepath.Join("..", "example", "board.yaml"))
	if err != nil {
		t.Fatalf("Load(board.yaml) error = %v", err)
	}
	fromTOML, err := Load(filepath.Join("..", "example", "board.toml"))
	if err != nil {
		t.Fatalf("Load(board.toml) error = %v", err)
	}

	if fromYAML.Title != fromTOML.Title || fromYAML.BaseURL != fromTOML.BaseURL || fromYAML.Timeout != fromTOML.Timeout {
		t.Errorf("top-level fields differ: %+v vs %+v", fromYAML, fromTOML)
	}
	if len(fromYAML.Widgets) != 3 || len(fromTOML.Widgets) != 3 {
		t.Fatalf("widget counts = %d, %d, want 3", len(fromYAML.Widgets), len(fromTOML.Widgets))
	}
	for i := range fromYAML.Widgets {
		y, tm := fromYAML.Widgets[i], fromTOML.Widgets[i]
		if y.Name != tm.Name || y.Kind != tm.Kind || y.Device != tm.Device ||
			y.Interval != tm.Interval || y.SkipOverlap != tm.SkipOverlap || len(y.Labels) != len(tm.Labels) {
			t.Errorf("widgets[%d] differ: %+v vs %+v", i, y, tm)
		}
	}
}
