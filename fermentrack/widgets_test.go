package fermentrack

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jpalmerr/pollwidget"
)

const lcdBody = `[
    {
        "device_name": "Fermentation Fridge",
        "lcd_data": ["Mode   Beer Constant", "Beer   18.0&deg;C  18.0&deg;C", "Fridge 16.2&deg;C  15.0&deg;C", "Cooling    00m12"],
        "device_url": "/devices/1/",
        "backlight_url": "/devices/1/backlight/toggle/",
        "modal_name": "#tempControl1"
    }
]`

// gravityBody matches the backend's wire format: decimal columns are
// strings and unbound sensors carry an empty bound_device object.
const gravityBody = `[
    {
        "device_name": "Tilt Red",
        "current_gravity": "1.048",
        "current_temp": "18.5000000000",
        "temp_format": "C",
        "temp_string": "18.5000000000&deg; C",
        "device_url": "/gravity/sensor/2/",
        "manage_text": "Manage Device",
        "manage_url": "/gravity/sensor/2/",
        "bound_device": {"id": 1, "name": "Fermentation Fridge"},
        "modal_name": "#gravSensor2"
    },
    {
        "device_name": "Manual",
        "current_gravity": "-.---",
        "current_temp": null,
        "temp_format": "F",
        "temp_string": "--.-&deg;",
        "device_url": "/gravity/sensor/3/",
        "manage_text": "Add Reading",
        "manage_url": "/gravity/sensor/3/add_point/",
        "bound_device": {},
        "modal_name": "#gravSensor3"
    }
]`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fermentrackServer mimics the two list endpoints of a Fermentrack install.
func fermentrackServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/lcd/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected Authorization header")
		}
		_, _ = io.WriteString(w, lcdBody)
	})
	mux.HandleFunc("/api/gravity/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, gravityBody)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestNewLCDWidget(t *testing.T) {
	ts := fermentrackServer(t)

	w, err := NewLCDWidget(ts.URL, pollwidget.WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("NewLCDWidget() error = %v", err)
	}
	defer w.Unmount()

	if w.URL() != ts.URL+"/api/lcd/" {
		t.Errorf("URL() = %q, want %q", w.URL(), ts.URL+"/api/lcd/")
	}
	if w.Interval() != LCDInterval {
		t.Errorf("Interval() = %v, want %v", w.Interval(), LCDInterval)
	}
	if w.Labels()[KindLabel] != KindLCD {
		t.Errorf("Labels()[kind] = %q, want %q", w.Labels()[KindLabel], KindLCD)
	}

	if err := w.FetchAndUpdate(context.Background()); err != nil {
		t.Fatalf("FetchAndUpdate() error = %v", err)
	}

	items := w.Items()
	if len(items) != 1 {
		t.Fatalf("len(Items()) = %d, want 1", len(items))
	}
	lcd := items[0]
	if lcd.DeviceName != "Fermentation Fridge" || lcd.ModalName != "#tempControl1" {
		t.Errorf("LCDStatus = %+v", lcd)
	}

	lines := lcd.Lines()
	if len(lines) != 4 {
		t.Fatalf("len(Lines()) = %d, want 4", len(lines))
	}
	if lines[1] != "Beer   18.0°C  18.0°C" {
		t.Errorf("Lines()[1] = %q", lines[1])
	}
	// raw data is left untouched
	if lcd.LCDData[1] != "Beer   18.0&deg;C  18.0&deg;C" {
		t.Errorf("LCDData[1] = %q", lcd.LCDData[1])
	}
}

func TestNewGravityWidget(t *testing.T) {
	ts := fermentrackServer(t)

	w, err := NewGravityWidget(ts.URL+"/", pollwidget.WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("NewGravityWidget() error = %v", err)
	}
	defer w.Unmount()

	if w.URL() != ts.URL+"/api/gravity/" {
		t.Errorf("URL() = %q", w.URL())
	}
	if w.Interval() != GravityInterval {
		t.Errorf("Interval() = %v, want %v", w.Interval(), GravityInterval)
	}
	if w.Name() != KindGravity {
		t.Errorf("Name() = %q, want %q", w.Name(), KindGravity)
	}

	if err := w.FetchAndUpdate(context.Background()); err != nil {
		t.Fatalf("FetchAndUpdate() error = %v", err)
	}
	if w.State() != pollwidget.StateLoaded {
		t.Fatalf("State() = %q, want %q", w.State(), pollwidget.StateLoaded)
	}

	items := w.Items()
	if len(items) != 2 {
		t.Fatalf("len(Items()) = %d, want 2", len(items))
	}

	tilt := items[0]
	if tilt.CurrentGravity != "1.048" {
		t.Errorf("CurrentGravity = %q", tilt.CurrentGravity)
	}
	if !tilt.CurrentTemp.Valid() || tilt.CurrentTemp.Float64() != 18.5 {
		t.Errorf("CurrentTemp = %q, want 18.5", tilt.CurrentTemp)
	}
	if tilt.CurrentTemp.String() != "18.5000000000" {
		t.Errorf("CurrentTemp.String() = %q", tilt.CurrentTemp.String())
	}
	if tilt.Temperature() != "18.5000000000° C" {
		t.Errorf("Temperature() = %q", tilt.Temperature())
	}
	if !tilt.Bound() || tilt.BoundDevice.Name != "Fermentation Fridge" {
		t.Errorf("BoundDevice = %+v", tilt.BoundDevice)
	}

	manual := items[1]
	if manual.CurrentTemp.Valid() {
		t.Errorf("CurrentTemp = %q, want null", manual.CurrentTemp)
	}
	if manual.Temperature() != "--.-°" {
		t.Errorf("Temperature() = %q", manual.Temperature())
	}
	if manual.Bound() {
		t.Error("Bound() = true for empty bound_device")
	}
}

func TestDecimal_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		want      float64
		wantErr   bool
	}{
		{"string decimal", `"18.5000000000"`, true, 18.5, false},
		{"negative string", `"-1.25"`, true, -1.25, false},
		{"number", `18.5`, true, 18.5, false},
		{"integer", `20`, true, 20, false},
		{"null", `null`, false, 0, false},
		{"empty string", `""`, false, 0, false},
		{"not a number", `"warm"`, false, 0, true},
		{"bool", `true`, false, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got struct {
				Temp Decimal `json:"current_temp"`
			}
			err := json.Unmarshal([]byte(`{"current_temp":`+tt.input+`}`), &got)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Unmarshal(%s) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", tt.input, err)
			}
			if got.Temp.Valid() != tt.wantValid || got.Temp.Float64() != tt.want {
				t.Errorf("Unmarshal(%s) = (valid=%v, %v), want (valid=%v, %v)",
					tt.input, got.Temp.Valid(), got.Temp.Float64(), tt.wantValid, tt.want)
			}
		})
	}
}

func TestDecimal_MissingFieldIsNull(t *testing.T) {
	var sensors []GravitySensor
	if err := json.Unmarshal([]byte(`[{"device_name":"Manual"}]`), &sensors); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if sensors[0].CurrentTemp.Valid() {
		t.Error("absent current_temp decoded as valid")
	}
}

func TestDecimal_MarshalJSON(t *testing.T) {
	var d Decimal
	if err := json.Unmarshal([]byte(`"18.5000000000"`), &d); err != nil {
		t.Fatal(err)
	}
	out, err := json.Marshal(struct {
		A Decimal `json:"a"`
		B Decimal `json:"b"`
	}{A: d})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != `{"a":"18.5000000000","b":null}` {
		t.Errorf("Marshal() = %s", out)
	}
}

func TestWidgets_OptionsApplied(t *testing.T) {
	w, err := NewLCDWidget("http://fermentrack.local", pollwidget.WithLabels("site", "garage"))
	if err != nil {
		t.Fatalf("NewLCDWidget() error = %v", err)
	}

	labels := w.Labels()
	if labels["site"] != "garage" || labels[KindLabel] != KindLCD {
		t.Errorf("Labels() = %v", labels)
	}
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"http://fermentrack.local", LCDPath, "http://fermentrack.local/api/lcd/"},
		{"http://fermentrack.local/", GravityPath, "http://fermentrack.local/api/gravity/"},
		{"https://example.com/brew", LCDPath, "https://example.com/brew/api/lcd/"},
		{"https://example.com/brew/", GravityDevicePath(3), "https://example.com/brew/api/gravity/3/"},
		{"http://10.0.0.5:8000?x=1", LCDDevicePath(7), "http://10.0.0.5:8000/api/lcd/7"},
	}

	for _, tt := range tests {
		got, err := Endpoint(tt.base, tt.path)
		if err != nil {
			t.Errorf("Endpoint(%q, %q) error = %v", tt.base, tt.path, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Endpoint(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}

func TestEndpoint_Invalid(t *testing.T) {
	for _, base := range []string{"", "fermentrack.local", "/api", "http://%zz"} {
		if _, err := Endpoint(base, LCDPath); err == nil {
			t.Errorf("Endpoint(%q) expected error, got nil", base)
		}
	}

	if _, err := NewGravityWidget("not a url"); err == nil {
		t.Error("NewGravityWidget() expected error for relative base URL")
	}
}
