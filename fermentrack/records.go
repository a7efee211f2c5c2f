package fermentrack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"
)

// LCDStatus is one temperature controller's virtual LCD as reported by
// GET /api/lcd/.
type LCDStatus struct {
	DeviceName   string   `json:"device_name"`
	LCDData      []string `json:"lcd_data"`
	DeviceURL    string   `json:"device_url"`
	BacklightURL string   `json:"backlight_url"`
	ModalName    string   `json:"modal_name"`
}

// Lines returns the display lines with HTML entities such as "&deg;"
// decoded. The controller normally reports four.
func (s LCDStatus) Lines() []string {
	lines := make([]string, len(s.LCDData))
	for i, l := range s.LCDData {
		lines[i] = html.UnescapeString(l)
	}
	return lines
}

// BoundDevice is the temperature controller a gravity sensor is assigned to.
type BoundDevice struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GravitySensor is one hydrometer's latest reading as reported by
// GET /api/gravity/.
//
// Sensors without a recent reading report CurrentGravity "-.---", a null
// CurrentTemp and a TempString of "--.-&deg;".
type GravitySensor struct {
	DeviceName     string      `json:"device_name"`
	CurrentGravity string      `json:"current_gravity"`
	CurrentTemp    Decimal     `json:"current_temp"`
	TempFormat     string      `json:"temp_format"`
	TempString     string      `json:"temp_string"`
	DeviceURL      string      `json:"device_url"`
	ManageText     string      `json:"manage_text"`
	ManageURL      string      `json:"manage_url"`
	BoundDevice    BoundDevice `json:"bound_device"`
	ModalName      string      `json:"modal_name"`
}

// Temperature returns TempString with HTML entities decoded, e.g. "18.5° C".
func (g GravitySensor) Temperature() string {
	return html.UnescapeString(g.TempString)
}

// Bound reports whether the sensor is assigned to a temperature controller.
func (g GravitySensor) Bound() bool {
	return g.BoundDevice.ID != 0 || g.BoundDevice.Name != ""
}

// Decimal is a nullable decimal reading. Fermentrack serializes its decimal
// columns as JSON strings ("18.5000000000"); plain numbers are accepted too.
type Decimal struct {
	text  string
	valid bool
}

// UnmarshalJSON accepts a JSON string, a number or null. An empty string
// decodes as null.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = Decimal{}
		return nil
	}

	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		text = strings.TrimSpace(text)
	}
	if text == "" {
		*d = Decimal{}
		return nil
	}
	if _, err := strconv.ParseFloat(text, 64); err != nil {
		return fmt.Errorf("invalid decimal %q", text)
	}

	*d = Decimal{text: text, valid: true}
	return nil
}

// MarshalJSON writes the decimal back as a string, or null.
func (d Decimal) MarshalJSON() ([]byte, error) {
	if !d.valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.text)
}

// Valid reports whether a reading is present.
func (d Decimal) Valid() bool {
	return d.valid
}

// Float64 returns the reading, or 0 when it is null.
func (d Decimal) Float64() float64 {
	if !d.valid {
		return 0
	}
	f, _ := strconv.ParseFloat(d.text, 64)
	return f
}

// String returns the reading as sent by the backend, or "" when null.
func (d Decimal) String() string {
	return d.text
}
