// Package mockfermentrack serves a fake Fermentrack API for demos and tests.
//
// One temperature controller and two gravity sensors are simulated. Beer
// temperature wanders around its setpoint and the Tilt's gravity falls from
// 1.050 towards 1.010 as the ferment progresses.
package mockfermentrack

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"
)

const (
	originalGravity = 1.050
	finalGravity    = 1.010

	// fermentHalfLife is how long the simulated ferment takes to cover half
	// the remaining gravity drop.
	fermentHalfLife = 10 * time.Minute

	beerSetpoint   = 18.0
	fridgeSetpoint = 15.0
)

type lcdRecord struct {
	DeviceName   string   `json:"device_name"`
	LCDData      []string `json:"lcd_data"`
	DeviceURL    string   `json:"device_url"`
	BacklightURL string   `json:"backlight_url"`
	ModalName    string   `json:"modal_name"`
}

type boundDevice struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type gravityRecord struct {
	DeviceName     string      `json:"device_name"`
	CurrentGravity string      `json:"current_gravity"`
	CurrentTemp    *string     `json:"current_temp"`
	TempFormat     string      `json:"temp_format"`
	TempString     string      `json:"temp_string"`
	DeviceURL      string      `json:"device_url"`
	ManageText     string      `json:"manage_text"`
	ManageURL      string      `json:"manage_url"`
	BoundDevice    boundDevice `json:"bound_device"`
	ModalName      string      `json:"modal_name"`
}

// Server simulates a Fermentrack installation.
type Server struct {
	start  time.Time
	now    func() time.Time
	logger *slog.Logger
}

// New returns a Server whose ferment starts now.
func New(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{start: time.Now(), now: time.Now, logger: logger}
}

// Handler returns the API routes:
//
//	GET /api/lcd/            every controller's LCD
//	GET /api/lcd/{id}        one controller's LCD
//	GET /api/gravity/        every gravity sensor
//	GET /api/gravity/{id}/   one gravity sensor
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/lcd/{$}", s.handleLCDs)
	mux.HandleFunc("GET /api/lcd/{id}", s.handleLCD)
	mux.HandleFunc("GET /api/gravity/{$}", s.handleGravitySensors)
	mux.HandleFunc("GET /api/gravity/{id}/{$}", s.handleGravitySensor)
	return mux
}

func (s *Server) handleLCDs(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.lcds())
}

func (s *Server) handleLCD(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id != 1 {
		http.Error(w, "Device not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, s.lcds())
}

func (s *Server) handleGravitySensors(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.gravitySensors())
}

func (s *Server) handleGravitySensor(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.PathValue("id"))

	// unknown sensors yield an empty list rather than 404
	matched := []gravityRecord{}
	for i, rec := range s.gravitySensors() {
		if i+2 == id {
			matched = append(matched, rec)
		}
	}
	s.writeJSON(w, matched)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}

// elapsed is the simulated ferment age.
func (s *Server) elapsed() time.Duration {
	return s.now().Sub(s.start)
}

// beerTemp oscillates half a degree around the setpoint with a five minute
// period.
func (s *Server) beerTemp() float64 {
	phase := 2 * math.Pi * s.elapsed().Minutes() / 5
	return beerSetpoint + 0.5*math.Sin(phase)
}

// gravity decays exponentially from originalGravity to finalGravity.
func (s *Server) gravity() float64 {
	halves := s.elapsed().Seconds() / fermentHalfLife.Seconds()
	return finalGravity + (originalGravity-finalGravity)*math.Pow(0.5, halves)
}

func (s *Server) lcds() []lcdRecord {
	beer := s.beerTemp()
	state := "Idling"
	if beer > beerSetpoint {
		state = "Cooling"
	}
	mins := int(s.elapsed().Minutes())

	return []lcdRecord{{
		DeviceName: "Fermentation Fridge",
		LCDData: []string{
			"Mode   Beer Constant",
			fmt.Sprintf("Beer   %.1f&deg;C  %.1f&deg;C", beer, beerSetpoint),
			fmt.Sprintf("Fridge %.1f&deg;C  %.1f&deg;C", fridgeSetpoint+0.3, fridgeSetpoint),
			fmt.Sprintf("%-10s %02dh%02dm", state, mins/60, mins%60),
		},
		DeviceURL:    "/devices/1/",
		BacklightURL: "/devices/1/backlight/toggle/",
		ModalName:    "#tempControl1",
	}}
}

func (s *Server) gravitySensors() []gravityRecord {
	// decimal columns are serialized as strings with ten places
	temp := fmt.Sprintf("%.10f", math.Round(s.beerTemp()*10)/10)

	return []gravityRecord{
		{
			DeviceName:     "Tilt Red",
			CurrentGravity: fmt.Sprintf("%.3f", s.gravity()),
			CurrentTemp:    &temp,
			TempFormat:     "C",
			TempString:     temp + "&deg; C",
			DeviceURL:      "/gravity/sensor/2/",
			ManageText:     "Manage Device",
			ManageURL:      "/gravity/sensor/2/",
			BoundDevice:    boundDevice{ID: 1, Name: "Fermentation Fridge"},
			ModalName:      "#gravSensor2",
		},
		{
			DeviceName:     "Manual Hydrometer",
			CurrentGravity: "-.---",
			TempFormat:     "C",
			TempString:     "--.-&deg; C",
			DeviceURL:      "/gravity/sensor/3/",
			ManageText:     "Add Gravity Point",
			ManageURL:      "/gravity/sensor/3/add_point/",
			ModalName:      "#gravSensor3",
		},
	}
}
