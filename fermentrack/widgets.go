// Package fermentrack provides typed widgets for the Fermentrack JSON API.
//
// The API is polled anonymously; the widgets add no authentication headers.
package fermentrack

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jpalmerr/pollwidget"
)

const (
	// LCDPath lists the virtual LCDs of every temperature controller.
	LCDPath = "/api/lcd/"

	// GravityPath lists the latest reading of every gravity sensor.
	GravityPath = "/api/gravity/"

	// LCDInterval is the cadence of the LCD widget.
	LCDInterval = 5 * time.Second

	// GravityInterval is the cadence of the gravity widget.
	GravityInterval = 10 * time.Second

	// KindLabel is the label key renderers use to pick a layout.
	KindLabel = "kind"

	KindLCD     = "lcd"
	KindGravity = "gravity"
)

// NewLCDWidget creates a widget that polls baseURL + [LCDPath] every
// [LCDInterval]. Options are applied after the defaults, so callers may add
// labels or a timeout.
func NewLCDWidget(baseURL string, opts ...pollwidget.Option) (*pollwidget.Widget[[]LCDStatus], error) {
	endpoint, err := Endpoint(baseURL, LCDPath)
	if err != nil {
		return nil, err
	}
	return pollwidget.NewWidget[[]LCDStatus](KindLCD, endpoint, LCDInterval, withKind(KindLCD, opts)...)
}

// NewGravityWidget creates a widget that polls baseURL + [GravityPath]
// every [GravityInterval].
func NewGravityWidget(baseURL string, opts ...pollwidget.Option) (*pollwidget.Widget[[]GravitySensor], error) {
	endpoint, err := Endpoint(baseURL, GravityPath)
	if err != nil {
		return nil, err
	}
	return pollwidget.NewWidget[[]GravitySensor](KindGravity, endpoint, GravityInterval, withKind(KindGravity, opts)...)
}

// LCDDevicePath returns the path of a single controller's LCD. The response
// is still a one-element list.
func LCDDevicePath(deviceID int) string {
	return LCDPath + strconv.Itoa(deviceID)
}

// GravityDevicePath returns the path of a single gravity sensor. The
// response is a one-element list, or empty if no such sensor exists.
func GravityDevicePath(deviceID int) string {
	return GravityPath + strconv.Itoa(deviceID) + "/"
}

// Endpoint resolves an API path against a Fermentrack base URL, keeping any
// prefix the installation is mounted under.
func Endpoint(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("base URL %q must be absolute", baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

func withKind(kind string, opts []pollwidget.Option) []pollwidget.Option {
	return append([]pollwidget.Option{pollwidget.WithLabels(KindLabel, kind)}, opts...)
}
