// Package position estimates where the user is on the floor plan. Raw
// sensor access stays outside: providers consume injected scan and fix
// sources, so tests substitute fakes without touching process-wide state.
package position

import (
	"context"
	"errors"

	"github.com/paulmach/orb"
)

// ErrUnavailable is returned when no positioning method can produce an
// estimate and no last known position exists.
var ErrUnavailable = errors.New("location unavailable")

// Method tags how a position estimate was produced.
type Method string

const (
	MethodWiFi    Method = "wifi"
	MethodGPS     Method = "gps"
	MethodHybrid  Method = "hybrid"
	MethodIPGeo   Method = "ip-geolocation"
	MethodManual  Method = "manual"
	MethodBrowser Method = "browser"
)

// Position is a best-effort location estimate in normalized image space.
type Position struct {
	At       orb.Point `json:"coordinates"`
	Accuracy float64   `json:"accuracy"` // confidence, 0..1
	Method   Method    `json:"method"`
}

// Provider produces position estimates.
type Provider interface {
	Position(ctx context.Context) (Position, error)
}
