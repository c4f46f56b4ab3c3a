package position

import (
	"context"
	"errors"
	"fmt"

	"campusnav/pkg/floorplan"
)

// FixSource is the sensor boundary for satellite fixes: it yields a GPS
// coordinate and a reported accuracy radius in meters.
type FixSource interface {
	Fix(ctx context.Context) (floorplan.GeoPoint, float64, error)
}

// GPSProvider converts GPS fixes into normalized floor-plan positions
// via the corner calibration.
type GPSProvider struct {
	source FixSource
	cal    floorplan.Calibration
}

// NewGPSProvider creates a GPS positioning provider.
func NewGPSProvider(source FixSource, cal floorplan.Calibration) *GPSProvider {
	return &GPSProvider{source: source, cal: cal}
}

// Position gets a fix and maps it onto the image. Fixes outside the
// calibrated campus are unusable, reported as unavailable so the hybrid
// provider can fall through to the next method.
func (p *GPSProvider) Position(ctx context.Context) (Position, error) {
	fix, accuracyMeters, err := p.source.Fix(ctx)
	if err != nil {
		return Position{}, fmt.Errorf("gps fix: %w", err)
	}
	at, err := p.cal.FromGeo(fix)
	if err != nil {
		if errors.Is(err, floorplan.ErrUnmapped) {
			return Position{}, fmt.Errorf("%w: gps fix off campus", ErrUnavailable)
		}
		return Position{}, err
	}

	// Map the reported radius onto 0..1 confidence: 0 m is perfect,
	// 100 m or worse is unusable.
	accuracy := 1 - accuracyMeters/100
	if accuracy < 0 {
		accuracy = 0
	}
	return Position{At: at, Accuracy: accuracy, Method: MethodGPS}, nil
}
