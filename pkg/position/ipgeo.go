package position

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"campusnav/pkg/floorplan"
)

// DefaultIPGeoURL is the free ip-api.com endpoint, no API key required.
const DefaultIPGeoURL = "http://ip-api.com/json/?fields=status,message,lat,lon"

// ipGeoAccuracy is the fixed confidence assigned to IP-derived
// positions; city-level precision is coarse for indoor use.
const ipGeoAccuracy = 0.3

// IPGeoProvider estimates position from the caller's public IP. It is a
// coarse last resort when neither Wi-Fi nor GPS produces anything.
type IPGeoProvider struct {
	url    string
	client *http.Client
	cal    floorplan.Calibration
}

// NewIPGeoProvider creates an IP geolocation provider. An empty url
// selects DefaultIPGeoURL.
func NewIPGeoProvider(url string, cal floorplan.Calibration) *IPGeoProvider {
	if url == "" {
		url = DefaultIPGeoURL
	}
	return &IPGeoProvider{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
		cal:    cal,
	}
}

type ipGeoResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Position queries the geolocation service and maps the result onto the
// floor plan.
func (p *IPGeoProvider) Position(ctx context.Context) (Position, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return Position{}, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return Position{}, fmt.Errorf("ip geolocation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Position{}, fmt.Errorf("ip geolocation: status %d", resp.StatusCode)
	}

	var body ipGeoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Position{}, fmt.Errorf("ip geolocation: %w", err)
	}
	if body.Status != "success" {
		return Position{}, fmt.Errorf("ip geolocation: %s", body.Message)
	}

	at, err := p.cal.FromGeo(floorplan.GeoPoint{Lat: body.Lat, Lon: body.Lon})
	if err != nil {
		return Position{}, fmt.Errorf("%w: ip location off campus", ErrUnavailable)
	}
	return Position{At: at, Accuracy: ipGeoAccuracy, Method: MethodIPGeo}, nil
}
