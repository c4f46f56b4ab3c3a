package position

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// Network is one observation of a Wi-Fi access point.
type Network struct {
	SSID      string `json:"ssid"`
	BSSID     string `json:"bssid"`
	RSSI      int    `json:"rssi"` // signal strength in dBm
	Frequency int    `json:"frequency"`
}

// Fingerprint records what the radio environment looked like at a known
// point, collected during a survey walk.
type Fingerprint struct {
	ID         string    `json:"id"`
	LocationID string    `json:"locationId"`
	At         orb.Point `json:"coordinates"`
	Networks   []Network `json:"networks"`
	Taken      time.Time `json:"timestamp"`
}

// Scanner is the sensor boundary: something that can list visible
// networks right now.
type Scanner interface {
	Scan(ctx context.Context) ([]Network, error)
}

// FingerprintStore holds survey fingerprints in memory. It is
// constructed and injected rather than shared as package state.
type FingerprintStore struct {
	fingerprints []Fingerprint
}

// NewFingerprintStore creates an empty store.
func NewFingerprintStore() *FingerprintStore {
	return &FingerprintStore{}
}

// Add appends a fingerprint.
func (s *FingerprintStore) Add(fp Fingerprint) { s.fingerprints = append(s.fingerprints, fp) }

// All returns the stored fingerprints.
func (s *FingerprintStore) All() []Fingerprint { return s.fingerprints }

// Len returns the fingerprint count.
func (s *FingerprintStore) Len() int { return len(s.fingerprints) }

// Clear removes everything.
func (s *FingerprintStore) Clear() { s.fingerprints = nil }

// WiFiProvider estimates position from Wi-Fi fingerprints using weighted
// k-nearest neighbors over RSSI similarity.
type WiFiProvider struct {
	scanner Scanner
	store   *FingerprintStore
}

// NewWiFiProvider creates a Wi-Fi positioning provider.
func NewWiFiProvider(scanner Scanner, store *FingerprintStore) *WiFiProvider {
	return &WiFiProvider{scanner: scanner, store: store}
}

// CollectFingerprint scans and records a fingerprint at a known point.
func (p *WiFiProvider) CollectFingerprint(ctx context.Context, locationID string, at orb.Point) (Fingerprint, error) {
	networks, err := p.scanner.Scan(ctx)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("wifi scan: %w", err)
	}
	if len(networks) == 0 {
		return Fingerprint{}, fmt.Errorf("wifi scan saw no networks: %w", ErrUnavailable)
	}
	fp := Fingerprint{
		ID:         uuid.NewString(),
		LocationID: locationID,
		At:         at,
		Networks:   networks,
		Taken:      time.Now(),
	}
	p.store.Add(fp)
	return fp, nil
}

// Position matches the current scan against stored fingerprints: the top
// three by similarity vote with their similarity as weight. Accuracy is
// the best match's similarity.
func (p *WiFiProvider) Position(ctx context.Context) (Position, error) {
	if p.store.Len() == 0 {
		return Position{}, fmt.Errorf("no fingerprints collected: %w", ErrUnavailable)
	}
	networks, err := p.scanner.Scan(ctx)
	if err != nil {
		return Position{}, fmt.Errorf("wifi scan: %w", err)
	}
	if len(networks) == 0 {
		return Position{}, ErrUnavailable
	}

	type match struct {
		fp  Fingerprint
		sim float64
	}
	var best []match
	for _, fp := range p.store.All() {
		if sim := similarity(networks, fp.Networks); sim > 0 {
			best = append(best, match{fp, sim})
		}
	}
	if len(best) == 0 {
		return Position{}, ErrUnavailable
	}

	// Stable partial sort: top 3 by similarity.
	for i := 0; i < len(best) && i < 3; i++ {
		for j := i + 1; j < len(best); j++ {
			if best[j].sim > best[i].sim {
				best[i], best[j] = best[j], best[i]
			}
		}
	}
	if len(best) > 3 {
		best = best[:3]
	}

	var totalWeight, x, y float64
	for _, m := range best {
		totalWeight += m.sim
		x += m.fp.At[0] * m.sim
		y += m.fp.At[1] * m.sim
	}

	accuracy := best[0].sim
	if accuracy > 1 {
		accuracy = 1
	}
	return Position{
		At:       orb.Point{x / totalWeight, y / totalWeight},
		Accuracy: accuracy,
		Method:   MethodWiFi,
	}, nil
}

// similarity scores two scans by average RSSI difference over BSSIDs
// they share, mapped so a 100 dBm average difference scores zero.
func similarity(a, b []Network) float64 {
	byBSSID := make(map[string]int, len(a))
	for _, n := range a {
		byBSSID[n.BSSID] = n.RSSI
	}

	common := 0
	totalDiff := 0.0
	for _, n := range b {
		rssi, ok := byBSSID[n.BSSID]
		if !ok {
			continue
		}
		common++
		diff := float64(rssi - n.RSSI)
		if diff < 0 {
			diff = -diff
		}
		totalDiff += diff
	}
	if common == 0 {
		return 0
	}

	sim := 1 - totalDiff/float64(common)/100
	if sim < 0 {
		return 0
	}
	return sim
}
